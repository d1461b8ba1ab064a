package normalize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sharpline/platform/internal/domain"
	"gopkg.in/yaml.v3"
)

// teamMappingFile is the on-disk YAML shape:
//
//	league: nfl
//	teams:
//	  - team_id: GB
//	    name: Green Bay Packers
//	    abbreviation: GB
//	    conference: NFC
//	    division: North
//	    aliases:
//	      espn: Green Bay Packers
//	      oddsapi: Green Bay Packers
//	      massey: Green Bay
type teamMappingFile struct {
	League string `yaml:"league"`
	Teams  []struct {
		TeamID       string            `yaml:"team_id"`
		Name         string            `yaml:"name"`
		Abbreviation string            `yaml:"abbreviation"`
		Conference   string            `yaml:"conference"`
		Division     string            `yaml:"division"`
		Aliases      map[string]string `yaml:"aliases"`
	} `yaml:"teams"`
}

// TeamMapper reconciles source team names to canonical team ids. Missing
// mappings are hard errors for critical sources (odds, power ratings) and
// warnings for optional ones (weather, injuries).
type TeamMapper struct {
	league domain.League
	// (source, lowercased source name) -> team id
	bySource map[string]string
	teams    map[string]domain.Team
}

// CriticalMappingSources require every name to resolve.
var CriticalMappingSources = map[string]bool{
	"oddsapi": true,
	"massey":  true,
}

// LoadTeamMapper reads the league's mapping file from the config directory.
func LoadTeamMapper(configDir string, league domain.League, season int) (*TeamMapper, error) {
	path := filepath.Join(configDir, fmt.Sprintf("teams_%s.yaml", league))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read team mapping %s: %w", path, err)
	}

	var file teamMappingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse team mapping %s: %w", path, err)
	}
	if file.League != string(league) {
		return nil, fmt.Errorf("team mapping %s declares league %q, want %q", path, file.League, league)
	}

	m := &TeamMapper{
		league:   league,
		bySource: make(map[string]string),
		teams:    make(map[string]domain.Team),
	}
	for _, t := range file.Teams {
		if t.TeamID == "" {
			return nil, fmt.Errorf("team mapping %s: entry %q missing team_id", path, t.Name)
		}
		m.teams[t.TeamID] = domain.Team{
			League:       league,
			TeamID:       t.TeamID,
			Season:       season,
			Name:         t.Name,
			Abbreviation: t.Abbreviation,
			Conference:   t.Conference,
			Division:     t.Division,
		}
		// The canonical name and abbreviation resolve for every source.
		m.bySource[mappingKey("*", t.Name)] = t.TeamID
		m.bySource[mappingKey("*", t.Abbreviation)] = t.TeamID
		for source, alias := range t.Aliases {
			m.bySource[mappingKey(source, alias)] = t.TeamID
		}
	}
	return m, nil
}

func mappingKey(source, name string) string {
	return source + "|" + strings.ToLower(strings.TrimSpace(name))
}

// Resolve maps a source team name to its canonical id. For critical sources
// a missing mapping returns a validation error; optional sources get
// ("", false) and the caller logs a warning.
func (m *TeamMapper) Resolve(source, name string) (string, bool, error) {
	if id, ok := m.bySource[mappingKey(source, name)]; ok {
		return id, true, nil
	}
	if id, ok := m.bySource[mappingKey("*", name)]; ok {
		return id, true, nil
	}
	if CriticalMappingSources[source] {
		return "", false, domain.ErrValidation(
			fmt.Sprintf("unmapped %s team name %q for league %s", source, name, m.league))
	}
	return "", false, nil
}

// Teams returns all canonical teams for the league.
func (m *TeamMapper) Teams() []domain.Team {
	out := make([]domain.Team, 0, len(m.teams))
	for _, t := range m.teams {
		out = append(out, t)
	}
	return out
}

// Team returns the canonical team record by id.
func (m *TeamMapper) Team(id string) (domain.Team, bool) {
	t, ok := m.teams[id]
	return t, ok
}
