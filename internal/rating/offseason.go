package rating

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sharpline/platform/internal/domain"
)

// OffseasonConfig is the operator-maintained preseason input: prior-season
// final ratings plus signed offseason deltas per team. The file is authored
// once per offseason; the engine only composes it, never derives it.
type OffseasonConfig struct {
	League domain.League
	Season int
	Priors map[string]float64
	Deltas []domain.OffseasonDelta
}

type offseasonFile struct {
	League string             `yaml:"league"`
	Season int                `yaml:"season"`
	Priors map[string]float64 `yaml:"priors"`
	Deltas []struct {
		Team   string  `yaml:"team"`
		Kind   string  `yaml:"kind"`
		Points float64 `yaml:"points"`
	} `yaml:"deltas"`
}

// LoadOffseason reads offseason_<league>.yaml from the config directory.
func LoadOffseason(configDir string, league domain.League) (*OffseasonConfig, error) {
	path := filepath.Join(configDir, fmt.Sprintf("offseason_%s.yaml", league))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read offseason config %s: %w", path, err)
	}

	var file offseasonFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse offseason config %s: %w", path, err)
	}
	if file.League != string(league) {
		return nil, fmt.Errorf("offseason config %s declares league %q, want %q", path, file.League, league)
	}
	if file.Season <= 0 {
		return nil, fmt.Errorf("offseason config %s missing season", path)
	}
	if len(file.Priors) == 0 {
		return nil, fmt.Errorf("offseason config %s has no prior ratings", path)
	}

	cfg := &OffseasonConfig{
		League: league,
		Season: file.Season,
		Priors: file.Priors,
	}
	for i, d := range file.Deltas {
		if d.Team == "" {
			return nil, fmt.Errorf("offseason config %s: delta %d missing team", path, i)
		}
		if _, ok := file.Priors[d.Team]; !ok {
			return nil, fmt.Errorf("offseason config %s: delta for unknown team %q", path, d.Team)
		}
		cfg.Deltas = append(cfg.Deltas, domain.OffseasonDelta{
			League: league,
			Season: file.Season,
			Team:   d.Team,
			Kind:   d.Kind,
			Points: d.Points,
		})
	}
	return cfg, nil
}
