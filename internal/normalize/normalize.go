// Package normalize maps source-vocabulary adapter records onto canonical
// entities. Adapters never touch the store directly; everything passes
// through here so team identity, week numbers, and structural invariants are
// applied in one place.
package normalize

import (
	"log/slog"
	"math"
	"strings"

	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/provider"
)

// Normalizer converts provider batches into domain entities.
type Normalizer struct {
	mapper   *TeamMapper
	calendar *SeasonCalendar
	logger   *slog.Logger
}

// New creates a normalizer bound to one league's mapping and calendar.
func New(mapper *TeamMapper, calendar *SeasonCalendar, logger *slog.Logger) *Normalizer {
	return &Normalizer{mapper: mapper, calendar: calendar, logger: logger}
}

// Games converts scoreboard records. Unmapped team names are per-record
// errors (the scoreboard feeds game identity, so they cannot be guessed).
func (n *Normalizer) Games(batch *provider.Batch[provider.ScoreboardGame]) ([]domain.Game, []error) {
	var games []domain.Game
	var errs []error

	for _, sg := range batch.Records {
		home, okH, _ := n.mapper.Resolve(batch.Source, sg.HomeName)
		if !okH {
			home, okH, _ = n.mapper.Resolve(batch.Source, sg.HomeAbbr)
		}
		away, okA, _ := n.mapper.Resolve(batch.Source, sg.AwayName)
		if !okA {
			away, okA, _ = n.mapper.Resolve(batch.Source, sg.AwayAbbr)
		}
		if !okH || !okA {
			errs = append(errs, domain.ErrValidation(
				"unmapped scoreboard teams: "+sg.AwayName+" at "+sg.HomeName))
			continue
		}

		week := sg.Week
		if week <= 0 {
			week = n.calendar.WeekOf(sg.Kickoff)
		}

		game := domain.Game{
			GameID:    domain.BuildGameID(n.abbr(away), n.abbr(home), sg.Kickoff),
			League:    n.calendar.League,
			Season:    sg.Season,
			Week:      week,
			AwayTeam:  away,
			HomeTeam:  home,
			Kickoff:   sg.Kickoff,
			Venue:     sg.Venue,
			Indoor:    sg.Indoor,
			Status:    gameStatus(sg),
			HomeScore: sg.HomeScore,
			AwayScore: sg.AwayScore,
		}
		games = append(games, game)
	}
	return games, errs
}

func (n *Normalizer) abbr(teamID string) string {
	if t, ok := n.mapper.Team(teamID); ok && t.Abbreviation != "" {
		return t.Abbreviation
	}
	return teamID
}

func gameStatus(sg provider.ScoreboardGame) domain.GameStatus {
	switch {
	case sg.Completed:
		return domain.GameFinal
	case sg.State == "in":
		return domain.GameInProgress
	case strings.EqualFold(sg.State, "postponed"):
		return domain.GamePostponed
	case strings.EqualFold(sg.State, "canceled"):
		return domain.GameCanceled
	default:
		return domain.GameScheduled
	}
}

// Odds converts captured lines, joining them to known games by canonical
// team ids and kickoff date. Lines violating the spread mirror invariant are
// kept but flagged suspect; unmapped team names on this critical source are
// hard errors.
func (n *Normalizer) Odds(batch *provider.Batch[provider.GameLine], gamesByID map[string]domain.Game) ([]domain.Odds, []error) {
	var odds []domain.Odds
	var errs []error

	for _, line := range batch.Records {
		home, _, err := n.mapper.Resolve(batch.Source, line.HomeName)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		away, _, err := n.mapper.Resolve(batch.Source, line.AwayName)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		gameID := domain.BuildGameID(n.abbr(away), n.abbr(home), line.Kickoff)
		if _, ok := gamesByID[gameID]; !ok {
			errs = append(errs, domain.ErrNotFound("game for odds line", gameID))
			continue
		}

		o := domain.Odds{
			GameID:        gameID,
			Sportsbook:    line.Sportsbook,
			CapturedAt:    line.CapturedAt,
			HomeSpread:    line.HomeSpread,
			AwaySpread:    line.AwaySpread,
			Total:         line.Total,
			HomeMoneyline: line.HomeMoneyline,
			AwayMoneyline: line.AwayMoneyline,
			Source:        line.Source,
		}
		if !o.Consistent() {
			o.Suspect = true
			n.logger.Warn("suspect odds row stored",
				"game_id", gameID, "book", line.Sportsbook,
				"home_spread", o.HomeSpread, "away_spread", o.AwaySpread, "total", o.Total)
		}
		odds = append(odds, o)
	}
	return odds, errs
}

// Injuries converts raw injury entries. Unmapped teams are warnings on this
// optional source; the record is skipped.
func (n *Normalizer) Injuries(batch *provider.Batch[provider.TeamInjury]) ([]domain.InjuryReport, []error) {
	var reports []domain.InjuryReport
	var errs []error

	for _, inj := range batch.Records {
		team, ok, _ := n.mapper.Resolve(batch.Source, inj.TeamName)
		if !ok {
			n.logger.Warn("unmapped injury team skipped", "team", inj.TeamName)
			continue
		}
		severity, points := classifyInjury(inj.Status, inj.Position)
		reports = append(reports, domain.InjuryReport{
			League:           n.calendar.League,
			Team:             team,
			PlayerName:       inj.PlayerName,
			Position:         inj.Position,
			Status:           inj.Status,
			Severity:         severity,
			PointValue:       points,
			ReplacementValue: points * replacementShare(inj.Position),
			Confidence:       severityConfidence(severity),
			Source:           inj.Source,
			CapturedAt:       inj.CapturedAt,
		})
	}
	return reports, errs
}

// positionPoints is the full spread value of a starter at each position.
var positionPoints = map[string]float64{
	"QB": 7.0,
	"RB": 2.0,
	"WR": 2.0,
	"TE": 1.5,
	"OT": 1.5, "OG": 1.0, "C": 1.0,
	"DE": 1.5, "DT": 1.0,
	"LB": 1.5,
	"CB": 2.0, "S": 1.5,
	"K": 0.5, "P": 0.25,
}

func classifyInjury(status, position string) (domain.InjurySeverity, float64) {
	base, ok := positionPoints[strings.ToUpper(position)]
	if !ok {
		base = 1.0
	}
	switch strings.ToLower(status) {
	case "out", "injured reserve", "ir", "suspension":
		return domain.InjurySevere, base
	case "doubtful":
		return domain.InjuryModerate, base * 0.75
	case "questionable":
		return domain.InjuryMinor, base * 0.4
	default:
		return domain.InjuryHealthy, 0
	}
}

func replacementShare(position string) float64 {
	// Backup quarterbacks recover far less of the starter's value than
	// backups at other positions.
	if strings.ToUpper(position) == "QB" {
		return 0.3
	}
	return 0.6
}

func severityConfidence(s domain.InjurySeverity) float64 {
	switch s {
	case domain.InjurySevere:
		return 0.95
	case domain.InjuryModerate:
		return 0.7
	case domain.InjuryMinor:
		return 0.5
	default:
		return 1.0
	}
}

// Weather converts a forecast into a report for one game.
func (n *Normalizer) Weather(gameID string, indoor bool, fc *provider.Forecast) domain.WeatherReport {
	return domain.WeatherReport{
		GameID:            gameID,
		CapturedAt:        fc.CapturedAt,
		TempF:             fc.TempF,
		WindMPH:           fc.WindMPH,
		Precipitation:     fc.Precipitation,
		PrecipProbability: fc.PrecipProb,
		Indoor:            indoor,
		Source:            fc.Source,
	}
}

// CompositeRatings converts a Massey-style batch into week-0 rating seeds.
// Unmapped teams on this critical source are hard errors.
func (n *Normalizer) CompositeRatings(batch *provider.Batch[provider.CompositeRating], season, week int) ([]domain.TeamRating, []error) {
	var ratings []domain.TeamRating
	var errs []error

	for _, cr := range batch.Records {
		team, _, err := n.mapper.Resolve(batch.Source, cr.TeamName)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if math.IsNaN(cr.Rating) || math.IsInf(cr.Rating, 0) {
			errs = append(errs, domain.ErrParse("non-finite rating for "+cr.TeamName, nil))
			continue
		}
		ratings = append(ratings, domain.TeamRating{
			League: n.calendar.League,
			Season: season,
			Week:   week,
			Team:   team,
			Rating: cr.Rating,
		})
	}
	return ratings, errs
}
