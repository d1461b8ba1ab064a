package normalize

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sharpline/platform/internal/domain"
	"gopkg.in/yaml.v3"
)

// calendarFile is the on-disk YAML shape:
//
//	league: nfl
//	season: 2025
//	weeks:
//	  - number: 1
//	    start: 2025-09-02
//	    end: 2025-09-08
type calendarFile struct {
	League string `yaml:"league"`
	Season int    `yaml:"season"`
	Weeks  []struct {
		Number int    `yaml:"number"`
		Start  string `yaml:"start"`
		End    string `yaml:"end"`
	} `yaml:"weeks"`
}

type weekWindow struct {
	number int
	start  time.Time
	end    time.Time
}

// SeasonCalendar derives week-of-season from kickoff dates. Games outside
// every configured window default to week 1 with a warning.
type SeasonCalendar struct {
	League domain.League
	Season int
	weeks  []weekWindow
	logger *slog.Logger
}

// LoadSeasonCalendar reads the league's calendar from the config directory.
func LoadSeasonCalendar(configDir string, league domain.League, logger *slog.Logger) (*SeasonCalendar, error) {
	path := filepath.Join(configDir, fmt.Sprintf("calendar_%s.yaml", league))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read season calendar %s: %w", path, err)
	}

	var file calendarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse season calendar %s: %w", path, err)
	}
	if len(file.Weeks) == 0 {
		return nil, fmt.Errorf("season calendar %s has no weeks", path)
	}

	cal := &SeasonCalendar{League: league, Season: file.Season, logger: logger}
	for _, w := range file.Weeks {
		start, err := time.Parse("2006-01-02", w.Start)
		if err != nil {
			return nil, fmt.Errorf("calendar week %d start: %w", w.Number, err)
		}
		end, err := time.Parse("2006-01-02", w.End)
		if err != nil {
			return nil, fmt.Errorf("calendar week %d end: %w", w.Number, err)
		}
		// The window is inclusive of the end date.
		cal.weeks = append(cal.weeks, weekWindow{
			number: w.Number,
			start:  start,
			end:    end.Add(24*time.Hour - time.Nanosecond),
		})
	}
	return cal, nil
}

// WeekOf returns the week containing the kickoff, defaulting to week 1 when
// the date falls outside every configured window.
func (c *SeasonCalendar) WeekOf(kickoff time.Time) int {
	for _, w := range c.weeks {
		if !kickoff.Before(w.start) && !kickoff.After(w.end) {
			return w.number
		}
	}
	c.logger.Warn("kickoff outside configured season weeks, defaulting to week 1",
		"league", c.League, "kickoff", kickoff)
	return 1
}

// CurrentWeek returns the week containing now, or the nearest upcoming week.
// Returns 0 when the season is over.
func (c *SeasonCalendar) CurrentWeek(now time.Time) int {
	for _, w := range c.weeks {
		if !now.Before(w.start) && !now.After(w.end) {
			return w.number
		}
	}
	for _, w := range c.weeks {
		if now.Before(w.start) {
			return w.number
		}
	}
	return 0
}

// LastWeek returns the highest configured week number.
func (c *SeasonCalendar) LastWeek() int {
	last := 0
	for _, w := range c.weeks {
		if w.number > last {
			last = w.number
		}
	}
	return last
}
