// Package keynumbers holds per-league frequency tables of absolute victory
// margins. Certain margins (3 and 7 in the NFL) occur so often that crossing
// them is worth a measurable win-probability edge; the table quantifies it.
// Tables are configuration, one JSON file per league, validated on load.
package keynumbers

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/sharpline/platform/internal/domain"
)

type tableFile struct {
	League      string             `json:"league"`
	Frequencies map[string]float64 `json:"frequencies"`
}

// Table is one league's margin-frequency lookup.
type Table struct {
	league      domain.League
	frequencies map[int]float64
}

// Load reads and validates the league's table from the config directory.
func Load(configDir string, league domain.League) (*Table, error) {
	path := filepath.Join(configDir, fmt.Sprintf("keynumbers_%s.json", league))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key numbers %s: %w", path, err)
	}

	var file tableFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse key numbers %s: %w", path, err)
	}
	if file.League != string(league) {
		return nil, fmt.Errorf("key numbers %s declares league %q, want %q", path, file.League, league)
	}

	t := &Table{league: league, frequencies: make(map[int]float64)}
	var sum float64
	for margin, freq := range file.Frequencies {
		var m int
		if _, err := fmt.Sscanf(margin, "%d", &m); err != nil || m <= 0 {
			return nil, fmt.Errorf("key numbers %s: bad margin %q", path, margin)
		}
		if freq <= 0 || freq >= 1 {
			return nil, fmt.Errorf("key numbers %s: margin %d frequency %v outside (0,1)", path, m, freq)
		}
		t.frequencies[m] = freq
		sum += freq
	}
	if len(t.frequencies) == 0 {
		return nil, fmt.Errorf("key numbers %s: empty table", path)
	}
	if sum >= 1 {
		return nil, fmt.Errorf("key numbers %s: frequencies sum to %v, want < 1", path, sum)
	}
	return t, nil
}

// NewTable builds a table from explicit frequencies (tests, defaults).
func NewTable(league domain.League, frequencies map[int]float64) *Table {
	m := make(map[int]float64, len(frequencies))
	for k, v := range frequencies {
		m[k] = v
	}
	return &Table{league: league, frequencies: m}
}

// Frequency returns the margin's frequency, 0 when not a key number.
func (t *Table) Frequency(margin int) float64 {
	return t.frequencies[margin]
}

// EdgeValue returns the key numbers crossed moving from the market line to
// your line, plus their summed frequency as a win-probability edge. Lines
// are signed home spreads; key numbers live on the absolute-margin scale.
// The market endpoint is included (a market line sitting on a key converts
// pushes when you hold the better number); your endpoint is not.
func (t *Table) EdgeValue(yourLine, marketLine float64) ([]int, float64) {
	yours := math.Abs(yourLine)
	market := math.Abs(marketLine)
	if yours == market {
		return nil, 0
	}

	var keys []int
	var sum float64
	for margin, freq := range t.frequencies {
		m := float64(margin)
		crossed := (yours < market && m > yours && m <= market) ||
			(market < yours && m >= market && m < yours)
		if crossed {
			keys = append(keys, margin)
			sum += freq
		}
	}
	sort.Ints(keys)
	return keys, sum
}

// ShouldBuyHalfPoint reports whether paying priceDelta cents (for example 10
// when moving from -110 to -120) to move the line half a point is worth it
// at this number. The buy crosses a key number when the half-point window
// [|line|-0.5, |line|] touches it; landing exactly on the key converts
// losses to pushes and is worth half the key's frequency.
func (t *Table) ShouldBuyHalfPoint(line float64, priceDelta int) bool {
	if priceDelta < 0 {
		priceDelta = -priceDelta
	}

	abs := math.Abs(line)
	var value float64
	for margin, freq := range t.frequencies {
		m := float64(margin)
		switch {
		case m == abs || m == abs-0.5:
			value += freq / 2
		case m > abs-0.5 && m < abs:
			value += freq
		}
	}
	if value == 0 {
		return false
	}

	base := domain.ImpliedProbability(domain.StandardPrice)
	bought := domain.ImpliedProbability(domain.StandardPrice - priceDelta)
	cost := bought - base
	return value > cost
}

// DefaultNFL returns the exemplar NFL table.
func DefaultNFL() *Table {
	return NewTable(domain.LeagueNFL, map[int]float64{
		3: 0.08, 7: 0.06, 6: 0.045, 10: 0.045, 14: 0.04, 4: 0.035, 17: 0.03,
	})
}

// DefaultNCAAF returns the exemplar NCAAF table; college margins spread
// wider, so key numbers matter less.
func DefaultNCAAF() *Table {
	return NewTable(domain.LeagueNCAAF, map[int]float64{
		3: 0.07, 7: 0.05, 10: 0.04, 14: 0.035, 4: 0.03, 17: 0.028, 21: 0.025,
	})
}
