package domain

// League identifies a supported competition.
type League string

const (
	LeagueNFL   League = "nfl"
	LeagueNCAAF League = "ncaaf"
)

// Valid reports whether the league is one the pipeline collects.
func (l League) Valid() bool {
	return l == LeagueNFL || l == LeagueNCAAF
}

// HomeFieldAdvantage returns the league's default HFA in points. The NFL
// value is overridable via config (HFA_NFL).
func (l League) HomeFieldAdvantage() float64 {
	if l == LeagueNCAAF {
		return 3.5
	}
	return 2.5
}

// Team is the canonical team record for one season. Identity is
// (league, team_id); records are rebuilt per season.
type Team struct {
	League       League `json:"league"`
	TeamID       string `json:"team_id"`
	Season       int    `json:"season"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Conference   string `json:"conference,omitempty"`
	Division     string `json:"division,omitempty"`
}
