package domain

// GameContext is the transient per-analysis bundle assembled from team,
// schedule, injury, and weather data. It exists only for the duration of one
// edge run; nothing persists it.
type GameContext struct {
	Game     Game
	Team     string
	Opponent string
	IsHome   bool

	// Situational
	RestDaysTeam     int
	RestDaysOpponent int
	TravelMiles      float64
	TimeZonesCrossed int
	Divisional       bool
	Rivalry          bool
	Revenge          bool
	ATSLastFive      []bool // true = cover, most recent last

	// Emotional
	PlayoffElimination bool
	PlayoffClinch      bool
	SeedingImplication bool
	NewHeadCoach       bool
	KeyStarReturning   bool

	// Weather, nil when no forecast was captured (or dome)
	Weather *WeatherReport

	// Injuries for this team only, already filtered for staleness
	Injuries []InjuryReport
}

// RestAdvantageDays is the team's rest differential over the opponent,
// floored at zero.
func (c GameContext) RestAdvantageDays() int {
	d := c.RestDaysTeam - c.RestDaysOpponent
	if d < 0 {
		return 0
	}
	return d
}

// ATSRecord returns covers and losses over the tracked last-5 window.
func (c GameContext) ATSRecord() (covers, losses int) {
	for _, covered := range c.ATSLastFive {
		if covered {
			covers++
		} else {
			losses++
		}
	}
	return covers, losses
}

// InjuryPointTotal sums net injury point values for the team.
func (c GameContext) InjuryPointTotal() float64 {
	var total float64
	for _, inj := range c.Injuries {
		total += inj.NetPointValue()
	}
	return total
}
