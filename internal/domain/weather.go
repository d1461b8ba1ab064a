package domain

import "time"

// PrecipitationKind classifies forecast precipitation.
type PrecipitationKind string

const (
	PrecipNone PrecipitationKind = "none"
	PrecipRain PrecipitationKind = "rain"
	PrecipSnow PrecipitationKind = "snow"
)

// WeatherReport is a forecast snapshot for one game, keyed on
// (game_id, captured_at).
type WeatherReport struct {
	GameID          string            `json:"game_id"`
	CapturedAt      time.Time         `json:"captured_at"`
	TempF           float64           `json:"temp_f"`
	WindMPH         float64           `json:"wind_mph"`
	Precipitation   PrecipitationKind `json:"precipitation"`
	PrecipProbability float64         `json:"precip_probability"`
	Indoor          bool              `json:"indoor"`
	Source          string            `json:"source"`
}

// TotalAdjustment converts the forecast into a points delta on the game
// total. Wind brackets dominate; extreme cold stacks. Indoor games get no
// adjustment.
func (w WeatherReport) TotalAdjustment() float64 {
	if w.Indoor {
		return 0
	}
	var adj float64
	switch {
	case w.WindMPH >= 25:
		adj -= 7
	case w.WindMPH >= 20:
		adj -= 5
	case w.WindMPH >= 15:
		adj -= 3
	}
	if w.TempF < 20 {
		adj -= 3
	}
	return adj
}
