package domain

// RatingHistoryLen caps the per-team rating history ring.
const RatingHistoryLen = 10

// TeamRating is a team's power rating as of a given week. Week 0 is the
// preseason seed (prior-season final plus offseason deltas); a record exists
// for every week >= 1 with completed games.
type TeamRating struct {
	League      League    `json:"league"`
	Season      int       `json:"season"`
	Week        int       `json:"week"`
	Team        string    `json:"team"`
	Rating      float64   `json:"rating"`
	GamesPlayed int       `json:"games_played"`
	History     []float64 `json:"history"`
}

// PushHistory appends a rating to the capped ring, dropping the oldest entry
// once the ring is full.
func (r *TeamRating) PushHistory(v float64) {
	r.History = append(r.History, v)
	if len(r.History) > RatingHistoryLen {
		r.History = r.History[len(r.History)-RatingHistoryLen:]
	}
}

// OffseasonDelta is a signed preseason rating input (draft class, free
// agency, coaching change, expected progression). Deltas are inputs to the
// preseason composition, never computed by the engine.
type OffseasonDelta struct {
	League League  `json:"league"`
	Season int     `json:"season"`
	Team   string  `json:"team"`
	Kind   string  `json:"kind"`
	Points float64 `json:"points"`
}
