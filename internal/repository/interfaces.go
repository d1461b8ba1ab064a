package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sharpline/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// TeamRepository provides access to teams.
type TeamRepository interface {
	// Upsert writes a team on its (league, season, team_id) natural key.
	Upsert(ctx context.Context, db DBTX, team domain.Team) error

	// ListByLeague returns all teams for a league and season.
	ListByLeague(ctx context.Context, db DBTX, league domain.League, season int) ([]domain.Team, error)
}

// GameRepository provides access to games.
type GameRepository interface {
	// Upsert writes a game on its game_id.
	Upsert(ctx context.Context, db DBTX, game domain.Game) error

	// FindByID returns a game by its synthetic id.
	FindByID(ctx context.Context, db DBTX, gameID string) (*domain.Game, error)

	// ListByWeek returns all games for (league, season, week).
	ListByWeek(ctx context.Context, db DBTX, league domain.League, season, week int) ([]domain.Game, error)

	// ListFinalByWeek returns only status=final games with scores.
	ListFinalByWeek(ctx context.Context, db DBTX, league domain.League, season, week int) ([]domain.Game, error)

	// ListFinalThrough returns final games for all weeks <= week in
	// ascending (game_date, game_id) order, as required by rating updates.
	ListFinalThrough(ctx context.Context, db DBTX, league domain.League, season, week int) ([]domain.Game, error)

	// PreviousFinal returns a team's most recent final game with a kickoff
	// strictly before the given time, nil when none exists.
	PreviousFinal(ctx context.Context, db DBTX, league domain.League, team string, before time.Time) (*domain.Game, error)
}

// OddsRepository provides access to odds captures.
type OddsRepository interface {
	// Upsert writes an odds row on (game_id, sportsbook, captured_at);
	// identical captures deduplicate.
	Upsert(ctx context.Context, db DBTX, odds domain.Odds) error

	// LatestPerBook returns the most recent non-suspect capture per
	// sportsbook for a game, at or before the cutoff.
	LatestPerBook(ctx context.Context, db DBTX, gameID string, cutoff time.Time) ([]domain.Odds, error)

	// Closing returns the last non-suspect capture before kickoff across
	// all books (the closing line for CLV).
	Closing(ctx context.Context, db DBTX, gameID string, kickoff time.Time) (*domain.Odds, error)
}

// InjuryRepository provides access to injury reports.
type InjuryRepository interface {
	// Upsert writes a report on (team, player, captured_at).
	Upsert(ctx context.Context, db DBTX, report domain.InjuryReport) error

	// LatestByTeam returns each player's most recent report for a team,
	// excluding captures older than the staleness window relative to asOf.
	LatestByTeam(ctx context.Context, db DBTX, league domain.League, team string, asOf time.Time) ([]domain.InjuryReport, error)
}

// WeatherRepository provides access to weather reports.
type WeatherRepository interface {
	// Upsert writes a report on (game_id, captured_at).
	Upsert(ctx context.Context, db DBTX, report domain.WeatherReport) error

	// Latest returns the most recent report for a game at or before cutoff.
	Latest(ctx context.Context, db DBTX, gameID string, cutoff time.Time) (*domain.WeatherReport, error)
}

// RatingRepository provides access to team power ratings.
type RatingRepository interface {
	// Upsert writes a rating on (league, season, week, team).
	Upsert(ctx context.Context, db DBTX, rating domain.TeamRating) error

	// UpsertWeek writes a full week of ratings in one transaction so week
	// N+1 always reads a consistent snapshot.
	UpsertWeek(ctx context.Context, tx pgx.Tx, ratings []domain.TeamRating) error

	// AtWeek returns one team's rating at a week.
	AtWeek(ctx context.Context, db DBTX, league domain.League, season, week int, team string) (*domain.TeamRating, error)

	// ListWeek returns all ratings for (league, season, week).
	ListWeek(ctx context.Context, db DBTX, league domain.League, season, week int) ([]domain.TeamRating, error)

	// MaxWeek returns the highest week with stored ratings, -1 when none.
	MaxWeek(ctx context.Context, db DBTX, league domain.League, season int) (int, error)
}

// PredictionRepository provides access to predictions.
type PredictionRepository interface {
	// Insert writes a new prediction row. History is retained; the newest
	// row per (game_id, model_version) is the live one.
	Insert(ctx context.Context, db DBTX, p domain.Prediction) error

	// ListOpenByWeek returns pending/open predictions for (league, week),
	// latest per (game_id, model_version).
	ListOpenByWeek(ctx context.Context, db DBTX, league domain.League, season, week int) ([]domain.Prediction, error)

	// MarkSettled flips a prediction's status after settlement.
	MarkSettled(ctx context.Context, db DBTX, id uuid.UUID) error
}

// SettledBetRepository provides access to settled bets.
type SettledBetRepository interface {
	// InsertIfAbsent writes a settlement only when none exists for the
	// prediction; settlement is monotonic. Returns false when a row
	// already existed.
	InsertIfAbsent(ctx context.Context, db DBTX, bet domain.SettledBet) (bool, error)

	// ListByGameIDs returns settlements joined to their predictions for a
	// set of games.
	ListByPredictionIDs(ctx context.Context, db DBTX, ids []uuid.UUID) ([]domain.SettledBet, error)

	// RecentResults returns the most recent settled results for a team's
	// games, newest first, for ATS streak computation.
	RecentResults(ctx context.Context, db DBTX, league domain.League, team string, limit int) ([]domain.BetResult, error)
}

// SessionRepository provides access to collection sessions.
type SessionRepository interface {
	// Insert writes a new session row.
	Insert(ctx context.Context, db DBTX, s *domain.CollectionSession) error

	// Finish updates status, finish time, and the source breakdown.
	Finish(ctx context.Context, db DBTX, s *domain.CollectionSession) error

	// Latest returns the most recent session for a league, nil when none.
	Latest(ctx context.Context, db DBTX, league domain.League) (*domain.CollectionSession, error)
}
