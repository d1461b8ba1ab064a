// Package results settles open predictions against final scores and grades
// each bet's closing line value. Settlement is write-once: a prediction that
// has a settled bet row is never regraded.
package results

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/infra"
	"github.com/sharpline/platform/internal/repository"
)

// Checker grades one league-week of open predictions.
type Checker struct {
	pool        *pgxpool.Pool
	games       repository.GameRepository
	odds        repository.OddsRepository
	predictions repository.PredictionRepository
	settled     repository.SettledBetRepository
	events      *infra.EventPublisher
	logger      *slog.Logger
	now         func() time.Time
}

// NewChecker wires the results checker to the store.
func NewChecker(
	pool *pgxpool.Pool,
	games repository.GameRepository,
	odds repository.OddsRepository,
	predictions repository.PredictionRepository,
	settled repository.SettledBetRepository,
	events *infra.EventPublisher,
	logger *slog.Logger,
) *Checker {
	return &Checker{
		pool:        pool,
		games:       games,
		odds:        odds,
		predictions: predictions,
		settled:     settled,
		events:      events,
		logger:      logger,
		now:         time.Now,
	}
}

// Run settles the week's open predictions and returns the aggregate report.
// Returns DATA_UNAVAILABLE when the week has no finished or canceled games
// yet, so callers can distinguish "nothing to do yet" from failure. Dry runs
// grade and report without writing or publishing.
func (c *Checker) Run(ctx context.Context, league domain.League, season, week int, dryRun bool) (*domain.WeekReport, error) {
	games, err := c.games.ListByWeek(ctx, c.pool, league, season, week)
	if err != nil {
		return nil, fmt.Errorf("load week %d games: %w", week, err)
	}
	// Finals grade normally; canceled games void their tickets. Scheduled,
	// in-progress, and postponed games leave predictions open.
	settleable := make(map[string]domain.Game, len(games))
	for _, g := range games {
		if g.Final() || g.Status == domain.GameCanceled {
			settleable[g.GameID] = g
		}
	}
	if len(settleable) == 0 {
		return nil, domain.ErrDataUnavailable(fmt.Sprintf("no settleable games for %s %d week %d", league, season, week))
	}

	open, err := c.predictions.ListOpenByWeek(ctx, c.pool, league, season, week)
	if err != nil {
		return nil, fmt.Errorf("load open predictions: %w", err)
	}

	report := &domain.WeekReport{
		League:      league,
		Season:      season,
		Week:        week,
		GeneratedAt: c.now().UTC(),
	}
	var staked, clvSum, beatClose float64
	var graded int

	for _, p := range open {
		if !p.Playable() {
			// Below-floor predictions carry no bet; just close them out.
			if !dryRun {
				if err := c.predictions.MarkSettled(ctx, c.pool, p.ID); err != nil {
					return nil, fmt.Errorf("mark prediction %s settled: %w", p.GameID, err)
				}
			}
			continue
		}

		game, ok := settleable[p.GameID]
		if !ok {
			report.Unmatched++
			c.logger.Warn("prediction has no final score yet", "game_id", p.GameID)
			continue
		}

		bet := c.grade(ctx, p, game)
		if !dryRun {
			inserted, err := c.settled.InsertIfAbsent(ctx, c.pool, bet)
			if err != nil {
				return nil, fmt.Errorf("settle prediction %s: %w", p.GameID, err)
			}
			if !inserted {
				c.logger.Debug("prediction already settled", "game_id", p.GameID)
				continue
			}
			if err := c.predictions.MarkSettled(ctx, c.pool, p.ID); err != nil {
				return nil, fmt.Errorf("mark prediction %s settled: %w", p.GameID, err)
			}
		}

		switch bet.Result {
		case domain.BetWin:
			report.Wins++
		case domain.BetLoss:
			report.Losses++
		case domain.BetPush:
			report.Pushes++
		case domain.BetVoid:
			report.Voids++
		}
		report.Units += bet.Profit
		if bet.Result != domain.BetVoid {
			staked += p.StakeUnits
			clvSum += bet.CLV
			if bet.CLV > 0 {
				beatClose++
			}
			graded++
		}

		if dryRun {
			continue
		}
		c.events.Publish(ctx, domain.TopicBetSettled, p.GameID, domain.BetSettledEvent{
			PredictionID: p.ID,
			GameID:       p.GameID,
			Result:       bet.Result,
			Profit:       bet.Profit,
			CLV:          bet.CLV,
			SettledAt:    bet.SettledAt,
		})
	}

	if staked > 0 {
		report.ROIPercent = report.Units / staked * 100
	}
	if graded > 0 {
		report.AvgCLV = clvSum / float64(graded)
		report.BeatClosePct = beatClose / float64(graded) * 100
	}

	c.logger.Info("settlement complete",
		"league", league, "season", season, "week", week,
		"wins", report.Wins, "losses", report.Losses, "pushes", report.Pushes,
		"units", report.Units, "avg_clv", report.AvgCLV, "unmatched", report.Unmatched)
	return report, nil
}

func (c *Checker) grade(ctx context.Context, p domain.Prediction, game domain.Game) domain.SettledBet {
	// A canceled game refunds the ticket: no result, no profit, no CLV.
	if game.Status != domain.GameFinal {
		return domain.SettledBet{
			PredictionID: p.ID,
			GameID:       p.GameID,
			Result:       domain.BetVoid,
			ClosingLine:  p.MarketSpread,
			SettledAt:    c.now().UTC(),
		}
	}

	result := Grade(p.Side, p.MarketSpread, game.HomeMargin())

	closingLine := p.MarketSpread
	if closing, err := c.odds.Closing(ctx, c.pool, p.GameID, game.Kickoff); err != nil {
		c.logger.Warn("closing line lookup failed", "game_id", p.GameID, "error", err)
	} else if closing != nil {
		closingLine = closing.HomeSpread
	}

	return domain.SettledBet{
		PredictionID: p.ID,
		GameID:       p.GameID,
		Result:       result,
		Profit:       Profit(result, p.StakeUnits, p.MarketPrice),
		CLV:          ClosingLineValue(p.Side, p.MarketSpread, closingLine),
		ClosingLine:  closingLine,
		SettledAt:    c.now().UTC(),
	}
}

// Grade decides the bet outcome from the taken home spread and the final
// home margin. A home bet covers when margin plus spread is positive; landing
// exactly on the number is a push.
func Grade(side domain.BetSide, takenHomeSpread float64, homeMargin int) domain.BetResult {
	cover := float64(homeMargin) + takenHomeSpread
	switch {
	case cover == 0:
		return domain.BetPush
	case side == domain.SideHome && cover > 0:
		return domain.BetWin
	case side == domain.SideAway && cover < 0:
		return domain.BetWin
	default:
		return domain.BetLoss
	}
}

// Profit returns the signed unit result: wins pay the decimal odds at the
// taken price, losses forfeit the stake, pushes and voids return it.
func Profit(result domain.BetResult, stakeUnits float64, price int) float64 {
	switch result {
	case domain.BetWin:
		return stakeUnits * domain.AmericanToDecimal(price)
	case domain.BetLoss:
		return -stakeUnits
	default:
		return 0
	}
}

// ClosingLineValue is the points gained against the closing line, sign
// corrected for the side: positive always means the taken number beat the
// close.
func ClosingLineValue(side domain.BetSide, takenHomeSpread, closingHomeSpread float64) float64 {
	clv := closingHomeSpread - takenHomeSpread
	if side == domain.SideHome {
		clv = -clv
	}
	return clv
}
