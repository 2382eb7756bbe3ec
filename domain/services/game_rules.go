package services

import (
	"context"
	"fmt"
	"time"

	"leetbot/domain/entities"
	"leetbot/domain/interfaces"
)

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a clock backed by time.Now
func SystemClock() Clock { return systemClock{} }

// GameRules holds the tunable rules of the game
type GameRules struct {
	PenaltyThresholdMs   int64
	AllowLateAdvanceBets bool
	Periods              entities.RankPeriods
}

// DefaultGameRules returns the standard rule set
func DefaultGameRules() GameRules {
	return GameRules{
		PenaltyThresholdMs: DefaultPenaltyThresholdMs,
		Periods:            entities.DefaultRankPeriods(),
	}
}

// openCycle returns the stored cycle for startsAt, creating it with its target if needed
func openCycle(
	ctx context.Context,
	cycleRepo interfaces.CycleRepository,
	schedule *Schedule,
	targets *TargetGenerator,
	guildID int64,
	startsAt time.Time,
) (*entities.Cycle, error) {
	cycle := &entities.Cycle{
		GuildID:            guildID,
		StartsAt:           startsAt.UTC(),
		EarlyWindowMs:      schedule.EarlyWindow().Milliseconds(),
		ResolutionWindowMs: schedule.ResolutionWindow().Milliseconds(),
	}
	cycle.SetTarget(targets.TargetFor(cycle))

	stored, err := cycleRepo.GetOrCreate(ctx, cycle)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create cycle: %w", err)
	}

	if !stored.HasTarget() && stored.ResolutionWindowMs > 0 {
		target := targets.TargetFor(stored)
		if err := cycleRepo.SetTarget(ctx, stored.ID, target); err != nil {
			return nil, fmt.Errorf("failed to set cycle target: %w", err)
		}
		stored.SetTarget(target)
	}

	return stored, nil
}
