package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leetbot/domain/entities"
	"leetbot/domain/events"
	"leetbot/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// ErrCycleNotDue is returned when resolution is attempted before the resolution instant
var ErrCycleNotDue = errors.New("cycle is not due for resolution")

// resolutionService implements the ResolutionService interface
type resolutionService struct {
	cycleRepo      interfaces.CycleRepository
	betRepo        interfaces.BetRepository
	winRecordRepo  interfaces.WinRecordRepository
	rankRepo       interfaces.RankAssignmentRepository
	schedule       *Schedule
	targets        *TargetGenerator
	rules          GameRules
	clock          Clock
	eventPublisher interfaces.EventPublisher
}

// NewResolutionService creates a new resolution service
func NewResolutionService(
	cycleRepo interfaces.CycleRepository,
	betRepo interfaces.BetRepository,
	winRecordRepo interfaces.WinRecordRepository,
	rankRepo interfaces.RankAssignmentRepository,
	schedule *Schedule,
	targets *TargetGenerator,
	rules GameRules,
	clock Clock,
	eventPublisher interfaces.EventPublisher,
) interfaces.ResolutionService {
	return &resolutionService{
		cycleRepo:      cycleRepo,
		betRepo:        betRepo,
		winRecordRepo:  winRecordRepo,
		rankRepo:       rankRepo,
		schedule:       schedule,
		targets:        targets,
		rules:          rules,
		clock:          clock,
		eventPublisher: eventPublisher,
	}
}

// OpenCycle creates the cycle for startsAt and fixes its target
func (s *resolutionService) OpenCycle(ctx context.Context, guildID int64, startsAt time.Time) (*entities.Cycle, error) {
	return openCycle(ctx, s.cycleRepo, s.schedule, s.targets, guildID, startsAt)
}

// ResolveCycle selects the cycle's winner, appends the win record and recomputes ranks.
//
// An already resolved cycle returns its stored outcome. When the stored cycle cannot
// be resolved the cycle is closed without a winner and a
// *entities.ResolutionPreconditionError is returned alongside the result.
func (s *resolutionService) ResolveCycle(ctx context.Context, cycleID int64) (*interfaces.ResolutionResult, error) {
	cycle, err := s.cycleRepo.GetByIDForUpdate(ctx, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cycle: %w", err)
	}
	if cycle == nil {
		return nil, &entities.ResolutionPreconditionError{CycleID: cycleID, Reason: "cycle does not exist"}
	}

	if cycle.IsResolved() {
		return s.storedResult(ctx, cycle)
	}

	now := s.clock.Now()
	if now.Before(cycle.ResolvesAt()) {
		return nil, fmt.Errorf("cycle %d resolves at %s: %w", cycle.ID, cycle.ResolvesAt().Format(time.RFC3339), ErrCycleNotDue)
	}

	if cycle.ResolutionWindowMs <= 0 {
		preErr := &entities.ResolutionPreconditionError{CycleID: cycle.ID, Reason: "cycle has no resolution window"}
		result, err := s.closeWithoutWinner(ctx, cycle, now)
		if err != nil {
			return nil, err
		}
		return result, preErr
	}

	if !cycle.HasTarget() {
		target := s.targets.TargetFor(cycle)
		if err := s.cycleRepo.SetTarget(ctx, cycle.ID, target); err != nil {
			return nil, fmt.Errorf("failed to set cycle target: %w", err)
		}
		cycle.SetTarget(target)
		log.WithFields(log.Fields{
			"cycle_id": cycle.ID,
			"guild_id": cycle.GuildID,
		}).Warn("Cycle target was generated at resolution")
	}

	bets, err := s.betRepo.GetByCycle(ctx, cycle.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bets: %w", err)
	}

	winner := ResolveWinner(*cycle.TargetOffsetMs, bets, s.rules.PenaltyThresholdMs)
	gameDate := s.schedule.GameDate(cycle.StartsAt)

	var record *entities.WinRecord
	var winnerID *int64
	if winner != nil {
		record, err = s.winRecordRepo.Create(ctx, &entities.WinRecord{
			CycleID:        cycle.ID,
			GuildID:        cycle.GuildID,
			DiscordID:      winner.Bet.DiscordID,
			DisplayName:    winner.Bet.DisplayName,
			WinDate:        gameDate,
			OffsetMs:       winner.Bet.OffsetMs,
			TargetOffsetMs: *cycle.TargetOffsetMs,
			Class:          winner.Bet.Class,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to append win record: %w", err)
		}
		winnerID = &record.DiscordID
	}

	deltas, err := s.recomputeRanks(ctx, gameDate, winnerID)
	if err != nil {
		return nil, err
	}

	if err := s.cycleRepo.MarkResolved(ctx, cycle.ID, now, winnerID); err != nil {
		return nil, fmt.Errorf("failed to mark cycle resolved: %w", err)
	}
	cycle.MarkResolved(now, winnerID)

	result := &interfaces.ResolutionResult{
		Cycle:    cycle,
		Winner:   record,
		Deltas:   deltas,
		BetCount: len(bets),
	}
	s.publishResolution(result)

	fields := log.Fields{
		"cycle_id":         cycle.ID,
		"guild_id":         cycle.GuildID,
		"target_offset_ms": *cycle.TargetOffsetMs,
		"bet_count":        len(bets),
		"rank_changes":     len(deltas),
	}
	if record != nil {
		fields["winner_id"] = record.DiscordID
		fields["winner_class"] = record.Class
		fields["ms_before_target"] = record.MillisecondsBeforeTarget()
	}
	log.WithFields(fields).Info("Cycle resolved")

	return result, nil
}

// recomputeRanks runs the rank engine over the stored history and persists the changes
func (s *resolutionService) recomputeRanks(ctx context.Context, gameDate time.Time, winnerID *int64) ([]entities.AssignmentDelta, error) {
	periods := s.rules.Periods
	if periods.GeneralDays <= 0 || periods.CommanderDays <= 0 {
		periods = entities.DefaultRankPeriods()
	}
	longest := periods.GeneralDays
	if periods.CommanderDays > longest {
		longest = periods.CommanderDays
	}
	since, _ := WindowBounds(gameDate, longest)

	history, err := s.winRecordRepo.GetHistorySince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load win history: %w", err)
	}

	current, err := s.rankRepo.GetSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rank assignments: %w", err)
	}

	var todayWinner int64
	if winnerID != nil {
		todayWinner = *winnerID
	}

	ranks := RecomputeRanks(RankInput{
		Today:       gameDate,
		TodayWinner: todayWinner,
		History:     history,
		Current:     current,
		Periods:     periods,
	})

	if len(ranks.Deltas) > 0 {
		if err := s.rankRepo.ApplyDeltas(ctx, ranks.Deltas); err != nil {
			return nil, fmt.Errorf("failed to save rank assignments: %w", err)
		}
	}

	return ranks.Deltas, nil
}

// closeWithoutWinner rolls a cycle that cannot be resolved to its terminal state
func (s *resolutionService) closeWithoutWinner(ctx context.Context, cycle *entities.Cycle, now time.Time) (*interfaces.ResolutionResult, error) {
	if err := s.cycleRepo.MarkResolved(ctx, cycle.ID, now, nil); err != nil {
		return nil, fmt.Errorf("failed to mark cycle resolved: %w", err)
	}
	cycle.MarkResolved(now, nil)

	result := &interfaces.ResolutionResult{Cycle: cycle}
	s.publishResolution(result)
	return result, nil
}

// storedResult rebuilds the outcome of an already resolved cycle
func (s *resolutionService) storedResult(ctx context.Context, cycle *entities.Cycle) (*interfaces.ResolutionResult, error) {
	record, err := s.winRecordRepo.GetByCycle(ctx, cycle.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get win record: %w", err)
	}
	count, err := s.betRepo.CountByCycle(ctx, cycle.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count bets: %w", err)
	}

	return &interfaces.ResolutionResult{
		Cycle:           cycle,
		Winner:          record,
		BetCount:        count,
		AlreadyResolved: true,
	}, nil
}

func (s *resolutionService) publishResolution(result *interfaces.ResolutionResult) {
	cycle := result.Cycle

	changes := make([]events.RankChangedEvent, 0, len(result.Deltas))
	for _, delta := range result.Deltas {
		changes = append(changes, events.RankChangedEvent{
			GuildID:   cycle.GuildID,
			CycleID:   cycle.ID,
			Tier:      delta.Tier,
			OldHolder: delta.OldHolder,
			NewHolder: delta.NewHolder,
		})
	}

	var target int64
	if cycle.TargetOffsetMs != nil {
		target = *cycle.TargetOffsetMs
	}

	if err := s.eventPublisher.Publish(events.CycleResolvedEvent{
		GuildID:        cycle.GuildID,
		CycleID:        cycle.ID,
		StartsAt:       cycle.StartsAt,
		TargetOffsetMs: target,
		BetCount:       result.BetCount,
		Winner:         result.Winner,
		RankChanges:    changes,
	}); err != nil {
		log.WithFields(log.Fields{
			"cycle_id": cycle.ID,
			"error":    err,
		}).Error("Failed to publish cycle resolved event")
	}

	for _, change := range changes {
		if err := s.eventPublisher.Publish(change); err != nil {
			log.WithFields(log.Fields{
				"cycle_id": cycle.ID,
				"tier":     change.Tier,
				"error":    err,
			}).Error("Failed to publish rank changed event")
		}
	}
}
