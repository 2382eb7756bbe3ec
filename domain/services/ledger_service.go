package services

import (
	"context"
	"fmt"
	"time"

	"leetbot/domain/entities"
	"leetbot/domain/events"
	"leetbot/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// ledgerService implements the LedgerService interface
type ledgerService struct {
	cycleRepo         interfaces.CycleRepository
	betRepo           interfaces.BetRepository
	winRecordRepo     interfaces.WinRecordRepository
	guildSettingsRepo interfaces.GuildSettingsRepository
	schedule          *Schedule
	targets           *TargetGenerator
	rules             GameRules
	clock             Clock
	eventPublisher    interfaces.EventPublisher
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	cycleRepo interfaces.CycleRepository,
	betRepo interfaces.BetRepository,
	winRecordRepo interfaces.WinRecordRepository,
	guildSettingsRepo interfaces.GuildSettingsRepository,
	schedule *Schedule,
	targets *TargetGenerator,
	rules GameRules,
	clock Clock,
	eventPublisher interfaces.EventPublisher,
) interfaces.LedgerService {
	return &ledgerService{
		cycleRepo:         cycleRepo,
		betRepo:           betRepo,
		winRecordRepo:     winRecordRepo,
		guildSettingsRepo: guildSettingsRepo,
		schedule:          schedule,
		targets:           targets,
		rules:             rules,
		clock:             clock,
		eventPublisher:    eventPublisher,
	}
}

// SubmitBet validates and records a bet for the guild's current cycle
func (s *ledgerService) SubmitBet(ctx context.Context, req interfaces.SubmitBetRequest) (*entities.Bet, error) {
	if !req.Class.IsValid() {
		return nil, fmt.Errorf("invalid bet class: %q", req.Class)
	}

	settings, err := s.guildSettingsRepo.GetGuildSettings(ctx, req.GuildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild settings: %w", err)
	}
	if settings == nil || !settings.Enabled {
		return nil, entities.NewBetRejectedError(entities.ErrCycleNotFound, "the game is not enabled in this server")
	}

	now := submissionTime(req.SubmittedAt, s.clock.Now())
	start, state := s.schedule.StateAt(now)
	if state == entities.CycleStateScheduled {
		return nil, entities.NewBetRejectedError(entities.ErrWindowClosed, "betting has not opened yet")
	}

	opened, err := openCycle(ctx, s.cycleRepo, s.schedule, s.targets, req.GuildID, start)
	if err != nil {
		return nil, err
	}

	// Shared lock keeps resolution from reading the ledger while this bet is in flight
	cycle, err := s.cycleRepo.GetByIDForShare(ctx, opened.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cycle: %w", err)
	}
	if cycle == nil {
		return nil, entities.NewBetRejectedError(entities.ErrCycleNotFound, "")
	}

	offset, err := s.betOffset(cycle, req, now)
	if err != nil {
		return nil, err
	}

	bet := &entities.Bet{
		CycleID:     cycle.ID,
		GuildID:     req.GuildID,
		DiscordID:   req.DiscordID,
		DisplayName: req.DisplayName,
		OffsetMs:    offset,
		Class:       req.Class,
		SubmittedAt: now,
	}

	inserted, err := s.betRepo.Create(ctx, bet)
	if err != nil {
		return nil, fmt.Errorf("failed to record bet: %w", err)
	}
	if !inserted {
		return nil, entities.NewBetRejectedError(entities.ErrDuplicateBet, "")
	}

	if err := s.eventPublisher.Publish(events.BetPlacedEvent{
		GuildID:     bet.GuildID,
		CycleID:     bet.CycleID,
		BetID:       bet.ID,
		DiscordID:   bet.DiscordID,
		DisplayName: bet.DisplayName,
		OffsetMs:    bet.OffsetMs,
		Class:       bet.Class,
		StartsAt:    cycle.StartsAt,
	}); err != nil {
		log.WithFields(log.Fields{
			"bet_id": bet.ID,
			"error":  err,
		}).Error("Failed to publish bet placed event")
	}

	log.WithFields(log.Fields{
		"guild_id":   bet.GuildID,
		"cycle_id":   bet.CycleID,
		"discord_id": bet.DiscordID,
		"class":      bet.Class,
		"offset_ms":  bet.OffsetMs,
	}).Info("Bet recorded")

	return bet, nil
}

// submissionTime prefers the instant the command arrived so storage latency
// never counts against the player. Instants from the future fall back to now.
func submissionTime(submittedAt, now time.Time) time.Time {
	if submittedAt.IsZero() || submittedAt.After(now) {
		return now
	}
	return submittedAt
}

// betOffset checks the submission window for the bet class and returns the bet's offset
func (s *ledgerService) betOffset(cycle *entities.Cycle, req interfaces.SubmitBetRequest, now time.Time) (int64, error) {
	state := cycle.StateAt(now)

	switch req.Class {
	case entities.BetClassStandard:
		if state != entities.CycleStateStandardWindowOpen {
			return 0, entities.NewBetRejectedError(entities.ErrWindowClosed, "the betting window is not open")
		}
		return cycle.OffsetOf(now), nil

	case entities.BetClassAdvance:
		allowed := state == entities.CycleStateEarlyWindowOpen ||
			(s.rules.AllowLateAdvanceBets && state == entities.CycleStateStandardWindowOpen)
		if !allowed {
			return 0, entities.NewBetRejectedError(entities.ErrWindowClosed, "early bird bets are closed")
		}
		if req.PlayTime.IsZero() || !req.PlayTime.After(now) {
			return 0, entities.NewBetRejectedError(entities.ErrWindowClosed, "play time must be in the future")
		}
		windows := cycle.Windows()
		if req.PlayTime.Before(windows.StartsAt) || !req.PlayTime.Before(windows.ResolvesAt) {
			return 0, entities.NewBetRejectedError(entities.ErrWindowClosed, "play time must fall inside the game window")
		}
		return cycle.OffsetOf(req.PlayTime), nil
	}

	return 0, fmt.Errorf("invalid bet class: %q", req.Class)
}

// QueryCycleStatus returns the state of a cycle, revealing the target once resolved
func (s *ledgerService) QueryCycleStatus(ctx context.Context, cycleID int64) (*interfaces.CycleStatus, error) {
	cycle, err := s.cycleRepo.GetByID(ctx, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle: %w", err)
	}
	if cycle == nil {
		return nil, fmt.Errorf("cycle %d: %w", cycleID, entities.ErrCycleNotFound)
	}
	return s.statusOf(ctx, cycle)
}

// CurrentCycleStatus returns the status of the active or next cycle for the guild.
// A cycle that has not been opened yet is reported without an ID.
func (s *ledgerService) CurrentCycleStatus(ctx context.Context, guildID int64) (*interfaces.CycleStatus, error) {
	now := s.clock.Now()
	start := s.schedule.CurrentOccurrence(now)

	cycle, err := s.cycleRepo.GetByStart(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle: %w", err)
	}
	if cycle == nil {
		return &interfaces.CycleStatus{
			Cycle: &entities.Cycle{
				GuildID:            guildID,
				StartsAt:           start,
				EarlyWindowMs:      s.schedule.EarlyWindow().Milliseconds(),
				ResolutionWindowMs: s.schedule.ResolutionWindow().Milliseconds(),
			},
			State: s.schedule.Windows(start).StateAt(now),
		}, nil
	}
	return s.statusOf(ctx, cycle)
}

func (s *ledgerService) statusOf(ctx context.Context, cycle *entities.Cycle) (*interfaces.CycleStatus, error) {
	count, err := s.betRepo.CountByCycle(ctx, cycle.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count bets: %w", err)
	}

	status := &interfaces.CycleStatus{
		Cycle:    cycle,
		State:    cycle.StateAt(s.clock.Now()),
		BetCount: count,
	}

	if cycle.IsResolved() {
		status.RevealedTargetMs = cycle.TargetOffsetMs
		winner, err := s.winRecordRepo.GetByCycle(ctx, cycle.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get win record: %w", err)
		}
		status.Winner = winner
	}

	return status, nil
}

// GetUserBet returns the participant's bet in a cycle
func (s *ledgerService) GetUserBet(ctx context.Context, cycleID int64, discordID int64) (*entities.Bet, error) {
	bet, err := s.betRepo.GetByCycleAndUser(ctx, cycleID, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	return bet, nil
}
