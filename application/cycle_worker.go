package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leetbot/domain/entities"
	"leetbot/domain/services"
	"leetbot/infrastructure/observability"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

const (
	maxWorkerWait       = time.Hour
	maxResolveRetries   = 3
	minWorkerRetryDelay = time.Minute
)

// CycleWorker opens and resolves game cycles for every enabled guild
type CycleWorker struct {
	uowFactory UnitOfWorkFactory
	game       *Game
	newBackOff func() backoff.BackOff
}

// NewCycleWorker creates a new cycle worker
func NewCycleWorker(uowFactory UnitOfWorkFactory, game *Game) *CycleWorker {
	return &CycleWorker{
		uowFactory: uowFactory,
		game:       game,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

// Start runs the worker loop until ctx is cancelled or the returned function is called
func (w *CycleWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Info("Cycle worker started")

		for {
			next, err := w.RunOnce(ctx)
			if err != nil {
				log.Errorf("Error processing game cycles: %v", err)
			}

			waitDuration := time.Until(next)
			if waitDuration > maxWorkerWait {
				waitDuration = maxWorkerWait
			}
			if err != nil && waitDuration < minWorkerRetryDelay {
				waitDuration = minWorkerRetryDelay
			}
			if waitDuration <= 0 {
				continue
			}

			log.Debugf("Next cycle check at %v (in %v)", next.UTC(), waitDuration)

			select {
			case <-ctx.Done():
				log.Info("Cycle worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Cycle worker shutting down (stop requested)...")
				return
			case <-time.After(waitDuration):
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// RunOnce opens current cycles, resolves due ones and returns when the worker should wake next
func (w *CycleWorker) RunOnce(ctx context.Context) (time.Time, error) {
	now := w.game.Clock.Now()

	openErr := w.openCurrentCycles(ctx, now)
	if openErr != nil {
		log.Errorf("Error opening cycles: %v", openErr)
	}

	resolveErr := w.resolveDueCycles(ctx, now)
	if resolveErr != nil {
		log.Errorf("Error resolving cycles: %v", resolveErr)
	}

	next := w.nextWake(ctx, now)
	return next, errors.Join(openErr, resolveErr)
}

// openCurrentCycles creates the cycle row, and with it the target, once betting has opened
func (w *CycleWorker) openCurrentCycles(ctx context.Context, now time.Time) error {
	start, state := w.game.Schedule.StateAt(now)
	if state == entities.CycleStateScheduled {
		return nil
	}

	uow := w.uowFactory.CreateForGuild(0)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	guilds, err := uow.GuildSettingsRepository().GetEnabledGuilds(ctx)
	uow.Rollback()
	if err != nil {
		return fmt.Errorf("failed to get enabled guilds: %w", err)
	}

	var errs []error
	for _, guild := range guilds {
		if err := w.openGuildCycle(ctx, guild.GuildID, start); err != nil {
			errs = append(errs, fmt.Errorf("guild %d: %w", guild.GuildID, err))
		}
	}
	return errors.Join(errs...)
}

func (w *CycleWorker) openGuildCycle(ctx context.Context, guildID int64, start time.Time) error {
	uow := w.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	cycle, err := w.game.ResolutionService(uow).OpenCycle(ctx, guildID, start)
	if err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id":  guildID,
		"cycle_id":  cycle.ID,
		"starts_at": cycle.StartsAt,
	}).Debug("Cycle open")
	return nil
}

// resolveDueCycles resolves every cycle whose resolution instant has passed, each in its own transaction
func (w *CycleWorker) resolveDueCycles(ctx context.Context, now time.Time) error {
	uow := w.uowFactory.CreateForGuild(0)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	dueCycles, err := uow.CycleRepository().GetDueForResolution(ctx, now)
	uow.Rollback()
	if err != nil {
		return fmt.Errorf("failed to get due cycles: %w", err)
	}

	if len(dueCycles) == 0 {
		return nil
	}

	var errs []error
	for _, cycle := range dueCycles {
		if err := w.resolveCycle(ctx, cycle); err != nil {
			log.Errorf("Error resolving cycle %d for guild %d: %v", cycle.ID, cycle.GuildID, err)
			errs = append(errs, fmt.Errorf("cycle %d: %w", cycle.ID, err))
		}
	}

	log.WithFields(log.Fields{
		"total_cycles": len(dueCycles),
		"failed":       len(errs),
	}).Info("Completed cycle resolution")

	return errors.Join(errs...)
}

// resolveCycle resolves one cycle, retrying transient failures with exponential backoff
func (w *CycleWorker) resolveCycle(ctx context.Context, cycle *entities.Cycle) error {
	started := time.Now()
	outcome := observability.ResolutionOutcomeError

	operation := func() error {
		uow := w.uowFactory.CreateForGuild(cycle.GuildID)
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		result, err := w.game.ResolutionService(uow).ResolveCycle(ctx, cycle.ID)

		var preErr *entities.ResolutionPreconditionError
		switch {
		case errors.As(err, &preErr) && result != nil:
			// Closed without a winner; keep the terminal state
			if err := uow.Commit(); err != nil {
				return fmt.Errorf("failed to commit transaction: %w", err)
			}
			outcome = observability.ResolutionOutcomePrecondition
			log.WithFields(log.Fields{
				"cycle_id": cycle.ID,
				"guild_id": cycle.GuildID,
				"reason":   preErr.Reason,
			}).Warn("Cycle closed without a winner")
			return nil
		case errors.As(err, &preErr), errors.Is(err, services.ErrCycleNotDue):
			return backoff.Permanent(err)
		case err != nil:
			return err
		}

		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}

		if result.Winner != nil {
			outcome = observability.ResolutionOutcomeWinner
		} else {
			outcome = observability.ResolutionOutcomeNoWinner
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		log.WithFields(log.Fields{
			"cycle_id": cycle.ID,
			"guild_id": cycle.GuildID,
			"retry_in": wait,
		}).WithError(err).Warn("Cycle resolution failed, retrying")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(w.newBackOff(), maxResolveRetries), ctx)
	err := backoff.RetryNotify(operation, policy, notify)

	observability.GetMetrics().RecordCycleResolved(outcome, time.Since(started))
	return err
}

// nextWake returns the earliest of the next stored resolution instant and the next window boundary
func (w *CycleWorker) nextWake(ctx context.Context, now time.Time) time.Time {
	start := w.game.Schedule.CurrentOccurrence(now)
	windows := w.game.Schedule.Windows(start)

	next := windows.ResolvesAt
	if windows.EarlyOpensAt.After(now) {
		next = windows.EarlyOpensAt
	}

	uow := w.uowFactory.CreateForGuild(0)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction for next resolution time: %v", err)
		return next
	}
	defer uow.Rollback()

	stored, err := uow.CycleRepository().GetNextResolutionTime(ctx)
	if err != nil {
		log.Errorf("Failed to get next resolution time: %v", err)
		return next
	}
	if stored != nil && stored.Before(next) {
		next = *stored
	}

	return next
}
