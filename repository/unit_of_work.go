package repository

import (
	"context"
	"errors"
	"fmt"

	"leetbot/application"
	"leetbot/database"
	"leetbot/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the application.UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	guildID                int64
	transactionalPublisher interfaces.TransactionalEventPublisher
	cycleRepo              interfaces.CycleRepository
	betRepo                interfaces.BetRepository
	winRecordRepo          interfaces.WinRecordRepository
	rankRepo               interfaces.RankAssignmentRepository
	guildSettingsRepo      interfaces.GuildSettingsRepository
}

type unitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{
		db: db,
	}
}

// CreateForGuildWithPublisher creates a new UnitOfWork with a specific transactional publisher
func (f *unitOfWorkFactory) CreateForGuildWithPublisher(guildID int64, transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		guildID:                guildID,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create guild-scoped repositories with the transaction
	u.cycleRepo = NewCycleRepositoryScoped(tx, u.guildID)
	u.betRepo = NewBetRepositoryScoped(tx, u.guildID)
	u.winRecordRepo = NewWinRecordRepositoryScoped(tx, u.guildID)
	u.rankRepo = NewRankAssignmentRepositoryScoped(tx, u.guildID)
	u.guildSettingsRepo = NewGuildSettingsRepositoryWithTx(tx) // Guild settings don't need scoping

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Events are best effort once the transaction is durable
	if u.transactionalPublisher != nil {
		_ = u.transactionalPublisher.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// CycleRepository returns the cycle repository for this unit of work
func (u *unitOfWork) CycleRepository() interfaces.CycleRepository {
	if u.cycleRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.cycleRepo
}

// BetRepository returns the bet repository for this unit of work
func (u *unitOfWork) BetRepository() interfaces.BetRepository {
	if u.betRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.betRepo
}

// WinRecordRepository returns the win record repository for this unit of work
func (u *unitOfWork) WinRecordRepository() interfaces.WinRecordRepository {
	if u.winRecordRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.winRecordRepo
}

// RankAssignmentRepository returns the rank assignment repository for this unit of work
func (u *unitOfWork) RankAssignmentRepository() interfaces.RankAssignmentRepository {
	if u.rankRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.rankRepo
}

// GuildSettingsRepository returns the guild settings repository for this unit of work
func (u *unitOfWork) GuildSettingsRepository() interfaces.GuildSettingsRepository {
	if u.guildSettingsRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.guildSettingsRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalPublisher
}
