package application

import (
	"context"

	"leetbot/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and publishes buffered events
	Commit() error

	// Rollback rolls back the transaction and drops buffered events
	Rollback() error

	// Repository getters
	CycleRepository() interfaces.CycleRepository
	BetRepository() interfaces.BetRepository
	WinRecordRepository() interfaces.WinRecordRepository
	RankAssignmentRepository() interfaces.RankAssignmentRepository
	GuildSettingsRepository() interfaces.GuildSettingsRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// CreateForGuild creates a new UnitOfWork scoped to a guild. Guild 0 reads across all guilds.
	CreateForGuild(guildID int64) UnitOfWork
}
