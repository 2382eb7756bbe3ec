package interfaces

import (
	"context"
	"time"

	"leetbot/domain/entities"
	"leetbot/domain/events"
)

// CycleRepository defines the interface for cycle data access.
// Implementations are scoped to a single guild.
type CycleRepository interface {
	// GetOrCreate inserts the cycle if no cycle exists for its start instant and returns the stored row
	GetOrCreate(ctx context.Context, cycle *entities.Cycle) (*entities.Cycle, error)

	// GetByID retrieves a cycle by its ID
	GetByID(ctx context.Context, id int64) (*entities.Cycle, error)

	// GetByStart retrieves the cycle starting at the given instant
	GetByStart(ctx context.Context, startsAt time.Time) (*entities.Cycle, error)

	// GetByIDForShare retrieves a cycle and takes a shared row lock, blocking concurrent resolution
	GetByIDForShare(ctx context.Context, id int64) (*entities.Cycle, error)

	// GetByIDForUpdate retrieves a cycle with an exclusive row lock
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Cycle, error)

	// SetTarget stores the target offset if none has been stored yet
	SetTarget(ctx context.Context, id int64, targetOffsetMs int64) error

	// MarkResolved records the resolution instant and winner
	MarkResolved(ctx context.Context, id int64, resolvedAt time.Time, winnerDiscordID *int64) error

	// GetDueForResolution returns unresolved cycles whose resolution instant is at or before now
	GetDueForResolution(ctx context.Context, now time.Time) ([]*entities.Cycle, error)

	// GetNextResolutionTime returns the earliest resolution instant of an unresolved cycle
	GetNextResolutionTime(ctx context.Context) (*time.Time, error)

	// GetLatestResolved returns the most recently resolved cycle
	GetLatestResolved(ctx context.Context) (*entities.Cycle, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create inserts a bet. Returns false without error if the participant already has a bet in the cycle.
	Create(ctx context.Context, bet *entities.Bet) (bool, error)

	// GetByCycle returns all bets for a cycle, late ones included
	GetByCycle(ctx context.Context, cycleID int64) ([]*entities.Bet, error)

	// GetByCycleAndUser returns the participant's bet for a cycle
	GetByCycleAndUser(ctx context.Context, cycleID int64, discordID int64) (*entities.Bet, error)

	// CountByCycle returns the number of bets in a cycle
	CountByCycle(ctx context.Context, cycleID int64) (int, error)
}

// WinRecordRepository defines the interface for the append-only win history
type WinRecordRepository interface {
	// Create appends a win record. An existing record for the same cycle is returned unchanged.
	Create(ctx context.Context, record *entities.WinRecord) (*entities.WinRecord, error)

	// GetByCycle retrieves the win record of a cycle
	GetByCycle(ctx context.Context, cycleID int64) (*entities.WinRecord, error)

	// GetHistorySince returns all win records with a win date on or after since
	GetHistorySince(ctx context.Context, since time.Time) ([]*entities.WinRecord, error)

	// GetTopWinners returns win counts since the given date, highest first
	GetTopWinners(ctx context.Context, since time.Time, limit int) ([]*entities.WinnerStat, error)
}

// RankAssignmentRepository defines the interface for tier holders
type RankAssignmentRepository interface {
	// GetSnapshot returns the current holder of every tier
	GetSnapshot(ctx context.Context) (entities.RankSnapshot, error)

	// ApplyDeltas persists the given holder changes
	ApplyDeltas(ctx context.Context, deltas []entities.AssignmentDelta) error
}

// GuildSettingsRepository defines the interface for guild settings data access
type GuildSettingsRepository interface {
	// GetGuildSettings retrieves guild settings, nil if the guild is unknown
	GetGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error)

	// GetOrCreateGuildSettings retrieves guild settings or creates disabled defaults
	GetOrCreateGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error)

	// UpdateGuildSettings updates guild settings
	UpdateGuildSettings(ctx context.Context, settings *entities.GuildSettings) error

	// GetEnabledGuilds returns all guilds with the game enabled
	GetEnabledGuilds(ctx context.Context) ([]*entities.GuildSettings, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction ends
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all pending events
	Flush(ctx context.Context) error

	// Discard drops all pending events
	Discard()
}
