package interfaces

import (
	"context"
	"time"

	"leetbot/domain/entities"
)

// SubmitBetRequest carries a participant's bet from the command layer
type SubmitBetRequest struct {
	GuildID     int64
	DiscordID   int64
	DisplayName string
	Class       entities.BetClass
	PlayTime    time.Time // Requested instant for advance bets, ignored for standard bets
	SubmittedAt time.Time // When the command arrived; zero means now
}

// CycleStatus is the public view of a cycle
type CycleStatus struct {
	Cycle    *entities.Cycle
	State    entities.CycleState
	BetCount int

	// RevealedTargetMs is only set once the cycle is resolved
	RevealedTargetMs *int64
	Winner           *entities.WinRecord
}

// ResolutionResult describes the outcome of resolving a cycle
type ResolutionResult struct {
	Cycle           *entities.Cycle
	Winner          *entities.WinRecord // nil when nobody won
	Deltas          []entities.AssignmentDelta
	BetCount        int
	AlreadyResolved bool
}

// LedgerService accepts and reports bets for the guild's current cycle
type LedgerService interface {
	// SubmitBet validates and records a bet. Rejections are returned as *entities.BetRejectedError.
	SubmitBet(ctx context.Context, req SubmitBetRequest) (*entities.Bet, error)

	// QueryCycleStatus returns the state of a cycle, revealing the target once resolved
	QueryCycleStatus(ctx context.Context, cycleID int64) (*CycleStatus, error)

	// CurrentCycleStatus returns the status of the active or next cycle
	CurrentCycleStatus(ctx context.Context, guildID int64) (*CycleStatus, error)

	// GetUserBet returns the participant's bet in a cycle, nil if none
	GetUserBet(ctx context.Context, cycleID int64, discordID int64) (*entities.Bet, error)
}

// ResolutionService opens and resolves cycles
type ResolutionService interface {
	// OpenCycle creates the cycle row for the given start instant and fixes its target
	OpenCycle(ctx context.Context, guildID int64, startsAt time.Time) (*entities.Cycle, error)

	// ResolveCycle selects the winner and recomputes ranks. Repeated calls return the stored outcome.
	ResolveCycle(ctx context.Context, cycleID int64) (*ResolutionResult, error)
}

// StatsService exposes leaderboards over the win history
type StatsService interface {
	// TopWinners returns win counts over the trailing number of days, today included
	TopWinners(ctx context.Context, days int, limit int) ([]*entities.WinnerStat, error)
}

// GuildSettingsService manages per-guild game configuration
type GuildSettingsService interface {
	// GetOrCreateSettings retrieves the guild settings, creating defaults if needed
	GetOrCreateSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error)

	// SetEnabled turns the game on or off for the guild
	SetEnabled(ctx context.Context, guildID int64, enabled bool) error

	// UpdateAnnouncementChannel sets the winner announcement channel
	UpdateAnnouncementChannel(ctx context.Context, guildID int64, channelID *int64) error

	// UpdateTierRole sets the Discord role used for a tier
	UpdateTierRole(ctx context.Context, guildID int64, tier entities.Tier, roleID *int64) error
}
