package application

import (
	"context"

	"leetbot/domain/entities"
	"leetbot/domain/events"
)

// RoleAssignment is a tier holder change resolved to the guild's Discord role
type RoleAssignment struct {
	GuildID   int64
	Tier      entities.Tier
	RoleID    int64
	OldHolder int64 // 0 when the tier was empty
	NewHolder int64 // 0 when the tier is vacated
}

// RoleApplier moves a tier role between members on the chat platform
type RoleApplier interface {
	// ApplyAssignment removes the role from the old holder and grants it to the new one
	ApplyAssignment(ctx context.Context, assignment RoleAssignment) error
}

// Announcer posts game results to the guild's announcement channel.
// Failures are logged by the caller and never roll back a resolution.
type Announcer interface {
	// AnnounceWinner posts the outcome of a resolved cycle
	AnnounceWinner(ctx context.Context, channelID int64, event events.CycleResolvedEvent) error

	// AnnounceRankChange posts a single tier change
	AnnounceRankChange(ctx context.Context, channelID int64, event events.RankChangedEvent) error

	// AnnounceGeneralBet tells the guild when the current General has placed a bet
	AnnounceGeneralBet(ctx context.Context, channelID int64, event events.BetPlacedEvent) error
}

// LocalHandlerRegistry registers in-process handlers for domain events
type LocalHandlerRegistry interface {
	RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error)
}
