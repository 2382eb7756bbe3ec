package events

import (
	"time"

	"leetbot/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBetPlaced     EventType = "bet_placed"
	EventTypeCycleResolved EventType = "cycle_resolved"
	EventTypeRankChanged   EventType = "rank_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BetPlacedEvent is emitted once a bet has been durably recorded
type BetPlacedEvent struct {
	GuildID     int64             `json:"guild_id"`
	CycleID     int64             `json:"cycle_id"`
	BetID       int64             `json:"bet_id"`
	DiscordID   int64             `json:"discord_id"`
	DisplayName string            `json:"display_name"`
	OffsetMs    int64             `json:"offset_ms"`
	Class       entities.BetClass `json:"class"`
	StartsAt    time.Time         `json:"starts_at"`
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// PlayTime returns the instant the bet stands for
func (e BetPlacedEvent) PlayTime() time.Time {
	return e.StartsAt.Add(time.Duration(e.OffsetMs) * time.Millisecond)
}

// CycleResolvedEvent is emitted when a cycle reaches its terminal state.
// Winner is nil when the cycle produced no winner.
type CycleResolvedEvent struct {
	GuildID        int64               `json:"guild_id"`
	CycleID        int64               `json:"cycle_id"`
	StartsAt       time.Time           `json:"starts_at"`
	TargetOffsetMs int64               `json:"target_offset_ms"`
	BetCount       int                 `json:"bet_count"`
	Winner         *entities.WinRecord `json:"winner,omitempty"`
	RankChanges    []RankChangedEvent  `json:"rank_changes,omitempty"`
}

func (e CycleResolvedEvent) Type() EventType {
	return EventTypeCycleResolved
}

// RankChangedEvent is emitted for every tier whose holder changed
type RankChangedEvent struct {
	GuildID   int64         `json:"guild_id"`
	CycleID   int64         `json:"cycle_id"`
	Tier      entities.Tier `json:"tier"`
	OldHolder int64         `json:"old_holder,omitempty"`
	NewHolder int64         `json:"new_holder,omitempty"`
}

func (e RankChangedEvent) Type() EventType {
	return EventTypeRankChanged
}

// Delta converts the event back to an assignment delta
func (e RankChangedEvent) Delta() entities.AssignmentDelta {
	return entities.AssignmentDelta{Tier: e.Tier, OldHolder: e.OldHolder, NewHolder: e.NewHolder}
}
