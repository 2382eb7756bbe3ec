package entities

import (
	"time"
)

// BetClass distinguishes real-time bets from pre-submitted ones
type BetClass string

const (
	// BetClassStandard is a bet placed in real time during the standard window
	BetClassStandard BetClass = "standard"
	// BetClassAdvance is an early-bird bet scheduled ahead of the cycle start
	BetClassAdvance BetClass = "advance"
)

// IsValid checks if the class is known
func (c BetClass) IsValid() bool {
	return c == BetClassStandard || c == BetClassAdvance
}

// DisplayName returns a human-readable label
func (c BetClass) DisplayName() string {
	if c == BetClassAdvance {
		return "early bird"
	}
	return "regular"
}

// Bet represents one participant's bet for a cycle
type Bet struct {
	ID          int64     `db:"id"`
	CycleID     int64     `db:"cycle_id"`
	GuildID     int64     `db:"guild_id"`
	DiscordID   int64     `db:"discord_id"`
	DisplayName string    `db:"display_name"`
	OffsetMs    int64     `db:"offset_ms"` // Milliseconds from cycle start
	Class       BetClass  `db:"class"`
	SubmittedAt time.Time `db:"submitted_at"`
}

// IsLate reports whether the bet falls after the target and is therefore ineligible
func (b *Bet) IsLate(targetOffsetMs int64) bool {
	return b.OffsetMs > targetOffsetMs
}

// DistanceTo returns how many milliseconds the bet lies before the target
func (b *Bet) DistanceTo(targetOffsetMs int64) int64 {
	return targetOffsetMs - b.OffsetMs
}

// PlayTime returns the absolute instant the bet represents
func (b *Bet) PlayTime(startsAt time.Time) time.Time {
	return startsAt.Add(time.Duration(b.OffsetMs) * time.Millisecond)
}
