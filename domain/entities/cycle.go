package entities

import (
	"fmt"
	"time"
)

// CycleState is the lifecycle phase of a game cycle at a given instant
type CycleState string

const (
	CycleStateScheduled          CycleState = "scheduled"
	CycleStateEarlyWindowOpen    CycleState = "early_window_open"
	CycleStateStandardWindowOpen CycleState = "standard_window_open"
	CycleStateResolving          CycleState = "resolving"
	CycleStateResolved           CycleState = "resolved"
)

// CycleKey identifies one occurrence of the game for a guild
type CycleKey struct {
	GuildID  int64
	StartsAt time.Time
}

// String returns the canonical identity used to seed the target
func (k CycleKey) String() string {
	return fmt.Sprintf("%d:%s", k.GuildID, k.StartsAt.UTC().Format(time.RFC3339Nano))
}

// CycleWindows holds the boundaries of a cycle
type CycleWindows struct {
	EarlyOpensAt time.Time // start of the advance-bet window
	StartsAt     time.Time // start of the standard window, offset 0
	ResolvesAt   time.Time // end of the standard window, resolution instant
}

// NewCycleWindows derives the window boundaries from a start instant
func NewCycleWindows(startsAt time.Time, earlyWindow, resolutionWindow time.Duration) CycleWindows {
	return CycleWindows{
		EarlyOpensAt: startsAt.Add(-earlyWindow),
		StartsAt:     startsAt,
		ResolvesAt:   startsAt.Add(resolutionWindow),
	}
}

// StateAt returns the time-driven state of the windows at now.
// It never returns CycleStateResolved; that requires persisted state.
func (w CycleWindows) StateAt(now time.Time) CycleState {
	switch {
	case now.Before(w.EarlyOpensAt):
		return CycleStateScheduled
	case now.Before(w.StartsAt):
		return CycleStateEarlyWindowOpen
	case now.Before(w.ResolvesAt):
		return CycleStateStandardWindowOpen
	default:
		return CycleStateResolving
	}
}

// Cycle represents a single persisted occurrence of the game
type Cycle struct {
	ID                 int64      `db:"id"`
	GuildID            int64      `db:"guild_id"`
	StartsAt           time.Time  `db:"starts_at"`
	EarlyWindowMs      int64      `db:"early_window_ms"`      // Captured from config at creation
	ResolutionWindowMs int64      `db:"resolution_window_ms"` // Captured from config at creation
	TargetOffsetMs     *int64     `db:"target_offset_ms"`     // NULL until generated, immutable afterwards
	ResolvedAt         *time.Time `db:"resolved_at"`          // NULL until resolved
	WinnerDiscordID    *int64     `db:"winner_discord_id"`    // NULL for no winner
	CreatedAt          time.Time  `db:"created_at"`
}

// Key returns the identity of the cycle
func (c *Cycle) Key() CycleKey {
	return CycleKey{GuildID: c.GuildID, StartsAt: c.StartsAt}
}

// EarlyWindow returns the early-bet window length
func (c *Cycle) EarlyWindow() time.Duration {
	return time.Duration(c.EarlyWindowMs) * time.Millisecond
}

// ResolutionWindow returns the resolution window length
func (c *Cycle) ResolutionWindow() time.Duration {
	return time.Duration(c.ResolutionWindowMs) * time.Millisecond
}

// Windows returns the boundaries of this cycle
func (c *Cycle) Windows() CycleWindows {
	return NewCycleWindows(c.StartsAt, c.EarlyWindow(), c.ResolutionWindow())
}

// ResolvesAt returns the resolution instant
func (c *Cycle) ResolvesAt() time.Time {
	return c.StartsAt.Add(c.ResolutionWindow())
}

// IsResolved returns true once the cycle has been resolved
func (c *Cycle) IsResolved() bool {
	return c.ResolvedAt != nil
}

// HasTarget returns true if the target offset has been generated
func (c *Cycle) HasTarget() bool {
	return c.TargetOffsetMs != nil
}

// StateAt returns the state of the cycle at now
func (c *Cycle) StateAt(now time.Time) CycleState {
	if c.IsResolved() {
		return CycleStateResolved
	}
	return c.Windows().StateAt(now)
}

// TargetInstant returns the absolute target instant, if generated
func (c *Cycle) TargetInstant() (time.Time, bool) {
	if c.TargetOffsetMs == nil {
		return time.Time{}, false
	}
	return c.StartsAt.Add(time.Duration(*c.TargetOffsetMs) * time.Millisecond), true
}

// OffsetOf returns the millisecond offset of t from the cycle start
func (c *Cycle) OffsetOf(t time.Time) int64 {
	return t.Sub(c.StartsAt).Milliseconds()
}

// SetTarget stores the target offset. An already generated target is never replaced.
func (c *Cycle) SetTarget(offsetMs int64) bool {
	if c.TargetOffsetMs != nil {
		return false
	}
	c.TargetOffsetMs = &offsetMs
	return true
}

// MarkResolved records the resolution of the cycle
func (c *Cycle) MarkResolved(at time.Time, winnerDiscordID *int64) {
	c.ResolvedAt = &at
	c.WinnerDiscordID = winnerDiscordID
}
