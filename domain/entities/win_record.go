package entities

import "time"

// WinRecord is the immutable historical fact of a cycle's winner
type WinRecord struct {
	ID             int64     `db:"id"`
	CycleID        int64     `db:"cycle_id"`
	GuildID        int64     `db:"guild_id"`
	DiscordID      int64     `db:"discord_id"`
	DisplayName    string    `db:"display_name"`
	WinDate        time.Time `db:"win_date"` // Calendar date in the game timezone, midnight UTC
	OffsetMs       int64     `db:"offset_ms"`
	TargetOffsetMs int64     `db:"target_offset_ms"`
	Class          BetClass  `db:"class"`
	CreatedAt      time.Time `db:"created_at"`
}

// MillisecondsBeforeTarget returns the winning margin
func (r *WinRecord) MillisecondsBeforeTarget() int64 {
	return r.TargetOffsetMs - r.OffsetMs
}

// WinnerStat is an aggregated win count for a participant
type WinnerStat struct {
	DiscordID   int64  `db:"discord_id"`
	DisplayName string `db:"display_name"`
	Wins        int64  `db:"wins"`
}

// DateOf truncates t to its calendar date in loc, expressed as midnight UTC
func DateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
