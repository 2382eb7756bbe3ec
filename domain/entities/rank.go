package entities

import "time"

// Tier is one of the three mutually exclusive rank roles
type Tier string

const (
	TierSergeant  Tier = "sergeant"  // today's winner
	TierCommander Tier = "commander" // 14-day window
	TierGeneral   Tier = "general"   // 365-day window
)

// AllTiers lists the tiers from highest to lowest
var AllTiers = []Tier{TierGeneral, TierCommander, TierSergeant}

// IsValid checks if the tier is known
func (t Tier) IsValid() bool {
	return t == TierSergeant || t == TierCommander || t == TierGeneral
}

// DisplayName returns a human-readable tier name
func (t Tier) DisplayName() string {
	switch t {
	case TierSergeant:
		return "Sergeant"
	case TierCommander:
		return "Commander"
	case TierGeneral:
		return "General"
	default:
		return string(t)
	}
}

// RankSnapshot maps each tier to its current holder. A missing or zero entry means vacant.
type RankSnapshot map[Tier]int64

// Holder returns the holder of a tier, 0 if vacant
func (s RankSnapshot) Holder(tier Tier) int64 {
	return s[tier]
}

// TierOf returns the tier held by a participant, if any
func (s RankSnapshot) TierOf(discordID int64) (Tier, bool) {
	if discordID == 0 {
		return "", false
	}
	for _, tier := range AllTiers {
		if s[tier] == discordID {
			return tier, true
		}
	}
	return "", false
}

// Clone returns a copy of the snapshot
func (s RankSnapshot) Clone() RankSnapshot {
	out := make(RankSnapshot, len(s))
	for tier, holder := range s {
		out[tier] = holder
	}
	return out
}

// AssignmentDelta describes a change of holder for one tier
type AssignmentDelta struct {
	Tier      Tier
	OldHolder int64 // 0 if the tier was vacant
	NewHolder int64 // 0 if the tier is vacated
}

// IsVacate reports whether the delta removes the holder without replacement
func (d AssignmentDelta) IsVacate() bool {
	return d.NewHolder == 0
}

// RankAssignment is the persisted holder of a tier in a guild
type RankAssignment struct {
	GuildID    int64     `db:"guild_id"`
	Tier       Tier      `db:"tier"`
	DiscordID  int64     `db:"discord_id"`
	AssignedAt time.Time `db:"assigned_at"`
}

// RankPeriods holds the window lengths of the tiers in days
type RankPeriods struct {
	CommanderDays int
	GeneralDays   int
}

// DefaultRankPeriods returns the standard 14 and 365 day windows
func DefaultRankPeriods() RankPeriods {
	return RankPeriods{CommanderDays: 14, GeneralDays: 365}
}
