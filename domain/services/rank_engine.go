package services

import (
	"sort"
	"time"

	"leetbot/domain/entities"
)

// RankInput is everything the rank engine needs for one guild
type RankInput struct {
	Today       time.Time // game date, midnight UTC
	TodayWinner int64     // 0 when the cycle had no winner
	History     []*entities.WinRecord
	Current     entities.RankSnapshot
	Periods     entities.RankPeriods
}

// RankResult holds the holder changes and the resulting snapshot
type RankResult struct {
	Deltas []entities.AssignmentDelta
	Next   entities.RankSnapshot
}

// RankedParticipant is a participant's win count within a window
type RankedParticipant struct {
	DiscordID int64
	Wins      int
}

// RecomputeRanks assigns the three tiers from the win history.
//
// General and Commander are handed to the best ranked participant who does not
// already hold the tier, Commander additionally skipping the General. Sergeant goes
// to today's winner unless they hold one of the higher tiers. A participant moving
// into a tier leaves any other tier they held.
func RecomputeRanks(in RankInput) RankResult {
	current := in.Current
	if current == nil {
		current = entities.RankSnapshot{}
	}
	next := current.Clone()

	if len(in.History) == 0 {
		return RankResult{Next: next}
	}

	periods := in.Periods
	if periods.GeneralDays <= 0 || periods.CommanderDays <= 0 {
		periods = entities.DefaultRankPeriods()
	}

	// General
	generalRanking := RankWinners(in.History, in.Today, periods.GeneralDays)
	generalID := current.Holder(entities.TierGeneral)
	for _, p := range generalRanking {
		if p.DiscordID != current.Holder(entities.TierGeneral) {
			generalID = p.DiscordID
			assignTier(next, entities.TierGeneral, generalID)
			break
		}
	}

	// Commander
	commanderRanking := RankWinners(in.History, in.Today, periods.CommanderDays)
	start := 0
	if len(commanderRanking) > 0 && commanderRanking[0].DiscordID == generalID {
		start = 1
	}
	commanderID := next.Holder(entities.TierCommander)
	for _, p := range commanderRanking[start:] {
		if p.DiscordID != generalID && p.DiscordID != current.Holder(entities.TierCommander) {
			commanderID = p.DiscordID
			assignTier(next, entities.TierCommander, commanderID)
			break
		}
	}

	// Sergeant
	winner := in.TodayWinner
	if winner != 0 && winner != generalID && winner != commanderID && winner != current.Holder(entities.TierSergeant) {
		assignTier(next, entities.TierSergeant, winner)
	}

	var deltas []entities.AssignmentDelta
	for _, tier := range entities.AllTiers {
		if current.Holder(tier) != next.Holder(tier) {
			deltas = append(deltas, entities.AssignmentDelta{
				Tier:      tier,
				OldHolder: current.Holder(tier),
				NewHolder: next.Holder(tier),
			})
		}
	}

	return RankResult{Deltas: deltas, Next: next}
}

// assignTier gives tier to holder and vacates any other tier the holder had.
// A Sergeant promoted to a higher tier therefore leaves Sergeant empty.
func assignTier(snapshot entities.RankSnapshot, tier entities.Tier, holder int64) {
	for _, other := range entities.AllTiers {
		if other != tier && snapshot[other] == holder {
			snapshot[other] = 0
		}
	}
	snapshot[tier] = holder
}

// RankWinners counts wins from today minus days through today, both ends inclusive,
// ordered by count descending then participant ID ascending
func RankWinners(history []*entities.WinRecord, today time.Time, days int) []RankedParticipant {
	if days <= 0 {
		return nil
	}
	since, until := WindowBounds(today, days)

	counts := make(map[int64]int)
	for _, record := range history {
		if record == nil {
			continue
		}
		date := dateOnly(record.WinDate)
		if date.Before(since) || date.After(until) {
			continue
		}
		counts[record.DiscordID]++
	}

	ranked := make([]RankedParticipant, 0, len(counts))
	for id, wins := range counts {
		ranked = append(ranked, RankedParticipant{DiscordID: id, Wins: wins})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Wins != ranked[j].Wins {
			return ranked[i].Wins > ranked[j].Wins
		}
		return ranked[i].DiscordID < ranked[j].DiscordID
	})
	return ranked
}

// WindowBounds returns the first and last date of a window of days ending on today.
// A win exactly days ago still counts.
func WindowBounds(today time.Time, days int) (time.Time, time.Time) {
	until := dateOnly(today)
	return until.AddDate(0, 0, -days), until
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
