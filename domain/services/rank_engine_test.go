package services

import (
	"testing"
	"time"

	"leetbot/domain/entities"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var rankToday = time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

// wins builds win records for a participant on the given days before today
func wins(discordID int64, daysAgo ...int) []*entities.WinRecord {
	records := make([]*entities.WinRecord, 0, len(daysAgo))
	for _, d := range daysAgo {
		records = append(records, &entities.WinRecord{
			DiscordID: discordID,
			WinDate:   rankToday.AddDate(0, 0, -d),
			Class:     entities.BetClassStandard,
		})
	}
	return records
}

func history(groups ...[]*entities.WinRecord) []*entities.WinRecord {
	var out []*entities.WinRecord
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func TestRecomputeRanks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		todayWinner int64
		history     []*entities.WinRecord
		current     entities.RankSnapshot
		wantDeltas  []entities.AssignmentDelta
	}{
		{
			name:        "empty history assigns nothing",
			todayWinner: 0,
			history:     nil,
			current:     entities.RankSnapshot{},
			wantDeltas:  nil,
		},
		{
			name:        "first ever winner becomes general",
			todayWinner: 1,
			history:     wins(1, 0),
			current:     entities.RankSnapshot{},
			wantDeltas: []entities.AssignmentDelta{
				{Tier: entities.TierGeneral, OldHolder: 0, NewHolder: 1},
			},
		},
		{
			name:        "general holder at top is skipped for the next distinct participant",
			todayWinner: 0,
			history:     history(wins(1, 1, 2, 3, 100), wins(2, 200, 300)),
			current:     entities.RankSnapshot{entities.TierGeneral: 1},
			wantDeltas: []entities.AssignmentDelta{
				{Tier: entities.TierGeneral, OldHolder: 1, NewHolder: 2},
				{Tier: entities.TierCommander, OldHolder: 0, NewHolder: 1},
			},
		},
		{
			name:        "sole participant holding general produces no change",
			todayWinner: 1,
			history:     wins(1, 0, 1),
			current:     entities.RankSnapshot{entities.TierGeneral: 1},
			wantDeltas:  nil,
		},
		{
			name:        "commander drawn from second place when general tops fourteen days",
			todayWinner: 0,
			history:     history(wins(1, 1, 2, 3, 4), wins(2, 5, 6), wins(3, 7)),
			current:     entities.RankSnapshot{},
			wantDeltas: []entities.AssignmentDelta{
				{Tier: entities.TierGeneral, OldHolder: 0, NewHolder: 1},
				{Tier: entities.TierCommander, OldHolder: 0, NewHolder: 2},
			},
		},
		{
			name:        "today's winner promoted to general does not take sergeant",
			todayWinner: 3,
			history:     history(wins(1, 1, 2, 3), wins(3, 0)),
			current: entities.RankSnapshot{
				entities.TierGeneral:   1,
				entities.TierCommander: 3,
			},
			wantDeltas: []entities.AssignmentDelta{
				{Tier: entities.TierGeneral, OldHolder: 1, NewHolder: 3},
				{Tier: entities.TierCommander, OldHolder: 3, NewHolder: 1},
			},
		},
		{
			name:        "today's winner holding general does not take sergeant",
			todayWinner: 1,
			history:     wins(1, 0, 1, 2),
			current: entities.RankSnapshot{
				entities.TierGeneral:  1,
				entities.TierSergeant: 5,
			},
			wantDeltas: nil,
		},
		{
			name:        "new sergeant replaces old sergeant",
			todayWinner: 4,
			history:     history(wins(1, 1, 2, 3), wins(2, 4, 5), wins(4, 0)),
			current: entities.RankSnapshot{
				entities.TierGeneral:   1,
				entities.TierCommander: 2,
				entities.TierSergeant:  9,
			},
			wantDeltas: []entities.AssignmentDelta{
				{Tier: entities.TierGeneral, OldHolder: 1, NewHolder: 2},
				{Tier: entities.TierCommander, OldHolder: 2, NewHolder: 1},
				{Tier: entities.TierSergeant, OldHolder: 9, NewHolder: 4},
			},
		},
		{
			name:        "promoted sergeant leaves sergeant vacant",
			todayWinner: 0,
			history:     history(wins(1, 1, 2, 3), wins(2, 4)),
			current: entities.RankSnapshot{
				entities.TierGeneral:  1,
				entities.TierSergeant: 2,
			},
			wantDeltas: []entities.AssignmentDelta{
				{Tier: entities.TierGeneral, OldHolder: 1, NewHolder: 2},
				{Tier: entities.TierCommander, OldHolder: 0, NewHolder: 1},
				{Tier: entities.TierSergeant, OldHolder: 2, NewHolder: 0},
			},
		},
		{
			// One tier per participant wins over keeping Sergeant untouched
			name:        "today's winner holding sergeant promoted to general vacates sergeant",
			todayWinner: 3,
			history:     history(wins(3, 0, 1, 2), wins(1, 5, 6)),
			current: entities.RankSnapshot{
				entities.TierGeneral:  1,
				entities.TierSergeant: 3,
			},
			wantDeltas: []entities.AssignmentDelta{
				{Tier: entities.TierGeneral, OldHolder: 1, NewHolder: 3},
				{Tier: entities.TierCommander, OldHolder: 0, NewHolder: 1},
				{Tier: entities.TierSergeant, OldHolder: 3, NewHolder: 0},
			},
		},
		{
			name:        "promoted commander keeps the commander search going",
			todayWinner: 0,
			history:     history(wins(1, 1), wins(2, 2, 3, 4), wins(3, 5, 6)),
			current: entities.RankSnapshot{
				entities.TierCommander: 2,
			},
			wantDeltas: []entities.AssignmentDelta{
				{Tier: entities.TierGeneral, OldHolder: 0, NewHolder: 2},
				{Tier: entities.TierCommander, OldHolder: 2, NewHolder: 3},
			},
		},
		{
			name:        "wins outside the windows are ignored",
			todayWinner: 0,
			history:     history(wins(1, 400, 500), wins(2, 20)),
			current:     entities.RankSnapshot{},
			wantDeltas: []entities.AssignmentDelta{
				{Tier: entities.TierGeneral, OldHolder: 0, NewHolder: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := RecomputeRanks(RankInput{
				Today:       rankToday,
				TodayWinner: tt.todayWinner,
				History:     tt.history,
				Current:     tt.current,
				Periods:     entities.DefaultRankPeriods(),
			})

			assert.Equal(t, tt.wantDeltas, result.Deltas)
		})
	}
}

func TestRecomputeRanks_DoesNotMutateCurrent(t *testing.T) {
	t.Parallel()

	current := entities.RankSnapshot{entities.TierGeneral: 1}
	RecomputeRanks(RankInput{
		Today:   rankToday,
		History: history(wins(1, 1), wins(2, 2)),
		Current: current,
		Periods: entities.DefaultRankPeriods(),
	})

	assert.Equal(t, entities.RankSnapshot{entities.TierGeneral: 1}, current)
}

func TestRankWinners(t *testing.T) {
	t.Parallel()

	records := history(wins(3, 0, 1), wins(1, 0, 13), wins(2, 14, 15), wins(5, 2, 3, 4))

	ranked := RankWinners(records, rankToday, 14)
	assert.Equal(t, []RankedParticipant{
		{DiscordID: 5, Wins: 3},
		{DiscordID: 1, Wins: 2},
		{DiscordID: 3, Wins: 2},
		{DiscordID: 2, Wins: 1},
	}, ranked)
}

func TestRankWinners_WindowEdges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		daysAgo  int
		days     int
		expected []RankedParticipant
	}{
		{"win today", 0, 14, []RankedParticipant{{DiscordID: 7, Wins: 1}}},
		{"win exactly days ago counts", 14, 14, []RankedParticipant{{DiscordID: 7, Wins: 1}}},
		{"win one day before the window", 15, 14, []RankedParticipant{}},
		{"general window edge", 365, 365, []RankedParticipant{{DiscordID: 7, Wins: 1}}},
		{"single day window reaches yesterday", 1, 1, []RankedParticipant{{DiscordID: 7, Wins: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, RankWinners(wins(7, tt.daysAgo), rankToday, tt.days))
		})
	}
}

func TestWindowBounds(t *testing.T) {
	t.Parallel()

	since, until := WindowBounds(rankToday, 14)
	assert.Equal(t, rankToday.AddDate(0, 0, -14), since)
	assert.Equal(t, rankToday, until)

	since, _ = WindowBounds(rankToday, 1)
	assert.Equal(t, rankToday.AddDate(0, 0, -1), since)
}

// TestRecomputeRanksProperties checks the invariants of the rank engine on random histories
func TestRecomputeRanksProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		participants := rapid.IntRange(1, 6).Draw(rt, "participants")
		n := rapid.IntRange(0, 40).Draw(rt, "records")

		var records []*entities.WinRecord
		for i := 0; i < n; i++ {
			id := int64(rapid.IntRange(1, participants).Draw(rt, "winner"))
			records = append(records, wins(id, rapid.IntRange(0, 400).Draw(rt, "daysAgo"))...)
		}

		current := entities.RankSnapshot{}
		used := map[int64]bool{}
		for _, tier := range entities.AllTiers {
			holder := int64(rapid.IntRange(0, participants).Draw(rt, "holder"))
			if holder != 0 && !used[holder] {
				current[tier] = holder
				used[holder] = true
			}
		}

		todayWinner := int64(rapid.IntRange(0, participants).Draw(rt, "todayWinner"))
		if todayWinner != 0 {
			records = append(records, wins(todayWinner, 0)...)
		}

		result := RecomputeRanks(RankInput{
			Today:       rankToday,
			TodayWinner: todayWinner,
			History:     records,
			Current:     current,
			Periods:     entities.DefaultRankPeriods(),
		})

		// At most one tier per participant
		seen := map[int64]entities.Tier{}
		for tier, holder := range result.Next {
			if holder == 0 {
				continue
			}
			if other, ok := seen[holder]; ok {
				rt.Fatalf("participant %d holds both %s and %s", holder, other, tier)
			}
			seen[holder] = tier
		}

		for _, delta := range result.Deltas {
			// No self reassignment
			if delta.OldHolder == delta.NewHolder {
				rt.Fatalf("no-op delta emitted for %s", delta.Tier)
			}
			if current.Holder(delta.Tier) != delta.OldHolder {
				rt.Fatalf("delta old holder %d does not match current %d", delta.OldHolder, current.Holder(delta.Tier))
			}
			if result.Next.Holder(delta.Tier) != delta.NewHolder {
				rt.Fatalf("delta new holder %d does not match next snapshot", delta.NewHolder)
			}
		}

		// Sergeant only ever moves to today's winner or is vacated
		for _, delta := range result.Deltas {
			if delta.Tier == entities.TierSergeant && delta.NewHolder != 0 && delta.NewHolder != todayWinner {
				rt.Fatalf("sergeant assigned to %d who did not win today", delta.NewHolder)
			}
		}

		if len(records) == 0 && len(result.Deltas) != 0 {
			rt.Fatalf("deltas emitted for empty history")
		}
	})
}
