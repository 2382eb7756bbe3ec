package services

import (
	"testing"
	"time"

	"leetbot/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var baseSubmittedAt = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func testBet(discordID, offset int64, class entities.BetClass) *entities.Bet {
	return &entities.Bet{
		ID:          discordID,
		DiscordID:   discordID,
		DisplayName: "player",
		OffsetMs:    offset,
		Class:       class,
		SubmittedAt: baseSubmittedAt,
	}
}

func TestResolveWinner(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		target     int64
		bets       []*entities.Bet
		wantWinner int64 // 0 for no winner
	}{
		{
			name:       "no bets",
			target:     45000,
			bets:       nil,
			wantWinner: 0,
		},
		{
			name:   "only late bets",
			target: 45000,
			bets: []*entities.Bet{
				testBet(1, 45001, entities.BetClassStandard),
				testBet(2, 59999, entities.BetClassAdvance),
			},
			wantWinner: 0,
		},
		{
			name:   "bet exactly on target is eligible",
			target: 45000,
			bets: []*entities.Bet{
				testBet(1, 45000, entities.BetClassStandard),
				testBet(2, 44000, entities.BetClassStandard),
			},
			wantWinner: 1,
		},
		{
			name:   "closest standard bet wins",
			target: 45000,
			bets: []*entities.Bet{
				testBet(1, 30000, entities.BetClassStandard),
				testBet(2, 44000, entities.BetClassStandard),
				testBet(3, 46000, entities.BetClassStandard),
			},
			wantWinner: 2,
		},
		{
			name:   "only advance bets",
			target: 45000,
			bets: []*entities.Bet{
				testBet(1, 10000, entities.BetClassAdvance),
				testBet(2, 40000, entities.BetClassAdvance),
			},
			wantWinner: 2,
		},
		{
			name:   "penalty suppresses closer advance bet",
			target: 45000,
			bets: []*entities.Bet{
				testBet(1, 44800, entities.BetClassStandard),
				testBet(2, 44950, entities.BetClassAdvance),
			},
			wantWinner: 1,
		},
		{
			name:   "advance bet exempt when gap exceeds threshold",
			target: 45000,
			bets: []*entities.Bet{
				testBet(1, 40000, entities.BetClassStandard),
				testBet(2, 44990, entities.BetClassAdvance),
			},
			wantWinner: 2,
		},
		{
			name:   "gap of exactly threshold keeps standard",
			target: 45000,
			bets: []*entities.Bet{
				testBet(1, 41000, entities.BetClassStandard),
				testBet(2, 44000, entities.BetClassAdvance),
			},
			wantWinner: 1,
		},
		{
			name:   "gap one over threshold lets advance win",
			target: 45000,
			bets: []*entities.Bet{
				testBet(1, 40999, entities.BetClassStandard),
				testBet(2, 44000, entities.BetClassAdvance),
			},
			wantWinner: 2,
		},
		{
			name:   "standard wins when it is closer",
			target: 45000,
			bets: []*entities.Bet{
				testBet(1, 44900, entities.BetClassStandard),
				testBet(2, 30000, entities.BetClassAdvance),
			},
			wantWinner: 1,
		},
		{
			name:   "equal offsets across classes go to standard",
			target: 45000,
			bets: []*entities.Bet{
				testBet(2, 44000, entities.BetClassAdvance),
				testBet(1, 44000, entities.BetClassStandard),
			},
			wantWinner: 1,
		},
		{
			name:   "late standard bet does not block advance bet",
			target: 45000,
			bets: []*entities.Bet{
				testBet(1, 45100, entities.BetClassStandard),
				testBet(2, 44990, entities.BetClassAdvance),
			},
			wantWinner: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			winner := ResolveWinner(tt.target, tt.bets, DefaultPenaltyThresholdMs)
			if tt.wantWinner == 0 {
				assert.Nil(t, winner)
				return
			}
			require.NotNil(t, winner)
			assert.Equal(t, tt.wantWinner, winner.Bet.DiscordID)
			assert.Equal(t, tt.target-winner.Bet.OffsetMs, winner.DistanceMs)
		})
	}
}

func TestResolveWinner_SameClassTieBreak(t *testing.T) {
	t.Parallel()

	early := testBet(7, 44000, entities.BetClassStandard)
	early.SubmittedAt = baseSubmittedAt.Add(-time.Second)
	late := testBet(3, 44000, entities.BetClassStandard)

	winner := ResolveWinner(45000, []*entities.Bet{late, early}, DefaultPenaltyThresholdMs)
	require.NotNil(t, winner)
	assert.Equal(t, int64(7), winner.Bet.DiscordID, "earliest submission wins the tie")

	a := testBet(9, 44000, entities.BetClassAdvance)
	b := testBet(4, 44000, entities.BetClassAdvance)
	winner = ResolveWinner(45000, []*entities.Bet{a, b}, DefaultPenaltyThresholdMs)
	require.NotNil(t, winner)
	assert.Equal(t, int64(4), winner.Bet.DiscordID, "lowest participant wins a full tie")
}

func TestResolveWinner_OrderIndependent(t *testing.T) {
	t.Parallel()

	bets := []*entities.Bet{
		testBet(1, 44000, entities.BetClassStandard),
		testBet(2, 44000, entities.BetClassStandard),
		testBet(3, 44500, entities.BetClassAdvance),
	}
	reversed := []*entities.Bet{bets[2], bets[1], bets[0]}

	first := ResolveWinner(45000, bets, DefaultPenaltyThresholdMs)
	second := ResolveWinner(45000, reversed, DefaultPenaltyThresholdMs)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.Bet.DiscordID, second.Bet.DiscordID)
}

func drawBets(rt *rapid.T) []*entities.Bet {
	n := rapid.IntRange(0, 25).Draw(rt, "count")
	bets := make([]*entities.Bet, 0, n)
	for i := 0; i < n; i++ {
		class := entities.BetClassStandard
		if rapid.Bool().Draw(rt, "advance") {
			class = entities.BetClassAdvance
		}
		bet := testBet(int64(i+1), rapid.Int64Range(0, 59999).Draw(rt, "offset"), class)
		bet.SubmittedAt = baseSubmittedAt.Add(time.Duration(rapid.IntRange(0, 1000).Draw(rt, "submitted")) * time.Millisecond)
		bets = append(bets, bet)
	}
	return bets
}

// TestResolveWinnerProperties checks the resolver against random bet sets
func TestResolveWinnerProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		target := rapid.Int64Range(0, 59999).Draw(rt, "target")
		bets := drawBets(rt)

		winner := ResolveWinner(target, bets, DefaultPenaltyThresholdMs)

		eligible := 0
		for _, bet := range bets {
			if bet.OffsetMs <= target {
				eligible++
			}
		}

		if eligible == 0 {
			if winner != nil {
				rt.Fatalf("expected no winner without eligible bets, got %d", winner.Bet.DiscordID)
			}
			return
		}
		if winner == nil {
			rt.Fatalf("expected a winner among %d eligible bets", eligible)
		}

		// No late winners
		if winner.Bet.OffsetMs > target {
			rt.Fatalf("late bet %d at %d won against target %d", winner.Bet.DiscordID, winner.Bet.OffsetMs, target)
		}

		// Nothing in the winner's class is closer
		for _, bet := range bets {
			if bet.Class == winner.Bet.Class && bet.OffsetMs <= target && bet.OffsetMs > winner.Bet.OffsetMs {
				rt.Fatalf("bet %d is closer than winner %d in the same class", bet.DiscordID, winner.Bet.DiscordID)
			}
		}

		// Determinism
		again := ResolveWinner(target, bets, DefaultPenaltyThresholdMs)
		if again == nil || again.Bet != winner.Bet {
			rt.Fatalf("resolver is not deterministic")
		}
	})
}

// TestResolveWinnerAdvanceNeverSnipes checks that a winning advance bet always
// clears the penalty threshold against every eligible standard bet that is closer or equal
func TestResolveWinnerAdvanceNeverSnipes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		target := rapid.Int64Range(0, 59999).Draw(rt, "target")
		bets := drawBets(rt)

		winner := ResolveWinner(target, bets, DefaultPenaltyThresholdMs)
		if winner == nil || winner.Bet.Class != entities.BetClassAdvance {
			return
		}

		var best *entities.Bet
		for _, bet := range bets {
			if bet.Class == entities.BetClassStandard && bet.OffsetMs <= target {
				if best == nil || bet.OffsetMs > best.OffsetMs {
					best = bet
				}
			}
		}
		if best == nil {
			return
		}
		if winner.Bet.OffsetMs-best.OffsetMs <= DefaultPenaltyThresholdMs {
			rt.Fatalf("advance bet at %d beat standard bet at %d within the penalty threshold", winner.Bet.OffsetMs, best.OffsetMs)
		}
	})
}
