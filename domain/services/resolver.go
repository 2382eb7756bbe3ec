package services

import (
	"leetbot/domain/entities"
)

// DefaultPenaltyThresholdMs is the minimum gap an advance bet needs over the best standard bet
const DefaultPenaltyThresholdMs int64 = 3000

// Winner is the bet selected by ResolveWinner
type Winner struct {
	Bet        *entities.Bet
	DistanceMs int64 // milliseconds before the target
}

// ResolveWinner selects the winning bet for a cycle, or nil if no bet is eligible.
//
// Bets after the target never win. The closest standard bet competes with the
// closest advance bet; the advance bet only wins when it is strictly closer and
// more than penaltyThresholdMs away from the standard bet. Ties within a class go
// to the earliest submission, then the lowest participant ID.
func ResolveWinner(targetOffsetMs int64, bets []*entities.Bet, penaltyThresholdMs int64) *Winner {
	var bestStandard, bestAdvance *entities.Bet

	for _, bet := range bets {
		if bet == nil || bet.IsLate(targetOffsetMs) {
			continue
		}
		switch bet.Class {
		case entities.BetClassStandard:
			if closerBet(bet, bestStandard, targetOffsetMs) {
				bestStandard = bet
			}
		case entities.BetClassAdvance:
			if closerBet(bet, bestAdvance, targetOffsetMs) {
				bestAdvance = bet
			}
		}
	}

	var chosen *entities.Bet
	switch {
	case bestStandard == nil && bestAdvance == nil:
		return nil
	case bestAdvance == nil:
		chosen = bestStandard
	case bestStandard == nil:
		chosen = bestAdvance
	default:
		gap := absInt64(bestStandard.OffsetMs - bestAdvance.OffsetMs)
		if gap > penaltyThresholdMs && bestAdvance.DistanceTo(targetOffsetMs) < bestStandard.DistanceTo(targetOffsetMs) {
			chosen = bestAdvance
		} else {
			chosen = bestStandard
		}
	}

	return &Winner{Bet: chosen, DistanceMs: chosen.DistanceTo(targetOffsetMs)}
}

// closerBet reports whether candidate beats current within the same class
func closerBet(candidate, current *entities.Bet, targetOffsetMs int64) bool {
	if current == nil {
		return true
	}
	cd, kd := candidate.DistanceTo(targetOffsetMs), current.DistanceTo(targetOffsetMs)
	if cd != kd {
		return cd < kd
	}
	if !candidate.SubmittedAt.Equal(current.SubmittedAt) {
		return candidate.SubmittedAt.Before(current.SubmittedAt)
	}
	return candidate.DiscordID < current.DiscordID
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
