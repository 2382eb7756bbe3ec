package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"time"

	"leetbot/domain/entities"
)

// TargetGenerator derives a cycle's secret target offset from its identity.
// The result depends only on the secret and the cycle key, so it can be
// regenerated after a restart without changing any outcome.
type TargetGenerator struct {
	secret           []byte
	resolutionWindow time.Duration
}

// NewTargetGenerator creates a generator for the given secret and default window
func NewTargetGenerator(secret string, resolutionWindow time.Duration) *TargetGenerator {
	return &TargetGenerator{
		secret:           []byte(secret),
		resolutionWindow: resolutionWindow,
	}
}

// TargetOffset returns the target offset in milliseconds within the default resolution window
func (g *TargetGenerator) TargetOffset(key entities.CycleKey) int64 {
	return g.TargetOffsetWithin(key, g.resolutionWindow.Milliseconds())
}

// TargetOffsetWithin returns the target offset in [0, windowMs). It returns 0 for empty windows.
func (g *TargetGenerator) TargetOffsetWithin(key entities.CycleKey, windowMs int64) int64 {
	if windowMs <= 0 {
		return 0
	}

	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(key.String()))
	sum := mac.Sum(nil)

	rng := rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(sum[0:8]),
		binary.BigEndian.Uint64(sum[8:16]),
	))
	return rng.Int64N(windowMs)
}

// TargetFor returns the target offset for a stored cycle using its captured window
func (g *TargetGenerator) TargetFor(cycle *entities.Cycle) int64 {
	return g.TargetOffsetWithin(cycle.Key(), cycle.ResolutionWindowMs)
}
