package observability

// Metric name prefixes
const (
	MetricPrefix = "leetbot"
)

// Metric names
const (
	// Game metrics
	BetsSubmittedTotal  = MetricPrefix + ".bets.submitted_total"
	CyclesResolvedTotal = MetricPrefix + ".cycles.resolved_total"
	RanksChangedTotal   = MetricPrefix + ".ranks.changed_total"
	ResolutionDuration  = MetricPrefix + ".resolution.duration"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelOutcome   = "outcome"
	LabelTier      = "tier"
	LabelEventType = "event_type"
)

// Bet outcomes
const (
	BetOutcomeAccepted     = "accepted"
	BetOutcomeDuplicate    = "duplicate"
	BetOutcomeWindowClosed = "window_closed"
	BetOutcomeNoGame       = "no_game"
	BetOutcomeInvalidTime  = "invalid_time"
	BetOutcomeError        = "error"
)

// Resolution outcomes
const (
	ResolutionOutcomeWinner       = "winner"
	ResolutionOutcomeNoWinner     = "no_winner"
	ResolutionOutcomePrecondition = "precondition_failed"
	ResolutionOutcomeError        = "error"
)
