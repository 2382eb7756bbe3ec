package services

import (
	"errors"
	"fmt"
	"time"

	"leetbot/domain/entities"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard five-field expressions with an optional leading seconds field
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Schedule turns a recurrence expression and timezone into cycle start instants
type Schedule struct {
	expression       string
	location         *time.Location
	recurrence       cron.Schedule
	earlyWindow      time.Duration
	resolutionWindow time.Duration
}

// NewSchedule parses the recurrence expression in the given timezone
func NewSchedule(expression string, location *time.Location, earlyWindow, resolutionWindow time.Duration) (*Schedule, error) {
	if location == nil {
		return nil, errors.New("schedule location is required")
	}
	if resolutionWindow <= 0 {
		return nil, fmt.Errorf("resolution window must be positive, got %v", resolutionWindow)
	}
	if earlyWindow < 0 {
		return nil, fmt.Errorf("early window must not be negative, got %v", earlyWindow)
	}

	recurrence, err := cronParser.Parse(fmt.Sprintf("CRON_TZ=%s %s", location.String(), expression))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schedule %q: %w", expression, err)
	}

	return &Schedule{
		expression:       expression,
		location:         location,
		recurrence:       recurrence,
		earlyWindow:      earlyWindow,
		resolutionWindow: resolutionWindow,
	}, nil
}

// Expression returns the recurrence expression
func (s *Schedule) Expression() string { return s.expression }

// Location returns the schedule timezone
func (s *Schedule) Location() *time.Location { return s.location }

// EarlyWindow returns the early-bet window length
func (s *Schedule) EarlyWindow() time.Duration { return s.earlyWindow }

// ResolutionWindow returns the resolution window length
func (s *Schedule) ResolutionWindow() time.Duration { return s.resolutionWindow }

// NextOccurrence returns the first cycle start strictly after the given instant
func (s *Schedule) NextOccurrence(after time.Time) time.Time {
	return s.recurrence.Next(after).UTC()
}

// CurrentOccurrence returns the start of the cycle that has not yet reached its resolution
// instant at now: the running cycle if one is in its standard window, otherwise the next one.
func (s *Schedule) CurrentOccurrence(now time.Time) time.Time {
	return s.NextOccurrence(now.Add(-s.resolutionWindow))
}

// TimeUntilNext returns the time remaining until the next cycle start
func (s *Schedule) TimeUntilNext(now time.Time) time.Duration {
	return s.NextOccurrence(now).Sub(now)
}

// Windows returns the window boundaries for a cycle starting at start
func (s *Schedule) Windows(start time.Time) entities.CycleWindows {
	return entities.NewCycleWindows(start, s.earlyWindow, s.resolutionWindow)
}

// StateAt returns the current cycle start and its time-driven state at now
func (s *Schedule) StateAt(now time.Time) (time.Time, entities.CycleState) {
	start := s.CurrentOccurrence(now)
	return start, s.Windows(start).StateAt(now)
}

// IsCycleOpen reports whether real-time bets are accepted at now
func (s *Schedule) IsCycleOpen(now time.Time) bool {
	_, state := s.StateAt(now)
	return state == entities.CycleStateStandardWindowOpen
}

// IsEarlyWindowOpen reports whether advance bets are accepted at now
func (s *Schedule) IsEarlyWindowOpen(now time.Time) bool {
	_, state := s.StateAt(now)
	return state == entities.CycleStateEarlyWindowOpen
}

// GameDate returns the calendar date of a cycle start in the schedule timezone
func (s *Schedule) GameDate(start time.Time) time.Time {
	return entities.DateOf(start, s.location)
}
