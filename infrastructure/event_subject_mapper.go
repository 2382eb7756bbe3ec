package infrastructure

import (
	"fmt"
	"strings"

	"leetbot/domain/events"
)

const (
	SubjectBetPlaced     = "leet.bets.placed"
	SubjectCycleResolved = "leet.cycles.resolved"
	SubjectRankChanged   = "leet.ranks.changed"

	unknownSubjectPrefix = "leet.unknown."
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeBetPlaced:
		return SubjectBetPlaced
	case events.EventTypeCycleResolved:
		return SubjectCycleResolved
	case events.EventTypeRankChanged:
		return SubjectRankChanged
	default:
		return fmt.Sprintf("%s%s", unknownSubjectPrefix, event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case SubjectBetPlaced:
		return events.EventTypeBetPlaced
	case SubjectCycleResolved:
		return events.EventTypeCycleResolved
	case SubjectRankChanged:
		return events.EventTypeRankChanged
	default:
		return events.EventType(strings.TrimPrefix(subject, unknownSubjectPrefix))
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectBetPlaced,
		SubjectCycleResolved,
		SubjectRankChanged,
	}
}
