package application

import (
	"testing"

	"leetbot/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertEventType(t *testing.T) {
	t.Parallel()

	resolved := events.CycleResolvedEvent{GuildID: 1, CycleID: 2}

	t.Run("value", func(t *testing.T) {
		t.Parallel()
		got, err := AssertEventType[events.CycleResolvedEvent](resolved, "CycleResolvedEvent")
		require.NoError(t, err)
		assert.Equal(t, resolved, got)
	})

	t.Run("pointer", func(t *testing.T) {
		t.Parallel()
		got, err := AssertEventType[events.CycleResolvedEvent](&resolved, "CycleResolvedEvent")
		require.NoError(t, err)
		assert.Equal(t, resolved, got)
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()
		_, err := AssertEventType[events.CycleResolvedEvent](events.RankChangedEvent{}, "CycleResolvedEvent")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "event.Type()=rank_changed")
	})

	t.Run("nil pointer", func(t *testing.T) {
		t.Parallel()
		var missing *events.RankChangedEvent
		_, err := AssertEventType[events.CycleResolvedEvent](missing, "CycleResolvedEvent")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "event is nil")
	})
}
