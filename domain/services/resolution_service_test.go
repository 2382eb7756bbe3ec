package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"leetbot/domain/entities"
	"leetbot/domain/events"
	"leetbot/domain/interfaces"
	"leetbot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type resolutionFixture struct {
	cycleRepo      *testhelpers.MockCycleRepository
	betRepo        *testhelpers.MockBetRepository
	winRepo        *testhelpers.MockWinRecordRepository
	rankRepo       *testhelpers.MockRankAssignmentRepository
	eventPublisher *testhelpers.MockEventPublisher
	targets        *TargetGenerator
	service        interfaces.ResolutionService
}

func newResolutionFixture(t *testing.T, now time.Time) *resolutionFixture {
	t.Helper()

	f := &resolutionFixture{
		cycleRepo:      new(testhelpers.MockCycleRepository),
		betRepo:        new(testhelpers.MockBetRepository),
		winRepo:        new(testhelpers.MockWinRecordRepository),
		rankRepo:       new(testhelpers.MockRankAssignmentRepository),
		eventPublisher: new(testhelpers.MockEventPublisher),
		targets:        NewTargetGenerator("test-secret", time.Minute),
	}
	f.service = NewResolutionService(
		f.cycleRepo, f.betRepo, f.winRepo, f.rankRepo,
		newUTCSchedule(t),
		f.targets,
		DefaultGameRules(),
		&testhelpers.FixedClock{At: now},
		f.eventPublisher,
	)
	return f
}

func winnerIs(id int64) interface{} {
	return mock.MatchedBy(func(w *int64) bool { return w != nil && *w == id })
}

func TestResolutionService_ResolveCycle_PenaltyScenario(t *testing.T) {
	t.Parallel()

	now := testCycleStart.Add(time.Minute)
	f := newResolutionFixture(t, now)
	cycle := createTestCycle(10)

	bets := []*entities.Bet{
		{ID: 1, CycleID: 10, DiscordID: 100, DisplayName: "standard", OffsetMs: 44800, Class: entities.BetClassStandard},
		{ID: 2, CycleID: 10, DiscordID: 200, DisplayName: "advance", OffsetMs: 44950, Class: entities.BetClassAdvance},
		{ID: 3, CycleID: 10, DiscordID: 300, DisplayName: "late", OffsetMs: 45001, Class: entities.BetClassStandard},
	}
	record := &entities.WinRecord{
		ID: 7, CycleID: 10, GuildID: testGuildID, DiscordID: 100, DisplayName: "standard",
		WinDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), OffsetMs: 44800, TargetOffsetMs: 45000,
		Class: entities.BetClassStandard,
	}

	f.cycleRepo.On("GetByIDForUpdate", mock.Anything, int64(10)).Return(cycle, nil)
	f.betRepo.On("GetByCycle", mock.Anything, int64(10)).Return(bets, nil)
	f.winRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *entities.WinRecord) bool {
		return r.DiscordID == 100 && r.OffsetMs == 44800 && r.TargetOffsetMs == 45000 &&
			r.WinDate.Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	})).Return(record, nil)
	f.winRepo.On("GetHistorySince", mock.Anything, mock.Anything).Return([]*entities.WinRecord{record}, nil)
	f.rankRepo.On("GetSnapshot", mock.Anything).Return(entities.RankSnapshot{}, nil)
	f.rankRepo.On("ApplyDeltas", mock.Anything, []entities.AssignmentDelta{
		{Tier: entities.TierGeneral, OldHolder: 0, NewHolder: 100},
	}).Return(nil)
	f.cycleRepo.On("MarkResolved", mock.Anything, int64(10), now, winnerIs(100)).Return(nil)
	f.eventPublisher.On("Publish", mock.MatchedBy(func(e events.CycleResolvedEvent) bool {
		return e.CycleID == 10 && e.Winner != nil && e.Winner.DiscordID == 100 && e.BetCount == 3 && len(e.RankChanges) == 1
	})).Return(nil).Once()
	f.eventPublisher.On("Publish", mock.MatchedBy(func(e events.RankChangedEvent) bool {
		return e.Tier == entities.TierGeneral && e.NewHolder == 100
	})).Return(nil).Once()

	result, err := f.service.ResolveCycle(context.Background(), 10)

	require.NoError(t, err)
	require.NotNil(t, result.Winner)
	assert.Equal(t, int64(100), result.Winner.DiscordID)
	assert.Equal(t, entities.BetClassStandard, result.Winner.Class)
	assert.Equal(t, 3, result.BetCount)
	assert.False(t, result.AlreadyResolved)
	assert.True(t, result.Cycle.IsResolved())
	f.cycleRepo.AssertExpectations(t)
	f.winRepo.AssertExpectations(t)
	f.rankRepo.AssertExpectations(t)
	f.eventPublisher.AssertExpectations(t)
}

func TestResolutionService_ResolveCycle_NoBets(t *testing.T) {
	t.Parallel()

	now := testCycleStart.Add(2 * time.Minute)
	f := newResolutionFixture(t, now)

	f.cycleRepo.On("GetByIDForUpdate", mock.Anything, int64(10)).Return(createTestCycle(10), nil)
	f.betRepo.On("GetByCycle", mock.Anything, int64(10)).Return([]*entities.Bet{}, nil)
	f.winRepo.On("GetHistorySince", mock.Anything, mock.Anything).Return([]*entities.WinRecord{}, nil)
	f.rankRepo.On("GetSnapshot", mock.Anything).Return(entities.RankSnapshot{}, nil)
	f.cycleRepo.On("MarkResolved", mock.Anything, int64(10), now, (*int64)(nil)).Return(nil)
	f.eventPublisher.On("Publish", mock.AnythingOfType("events.CycleResolvedEvent")).Return(nil)

	result, err := f.service.ResolveCycle(context.Background(), 10)

	require.NoError(t, err)
	assert.Nil(t, result.Winner)
	assert.Empty(t, result.Deltas)
	f.winRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.rankRepo.AssertNotCalled(t, "ApplyDeltas", mock.Anything, mock.Anything)
	f.cycleRepo.AssertExpectations(t)
}

func TestResolutionService_ResolveCycle_AlreadyResolved(t *testing.T) {
	t.Parallel()

	f := newResolutionFixture(t, testCycleStart.Add(time.Hour))
	resolvedAt := testCycleStart.Add(time.Minute)
	winner := int64(100)
	cycle := createTestCycle(10, func(c *entities.Cycle) {
		c.ResolvedAt = &resolvedAt
		c.WinnerDiscordID = &winner
	})
	record := &entities.WinRecord{ID: 7, CycleID: 10, DiscordID: 100, OffsetMs: 44800, TargetOffsetMs: 45000}

	f.cycleRepo.On("GetByIDForUpdate", mock.Anything, int64(10)).Return(cycle, nil)
	f.winRepo.On("GetByCycle", mock.Anything, int64(10)).Return(record, nil)
	f.betRepo.On("CountByCycle", mock.Anything, int64(10)).Return(2, nil)

	result, err := f.service.ResolveCycle(context.Background(), 10)

	require.NoError(t, err)
	assert.True(t, result.AlreadyResolved)
	assert.Equal(t, record, result.Winner)
	assert.Equal(t, 2, result.BetCount)
	f.cycleRepo.AssertNotCalled(t, "MarkResolved", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.winRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.eventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestResolutionService_ResolveCycle_Idempotent(t *testing.T) {
	t.Parallel()

	now := testCycleStart.Add(time.Minute)
	f := newResolutionFixture(t, now)

	open := createTestCycle(10)
	winner := int64(200)
	resolved := createTestCycle(10, func(c *entities.Cycle) {
		c.ResolvedAt = &now
		c.WinnerDiscordID = &winner
	})
	bets := []*entities.Bet{
		{ID: 1, CycleID: 10, DiscordID: 100, OffsetMs: 40000, Class: entities.BetClassStandard},
		{ID: 2, CycleID: 10, DiscordID: 200, OffsetMs: 44990, Class: entities.BetClassAdvance},
	}
	record := &entities.WinRecord{ID: 7, CycleID: 10, DiscordID: 200, OffsetMs: 44990, TargetOffsetMs: 45000, Class: entities.BetClassAdvance}

	f.cycleRepo.On("GetByIDForUpdate", mock.Anything, int64(10)).Return(open, nil).Once()
	f.cycleRepo.On("GetByIDForUpdate", mock.Anything, int64(10)).Return(resolved, nil).Once()
	f.betRepo.On("GetByCycle", mock.Anything, int64(10)).Return(bets, nil)
	f.betRepo.On("CountByCycle", mock.Anything, int64(10)).Return(2, nil)
	f.winRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.WinRecord")).Return(record, nil).Once()
	f.winRepo.On("GetByCycle", mock.Anything, int64(10)).Return(record, nil)
	f.winRepo.On("GetHistorySince", mock.Anything, mock.Anything).Return([]*entities.WinRecord{record}, nil)
	f.rankRepo.On("GetSnapshot", mock.Anything).Return(entities.RankSnapshot{}, nil)
	f.rankRepo.On("ApplyDeltas", mock.Anything, mock.Anything).Return(nil)
	f.cycleRepo.On("MarkResolved", mock.Anything, int64(10), now, winnerIs(200)).Return(nil).Once()
	f.eventPublisher.On("Publish", mock.Anything).Return(nil)

	first, err := f.service.ResolveCycle(context.Background(), 10)
	require.NoError(t, err)
	second, err := f.service.ResolveCycle(context.Background(), 10)
	require.NoError(t, err)

	require.NotNil(t, first.Winner)
	require.NotNil(t, second.Winner)
	assert.Equal(t, first.Winner.DiscordID, second.Winner.DiscordID)
	assert.Equal(t, entities.BetClassAdvance, first.Winner.Class)
	assert.True(t, second.AlreadyResolved)
	f.winRepo.AssertNumberOfCalls(t, "Create", 1)
	f.cycleRepo.AssertNumberOfCalls(t, "MarkResolved", 1)
}

func TestResolutionService_ResolveCycle_NotDue(t *testing.T) {
	t.Parallel()

	f := newResolutionFixture(t, testCycleStart.Add(30*time.Second))
	f.cycleRepo.On("GetByIDForUpdate", mock.Anything, int64(10)).Return(createTestCycle(10), nil)

	_, err := f.service.ResolveCycle(context.Background(), 10)

	assert.True(t, errors.Is(err, ErrCycleNotDue))
	f.betRepo.AssertNotCalled(t, "GetByCycle", mock.Anything, mock.Anything)
}

func TestResolutionService_ResolveCycle_MissingCycle(t *testing.T) {
	t.Parallel()

	f := newResolutionFixture(t, testCycleStart.Add(time.Hour))
	f.cycleRepo.On("GetByIDForUpdate", mock.Anything, int64(404)).Return(nil, nil)

	_, err := f.service.ResolveCycle(context.Background(), 404)

	var preErr *entities.ResolutionPreconditionError
	require.True(t, errors.As(err, &preErr))
	assert.Equal(t, int64(404), preErr.CycleID)
}

func TestResolutionService_ResolveCycle_NoWindowClosesWithoutWinner(t *testing.T) {
	t.Parallel()

	now := testCycleStart.Add(time.Hour)
	f := newResolutionFixture(t, now)
	cycle := createTestCycle(10, func(c *entities.Cycle) {
		c.ResolutionWindowMs = 0
		c.TargetOffsetMs = nil
	})

	f.cycleRepo.On("GetByIDForUpdate", mock.Anything, int64(10)).Return(cycle, nil)
	f.cycleRepo.On("MarkResolved", mock.Anything, int64(10), now, (*int64)(nil)).Return(nil)
	f.eventPublisher.On("Publish", mock.AnythingOfType("events.CycleResolvedEvent")).Return(nil)

	result, err := f.service.ResolveCycle(context.Background(), 10)

	var preErr *entities.ResolutionPreconditionError
	require.True(t, errors.As(err, &preErr))
	require.NotNil(t, result)
	assert.True(t, result.Cycle.IsResolved())
	assert.Nil(t, result.Winner)
	f.cycleRepo.AssertExpectations(t)
}

func TestResolutionService_ResolveCycle_GeneratesMissingTarget(t *testing.T) {
	t.Parallel()

	now := testCycleStart.Add(time.Minute)
	f := newResolutionFixture(t, now)
	cycle := createTestCycle(10, func(c *entities.Cycle) { c.TargetOffsetMs = nil })
	expected := f.targets.TargetFor(cycle)

	f.cycleRepo.On("GetByIDForUpdate", mock.Anything, int64(10)).Return(cycle, nil)
	f.cycleRepo.On("SetTarget", mock.Anything, int64(10), expected).Return(nil)
	f.betRepo.On("GetByCycle", mock.Anything, int64(10)).Return([]*entities.Bet{}, nil)
	f.winRepo.On("GetHistorySince", mock.Anything, mock.Anything).Return([]*entities.WinRecord{}, nil)
	f.rankRepo.On("GetSnapshot", mock.Anything).Return(entities.RankSnapshot{}, nil)
	f.cycleRepo.On("MarkResolved", mock.Anything, int64(10), now, (*int64)(nil)).Return(nil)
	f.eventPublisher.On("Publish", mock.Anything).Return(nil)

	result, err := f.service.ResolveCycle(context.Background(), 10)

	require.NoError(t, err)
	require.NotNil(t, result.Cycle.TargetOffsetMs)
	assert.Equal(t, expected, *result.Cycle.TargetOffsetMs)
	f.cycleRepo.AssertExpectations(t)
}

func TestResolutionService_OpenCycle(t *testing.T) {
	t.Parallel()

	f := newResolutionFixture(t, testCycleStart.Add(-2*time.Hour))
	stored := createTestCycle(10)

	f.cycleRepo.On("GetOrCreate", mock.Anything, mock.MatchedBy(func(c *entities.Cycle) bool {
		return c.EarlyWindowMs == (2*time.Hour).Milliseconds() &&
			c.ResolutionWindowMs == 60000 &&
			c.TargetOffsetMs != nil && *c.TargetOffsetMs == f.targets.TargetFor(c)
	})).Return(stored, nil)

	cycle, err := f.service.OpenCycle(context.Background(), testGuildID, testCycleStart)

	require.NoError(t, err)
	assert.Equal(t, stored, cycle)
	f.cycleRepo.AssertExpectations(t)
}
