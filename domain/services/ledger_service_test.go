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

const testGuildID int64 = 123456789

var testCycleStart = time.Date(2026, 3, 14, 13, 37, 0, 0, time.UTC)

// createTestCycle builds an opened cycle with a fixed target
func createTestCycle(id int64, opts ...func(*entities.Cycle)) *entities.Cycle {
	target := int64(45000)
	cycle := &entities.Cycle{
		ID:                 id,
		GuildID:            testGuildID,
		StartsAt:           testCycleStart,
		EarlyWindowMs:      (2 * time.Hour).Milliseconds(),
		ResolutionWindowMs: 60000,
		TargetOffsetMs:     &target,
		CreatedAt:          testCycleStart.Add(-2 * time.Hour),
	}
	for _, opt := range opts {
		opt(cycle)
	}
	return cycle
}

func newUTCSchedule(t *testing.T) *Schedule {
	t.Helper()
	schedule, err := NewSchedule("37 13 * * *", time.UTC, 2*time.Hour, time.Minute)
	require.NoError(t, err)
	return schedule
}

type ledgerFixture struct {
	cycleRepo      *testhelpers.MockCycleRepository
	betRepo        *testhelpers.MockBetRepository
	winRepo        *testhelpers.MockWinRecordRepository
	settingsRepo   *testhelpers.MockGuildSettingsRepository
	eventPublisher *testhelpers.MockEventPublisher
	service        interfaces.LedgerService
}

func newLedgerFixture(t *testing.T, now time.Time, rules GameRules) *ledgerFixture {
	t.Helper()
	return newLedgerFixtureWithClock(t, &testhelpers.FixedClock{At: now}, rules)
}

func newLedgerFixtureWithClock(t *testing.T, clock Clock, rules GameRules) *ledgerFixture {
	t.Helper()

	f := &ledgerFixture{
		cycleRepo:      new(testhelpers.MockCycleRepository),
		betRepo:        new(testhelpers.MockBetRepository),
		winRepo:        new(testhelpers.MockWinRecordRepository),
		settingsRepo:   new(testhelpers.MockGuildSettingsRepository),
		eventPublisher: new(testhelpers.MockEventPublisher),
	}
	f.service = NewLedgerService(
		f.cycleRepo, f.betRepo, f.winRepo, f.settingsRepo,
		newUTCSchedule(t),
		NewTargetGenerator("test-secret", time.Minute),
		rules,
		clock,
		f.eventPublisher,
	)
	return f
}

func (f *ledgerFixture) expectEnabled() {
	f.settingsRepo.On("GetGuildSettings", mock.Anything, testGuildID).
		Return(&entities.GuildSettings{GuildID: testGuildID, Enabled: true}, nil)
}

func (f *ledgerFixture) expectOpenCycle(cycle *entities.Cycle) {
	f.cycleRepo.On("GetOrCreate", mock.Anything, mock.MatchedBy(func(c *entities.Cycle) bool {
		return c.GuildID == testGuildID && c.StartsAt.Equal(cycle.StartsAt) && c.HasTarget()
	})).Return(cycle, nil)
	f.cycleRepo.On("GetByIDForShare", mock.Anything, cycle.ID).Return(cycle, nil)
}

func (f *ledgerFixture) assertAll(t *testing.T) {
	f.cycleRepo.AssertExpectations(t)
	f.betRepo.AssertExpectations(t)
	f.settingsRepo.AssertExpectations(t)
	f.eventPublisher.AssertExpectations(t)
}

func assertRejected(t *testing.T, err error, reason error) {
	t.Helper()
	require.Error(t, err)
	var rejected *entities.BetRejectedError
	require.True(t, errors.As(err, &rejected), "expected BetRejectedError, got %v", err)
	assert.True(t, errors.Is(err, reason), "expected %v, got %v", reason, err)
}

func TestLedgerService_SubmitBet_StandardAccepted(t *testing.T) {
	t.Parallel()

	now := testCycleStart.Add(12*time.Second + 345*time.Millisecond)
	f := newLedgerFixture(t, now, DefaultGameRules())
	f.expectEnabled()
	f.expectOpenCycle(createTestCycle(10))

	f.betRepo.On("Create", mock.Anything, mock.MatchedBy(func(b *entities.Bet) bool {
		return b.CycleID == 10 && b.DiscordID == 555 && b.OffsetMs == 12345 && b.Class == entities.BetClassStandard
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.Bet).ID = 99
	}).Return(true, nil)
	f.eventPublisher.On("Publish", mock.MatchedBy(func(e events.BetPlacedEvent) bool {
		return e.BetID == 99 && e.OffsetMs == 12345
	})).Return(nil)

	bet, err := f.service.SubmitBet(context.Background(), interfaces.SubmitBetRequest{
		GuildID:     testGuildID,
		DiscordID:   555,
		DisplayName: "leet",
		Class:       entities.BetClassStandard,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(99), bet.ID)
	assert.Equal(t, now, bet.SubmittedAt)
	f.assertAll(t)
}

func TestLedgerService_SubmitBet_UsesArrivalTime(t *testing.T) {
	t.Parallel()

	clock := &testhelpers.SteppingClock{
		At:   testCycleStart.Add(12*time.Second + 345*time.Millisecond),
		Step: 250 * time.Millisecond,
	}
	arrived := clock.Now()

	f := newLedgerFixtureWithClock(t, clock, DefaultGameRules())
	f.expectEnabled()
	f.expectOpenCycle(createTestCycle(10))
	f.betRepo.On("Create", mock.Anything, mock.MatchedBy(func(b *entities.Bet) bool {
		return b.OffsetMs == 12345
	})).Return(true, nil)
	f.eventPublisher.On("Publish", mock.AnythingOfType("events.BetPlacedEvent")).Return(nil)

	bet, err := f.service.SubmitBet(context.Background(), interfaces.SubmitBetRequest{
		GuildID:     testGuildID,
		DiscordID:   555,
		Class:       entities.BetClassStandard,
		SubmittedAt: arrived,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(12345), bet.OffsetMs)
	assert.True(t, bet.SubmittedAt.Equal(arrived))
	f.assertAll(t)
}

func TestSubmissionTime(t *testing.T) {
	t.Parallel()

	now := testCycleStart.Add(10 * time.Second)

	tests := []struct {
		name        string
		submittedAt time.Time
		expected    time.Time
	}{
		{"zero falls back to now", time.Time{}, now},
		{"arrival before now is kept", now.Add(-300 * time.Millisecond), now.Add(-300 * time.Millisecond)},
		{"arrival in the future falls back to now", now.Add(time.Second), now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.expected.Equal(submissionTime(tt.submittedAt, now)))
		})
	}
}

func TestLedgerService_SubmitBet_Duplicate(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t, testCycleStart.Add(5*time.Second), DefaultGameRules())
	f.expectEnabled()
	f.expectOpenCycle(createTestCycle(10))
	f.betRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Bet")).Return(false, nil)

	_, err := f.service.SubmitBet(context.Background(), interfaces.SubmitBetRequest{
		GuildID:   testGuildID,
		DiscordID: 555,
		Class:     entities.BetClassStandard,
	})

	assertRejected(t, err, entities.ErrDuplicateBet)
	f.eventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
	f.assertAll(t)
}

func TestLedgerService_SubmitBet_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		now        time.Time
		rules      GameRules
		enabled    bool
		opensCycle bool
		req        interfaces.SubmitBetRequest
		reason     error
	}{
		{
			name:    "game disabled",
			now:     testCycleStart,
			rules:   DefaultGameRules(),
			enabled: false,
			req:     interfaces.SubmitBetRequest{Class: entities.BetClassStandard},
			reason:  entities.ErrCycleNotFound,
		},
		{
			name:    "before early window",
			now:     testCycleStart.Add(-3 * time.Hour),
			rules:   DefaultGameRules(),
			enabled: true,
			req:     interfaces.SubmitBetRequest{Class: entities.BetClassAdvance, PlayTime: testCycleStart},
			reason:  entities.ErrWindowClosed,
		},
		{
			name:       "standard bet during early window",
			now:        testCycleStart.Add(-time.Minute),
			rules:      DefaultGameRules(),
			enabled:    true,
			opensCycle: true,
			req:        interfaces.SubmitBetRequest{Class: entities.BetClassStandard},
			reason:     entities.ErrWindowClosed,
		},
		{
			name:       "advance bet in the past",
			now:        testCycleStart.Add(-time.Minute),
			rules:      DefaultGameRules(),
			enabled:    true,
			opensCycle: true,
			req:        interfaces.SubmitBetRequest{Class: entities.BetClassAdvance, PlayTime: testCycleStart.Add(-2 * time.Minute)},
			reason:     entities.ErrWindowClosed,
		},
		{
			name:       "advance bet after the resolution instant",
			now:        testCycleStart.Add(-time.Minute),
			rules:      DefaultGameRules(),
			enabled:    true,
			opensCycle: true,
			req:        interfaces.SubmitBetRequest{Class: entities.BetClassAdvance, PlayTime: testCycleStart.Add(time.Minute)},
			reason:     entities.ErrWindowClosed,
		},
		{
			name:       "advance bet before the cycle start",
			now:        testCycleStart.Add(-time.Hour),
			rules:      DefaultGameRules(),
			enabled:    true,
			opensCycle: true,
			req:        interfaces.SubmitBetRequest{Class: entities.BetClassAdvance, PlayTime: testCycleStart.Add(-time.Second)},
			reason:     entities.ErrWindowClosed,
		},
		{
			name:       "advance bet during standard window",
			now:        testCycleStart.Add(10 * time.Second),
			rules:      DefaultGameRules(),
			enabled:    true,
			opensCycle: true,
			req:        interfaces.SubmitBetRequest{Class: entities.BetClassAdvance, PlayTime: testCycleStart.Add(50 * time.Second)},
			reason:     entities.ErrWindowClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newLedgerFixture(t, tt.now, tt.rules)
			f.settingsRepo.On("GetGuildSettings", mock.Anything, testGuildID).
				Return(&entities.GuildSettings{GuildID: testGuildID, Enabled: tt.enabled}, nil)
			if tt.opensCycle {
				f.expectOpenCycle(createTestCycle(10))
			}

			req := tt.req
			req.GuildID = testGuildID
			req.DiscordID = 555

			_, err := f.service.SubmitBet(context.Background(), req)

			assertRejected(t, err, tt.reason)
			f.betRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			f.assertAll(t)
		})
	}
}

func TestLedgerService_SubmitBet_UnknownGuild(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t, testCycleStart, DefaultGameRules())
	f.settingsRepo.On("GetGuildSettings", mock.Anything, testGuildID).Return(nil, nil)

	_, err := f.service.SubmitBet(context.Background(), interfaces.SubmitBetRequest{
		GuildID: testGuildID,
		Class:   entities.BetClassStandard,
	})

	assertRejected(t, err, entities.ErrCycleNotFound)
}

func TestLedgerService_SubmitBet_AdvanceAccepted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		now        time.Time
		allowLate  bool
		playTime   time.Time
		wantOffset int64
	}{
		{
			name:       "early window",
			now:        testCycleStart.Add(-30 * time.Minute),
			playTime:   testCycleStart.Add(44990 * time.Millisecond),
			wantOffset: 44990,
		},
		{
			name:       "play time at cycle start",
			now:        testCycleStart.Add(-time.Second),
			playTime:   testCycleStart,
			wantOffset: 0,
		},
		{
			name:       "late advance bets allowed",
			now:        testCycleStart.Add(10 * time.Second),
			allowLate:  true,
			playTime:   testCycleStart.Add(30 * time.Second),
			wantOffset: 30000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rules := DefaultGameRules()
			rules.AllowLateAdvanceBets = tt.allowLate

			f := newLedgerFixture(t, tt.now, rules)
			f.expectEnabled()
			f.expectOpenCycle(createTestCycle(10))
			f.betRepo.On("Create", mock.Anything, mock.MatchedBy(func(b *entities.Bet) bool {
				return b.OffsetMs == tt.wantOffset && b.Class == entities.BetClassAdvance
			})).Return(true, nil)
			f.eventPublisher.On("Publish", mock.AnythingOfType("events.BetPlacedEvent")).Return(nil)

			bet, err := f.service.SubmitBet(context.Background(), interfaces.SubmitBetRequest{
				GuildID:   testGuildID,
				DiscordID: 777,
				Class:     entities.BetClassAdvance,
				PlayTime:  tt.playTime,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.wantOffset, bet.OffsetMs)
			f.assertAll(t)
		})
	}
}

func TestLedgerService_SubmitBet_ResolvedCycle(t *testing.T) {
	t.Parallel()

	f := newLedgerFixture(t, testCycleStart.Add(59*time.Second), DefaultGameRules())
	f.expectEnabled()
	resolvedAt := testCycleStart.Add(59 * time.Second)
	f.expectOpenCycle(createTestCycle(10, func(c *entities.Cycle) { c.ResolvedAt = &resolvedAt }))

	_, err := f.service.SubmitBet(context.Background(), interfaces.SubmitBetRequest{
		GuildID:   testGuildID,
		DiscordID: 555,
		Class:     entities.BetClassStandard,
	})

	assertRejected(t, err, entities.ErrWindowClosed)
}

func TestLedgerService_QueryCycleStatus(t *testing.T) {
	t.Parallel()

	t.Run("open cycle hides target", func(t *testing.T) {
		t.Parallel()

		f := newLedgerFixture(t, testCycleStart.Add(10*time.Second), DefaultGameRules())
		f.cycleRepo.On("GetByID", mock.Anything, int64(10)).Return(createTestCycle(10), nil)
		f.betRepo.On("CountByCycle", mock.Anything, int64(10)).Return(3, nil)

		status, err := f.service.QueryCycleStatus(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, entities.CycleStateStandardWindowOpen, status.State)
		assert.Equal(t, 3, status.BetCount)
		assert.Nil(t, status.RevealedTargetMs)
		assert.Nil(t, status.Winner)
	})

	t.Run("resolved cycle reveals target and winner", func(t *testing.T) {
		t.Parallel()

		resolvedAt := testCycleStart.Add(time.Minute)
		cycle := createTestCycle(10, func(c *entities.Cycle) { c.ResolvedAt = &resolvedAt })
		record := &entities.WinRecord{CycleID: 10, DiscordID: 555, OffsetMs: 44800, TargetOffsetMs: 45000}

		f := newLedgerFixture(t, testCycleStart.Add(2*time.Minute), DefaultGameRules())
		f.cycleRepo.On("GetByID", mock.Anything, int64(10)).Return(cycle, nil)
		f.betRepo.On("CountByCycle", mock.Anything, int64(10)).Return(2, nil)
		f.winRepo.On("GetByCycle", mock.Anything, int64(10)).Return(record, nil)

		status, err := f.service.QueryCycleStatus(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, entities.CycleStateResolved, status.State)
		require.NotNil(t, status.RevealedTargetMs)
		assert.Equal(t, int64(45000), *status.RevealedTargetMs)
		assert.Equal(t, record, status.Winner)
	})

	t.Run("unknown cycle", func(t *testing.T) {
		t.Parallel()

		f := newLedgerFixture(t, testCycleStart, DefaultGameRules())
		f.cycleRepo.On("GetByID", mock.Anything, int64(404)).Return(nil, nil)

		_, err := f.service.QueryCycleStatus(context.Background(), 404)
		assert.True(t, errors.Is(err, entities.ErrCycleNotFound))
	})
}

func TestLedgerService_CurrentCycleStatus_NotOpened(t *testing.T) {
	t.Parallel()

	now := testCycleStart.Add(-5 * time.Hour)
	f := newLedgerFixture(t, now, DefaultGameRules())
	f.cycleRepo.On("GetByStart", mock.Anything, testCycleStart).Return(nil, nil)

	status, err := f.service.CurrentCycleStatus(context.Background(), testGuildID)
	require.NoError(t, err)
	assert.Equal(t, entities.CycleStateScheduled, status.State)
	assert.Equal(t, int64(0), status.Cycle.ID)
	assert.Equal(t, testCycleStart, status.Cycle.StartsAt)
}
