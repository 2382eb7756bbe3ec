package testhelpers

import (
	"context"
	"sync"
	"time"

	"leetbot/domain/entities"
	"leetbot/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockCycleRepository is a mock implementation of CycleRepository
type MockCycleRepository struct {
	mock.Mock
}

func (m *MockCycleRepository) GetOrCreate(ctx context.Context, cycle *entities.Cycle) (*entities.Cycle, error) {
	args := m.Called(ctx, cycle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Cycle), args.Error(1)
}

func (m *MockCycleRepository) GetByID(ctx context.Context, id int64) (*entities.Cycle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Cycle), args.Error(1)
}

func (m *MockCycleRepository) GetByStart(ctx context.Context, startsAt time.Time) (*entities.Cycle, error) {
	args := m.Called(ctx, startsAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Cycle), args.Error(1)
}

func (m *MockCycleRepository) GetByIDForShare(ctx context.Context, id int64) (*entities.Cycle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Cycle), args.Error(1)
}

func (m *MockCycleRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Cycle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Cycle), args.Error(1)
}

func (m *MockCycleRepository) SetTarget(ctx context.Context, id int64, targetOffsetMs int64) error {
	args := m.Called(ctx, id, targetOffsetMs)
	return args.Error(0)
}

func (m *MockCycleRepository) MarkResolved(ctx context.Context, id int64, resolvedAt time.Time, winnerDiscordID *int64) error {
	args := m.Called(ctx, id, resolvedAt, winnerDiscordID)
	return args.Error(0)
}

func (m *MockCycleRepository) GetDueForResolution(ctx context.Context, now time.Time) ([]*entities.Cycle, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Cycle), args.Error(1)
}

func (m *MockCycleRepository) GetNextResolutionTime(ctx context.Context) (*time.Time, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockCycleRepository) GetLatestResolved(ctx context.Context) (*entities.Cycle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Cycle), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Create(ctx context.Context, bet *entities.Bet) (bool, error) {
	args := m.Called(ctx, bet)
	return args.Bool(0), args.Error(1)
}

func (m *MockBetRepository) GetByCycle(ctx context.Context, cycleID int64) ([]*entities.Bet, error) {
	args := m.Called(ctx, cycleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) GetByCycleAndUser(ctx context.Context, cycleID int64, discordID int64) (*entities.Bet, error) {
	args := m.Called(ctx, cycleID, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) CountByCycle(ctx context.Context, cycleID int64) (int, error) {
	args := m.Called(ctx, cycleID)
	return args.Int(0), args.Error(1)
}

// MockWinRecordRepository is a mock implementation of WinRecordRepository
type MockWinRecordRepository struct {
	mock.Mock
}

func (m *MockWinRecordRepository) Create(ctx context.Context, record *entities.WinRecord) (*entities.WinRecord, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WinRecord), args.Error(1)
}

func (m *MockWinRecordRepository) GetByCycle(ctx context.Context, cycleID int64) (*entities.WinRecord, error) {
	args := m.Called(ctx, cycleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WinRecord), args.Error(1)
}

func (m *MockWinRecordRepository) GetHistorySince(ctx context.Context, since time.Time) ([]*entities.WinRecord, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WinRecord), args.Error(1)
}

func (m *MockWinRecordRepository) GetTopWinners(ctx context.Context, since time.Time, limit int) ([]*entities.WinnerStat, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WinnerStat), args.Error(1)
}

// MockRankAssignmentRepository is a mock implementation of RankAssignmentRepository
type MockRankAssignmentRepository struct {
	mock.Mock
}

func (m *MockRankAssignmentRepository) GetSnapshot(ctx context.Context) (entities.RankSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entities.RankSnapshot), args.Error(1)
}

func (m *MockRankAssignmentRepository) ApplyDeltas(ctx context.Context, deltas []entities.AssignmentDelta) error {
	args := m.Called(ctx, deltas)
	return args.Error(0)
}

// MockGuildSettingsRepository is a mock implementation of GuildSettingsRepository
type MockGuildSettingsRepository struct {
	mock.Mock
}

func (m *MockGuildSettingsRepository) GetGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GuildSettings), args.Error(1)
}

func (m *MockGuildSettingsRepository) GetOrCreateGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GuildSettings), args.Error(1)
}

func (m *MockGuildSettingsRepository) UpdateGuildSettings(ctx context.Context, settings *entities.GuildSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *MockGuildSettingsRepository) GetEnabledGuilds(ctx context.Context) ([]*entities.GuildSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.GuildSettings), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// FixedClock is a clock that always returns the same instant
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant
func (c *FixedClock) Now() time.Time {
	return c.At
}

// SteppingClock advances by Step on every call to Now
type SteppingClock struct {
	mu   sync.Mutex
	At   time.Time
	Step time.Duration
}

// Now returns the current instant and moves the clock forward
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.At
	c.At = c.At.Add(c.Step)
	return now
}
