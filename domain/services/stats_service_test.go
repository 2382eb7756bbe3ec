package services

import (
	"context"
	"testing"
	"time"

	"leetbot/domain/entities"
	"leetbot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsService_TopWinners(t *testing.T) {
	t.Parallel()

	winRepo := new(testhelpers.MockWinRecordRepository)
	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	service := NewStatsService(winRepo, newUTCSchedule(t), &testhelpers.FixedClock{At: now})

	stats := []*entities.WinnerStat{{DiscordID: 100, DisplayName: "alice", Wins: 2}}
	since := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	winRepo.On("GetTopWinners", context.Background(), since, 10).Return(stats, nil)

	result, err := service.TopWinners(context.Background(), 14, 10)

	require.NoError(t, err)
	assert.Equal(t, stats, result)
	winRepo.AssertExpectations(t)
}

func TestStatsService_TopWinnersRejectsEmptyWindow(t *testing.T) {
	t.Parallel()

	service := NewStatsService(new(testhelpers.MockWinRecordRepository), newUTCSchedule(t), &testhelpers.FixedClock{At: time.Now()})

	_, err := service.TopWinners(context.Background(), 0, 10)
	assert.Error(t, err)
}
