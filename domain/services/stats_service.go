package services

import (
	"context"
	"fmt"

	"leetbot/domain/entities"
	"leetbot/domain/interfaces"
)

// statsService implements the StatsService interface
type statsService struct {
	winRecordRepo interfaces.WinRecordRepository
	schedule      *Schedule
	clock         Clock
}

// NewStatsService creates a new stats service
func NewStatsService(winRecordRepo interfaces.WinRecordRepository, schedule *Schedule, clock Clock) interfaces.StatsService {
	return &statsService{
		winRecordRepo: winRecordRepo,
		schedule:      schedule,
		clock:         clock,
	}
}

// TopWinners returns the leaderboard for the trailing days, today included
func (s *statsService) TopWinners(ctx context.Context, days int, limit int) ([]*entities.WinnerStat, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}

	today := entities.DateOf(s.clock.Now(), s.schedule.Location())
	since, _ := WindowBounds(today, days)

	stats, err := s.winRecordRepo.GetTopWinners(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top winners: %w", err)
	}
	return stats, nil
}
