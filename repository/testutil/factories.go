package testutil

import (
	"time"

	"leetbot/domain/entities"
)

// CreateTestCycle builds an unpersisted cycle with a one minute window and a fixed target
func CreateTestCycle(guildID int64, startsAt time.Time) *entities.Cycle {
	target := int64(45000)
	return &entities.Cycle{
		GuildID:            guildID,
		StartsAt:           startsAt.UTC(),
		EarlyWindowMs:      (2 * time.Hour).Milliseconds(),
		ResolutionWindowMs: time.Minute.Milliseconds(),
		TargetOffsetMs:     &target,
	}
}

// CreateTestBet builds an unpersisted bet
func CreateTestBet(cycleID, discordID, offsetMs int64, class entities.BetClass) *entities.Bet {
	return &entities.Bet{
		CycleID:     cycleID,
		DiscordID:   discordID,
		DisplayName: "player",
		OffsetMs:    offsetMs,
		Class:       class,
		SubmittedAt: time.Now().UTC(),
	}
}

// CreateTestWinRecord builds an unpersisted win record
func CreateTestWinRecord(cycleID, discordID int64, winDate time.Time) *entities.WinRecord {
	return &entities.WinRecord{
		CycleID:        cycleID,
		DiscordID:      discordID,
		DisplayName:    "winner",
		WinDate:        winDate,
		OffsetMs:       44000,
		TargetOffsetMs: 45000,
		Class:          entities.BetClassStandard,
	}
}
