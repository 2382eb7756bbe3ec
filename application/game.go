package application

import (
	"leetbot/domain/interfaces"
	"leetbot/domain/services"
)

// Game holds the rule set shared by every unit of work and builds
// domain services bound to a unit of work's repositories.
type Game struct {
	Schedule *services.Schedule
	Targets  *services.TargetGenerator
	Rules    services.GameRules
	Clock    services.Clock
}

// LedgerService returns a ledger service running inside uow
func (g *Game) LedgerService(uow UnitOfWork) interfaces.LedgerService {
	return services.NewLedgerService(
		uow.CycleRepository(),
		uow.BetRepository(),
		uow.WinRecordRepository(),
		uow.GuildSettingsRepository(),
		g.Schedule,
		g.Targets,
		g.Rules,
		g.Clock,
		uow.EventBus(),
	)
}

// ResolutionService returns a resolution service running inside uow
func (g *Game) ResolutionService(uow UnitOfWork) interfaces.ResolutionService {
	return services.NewResolutionService(
		uow.CycleRepository(),
		uow.BetRepository(),
		uow.WinRecordRepository(),
		uow.RankAssignmentRepository(),
		g.Schedule,
		g.Targets,
		g.Rules,
		g.Clock,
		uow.EventBus(),
	)
}

// StatsService returns a stats service running inside uow
func (g *Game) StatsService(uow UnitOfWork) interfaces.StatsService {
	return services.NewStatsService(uow.WinRecordRepository(), g.Schedule, g.Clock)
}

// GuildSettingsService returns a guild settings service running inside uow
func (g *Game) GuildSettingsService(uow UnitOfWork) interfaces.GuildSettingsService {
	return services.NewGuildSettingsService(uow.GuildSettingsRepository())
}
