package application

import (
	"context"
	"fmt"

	"leetbot/domain/entities"
	"leetbot/domain/events"
	"leetbot/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// GameEventHandler reacts to committed resolutions by announcing them and moving tier roles
type GameEventHandler struct {
	uowFactory  UnitOfWorkFactory
	roleApplier RoleApplier
	announcer   Announcer
}

// NewGameEventHandler creates a new GameEventHandler
func NewGameEventHandler(uowFactory UnitOfWorkFactory, roleApplier RoleApplier, announcer Announcer) *GameEventHandler {
	return &GameEventHandler{
		uowFactory:  uowFactory,
		roleApplier: roleApplier,
		announcer:   announcer,
	}
}

// HandleBetPlaced announces the bet when the bettor currently holds General
func (h *GameEventHandler) HandleBetPlaced(ctx context.Context, event interface{}) error {
	e, err := AssertEventType[events.BetPlacedEvent](event, "BetPlacedEvent")
	if err != nil {
		return err
	}

	uow := h.uowFactory.CreateForGuild(e.GuildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	snapshot, err := uow.RankAssignmentRepository().GetSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rank assignments: %w", err)
	}
	if e.DiscordID == 0 || snapshot.Holder(entities.TierGeneral) != e.DiscordID {
		return nil
	}

	settings, err := uow.GuildSettingsRepository().GetGuildSettings(ctx, e.GuildID)
	if err != nil {
		return fmt.Errorf("failed to get guild settings: %w", err)
	}
	if settings == nil || !settings.HasAnnouncementChannel() {
		log.WithField("guild_id", e.GuildID).Debug("No announcement channel configured, skipping general bet announcement")
		return nil
	}

	if err := h.announcer.AnnounceGeneralBet(ctx, *settings.AnnouncementChannelID, e); err != nil {
		return fmt.Errorf("failed to announce general bet %d: %w", e.BetID, err)
	}
	return nil
}

// HandleCycleResolved posts the cycle outcome to the announcement channel
func (h *GameEventHandler) HandleCycleResolved(ctx context.Context, event interface{}) error {
	e, err := AssertEventType[events.CycleResolvedEvent](event, "CycleResolvedEvent")
	if err != nil {
		return err
	}

	settings, err := h.loadSettings(ctx, e.GuildID)
	if err != nil {
		return err
	}
	if settings == nil || !settings.HasAnnouncementChannel() {
		log.WithField("guild_id", e.GuildID).Debug("No announcement channel configured, skipping winner announcement")
		return nil
	}

	if err := h.announcer.AnnounceWinner(ctx, *settings.AnnouncementChannelID, e); err != nil {
		return fmt.Errorf("failed to announce cycle %d: %w", e.CycleID, err)
	}
	return nil
}

// HandleRankChanged moves the tier role and announces the change
func (h *GameEventHandler) HandleRankChanged(ctx context.Context, event interface{}) error {
	e, err := AssertEventType[events.RankChangedEvent](event, "RankChangedEvent")
	if err != nil {
		return err
	}

	observability.GetMetrics().RecordRankChange(string(e.Tier))

	settings, err := h.loadSettings(ctx, e.GuildID)
	if err != nil {
		return err
	}
	if settings == nil {
		return nil
	}

	fields := log.Fields{
		"guild_id":   e.GuildID,
		"tier":       e.Tier,
		"old_holder": e.OldHolder,
		"new_holder": e.NewHolder,
	}

	var applyErr error
	if roleID, ok := settings.RoleFor(e.Tier); ok {
		applyErr = h.roleApplier.ApplyAssignment(ctx, RoleAssignment{
			GuildID:   e.GuildID,
			Tier:      e.Tier,
			RoleID:    roleID,
			OldHolder: e.OldHolder,
			NewHolder: e.NewHolder,
		})
		if applyErr != nil {
			log.WithFields(fields).WithError(applyErr).Error("Failed to apply tier role")
		}
	} else {
		log.WithFields(fields).Debug("No role configured for tier, skipping role update")
	}

	// Vacated tiers are covered by the promotion that caused them
	if settings.HasAnnouncementChannel() && !e.Delta().IsVacate() {
		if err := h.announcer.AnnounceRankChange(ctx, *settings.AnnouncementChannelID, e); err != nil {
			log.WithFields(fields).WithError(err).Error("Failed to announce rank change")
		}
	}

	if applyErr != nil {
		return fmt.Errorf("failed to apply %s role: %w", e.Tier, applyErr)
	}
	return nil
}

func (h *GameEventHandler) loadSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error) {
	uow := h.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := uow.GuildSettingsRepository().GetGuildSettings(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild settings: %w", err)
	}
	return settings, nil
}
