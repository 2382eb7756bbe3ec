package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	_ "time/tzdata"

	"leetbot/application"
	"leetbot/config"
	"leetbot/domain/entities"
	"leetbot/domain/services"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// BuildGame assembles the schedule, target generator and rules from configuration
func BuildGame(cfg *config.Config) (*application.Game, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load game timezone: %w", err)
	}

	schedule, err := services.NewSchedule(cfg.GameCron, loc, cfg.EarlyWindow(), cfg.ResolutionWindow())
	if err != nil {
		return nil, fmt.Errorf("failed to build schedule: %w", err)
	}

	secret := cfg.TargetSecret
	if secret == "" {
		// Targets are stored when a cycle opens, so a per-process secret only
		// affects cycles that have not been opened yet
		secret = uuid.NewString()
		log.Warn("TARGET_SECRET not set, using a random secret for this process")
	}

	return &application.Game{
		Schedule: schedule,
		Targets:  services.NewTargetGenerator(secret, cfg.ResolutionWindow()),
		Rules: services.GameRules{
			PenaltyThresholdMs:   cfg.PenaltyThresholdMs,
			AllowLateAdvanceBets: cfg.AllowLateAdvanceBets,
			Periods: entities.RankPeriods{
				CommanderDays: cfg.CommanderDays,
				GeneralDays:   cfg.GeneralDays,
			},
		},
		Clock: services.SystemClock(),
	}, nil
}

// SeedPrimaryGuild enables the game in GUILD_ID and applies the channel and
// role IDs from the environment. Unset values leave the stored settings alone.
func SeedPrimaryGuild(ctx context.Context, cfg *config.Config, uowFactory application.UnitOfWorkFactory, game *application.Game) error {
	if cfg.GuildID == "" {
		return nil
	}

	guildID, err := strconv.ParseInt(cfg.GuildID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid GUILD_ID %q: %w", cfg.GuildID, err)
	}

	channelID, err := parseOptionalID("ANNOUNCEMENT_CHANNEL_ID", cfg.AnnouncementChannelID)
	if err != nil {
		return err
	}

	roles := map[entities.Tier]string{
		entities.TierSergeant:  cfg.SergeantRoleID,
		entities.TierCommander: cfg.CommanderRoleID,
		entities.TierGeneral:   cfg.GeneralRoleID,
	}

	uow := uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settingsService := game.GuildSettingsService(uow)

	if _, err := settingsService.GetOrCreateSettings(ctx, guildID); err != nil {
		return fmt.Errorf("failed to get guild settings: %w", err)
	}
	if err := settingsService.SetEnabled(ctx, guildID, true); err != nil {
		return fmt.Errorf("failed to enable guild: %w", err)
	}
	if channelID != nil {
		if err := settingsService.UpdateAnnouncementChannel(ctx, guildID, channelID); err != nil {
			return fmt.Errorf("failed to set announcement channel: %w", err)
		}
	}
	for _, tier := range entities.AllTiers {
		roleID, err := parseOptionalID(strings.ToUpper(string(tier))+"_ROLE_ID", roles[tier])
		if err != nil {
			return err
		}
		if roleID == nil {
			continue
		}
		if err := settingsService.UpdateTierRole(ctx, guildID, tier, roleID); err != nil {
			return fmt.Errorf("failed to set %s role: %w", tier, err)
		}
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit guild settings: %w", err)
	}

	log.WithField("guild_id", guildID).Info("Primary guild settings seeded")
	return nil
}

// parseOptionalID parses a snowflake from the environment, nil when unset
func parseOptionalID(name, value string) (*int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return &id, nil
}
