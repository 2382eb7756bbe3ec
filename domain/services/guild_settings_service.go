package services

import (
	"context"
	"fmt"

	"leetbot/domain/entities"
	"leetbot/domain/interfaces"
)

// guildSettingsService implements the GuildSettingsService interface
type guildSettingsService struct {
	guildSettingsRepo interfaces.GuildSettingsRepository
}

// NewGuildSettingsService creates a new guild settings service
func NewGuildSettingsService(guildSettingsRepo interfaces.GuildSettingsRepository) interfaces.GuildSettingsService {
	return &guildSettingsService{
		guildSettingsRepo: guildSettingsRepo,
	}
}

// GetOrCreateSettings retrieves guild settings or creates default ones if not found
func (s *guildSettingsService) GetOrCreateSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error) {
	settings, err := s.guildSettingsRepo.GetOrCreateGuildSettings(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create guild settings: %w", err)
	}
	return settings, nil
}

// SetEnabled turns the game on or off
func (s *guildSettingsService) SetEnabled(ctx context.Context, guildID int64, enabled bool) error {
	return s.update(ctx, guildID, func(settings *entities.GuildSettings) {
		settings.Enabled = enabled
	})
}

// UpdateAnnouncementChannel updates the winner announcement channel (nil to disable)
func (s *guildSettingsService) UpdateAnnouncementChannel(ctx context.Context, guildID int64, channelID *int64) error {
	return s.update(ctx, guildID, func(settings *entities.GuildSettings) {
		settings.SetAnnouncementChannel(channelID)
	})
}

// UpdateTierRole updates the Discord role of a tier (nil to disable)
func (s *guildSettingsService) UpdateTierRole(ctx context.Context, guildID int64, tier entities.Tier, roleID *int64) error {
	if !tier.IsValid() {
		return fmt.Errorf("unknown tier: %q", tier)
	}
	return s.update(ctx, guildID, func(settings *entities.GuildSettings) {
		settings.SetRole(tier, roleID)
	})
}

func (s *guildSettingsService) update(ctx context.Context, guildID int64, apply func(*entities.GuildSettings)) error {
	settings, err := s.guildSettingsRepo.GetOrCreateGuildSettings(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to get guild settings: %w", err)
	}

	apply(settings)

	if err := s.guildSettingsRepo.UpdateGuildSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to update guild settings: %w", err)
	}
	return nil
}
