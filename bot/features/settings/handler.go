package settings

import (
	"context"
	"fmt"
	"strconv"

	"leetbot/bot/common"
	"leetbot/domain/entities"
	"leetbot/domain/interfaces"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// settingsUpdate applies one change through the guild settings service
type settingsUpdate func(ctx context.Context, svc interfaces.GuildSettingsService, guildID int64) error

// handleEnable handles the /1337-settings enable command
func (f *Feature) handleEnable(s *discordgo.Session, i *discordgo.InteractionCreate) {
	enabled := true
	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		if opt.Name == "enabled" {
			enabled = opt.BoolValue()
		}
	}

	message := "✅ The 1337 game is now enabled in this server"
	if !enabled {
		message = "✅ The 1337 game is now disabled in this server"
	}

	f.applyUpdate(s, i, func(ctx context.Context, svc interfaces.GuildSettingsService, guildID int64) error {
		return svc.SetEnabled(ctx, guildID, enabled)
	}, message)
}

// handleChannel handles the /1337-settings channel command
func (f *Feature) handleChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var channelID *int64

	options := i.ApplicationCommandData().Options[0].Options
	if len(options) > 0 && options[0].Name == "channel" {
		channelIDStr := options[0].ChannelValue(s).ID
		if channelIDStr != "" {
			channelIDInt, err := strconv.ParseInt(channelIDStr, 10, 64)
			if err != nil {
				log.Errorf("Failed to parse channel ID: %v", err)
				common.RespondWithError(s, i, "Invalid channel selected")
				return
			}
			channelID = &channelIDInt
		}
	}

	message := "✅ Winner announcements disabled"
	if channelID != nil {
		message = fmt.Sprintf("✅ Winners will be announced in %s", common.GetChannelMention(*channelID))
	}

	f.applyUpdate(s, i, func(ctx context.Context, svc interfaces.GuildSettingsService, guildID int64) error {
		return svc.UpdateAnnouncementChannel(ctx, guildID, channelID)
	}, message)
}

// handleRole handles the /1337-settings role command
func (f *Feature) handleRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var tier entities.Tier
	var roleID *int64

	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		switch opt.Name {
		case "tier":
			tier = entities.Tier(opt.StringValue())
		case "role":
			roleIDStr := opt.RoleValue(s, i.GuildID).ID
			if roleIDStr == "" {
				continue
			}
			roleIDInt, err := strconv.ParseInt(roleIDStr, 10, 64)
			if err != nil {
				log.Errorf("Failed to parse role ID: %v", err)
				common.RespondWithError(s, i, "Invalid role selected")
				return
			}
			roleID = &roleIDInt
		}
	}

	if !tier.IsValid() {
		common.RespondWithError(s, i, "Unknown rank")
		return
	}

	message := fmt.Sprintf("✅ %s role removed", tier.DisplayName())
	if roleID != nil {
		message = fmt.Sprintf("✅ %s role updated to %s", tier.DisplayName(), common.GetRoleMention(*roleID))
	}

	f.applyUpdate(s, i, func(ctx context.Context, svc interfaces.GuildSettingsService, guildID int64) error {
		return svc.UpdateTierRole(ctx, guildID, tier, roleID)
	}, message)
}

// handleShow handles the /1337-settings show command
func (f *Feature) handleShow(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, ok := f.authorize(s, i)
	if !ok {
		return
	}

	ctx := context.Background()

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		common.RespondWithError(s, i, "Failed to load settings")
		return
	}
	defer uow.Rollback()

	settings, err := f.game.GuildSettingsService(uow).GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to load guild settings: %v", err)
		common.RespondWithError(s, i, "Failed to load settings")
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing transaction: %v", err)
		common.RespondWithError(s, i, "Failed to load settings")
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{BuildSettingsEmbed(settings)},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Failed to respond to interaction: %v", err)
	}
}

// authorize checks admin permissions and parses the guild ID
func (f *Feature) authorize(s *discordgo.Session, i *discordgo.InteractionCreate) (int64, bool) {
	if i.Member == nil || i.Member.User == nil {
		common.RespondWithError(s, i, "This command can only be used in a server")
		return 0, false
	}

	if !common.IsUserAdmin(s, i.GuildID, i.Member.User.ID) {
		common.RespondWithError(s, i, "You need administrator permissions to use this command")
		return 0, false
	}

	guildID, err := strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		log.Errorf("Failed to parse guild ID: %v", err)
		common.RespondWithError(s, i, "Failed to process command")
		return 0, false
	}

	return guildID, true
}

// applyUpdate runs a settings change in a guild transaction and confirms it
func (f *Feature) applyUpdate(s *discordgo.Session, i *discordgo.InteractionCreate, update settingsUpdate, successMessage string) {
	guildID, ok := f.authorize(s, i)
	if !ok {
		return
	}

	ctx := context.Background()

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		common.RespondWithError(s, i, "Failed to update settings")
		return
	}
	defer uow.Rollback()

	if err := update(ctx, f.game.GuildSettingsService(uow), guildID); err != nil {
		log.Errorf("Failed to update guild settings: %v", err)
		common.RespondWithError(s, i, "Failed to update settings")
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing transaction: %v", err)
		common.RespondWithError(s, i, "Failed to update settings")
		return
	}

	log.WithFields(log.Fields{
		"guild_id":   guildID,
		"subcommand": i.ApplicationCommandData().Options[0].Name,
		"user_id":    i.Member.User.ID,
	}).Info("Guild settings updated")

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: successMessage,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Failed to respond to interaction: %v", err)
	}
}
