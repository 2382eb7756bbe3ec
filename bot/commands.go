package bot

import (
	"fmt"

	"leetbot/bot/features/leet"
	"leetbot/bot/features/settings"
	"leetbot/bot/features/stats"
	"leetbot/domain/entities"

	"github.com/bwmarrin/discordgo"
)

var adminPermission int64 = discordgo.PermissionAdministrator

// tierChoices lists the ranks an admin can attach a role to
func tierChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(entities.AllTiers))
	for _, tier := range entities.AllTiers {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  tier.DisplayName(),
			Value: string(tier),
		})
	}
	return choices
}

// applicationCommands returns every slash command of the bot
func applicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        leet.CommandBet,
			Description: "Place your bet for today's 1337 right now",
		},
		{
			Name:        leet.CommandEarlyBird,
			Description: "Place an early bird bet for a time of your choice",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "time",
					Description: "Play time as hh:mm:ss.SSS, hh:mm:ss, ss.SSS or ss",
					Required:    true,
				},
			},
		},
		{
			Name:        leet.CommandInfo,
			Description: "Show information about today's 1337 game",
		},
		{
			Name:        leet.CommandRules,
			Description: "Explain how the 1337 game works",
		},
		{
			Name:        stats.CommandStats,
			Description: "Show the 1337 leaderboards",
		},
		{
			Name:                     settings.CommandSettings,
			Description:              "Configure the 1337 game for this server",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "enable",
					Description: "Turn the game on or off",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Name:        "enabled",
							Description: "Whether the game runs in this server",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "channel",
					Description: "Set the channel for winner announcements",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "channel",
							Description: "Announcement channel (leave empty to disable announcements)",
							Required:    false,
							ChannelTypes: []discordgo.ChannelType{
								discordgo.ChannelTypeGuildText,
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "role",
					Description: "Set the Discord role granted for a rank",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "tier",
							Description: "Rank to configure",
							Required:    true,
							Choices:     tierChoices(),
						},
						{
							Type:        discordgo.ApplicationCommandOptionRole,
							Name:        "role",
							Description: "Role for the rank (leave empty to stop assigning it)",
							Required:    false,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "show",
					Description: "Show the current configuration",
				},
			},
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	for _, cmd := range applicationCommands() {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}

	return nil
}
