package settings

import (
	"leetbot/bot/common"
	"leetbot/domain/entities"

	"github.com/bwmarrin/discordgo"
)

// BuildSettingsEmbed shows the current configuration of the guild
func BuildSettingsEmbed(settings *entities.GuildSettings) *discordgo.MessageEmbed {
	status := "Disabled"
	color := common.ColorWarning
	if settings.Enabled {
		status = "Enabled"
		color = common.ColorSuccess
	}

	channel := "Not set"
	if settings.HasAnnouncementChannel() {
		channel = common.GetChannelMention(*settings.AnnouncementChannelID)
	}

	embed := &discordgo.MessageEmbed{
		Title: "⚙️ 1337 Settings",
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Game", Value: status, Inline: true},
			{Name: "Announcements", Value: channel, Inline: true},
		},
	}

	for _, tier := range entities.AllTiers {
		value := "Not set"
		if roleID, ok := settings.RoleFor(tier); ok {
			value = common.GetRoleMention(roleID)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   tier.DisplayName() + " Role",
			Value:  value,
			Inline: true,
		})
	}

	return embed
}
