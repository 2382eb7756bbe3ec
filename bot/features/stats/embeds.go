package stats

import (
	"fmt"
	"strings"

	"leetbot/bot/common"
	"leetbot/domain/entities"

	"github.com/bwmarrin/discordgo"
)

// LeaderboardSection is one ranking window shown by /1337-stats
type LeaderboardSection struct {
	Title   string
	Days    int
	Winners []*entities.WinnerStat
}

// Heading returns the section title with its window length
func (s LeaderboardSection) Heading() string {
	return fmt.Sprintf("%s (%d days)", s.Title, s.Days)
}

// getMedalForRank returns the appropriate medal emoji or rank number
func getMedalForRank(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("%d.", rank)
	}
}

// formatLeaderboard renders the ranked lines of one section
func formatLeaderboard(winners []*entities.WinnerStat) string {
	if len(winners) == 0 {
		return "No winners yet"
	}

	var sb strings.Builder
	for idx, stat := range winners {
		if idx > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s %s **%s**", getMedalForRank(idx+1), common.GetUserMention(stat.DiscordID),
			common.Pluralize(stat.Wins, "win", "wins"))
	}
	return sb.String()
}

// BuildLeaderboardEmbed creates the stats embed with one field per section
func BuildLeaderboardEmbed(sections []LeaderboardSection) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:  "📊 1337 Leaderboard",
		Color:  common.ColorPrimary,
		Fields: make([]*discordgo.MessageEmbedField, 0, len(sections)),
	}

	for _, section := range sections {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   section.Heading(),
			Value:  formatLeaderboard(section.Winners),
			Inline: false,
		})
	}

	return embed
}
