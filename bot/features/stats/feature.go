package stats

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"leetbot/application"
	"leetbot/bot/common"
	"leetbot/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// CommandStats is the name of the leaderboard command
const CommandStats = "1337-stats"

// Feature handles the leaderboard command
type Feature struct {
	session        *discordgo.Session
	uowFactory     application.UnitOfWorkFactory
	game           *application.Game
	imageGenerator *LeaderboardImageGenerator
}

// NewFeature creates a new stats feature instance
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory, game *application.Game) *Feature {
	return &Feature{
		session:        session,
		uowFactory:     uowFactory,
		game:           game,
		imageGenerator: NewLeaderboardImageGenerator(),
	}
}

// HandleCommand handles the /1337-stats command
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, err := strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		common.RespondWithError(s, i, "Stats are only available in a server.")
		return
	}

	sections, err := f.loadSections(context.Background(), guildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to load leaderboards"), false)
		return
	}

	embed := BuildLeaderboardEmbed(sections)
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{},
		},
	}

	// The text embed still goes out if rendering fails
	imageData, err := f.imageGenerator.Generate(sections)
	if err != nil {
		log.WithError(err).Warn("Failed to generate leaderboard image")
	} else {
		embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + LeaderboardImageName}
		data.Files = []*discordgo.File{{
			Name:        LeaderboardImageName,
			ContentType: "image/png",
			Reader:      bytes.NewReader(imageData),
		}}
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Errorf("Failed to respond to interaction: %v", err)
	}
}

// loadSections reads the tier windows from the guild's win history
func (f *Feature) loadSections(ctx context.Context, guildID int64) ([]LeaderboardSection, error) {
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	statsService := f.game.StatsService(uow)
	periods := f.game.Rules.Periods

	sections := []LeaderboardSection{
		{Title: entities.TierGeneral.DisplayName() + " race", Days: periods.GeneralDays},
		{Title: entities.TierCommander.DisplayName() + " race", Days: periods.CommanderDays},
	}

	for idx := range sections {
		winners, err := statsService.TopWinners(ctx, sections[idx].Days, common.LeaderboardSize)
		if err != nil {
			return nil, fmt.Errorf("failed to get top winners for %d days: %w", sections[idx].Days, err)
		}
		sections[idx].Winners = winners
	}

	return sections, nil
}
