package leet

import (
	"context"
	"errors"
	"strconv"
	"time"

	"leetbot/bot/common"
	"leetbot/domain/entities"
	"leetbot/domain/interfaces"
	"leetbot/domain/services"
	"leetbot/infrastructure/observability"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// handleBet handles the /1337 command
func (f *Feature) handleBet(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// Capture the instant before any round trip
	now := f.game.Clock.Now()
	start, _ := f.game.Schedule.StateAt(now)

	bet, err := f.submitBet(context.Background(), i, entities.BetClassStandard, now, time.Time{})
	f.respondToBet(s, i, bet, start, err)
}

// handleEarlyBird handles the /1337-early-bird command
func (f *Feature) handleEarlyBird(s *discordgo.Session, i *discordgo.InteractionCreate) {
	now := f.game.Clock.Now()
	start, _ := f.game.Schedule.StateAt(now)

	var input string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "time" {
			input = opt.StringValue()
		}
	}

	playTime, err := services.ParsePlayTime(input, start, f.game.Schedule.Location())
	if err != nil {
		observability.GetMetrics().RecordBetSubmitted(BetOutcome(err))
		common.HandleError(s, i, common.NewUserError(
			"Invalid time. Use hh:mm:ss.SSS, hh:mm:ss, ss.SSS or ss, e.g. `13:37:13.370` or `13.37`.",
			err.Error(),
		), false)
		return
	}

	bet, err := f.submitBet(context.Background(), i, entities.BetClassAdvance, now, playTime)
	f.respondToBet(s, i, bet, start, err)
}

// submitBet records a bet in the caller's guild
func (f *Feature) submitBet(ctx context.Context, i *discordgo.InteractionCreate, class entities.BetClass, submittedAt, playTime time.Time) (*entities.Bet, error) {
	guildID, err := strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		return nil, common.NewUserError("The 1337 game can only be played in a server.", "bet outside a guild")
	}

	userID, err := common.ParseUserID(common.InteractionUserID(i))
	if err != nil {
		return nil, common.NewSystemError(err, "failed to parse user ID")
	}

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, common.NewSystemError(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	bet, err := f.game.LedgerService(uow).SubmitBet(ctx, interfaces.SubmitBetRequest{
		GuildID:     guildID,
		DiscordID:   userID,
		DisplayName: common.InteractionDisplayName(i),
		Class:       class,
		PlayTime:    playTime,
		SubmittedAt: submittedAt,
	})
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, common.NewSystemError(err, "failed to commit bet")
	}

	return bet, nil
}

// respondToBet records the outcome and answers the player privately
func (f *Feature) respondToBet(s *discordgo.Session, i *discordgo.InteractionCreate, bet *entities.Bet, start time.Time, err error) {
	observability.GetMetrics().RecordBetSubmitted(BetOutcome(err))

	if err != nil {
		var rejected *entities.BetRejectedError
		if errors.As(err, &rejected) {
			err = common.NewUserError(RejectionMessage(rejected), rejected.Error())
		}
		common.HandleError(s, i, err, false)
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: BuildBetAcceptedMessage(bet, start, f.game.Schedule.Location()),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Failed to respond to interaction: %v", err)
	}
}

// handleInfo handles the /1337-info command
func (f *Feature) handleInfo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, err := strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		common.RespondWithError(s, i, "The 1337 game can only be played in a server.")
		return
	}

	userID, err := common.ParseUserID(common.InteractionUserID(i))
	if err != nil {
		log.Errorf("Failed to parse user ID: %v", err)
		common.RespondWithError(s, i, "Failed to process command")
		return
	}

	ctx := context.Background()

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to begin transaction"), false)
		return
	}
	defer uow.Rollback()

	ledger := f.game.LedgerService(uow)

	status, err := ledger.CurrentCycleStatus(ctx, guildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to get cycle status"), false)
		return
	}

	var userBet *entities.Bet
	if status.Cycle.ID != 0 {
		userBet, err = ledger.GetUserBet(ctx, status.Cycle.ID, userID)
		if err != nil {
			common.HandleError(s, i, common.NewSystemError(err, "failed to get user bet"), false)
			return
		}
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{BuildInfoEmbed(status, userBet, f.game.Schedule.Location())},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Failed to respond to interaction: %v", err)
	}
}

// handleRules handles the /1337-rules command
func (f *Feature) handleRules(s *discordgo.Session, i *discordgo.InteractionCreate) {
	schedule := f.game.Schedule
	info := RulesInfo{
		NextStart:          schedule.CurrentOccurrence(f.game.Clock.Now()),
		EarlyWindow:        schedule.EarlyWindow(),
		ResolutionWindow:   schedule.ResolutionWindow(),
		PenaltyThresholdMs: f.game.Rules.PenaltyThresholdMs,
		Periods:            f.game.Rules.Periods,
		Location:           schedule.Location(),
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{BuildRulesEmbed(info)},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Failed to respond to interaction: %v", err)
	}
}
