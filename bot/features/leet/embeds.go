package leet

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"leetbot/bot/common"
	"leetbot/domain/entities"
	"leetbot/domain/events"
	"leetbot/domain/interfaces"
	"leetbot/domain/services"
	"leetbot/infrastructure/observability"

	"github.com/bwmarrin/discordgo"
)

// RulesInfo carries the values shown by /1337-rules
type RulesInfo struct {
	NextStart          time.Time
	EarlyWindow        time.Duration
	ResolutionWindow   time.Duration
	PenaltyThresholdMs int64
	Periods            entities.RankPeriods
	Location           *time.Location
}

// BetOutcome maps a submission result to its metric outcome
func BetOutcome(err error) string {
	var rejected *entities.BetRejectedError
	switch {
	case err == nil:
		return observability.BetOutcomeAccepted
	case errors.Is(err, services.ErrInvalidTimestamp):
		return observability.BetOutcomeInvalidTime
	case errors.As(err, &rejected):
		switch {
		case errors.Is(rejected, entities.ErrDuplicateBet):
			return observability.BetOutcomeDuplicate
		case errors.Is(rejected, entities.ErrWindowClosed):
			return observability.BetOutcomeWindowClosed
		case errors.Is(rejected, entities.ErrCycleNotFound):
			return observability.BetOutcomeNoGame
		}
	}
	return observability.BetOutcomeError
}

// RejectionMessage turns a bet rejection into the text shown to the player
func RejectionMessage(rejected *entities.BetRejectedError) string {
	var message string
	switch {
	case errors.Is(rejected, entities.ErrDuplicateBet):
		message = "You already placed a bet for today's 1337."
	case errors.Is(rejected, entities.ErrWindowClosed):
		message = "Betting is closed right now."
	case errors.Is(rejected, entities.ErrCycleNotFound):
		message = "There is no 1337 game running right now."
	default:
		message = "Your bet was not accepted."
	}
	if rejected.Detail != "" {
		message += " (" + rejected.Detail + ")"
	}
	return message
}

// BuildBetAcceptedMessage confirms a recorded bet to the player
func BuildBetAcceptedMessage(bet *entities.Bet, startsAt time.Time, loc *time.Location) string {
	playTime := services.FormatPlayTime(bet.PlayTime(startsAt), loc)
	if bet.Class == entities.BetClassAdvance {
		return fmt.Sprintf("🐦 Early bird bet placed for **%s** (%s after start). Good luck!",
			playTime, common.FormatOffset(bet.OffsetMs))
	}
	return fmt.Sprintf("✅ Bet placed at **%s** (%s after start). Good luck!",
		playTime, common.FormatOffset(bet.OffsetMs))
}

// stateLabel returns a short description of a cycle state
func stateLabel(state entities.CycleState) string {
	switch state {
	case entities.CycleStateScheduled:
		return "⏳ Waiting for betting to open"
	case entities.CycleStateEarlyWindowOpen:
		return "🐦 Early bird bets open"
	case entities.CycleStateStandardWindowOpen:
		return "🎯 Betting open"
	case entities.CycleStateResolving:
		return "⚖️ Picking the winner"
	case entities.CycleStateResolved:
		return "🔚 Ended"
	default:
		return string(state)
	}
}

// BuildInfoEmbed shows the current cycle and the caller's bet
func BuildInfoEmbed(status *interfaces.CycleStatus, userBet *entities.Bet, loc *time.Location) *discordgo.MessageEmbed {
	cycle := status.Cycle
	windows := cycle.Windows()

	embed := &discordgo.MessageEmbed{
		Title: "🎯 1337 Game Info",
		Color: common.ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Status",
				Value:  stateLabel(status.State),
				Inline: true,
			},
			{
				Name:   "Bets",
				Value:  fmt.Sprintf("%d", status.BetCount),
				Inline: true,
			},
			{
				Name: "Game Start",
				Value: fmt.Sprintf("%s (%s)",
					common.FormatDiscordTimestamp(windows.StartsAt, "T"),
					common.FormatDiscordTimestamp(windows.StartsAt, "R")),
				Inline: false,
			},
		},
	}

	if status.State == entities.CycleStateScheduled || status.State == entities.CycleStateEarlyWindowOpen {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Early Bird Window",
			Value:  fmt.Sprintf("Opens %s", common.FormatDiscordTimestamp(windows.EarlyOpensAt, "R")),
			Inline: false,
		})
	}

	if userBet != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Your Bet",
			Value: fmt.Sprintf("%s at **%s** (%s)",
				userBet.Class.DisplayName(),
				services.FormatPlayTime(userBet.PlayTime(cycle.StartsAt), loc),
				common.FormatOffset(userBet.OffsetMs)),
			Inline: false,
		})
	} else if status.State != entities.CycleStateResolved {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Your Bet",
			Value:  "No bet yet",
			Inline: false,
		})
	}

	if status.RevealedTargetMs != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Target",
			Value: fmt.Sprintf("**%s** (%s)",
				services.FormatPlayTime(cycle.StartsAt.Add(time.Duration(*status.RevealedTargetMs)*time.Millisecond), loc),
				common.FormatOffset(*status.RevealedTargetMs)),
			Inline: true,
		})
	}

	if status.State == entities.CycleStateResolved {
		winner := "Nobody won this time"
		if status.Winner != nil {
			winner = fmt.Sprintf("%s, %s before the target",
				common.GetUserMention(status.Winner.DiscordID),
				common.FormatMilliseconds(status.Winner.MillisecondsBeforeTarget()))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Winner",
			Value:  winner,
			Inline: true,
		})
	}

	return embed
}

// BuildRulesEmbed explains how the game works
func BuildRulesEmbed(info RulesInfo) *discordgo.MessageEmbed {
	startTime := info.NextStart.In(info.Location).Format("15:04")

	var sb strings.Builder
	fmt.Fprintf(&sb, "Every day at **%s** (%s) a secret target time is drawn somewhere in the next %s.\n",
		startTime, info.Location.String(), common.FormatMilliseconds(info.ResolutionWindow.Milliseconds()))
	sb.WriteString("Place one bet per day. The closest bet **before** the target wins. Bets after the target never win.\n\n")
	sb.WriteString("**Bet types**\n")
	sb.WriteString("• `/1337` records the exact moment you run it during the game window.\n")
	fmt.Fprintf(&sb, "• `/1337-early-bird time:` lets you pick a time up to %s before the game starts. ", common.FormatDuration(info.EarlyWindow))
	fmt.Fprintf(&sb, "Early birds lose against a regular bet that is less than %s further from the target.\n\n",
		common.FormatMilliseconds(info.PenaltyThresholdMs))
	sb.WriteString("**Ranks**\n")
	fmt.Fprintf(&sb, "• **%s**: most wins in the last %d days\n", entities.TierGeneral.DisplayName(), info.Periods.GeneralDays)
	fmt.Fprintf(&sb, "• **%s**: most wins in the last %d days\n", entities.TierCommander.DisplayName(), info.Periods.CommanderDays)
	fmt.Fprintf(&sb, "• **%s**: today's winner\n", entities.TierSergeant.DisplayName())
	sb.WriteString("Nobody holds more than one rank at a time.")

	return &discordgo.MessageEmbed{
		Title:       "📜 1337 Rules",
		Description: sb.String(),
		Color:       common.ColorInfo,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Early bird times: hh:mm:ss.SSS, hh:mm:ss, ss.SSS or ss",
		},
	}
}

// BuildWinnerEmbed announces the outcome of a resolved cycle
func BuildWinnerEmbed(event events.CycleResolvedEvent, loc *time.Location) *discordgo.MessageEmbed {
	target := event.StartsAt.Add(time.Duration(event.TargetOffsetMs) * time.Millisecond)

	if event.Winner == nil {
		return &discordgo.MessageEmbed{
			Title:       "🔚 No 1337 Winner Today",
			Description: fmt.Sprintf("Nobody beat the target this time. %s placed.", common.Pluralize(int64(event.BetCount), "bet was", "bets were")),
			Color:       common.ColorWarning,
			Fields: []*discordgo.MessageEmbedField{
				{
					Name:   "Target",
					Value:  fmt.Sprintf("**%s** (%s)", services.FormatPlayTime(target, loc), common.FormatOffset(event.TargetOffsetMs)),
					Inline: true,
				},
			},
		}
	}

	winner := event.Winner
	betTime := event.StartsAt.Add(time.Duration(winner.OffsetMs) * time.Millisecond)

	return &discordgo.MessageEmbed{
		Title:       "🏆 1337 Winner",
		Description: fmt.Sprintf("%s wins today's 1337!", common.GetUserMention(winner.DiscordID)),
		Color:       common.ColorGold,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Bet Type",
				Value:  winner.Class.DisplayName(),
				Inline: true,
			},
			{
				Name:   "Bet Time",
				Value:  services.FormatPlayTime(betTime, loc),
				Inline: true,
			},
			{
				Name:   "Target",
				Value:  services.FormatPlayTime(target, loc),
				Inline: true,
			},
			{
				Name:   "Margin",
				Value:  fmt.Sprintf("%s before the target", common.FormatMilliseconds(winner.MillisecondsBeforeTarget())),
				Inline: true,
			},
			{
				Name:   "Bets",
				Value:  fmt.Sprintf("%d", event.BetCount),
				Inline: true,
			},
		},
	}
}

// BuildRankChangeMessage announces a new tier holder
func BuildRankChangeMessage(event events.RankChangedEvent) string {
	message := fmt.Sprintf("🎖️ %s is the new **%s**!", common.GetUserMention(event.NewHolder), event.Tier.DisplayName())
	if event.OldHolder != 0 {
		message += fmt.Sprintf(" %s steps down.", common.GetUserMention(event.OldHolder))
	}
	return message
}

// BuildGeneralBetMessage announces the current General's bet time
func BuildGeneralBetMessage(event events.BetPlacedEvent, loc *time.Location) string {
	return fmt.Sprintf("🎖️ **The General has placed their bet at %s!** 🎖️", services.FormatPlayTime(event.PlayTime(), loc))
}
