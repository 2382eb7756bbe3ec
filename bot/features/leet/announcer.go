package leet

import (
	"context"
	"fmt"
	"time"

	"leetbot/application"
	"leetbot/bot/common"
	"leetbot/domain/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// ChannelSession is the part of the Discord session used for announcements
type ChannelSession interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer posts winners and rank changes to the guild's announcement channel
type Announcer struct {
	session  ChannelSession
	location *time.Location
}

var _ application.Announcer = (*Announcer)(nil)

// NewAnnouncer creates a new announcer rendering times in loc
func NewAnnouncer(session ChannelSession, loc *time.Location) *Announcer {
	return &Announcer{
		session:  session,
		location: loc,
	}
}

// AnnounceWinner posts the outcome of a resolved cycle
func (a *Announcer) AnnounceWinner(ctx context.Context, channelID int64, event events.CycleResolvedEvent) error {
	embed := BuildWinnerEmbed(event, a.location)

	msg, err := a.session.ChannelMessageSendEmbed(common.FormatUserID(channelID), embed, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to post winner announcement: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id":   event.GuildID,
		"cycle_id":   event.CycleID,
		"channel_id": channelID,
		"message_id": msg.ID,
	}).Info("Posted cycle result")
	return nil
}

// AnnounceRankChange posts a single tier change
func (a *Announcer) AnnounceRankChange(ctx context.Context, channelID int64, event events.RankChangedEvent) error {
	if event.NewHolder == 0 {
		return nil
	}

	if _, err := a.session.ChannelMessageSend(common.FormatUserID(channelID), BuildRankChangeMessage(event), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to post rank change: %w", err)
	}
	return nil
}

// AnnounceGeneralBet posts the General's bet time
func (a *Announcer) AnnounceGeneralBet(ctx context.Context, channelID int64, event events.BetPlacedEvent) error {
	if _, err := a.session.ChannelMessageSend(common.FormatUserID(channelID), BuildGeneralBetMessage(event, a.location), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to post general bet: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id":   event.GuildID,
		"cycle_id":   event.CycleID,
		"channel_id": channelID,
	}).Info("Announced general bet")
	return nil
}
