package bot

import (
	"context"
	"fmt"
	"strconv"

	"leetbot/application"
	"leetbot/bot/features/leet"
	"leetbot/bot/features/ranks"
	"leetbot/bot/features/settings"
	"leetbot/bot/features/stats"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string
}

// Bot manages the Discord bot and all feature modules
type Bot struct {
	// Core components
	config     Config
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	game       *application.Game

	// Feature modules
	leet     *leet.Feature
	stats    *stats.Feature
	settings *settings.Feature

	// Outbound adapters used by event handlers
	announcer   *leet.Announcer
	roleApplier *ranks.RoleApplier
}

// New creates a new bot instance with all features
func New(config Config, uowFactory application.UnitOfWorkFactory, game *application.Game) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	// Members intent keeps role updates and nickname lookups working
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	bot := &Bot{
		config:      config,
		session:     dg,
		uowFactory:  uowFactory,
		game:        game,
		leet:        leet.NewFeature(dg, uowFactory, game),
		stats:       stats.NewFeature(dg, uowFactory, game),
		settings:    settings.NewFeature(dg, uowFactory, game),
		announcer:   leet.NewAnnouncer(dg, game.Schedule.Location()),
		roleApplier: ranks.NewRoleApplier(dg),
	}

	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleGuildCreate)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	return bot, nil
}

// GetAnnouncer returns the Discord announcer for result and rank messages
func (b *Bot) GetAnnouncer() application.Announcer {
	return b.announcer
}

// GetRoleApplier returns the Discord role applier for tier changes
func (b *Bot) GetRoleApplier() application.RoleApplier {
	return b.roleApplier
}

// GetSession returns the Discord session
func (b *Bot) GetSession() *discordgo.Session {
	return b.session
}

// GetConfig returns the bot configuration
func (b *Bot) GetConfig() Config {
	return b.config
}

// Close gracefully shuts down the bot
func (b *Bot) Close() error {
	return b.session.Close()
}

// handleCommands routes slash commands to appropriate handlers
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case leet.CommandBet, leet.CommandEarlyBird, leet.CommandInfo, leet.CommandRules:
		b.leet.HandleCommand(s, i)
	case stats.CommandStats:
		b.stats.HandleCommand(s, i)
	case settings.CommandSettings:
		b.settings.HandleCommand(s, i)
	}
}

// handleGuildCreate makes sure every guild the bot is in has a settings row
func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	ctx := context.Background()

	guildID, err := strconv.ParseInt(g.ID, 10, 64)
	if err != nil {
		log.Errorf("Failed to parse guild ID %s: %v", g.ID, err)
		return
	}

	uow := b.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction: %v", err)
		return
	}
	defer uow.Rollback()

	guildSettings, err := b.game.GuildSettingsService(uow).GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to track guild %s (%s): %v", g.Name, g.ID, err)
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Failed to commit transaction: %v", err)
		return
	}

	log.WithFields(log.Fields{
		"guild_id":   guildID,
		"guild_name": g.Name,
		"enabled":    guildSettings.Enabled,
	}).Info("Guild available")
}
