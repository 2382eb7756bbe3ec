package cmd

import (
	"context"
	"fmt"
	"time"

	"leetbot/application"
	"leetbot/bot"
	"leetbot/config"
	"leetbot/database"
	"leetbot/infrastructure"
	"leetbot/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	log.Info("Starting leetbot...")

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Apply migrations before anything touches the schema
	log.Info("Running database migrations...")
	if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	// NATS is optional; without it events only reach local handlers
	var natsClient *infrastructure.NATSClient
	var messagePublisher infrastructure.MessagePublisher
	if cfg.NATSServers != "" {
		log.Infof("Connecting to NATS at %s...", cfg.NATSServers)
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			db.Close()
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		messagePublisher = natsClient
	} else {
		log.Warn("NATS_SERVERS not set, events will only be handled in-process")
	}

	eventPublisher := infrastructure.NewNATSEventPublisher(messagePublisher, infrastructure.NewEventSubjectMapper())
	if natsClient != nil {
		if err := eventPublisher.EnsureDomainEventStream(natsClient); err != nil {
			log.Warnf("Failed to ensure domain event stream: %v", err)
		}
	}

	game, err := BuildGame(cfg)
	if err != nil {
		closeNATS(natsClient)
		db.Close()
		return err
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)

	if err := SeedPrimaryGuild(ctx, cfg, uowFactory, game); err != nil {
		log.Warnf("Failed to seed primary guild settings: %v", err)
	}

	log.Info("Initializing Discord bot...")
	discordBot, err := bot.New(bot.Config{
		Token:   cfg.DiscordToken,
		GuildID: cfg.GuildID,
	}, uowFactory, game)
	if err != nil {
		closeNATS(natsClient)
		db.Close()
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Info("Discord bot initialized successfully")

	application.RegisterApplicationSubscriptions(uowFactory, uowFactory, discordBot.GetRoleApplier(), discordBot.GetAnnouncer())

	worker := application.NewCycleWorker(uowFactory, game)
	stopWorker := worker.Start(ctx)

	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"cron":        cfg.GameCron,
		"timezone":    cfg.GameTimezone,
	}).Info("Bot is running")
	<-ctx.Done()

	log.Info("Shutting down bot...")

	stopWorker()

	if err := discordBot.Close(); err != nil {
		log.Errorf("Error closing Discord bot: %v", err)
	}

	closeNATS(natsClient)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.Errorf("Error shutting down metrics: %v", err)
	}

	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return nil
}

func closeNATS(client *infrastructure.NATSClient) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		log.Errorf("Error closing NATS connection: %v", err)
	}
}
