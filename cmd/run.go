package cmd

import (
	"context"
	"fmt"
	"time"

	"basementbot/bot"
	"basementbot/bot/extensions/admin"
	"basementbot/bot/extensions/factoids"
	"basementbot/bot/extensions/grabs"
	"basementbot/bot/extensions/ipinfo"
	"basementbot/bot/extensions/relay"
	"basementbot/bot/extensions/roll"
	"basementbot/bot/extensions/settings"
	"basementbot/config"
	"basementbot/database"
	"basementbot/guildconfig"
	"basementbot/infrastructure"
	"basementbot/mongodb"
	"basementbot/registry"
	"basementbot/repository"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Main.Environment == "development" {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("Starting basementbot...")

	db, err := database.NewConnection(ctx, cfg.PostgresURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	mongo, err := mongodb.NewConnection(ctx, cfg.Main.Mongo.URL, cfg.Main.Mongo.Name)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongo.Close(closeCtx); err != nil {
			log.WithError(err).Warn("Error closing mongodb connection")
		}
	}()
	log.Info("MongoDB connection established")

	store := guildconfig.NewStore(
		mongo.Collection("guild_configs"),
		cfg.Main.DefaultPrefix,
		time.Duration(cfg.Main.Cache.GuildConfigSeconds)*time.Second,
	)
	defer store.Close()

	uowFactory := repository.NewUnitOfWorkFactory(db)

	httpClient := infrastructure.NewHTTPClient(time.Duration(cfg.Main.Cache.HTTPCacheSeconds) * time.Second)
	defer httpClient.Close()

	var publisher infrastructure.MessagePublisher = infrastructure.NoopMessagePublisher{}
	if cfg.Main.NATS.Servers != "" {
		natsClient := infrastructure.NewNATSClient(cfg.Main.NATS.Servers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Close()
		publisher = natsClient
	} else {
		log.Warn("No NATS servers configured, relayed messages will be dropped")
	}

	reg := registry.New(store)
	store.SetSchemaSource(reg.Schemas)

	if err := declareExtensions(reg, cfg, store, uowFactory, httpClient, publisher); err != nil {
		return fmt.Errorf("failed to declare extensions: %w", err)
	}

	reg.LoadAll(ctx, cfg.Main.DisabledExtensions)
	log.WithField("loaded", reg.Loaded()).Info("Extensions loaded")

	botConfig := bot.Config{
		Token:      cfg.Main.AuthToken,
		AdminIDs:   cfg.Main.Admins.IDs,
		AdminRoles: cfg.Main.Admins.Roles,
	}
	discordBot, err := bot.New(botConfig, reg, store)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Infof("Bot is running in %s mode", cfg.Main.Environment)

	<-ctx.Done()

	log.Info("Shutting down bot...")
	if err := discordBot.Close(); err != nil {
		log.WithError(err).Error("Error closing Discord bot")
	}

	return nil
}

// declareExtensions fills the registry manifest. Extensions are
// declared here, not discovered; adding one means adding a line.
func declareExtensions(
	reg *registry.Registry,
	cfg *config.Config,
	store *guildconfig.Store,
	uowFactory repository.UnitOfWorkFactory,
	httpClient *infrastructure.HTTPClient,
	publisher infrastructure.MessagePublisher,
) error {
	declarations := []struct {
		name    string
		factory registry.Factory
	}{
		{"settings", func() (registry.Extension, error) { return settings.New(store, reg, httpClient), nil }},
		{"admin", func() (registry.Extension, error) { return admin.New(reg, cfg.Main.Admins.IDs, cfg.Main.Admins.Roles), nil }},
		{"factoids", func() (registry.Extension, error) { return factoids.New(uowFactory, store), nil }},
		{"grabs", func() (registry.Extension, error) { return grabs.New(uowFactory), nil }},
		{"roll", func() (registry.Extension, error) { return roll.New(store), nil }},
		{"ipinfo", func() (registry.Extension, error) { return ipinfo.New(httpClient), nil }},
		{"relay", func() (registry.Extension, error) { return relay.New(publisher), nil }},
	}

	for _, declaration := range declarations {
		if err := reg.Declare(declaration.name, declaration.factory); err != nil {
			return err
		}
	}
	return nil
}
