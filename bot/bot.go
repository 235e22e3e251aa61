package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"basementbot/bot/common"
	"basementbot/guildconfig"
	"basementbot/registry"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token      string
	AdminIDs   []string
	AdminRoles []string

	// CommandLimit and CommandWindow bound prefix command usage per
	// channel.
	CommandLimit  int
	CommandWindow time.Duration
}

// ConfigStore is the slice of the guild config store the dispatcher
// needs. Implemented by guildconfig.Store.
type ConfigStore interface {
	Config(ctx context.Context, guildID string) (*guildconfig.GuildConfig, error)
	Replace(ctx context.Context, cfg *guildconfig.GuildConfig) error
}

// Bot manages the Discord session and routes events to extensions
// through the registry.
type Bot struct {
	config      Config
	session     *discordgo.Session
	registry    *registry.Registry
	store       ConfigStore
	cooldowns   *CooldownLimiter
	guildLogger *GuildLogger
}

// New creates a bot instance, opens the gateway connection, and
// registers the slash commands of every loaded extension.
func New(config Config, reg *registry.Registry, store ConfigStore) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAllWithoutPrivileged | discordgo.IntentsGuildMembers | discordgo.IntentsMessageContent

	b := newBot(config, dg, reg, store)

	dg.AddHandler(b.handleCommands)
	dg.AddHandler(b.handleInteractions)
	dg.AddHandler(b.handleGuildCreate)
	dg.AddHandler(b.handleMessageCreate)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := b.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	return b, nil
}

// newBot assembles the bot without touching the gateway.
func newBot(config Config, session *discordgo.Session, reg *registry.Registry, store ConfigStore) *Bot {
	if config.CommandLimit <= 0 {
		config.CommandLimit = 3
	}
	if config.CommandWindow <= 0 {
		config.CommandWindow = 10 * time.Second
	}

	return &Bot{
		config:      config,
		session:     session,
		registry:    reg,
		store:       store,
		cooldowns:   NewCooldownLimiter(config.CommandLimit, config.CommandWindow),
		guildLogger: NewGuildLogger(session, store),
	}
}

// Close gracefully shuts down the bot
func (b *Bot) Close() error {
	b.cooldowns.Close()
	return b.session.Close()
}

// GetSession returns the Discord session
func (b *Bot) GetSession() *discordgo.Session {
	return b.session
}

// GuildLogger returns the guild channel logger for extensions that
// mirror their own activity.
func (b *Bot) GuildLogger() *GuildLogger {
	return b.guildLogger
}

// IsBotAdmin reports whether the user is a configured bot admin.
func (b *Bot) IsBotAdmin(guildID, userID string) bool {
	return common.IsBotAdmin(b.session, guildID, userID, b.config.AdminIDs, b.config.AdminRoles)
}

// handleCommands routes slash commands to the owning extension. The
// guild's enabled flag is checked before the handler runs.
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	defer b.recoverInteractionPanic(s, i, name)

	ext, ok := b.registry.CommandOwner(name)
	if !ok {
		log.WithField("command", name).Warn("Slash command has no loaded owner")
		return
	}

	ctx := context.Background()

	if i.GuildID != "" {
		enabled, err := b.registry.Enabled(ctx, i.GuildID, ext.Name())
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"guild_id":  i.GuildID,
				"extension": ext.Name(),
			}).Error("Failed to check extension enabled state")
			common.RespondWithError(s, i, "Something went wrong. Please try again later.")
			return
		}
		if !enabled {
			common.RespondWithError(s, i, fmt.Sprintf("The `%s` extension is disabled in this server", ext.Name()))
			return
		}
	}

	handler, ok := ext.(SlashHandler)
	if !ok {
		log.WithField("extension", ext.Name()).Warn("Extension declares commands but handles none")
		return
	}

	b.guildLogger.LogCommand(ctx, i.GuildID, i.ChannelID, interactionUserID(i), name)
	handler.HandleCommand(s, i)
}

// handleInteractions routes component and modal interactions by custom
// ID prefix. Custom IDs are namespaced as "<extension>_...".
func (b *Bot) handleInteractions(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var customID string
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		customID = i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		customID = i.ModalSubmitData().CustomID
	default:
		return
	}

	defer b.recoverInteractionPanic(s, i, customID)

	name := customIDNamespace(customID)
	ext, ok := b.registry.Get(name)
	if !ok {
		return
	}

	if i.GuildID != "" {
		enabled, err := b.registry.Enabled(context.Background(), i.GuildID, name)
		if err != nil || !enabled {
			common.RespondWithError(s, i, fmt.Sprintf("The `%s` extension is disabled in this server", name))
			return
		}
	}

	if handler, ok := ext.(ComponentHandler); ok {
		handler.HandleInteraction(s, i)
	}
}

// handleGuildCreate ensures a config document exists when the bot
// joins a guild or reconnects.
func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	ctx := context.Background()

	cfg, err := b.store.Config(ctx, g.ID)
	if err != nil {
		log.WithError(err).Errorf("Failed to ensure config for guild %s (%s)", g.Name, g.ID)
		return
	}

	log.WithFields(log.Fields{
		"guild_id": cfg.GuildID,
		"prefix":   cfg.CommandPrefix,
		"enabled":  len(cfg.EnabledExtensions),
	}).Infof("Guild available: %s", g.Name)
}

// handleMessageCreate feeds guild messages to observing extensions and
// dispatches prefix commands.
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}
	if m.GuildID == "" {
		return
	}

	ctx := context.Background()

	cfg, err := b.store.Config(ctx, m.GuildID)
	if err != nil {
		log.WithError(err).WithField("guild_id", m.GuildID).Error("Failed to get guild config")
		return
	}

	for _, name := range b.registry.Loaded() {
		ext, ok := b.registry.Get(name)
		if !ok {
			continue
		}
		observer, ok := ext.(MessageObserver)
		if !ok {
			continue
		}
		if !cfg.ExtensionEnabled(name) {
			continue
		}
		observer.ObserveMessage(s, m)
	}

	cmd, ok := ParsePrefixCommand(m.Content, cfg.CommandPrefix)
	if !ok {
		return
	}

	b.dispatchPrefixCommand(ctx, s, m, cfg, cmd)
}

func (b *Bot) dispatchPrefixCommand(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, cfg *guildconfig.GuildConfig, cmd PrefixCommand) {
	defer b.recoverMessagePanic(s, m, cmd.Name)

	owner, handler := b.prefixOwner(cmd.Name)
	if owner == nil {
		b.dispatchUnmatchedPrefix(ctx, s, m, cfg, cmd)
		return
	}

	if !cfg.ExtensionEnabled(owner.Name()) {
		b.reply(s, m, fmt.Sprintf("❌ The `%s` extension is disabled in this server", owner.Name()))
		return
	}

	if !b.cooldowns.Allow(cmd.Name, m.ChannelID) {
		b.reply(s, m, fmt.Sprintf("⏳ That command is on cooldown here, try again in %s",
			common.FormatDuration(b.config.CommandWindow)))
		return
	}

	b.guildLogger.LogCommand(ctx, m.GuildID, m.ChannelID, m.Author.ID, cmd.Name)
	handler.HandlePrefixCommand(s, m, cmd)
}

// dispatchUnmatchedPrefix offers the invocation to fallback handlers,
// in load order. The first enabled handler that consumes it wins.
func (b *Bot) dispatchUnmatchedPrefix(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, cfg *guildconfig.GuildConfig, cmd PrefixCommand) {
	for _, name := range b.registry.Loaded() {
		ext, ok := b.registry.Get(name)
		if !ok {
			continue
		}
		fallback, ok := ext.(PrefixFallbackHandler)
		if !ok {
			continue
		}
		if !cfg.ExtensionEnabled(name) {
			continue
		}
		if !b.cooldowns.Allow(cmd.Name, m.ChannelID) {
			return
		}
		if fallback.HandleUnmatchedPrefix(s, m, cmd) {
			b.guildLogger.LogCommand(ctx, m.GuildID, m.ChannelID, m.Author.ID, cmd.Name)
			return
		}
	}
}

// prefixOwner resolves a prefix command word to the loaded extension
// that declared it.
func (b *Bot) prefixOwner(name string) (registry.Extension, PrefixHandler) {
	for _, extName := range b.registry.Loaded() {
		ext, ok := b.registry.Get(extName)
		if !ok {
			continue
		}
		handler, ok := ext.(PrefixHandler)
		if !ok {
			continue
		}
		for _, word := range handler.PrefixCommands() {
			if word == name {
				return ext, handler
			}
		}
	}
	return nil, nil
}

func (b *Bot) reply(s *discordgo.Session, m *discordgo.MessageCreate, content string) {
	if _, err := s.ChannelMessageSend(m.ChannelID, content); err != nil {
		log.WithError(err).WithField("channel_id", m.ChannelID).Error("Failed to send reply")
	}
}

// recoverInteractionPanic is the central handler for panics raised by
// slash and component handlers. The stack trace is logged and the user
// gets a generic failure notice.
func (b *Bot) recoverInteractionPanic(s *discordgo.Session, i *discordgo.InteractionCreate, name string) {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"command":  name,
			"guild_id": i.GuildID,
			"panic":    r,
			"stack":    string(debug.Stack()),
		}).Error("Panic in interaction handler")
		common.RespondWithError(s, i, "Something went wrong. Please try again later.")
		b.guildLogger.LogError(context.Background(), i.GuildID, i.ChannelID, interactionUserID(i), name, fmt.Errorf("panic: %v", r))
	}
}

// recoverMessagePanic is the prefix command counterpart.
func (b *Bot) recoverMessagePanic(s *discordgo.Session, m *discordgo.MessageCreate, name string) {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"command":  name,
			"guild_id": m.GuildID,
			"panic":    r,
			"stack":    string(debug.Stack()),
		}).Error("Panic in prefix command handler")
		b.reply(s, m, "❌ Something went wrong. Please try again later.")
		b.guildLogger.LogError(context.Background(), m.GuildID, m.ChannelID, m.Author.ID, name, fmt.Errorf("panic: %v", r))
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func customIDNamespace(customID string) string {
	for idx := 0; idx < len(customID); idx++ {
		if customID[idx] == '_' {
			return customID[:idx]
		}
	}
	return customID
}
