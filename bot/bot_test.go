package bot

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"basementbot/guildconfig"
	"basementbot/registry"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	configs map[string]*guildconfig.GuildConfig
}

func newMemoryStore() *memoryStore {
	return &memoryStore{configs: make(map[string]*guildconfig.GuildConfig)}
}

func (s *memoryStore) Config(_ context.Context, guildID string) (*guildconfig.GuildConfig, error) {
	cfg, ok := s.configs[guildID]
	if !ok {
		cfg = &guildconfig.GuildConfig{
			GuildID:       guildID,
			CommandPrefix: ".",
		}
		s.configs[guildID] = cfg
	}
	return cfg, nil
}

func (s *memoryStore) Replace(_ context.Context, cfg *guildconfig.GuildConfig) error {
	s.configs[cfg.GuildID] = cfg
	return nil
}

type echoExtension struct {
	slashCalls  int
	prefixCalls int
}

func (e *echoExtension) Name() string                           { return "echo" }
func (e *echoExtension) Setup(context.Context) error            { return nil }
func (e *echoExtension) ConfigSchema() *guildconfig.Schema      { return nil }
func (e *echoExtension) ApplicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{{Name: "ping", Description: "Ping"}}
}

func (e *echoExtension) HandleCommand(*discordgo.Session, *discordgo.InteractionCreate) {
	e.slashCalls++
}

func (e *echoExtension) PrefixCommands() []string { return []string{"ping"} }

func (e *echoExtension) HandlePrefixCommand(*discordgo.Session, *discordgo.MessageCreate, PrefixCommand) {
	e.prefixCalls++
}

var (
	_ registry.Extension = (*echoExtension)(nil)
	_ SlashHandler       = (*echoExtension)(nil)
	_ PrefixHandler      = (*echoExtension)(nil)
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// stubSession builds a session whose REST calls never leave the test.
func stubSession(t *testing.T) *discordgo.Session {
	t.Helper()

	session, err := discordgo.New("Bot test-token")
	require.NoError(t, err)

	session.Client = &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader("{}")),
				Header:     make(http.Header),
			}, nil
		}),
	}
	session.State.User = &discordgo.User{ID: "bot-user"}
	return session
}

func newTestBot(t *testing.T, config Config) (*Bot, *echoExtension, *memoryStore) {
	t.Helper()

	store := newMemoryStore()
	ext := &echoExtension{}

	reg := registry.New(store)
	require.NoError(t, reg.Declare("echo", func() (registry.Extension, error) { return ext, nil }))
	require.NoError(t, reg.Load(context.Background(), "echo"))

	b := newBot(config, stubSession(t), reg, store)
	t.Cleanup(func() { b.cooldowns.Close() })
	return b, ext, store
}

func slashInvocation(command, guildID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			GuildID:   guildID,
			ChannelID: "channel-1",
			Member:    &discordgo.Member{User: &discordgo.User{ID: "user-1"}},
			Data:      discordgo.ApplicationCommandInteractionData{Name: command},
		},
	}
}

func prefixInvocation(guildID string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			GuildID:   guildID,
			ChannelID: "channel-1",
			Author:    &discordgo.User{ID: "user-1"},
			Content:   ".ping",
		},
	}
}

func TestSlashDispatchRespectsEnabledState(t *testing.T) {
	t.Run("disabled extension is rejected before the handler runs", func(t *testing.T) {
		b, ext, store := newTestBot(t, Config{})

		cfg, err := store.Config(context.Background(), "guild-1")
		require.NoError(t, err)
		cfg.EnabledExtensions = nil

		b.handleCommands(b.session, slashInvocation("ping", "guild-1"))

		assert.Equal(t, 0, ext.slashCalls)
	})

	t.Run("enabled extension handler runs once", func(t *testing.T) {
		b, ext, store := newTestBot(t, Config{})

		cfg, err := store.Config(context.Background(), "guild-1")
		require.NoError(t, err)
		cfg.EnabledExtensions = []string{"echo"}

		b.handleCommands(b.session, slashInvocation("ping", "guild-1"))

		assert.Equal(t, 1, ext.slashCalls)
	})

	t.Run("unknown command is ignored", func(t *testing.T) {
		b, ext, _ := newTestBot(t, Config{})

		b.handleCommands(b.session, slashInvocation("nosuchcommand", "guild-1"))

		assert.Equal(t, 0, ext.slashCalls)
	})
}

func TestPrefixDispatchRespectsEnabledState(t *testing.T) {
	t.Run("disabled extension is rejected before the handler runs", func(t *testing.T) {
		b, ext, store := newTestBot(t, Config{})

		ctx := context.Background()
		cfg, err := store.Config(ctx, "guild-1")
		require.NoError(t, err)
		cfg.EnabledExtensions = nil

		b.dispatchPrefixCommand(ctx, b.session, prefixInvocation("guild-1"), cfg, PrefixCommand{Name: "ping"})

		assert.Equal(t, 0, ext.prefixCalls)
	})

	t.Run("enabled extension handler runs once", func(t *testing.T) {
		b, ext, store := newTestBot(t, Config{})

		ctx := context.Background()
		cfg, err := store.Config(ctx, "guild-1")
		require.NoError(t, err)
		cfg.EnabledExtensions = []string{"echo"}

		b.dispatchPrefixCommand(ctx, b.session, prefixInvocation("guild-1"), cfg, PrefixCommand{Name: "ping"})

		assert.Equal(t, 1, ext.prefixCalls)
	})

	t.Run("disabling mid-stream stops subsequent invocations", func(t *testing.T) {
		b, ext, store := newTestBot(t, Config{})

		ctx := context.Background()
		cfg, err := store.Config(ctx, "guild-1")
		require.NoError(t, err)
		cfg.EnabledExtensions = []string{"echo"}

		b.dispatchPrefixCommand(ctx, b.session, prefixInvocation("guild-1"), cfg, PrefixCommand{Name: "ping"})
		require.Equal(t, 1, ext.prefixCalls)

		cfg.EnabledExtensions = nil
		b.dispatchPrefixCommand(ctx, b.session, prefixInvocation("guild-1"), cfg, PrefixCommand{Name: "ping"})

		assert.Equal(t, 1, ext.prefixCalls)
	})
}

func TestGuildLoggerMirrorsToConfiguredChannel(t *testing.T) {
	store := newMemoryStore()

	ctx := context.Background()
	cfg, err := store.Config(ctx, "guild-1")
	require.NoError(t, err)
	cfg.LoggingChannel = "log-channel"

	var bodies []string
	session, err := discordgo.New("Bot test-token")
	require.NoError(t, err)
	session.Client = &http.Client{
		Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			body := ""
			if r.Body != nil {
				data, _ := io.ReadAll(r.Body)
				body = string(data)
			}
			bodies = append(bodies, body)
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader("{}")),
				Header:     make(http.Header),
			}, nil
		}),
	}

	logger := NewGuildLogger(session, store)
	logger.LogCommand(ctx, "guild-1", "channel-1", "user-1", "ping")

	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "ping")
	assert.Contains(t, bodies[0], "<t:", "embed carries a Discord timestamp")

	t.Run("guilds without a logging channel stay silent", func(t *testing.T) {
		bodies = nil
		cfg.LoggingChannel = ""
		logger.LogCommand(ctx, "guild-1", "channel-1", "user-1", "ping")
		assert.Empty(t, bodies)
	})
}

func TestPrefixDispatchCooldown(t *testing.T) {
	b, ext, store := newTestBot(t, Config{CommandLimit: 2, CommandWindow: time.Minute})

	ctx := context.Background()
	cfg, err := store.Config(ctx, "guild-1")
	require.NoError(t, err)
	cfg.EnabledExtensions = []string{"echo"}

	for i := 0; i < 5; i++ {
		b.dispatchPrefixCommand(ctx, b.session, prefixInvocation("guild-1"), cfg, PrefixCommand{Name: "ping"})
	}

	assert.Equal(t, 2, ext.prefixCalls)
}
