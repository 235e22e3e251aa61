// Package roll implements a dice roll command.
package roll

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"

	"basementbot/bot"
	"basementbot/guildconfig"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const extensionName = "roll"

// Feature rolls dice.
type Feature struct {
	store *guildconfig.Store
}

// New creates the roll extension.
func New(store *guildconfig.Store) *Feature {
	return &Feature{store: store}
}

func (f *Feature) Name() string { return extensionName }

func (f *Feature) Setup(ctx context.Context) error { return nil }

func (f *Feature) ConfigSchema() *guildconfig.Schema {
	return guildconfig.NewSchema().
		Add("max_sides", "int", "Max sides", "Largest die a member may roll", 1000)
}

func (f *Feature) ApplicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "roll",
			Description: "Roll a die",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "sides",
					Description: "Number of sides (default 6)",
					Required:    false,
				},
			},
		},
	}
}

// HandleCommand handles /roll
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sides := int64(6)
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "sides" {
			sides = opt.IntValue()
		}
	}

	f.respond(s, i, f.roll(context.Background(), i.GuildID, sides))
}

// PrefixCommands declares the prefix command words this extension owns.
func (f *Feature) PrefixCommands() []string {
	return []string{"roll"}
}

// HandlePrefixCommand handles ".roll [sides]"
func (f *Feature) HandlePrefixCommand(s *discordgo.Session, m *discordgo.MessageCreate, cmd bot.PrefixCommand) {
	sides := int64(6)
	if len(cmd.Args) > 0 {
		parsed, err := strconv.ParseInt(cmd.Args[0], 10, 64)
		if err != nil {
			f.reply(s, m.ChannelID, "❌ That is not a number of sides")
			return
		}
		sides = parsed
	}

	f.reply(s, m.ChannelID, f.roll(context.Background(), m.GuildID, sides))
}

func (f *Feature) roll(ctx context.Context, guildID string, sides int64) string {
	maxSides := int64(1000)
	if cfg, err := f.store.Config(ctx, guildID); err == nil {
		if configured := cfg.IntSetting(extensionName, "max_sides"); configured > 0 {
			maxSides = int64(configured)
		}
	}

	if sides < 2 || sides > maxSides {
		return fmt.Sprintf("❌ Sides must be between 2 and %d", maxSides)
	}

	return fmt.Sprintf("🎲 Rolled a **%d** (d%d)", rand.Int63n(sides)+1, sides)
}

func (f *Feature) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		log.Errorf("Failed to respond to interaction: %v", err)
	}
}

func (f *Feature) reply(s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		log.Errorf("Failed to send message: %v", err)
	}
}

var _ bot.SlashHandler = (*Feature)(nil)
var _ bot.PrefixHandler = (*Feature)(nil)
