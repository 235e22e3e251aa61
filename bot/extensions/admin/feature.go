// Package admin implements bot-administration commands for loading and
// unloading extensions at runtime.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"basementbot/bot"
	"basementbot/bot/common"
	"basementbot/guildconfig"
	"basementbot/registry"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const extensionName = "admin"

// Feature exposes runtime extension management to bot admins.
type Feature struct {
	registry   *registry.Registry
	adminIDs   []string
	adminRoles []string
}

// New creates the admin extension.
func New(reg *registry.Registry, adminIDs, adminRoles []string) *Feature {
	return &Feature{
		registry:   reg,
		adminIDs:   adminIDs,
		adminRoles: adminRoles,
	}
}

func (f *Feature) Name() string { return extensionName }

func (f *Feature) Setup(ctx context.Context) error { return nil }

func (f *Feature) ConfigSchema() *guildconfig.Schema { return nil }

func (f *Feature) ApplicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "extension",
			Description: "Manage bot extensions (bot admins only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "load",
					Description: "Load a declared extension",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Extension name from the manifest",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "unload",
					Description: "Unload a loaded extension",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Extension name to unload",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show declared, loaded, and enabled extensions",
				},
			},
		},
	}
}

// HandleCommand routes /extension subcommands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if !common.IsBotAdmin(s, i.GuildID, userID, f.adminIDs, f.adminRoles) {
		common.HandleError(s, i, common.NewPermissionError("You are not a bot admin"), false)
		return
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	var err error
	switch options[0].Name {
	case "load":
		err = f.handleLoad(s, i, subcommandString(options[0], "name"))
	case "unload":
		f.handleUnload(s, i, subcommandString(options[0], "name"))
	case "status":
		f.handleStatus(s, i)
	}

	if err != nil {
		common.HandleError(s, i, err, false)
	}
}

func (f *Feature) handleLoad(s *discordgo.Session, i *discordgo.InteractionCreate, name string) error {
	err := f.registry.Load(context.Background(), name)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrNotDeclared):
			return common.NewUserError(
				fmt.Sprintf("`%s` is not in the extension manifest", name),
				"load of undeclared extension",
			)
		case errors.Is(err, registry.ErrDuplicateExtension):
			return common.NewUserError(
				fmt.Sprintf("`%s` is already loaded", name),
				"duplicate extension load",
			)
		default:
			return common.NewSystemError(err, "failed to load extension")
		}
	}

	f.respond(s, i, fmt.Sprintf("✅ Loaded `%s`", name))
	return nil
}

func (f *Feature) handleUnload(s *discordgo.Session, i *discordgo.InteractionCreate, name string) {
	// Unloading an unknown name is a silent no-op, mirror that here
	f.registry.Unload(name)
	f.respond(s, i, fmt.Sprintf("✅ `%s` is not loaded anymore", name))
}

func (f *Feature) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	loaded := make(map[string]bool)
	for _, name := range f.registry.Loaded() {
		loaded[name] = true
	}

	var lines []string
	for _, name := range f.registry.Manifest() {
		state := "declared"
		if loaded[name] {
			state = "loaded"
			if i.GuildID != "" {
				enabled, err := f.registry.Enabled(ctx, i.GuildID, name)
				if err == nil && enabled {
					state = "loaded, enabled here"
				}
			}
		}
		lines = append(lines, fmt.Sprintf("%-12s %s", name, state))
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Extensions",
		Description: common.FormatCodeBlock("", strings.Join(lines, "\n")),
		Color:       common.ColorInfo,
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Failed to respond to interaction: %v", err)
	}
}

func (f *Feature) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Failed to respond to interaction: %v", err)
	}
}

func subcommandString(sub *discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range sub.Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
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

var _ bot.SlashHandler = (*Feature)(nil)
