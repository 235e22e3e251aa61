// Package settings implements guild configuration management: download
// the config document as JSON, patch it from an uploaded file, toggle
// extensions, and change the command prefix.
package settings

import (
	"context"

	"basementbot/bot"
	"basementbot/bot/common"
	"basementbot/guildconfig"
	"basementbot/infrastructure"
	"basementbot/registry"

	"github.com/bwmarrin/discordgo"
)

const extensionName = "settings"

// Feature manages per-guild configuration.
type Feature struct {
	store    *guildconfig.Store
	registry *registry.Registry
	client   *infrastructure.HTTPClient
}

// New creates the settings extension.
func New(store *guildconfig.Store, reg *registry.Registry, client *infrastructure.HTTPClient) *Feature {
	return &Feature{
		store:    store,
		registry: reg,
		client:   client,
	}
}

func (f *Feature) Name() string { return extensionName }

func (f *Feature) Setup(ctx context.Context) error { return nil }

func (f *Feature) ConfigSchema() *guildconfig.Schema { return nil }

func (f *Feature) ApplicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "config",
			Description: "Manage this server's bot configuration (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "download",
					Description: "Download the config document as JSON",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "patch",
					Description: "Replace the config document from an uploaded JSON file",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionAttachment,
							Name:        "file",
							Description: "JSON file, same shape as the download",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "enable",
					Description: "Enable an extension in this server",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "extension",
							Description: "Extension name",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "disable",
					Description: "Disable an extension in this server",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "extension",
							Description: "Extension name",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "prefix",
					Description: "Change the prefix for text commands",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "prefix",
							Description: "New command prefix",
							Required:    true,
						},
					},
				},
			},
		},
	}
}

// HandleCommand routes /config subcommands. Handlers return taxonomy
// errors; patch manages its own deferred response.
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	var err error
	switch options[0].Name {
	case "download":
		err = f.handleDownload(s, i)
	case "patch":
		f.handlePatch(s, i)
	case "enable":
		err = f.handleToggle(s, i, true)
	case "disable":
		err = f.handleToggle(s, i, false)
	case "prefix":
		err = f.handlePrefix(s, i)
	}

	if err != nil {
		common.HandleError(s, i, err, false)
	}
}

var _ bot.SlashHandler = (*Feature)(nil)
