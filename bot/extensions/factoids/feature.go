// Package factoids implements per-guild canned responses. Factoids are
// created and managed through the /factoid slash command and recalled
// by prefix, e.g. ".wifi" posts the factoid named "wifi".
package factoids

import (
	"context"

	"basementbot/bot"
	"basementbot/guildconfig"
	"basementbot/repository"

	"github.com/bwmarrin/discordgo"
)

const extensionName = "factoids"

// Feature stores and recalls factoids.
type Feature struct {
	uowFactory repository.UnitOfWorkFactory
	store      *guildconfig.Store
}

// New creates the factoids extension.
func New(uowFactory repository.UnitOfWorkFactory, store *guildconfig.Store) *Feature {
	return &Feature{
		uowFactory: uowFactory,
		store:      store,
	}
}

func (f *Feature) Name() string { return extensionName }

func (f *Feature) Setup(ctx context.Context) error { return nil }

func (f *Feature) ConfigSchema() *guildconfig.Schema {
	return guildconfig.NewSchema().
		Add("max_factoids", "int", "Max factoids", "Most factoids a guild may store", 500).
		Add("max_content_length", "int", "Max content length", "Longest allowed factoid content", 1000)
}

func (f *Feature) ApplicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "factoid",
			Description: "Manage canned responses",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remember",
					Description: "Create or overwrite a factoid",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Factoid name, recalled with the command prefix",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "content",
							Description: "What to post when the factoid is recalled",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "forget",
					Description: "Delete a factoid",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Factoid name to delete",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List this server's factoids",
				},
			},
		},
	}
}

// HandleCommand routes /factoid subcommands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	switch options[0].Name {
	case "remember":
		f.handleRemember(s, i)
	case "forget":
		f.handleForget(s, i)
	case "list":
		f.handleList(s, i)
	}
}

var _ bot.SlashHandler = (*Feature)(nil)
var _ bot.PrefixFallbackHandler = (*Feature)(nil)
