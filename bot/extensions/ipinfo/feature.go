// Package ipinfo implements an IP address lookup command backed by the
// ipinfo.io API.
package ipinfo

import (
	"context"
	"fmt"
	"net"

	"basementbot/bot"
	"basementbot/bot/common"
	"basementbot/guildconfig"
	"basementbot/infrastructure"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const extensionName = "ipinfo"

const apiURL = "https://ipinfo.io/%s/json"

// Feature looks up IP address details.
type Feature struct {
	client *infrastructure.HTTPClient
}

// New creates the ipinfo extension.
func New(client *infrastructure.HTTPClient) *Feature {
	return &Feature{client: client}
}

func (f *Feature) Name() string { return extensionName }

func (f *Feature) Setup(ctx context.Context) error { return nil }

func (f *Feature) ConfigSchema() *guildconfig.Schema { return nil }

func (f *Feature) ApplicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ipinfo",
			Description: "Look up details for an IP address",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "ip",
					Description: "IPv4 or IPv6 address",
					Required:    true,
				},
			},
		},
	}
}

type lookupResult struct {
	IP       string `json:"ip"`
	Hostname string `json:"hostname"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Org      string `json:"org"`
	Timezone string `json:"timezone"`
}

// HandleCommand handles /ipinfo
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	embed, err := f.lookup(context.Background(), i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	})
	if err != nil {
		log.Errorf("Failed to respond to interaction: %v", err)
	}
}

func (f *Feature) lookup(ctx context.Context, i *discordgo.InteractionCreate) (*discordgo.MessageEmbed, error) {
	var ip string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "ip" {
			ip = opt.StringValue()
		}
	}

	if net.ParseIP(ip) == nil {
		return nil, common.NewUserError(
			fmt.Sprintf("`%s` is not a valid IP address", ip),
			fmt.Sprintf("ip lookup with unparseable address %q", ip),
		)
	}

	var result lookupResult
	if err := f.client.GetJSON(ctx, fmt.Sprintf(apiURL, ip), &result, true); err != nil {
		// Upstream failures surface to the user and are not retried
		return nil, common.NewUpstreamError(err, "The IP lookup service did not answer, try again later")
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("IP info for %s", result.IP),
		Color: common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Hostname", Value: orDash(result.Hostname), Inline: true},
			{Name: "City", Value: orDash(result.City), Inline: true},
			{Name: "Region", Value: orDash(result.Region), Inline: true},
			{Name: "Country", Value: orDash(result.Country), Inline: true},
			{Name: "Org", Value: orDash(result.Org), Inline: true},
			{Name: "Timezone", Value: orDash(result.Timezone), Inline: true},
		},
	}, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var _ bot.SlashHandler = (*Feature)(nil)
