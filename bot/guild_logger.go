package bot

import (
	"context"
	"fmt"
	"time"

	"basementbot/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// GuildLogger mirrors command activity and errors to a guild's
// configured logging channel. Guilds without a logging channel and
// events originating in private channels are skipped.
type GuildLogger struct {
	session *discordgo.Session
	store   ConfigStore
}

// NewGuildLogger creates a guild channel logger.
func NewGuildLogger(session *discordgo.Session, store ConfigStore) *GuildLogger {
	return &GuildLogger{
		session: session,
		store:   store,
	}
}

// LogCommand mirrors a command invocation.
func (g *GuildLogger) LogCommand(ctx context.Context, guildID, channelID, userID, command string) {
	embed := &discordgo.MessageEmbed{
		Title: "Command invoked",
		Description: fmt.Sprintf("%s ran `%s` in <#%s> %s",
			common.GetUserMention(userID), command, channelID,
			common.FormatDiscordTimestamp(time.Now(), "R")),
		Color: common.ColorInfo,
	}
	g.send(ctx, guildID, channelID, embed)
}

// LogError mirrors a command failure.
func (g *GuildLogger) LogError(ctx context.Context, guildID, channelID, userID, command string, err error) {
	embed := &discordgo.MessageEmbed{
		Title: "Command failed",
		Description: fmt.Sprintf("%s ran `%s` in <#%s> %s",
			common.GetUserMention(userID), command, channelID,
			common.FormatDiscordTimestamp(time.Now(), "R")),
		Color: common.ColorDanger,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Error",
				Value: common.Truncate(err.Error(), common.MaxEmbedFieldValue),
			},
		},
	}
	g.send(ctx, guildID, channelID, embed)
}

func (g *GuildLogger) send(ctx context.Context, guildID, originChannelID string, embed *discordgo.MessageEmbed) {
	if guildID == "" {
		return
	}

	cfg, err := g.store.Config(ctx, guildID)
	if err != nil {
		log.WithError(err).WithField("guild_id", guildID).Error("Failed to get guild config for channel logging")
		return
	}

	if cfg.LoggingChannel == "" {
		return
	}
	if cfg.IsPrivateChannel(originChannelID) {
		return
	}

	if _, err := g.session.ChannelMessageSendEmbed(cfg.LoggingChannel, embed); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"guild_id":   guildID,
			"channel_id": cfg.LoggingChannel,
		}).Error("Failed to send guild log embed")
	}
}
