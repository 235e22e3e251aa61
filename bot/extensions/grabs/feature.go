// Package grabs implements quote grabbing: ".grab @user" saves the
// user's last message in the channel, ".grabr @user" recalls a random
// saved quote.
package grabs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"basementbot/bot"
	"basementbot/bot/common"
	"basementbot/guildconfig"
	"basementbot/registry"
	"basementbot/repository"

	"github.com/ReneKroon/ttlcache/v2"
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const extensionName = "grabs"

// lastMessageTTL bounds how far back a grab can reach.
const lastMessageTTL = 30 * time.Minute

// lastMessage is what a ".grab" reaches back for.
type lastMessage struct {
	messageID string
	content   string
}

// Feature saves and recalls grabbed quotes.
type Feature struct {
	uowFactory repository.UnitOfWorkFactory

	// lastMessages holds the most recent message per guild, channel
	// and author, keyed "guild:channel:user".
	lastMessages *ttlcache.Cache
}

// New creates the grabs extension.
func New(uowFactory repository.UnitOfWorkFactory) *Feature {
	cache := ttlcache.NewCache()
	_ = cache.SetTTL(lastMessageTTL)

	return &Feature{
		uowFactory:   uowFactory,
		lastMessages: cache,
	}
}

func (f *Feature) Name() string { return extensionName }

func (f *Feature) Setup(ctx context.Context) error { return nil }

// Close releases the last-message cache.
func (f *Feature) Close() {
	f.lastMessages.Close()
}

func (f *Feature) ConfigSchema() *guildconfig.Schema { return nil }

func (f *Feature) ApplicationCommands() []*discordgo.ApplicationCommand { return nil }

// ObserveMessage tracks the latest message per author so a later
// ".grab" can reach it.
func (f *Feature) ObserveMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Content == "" {
		return
	}
	_ = f.lastMessages.Set(lastMessageKey(m.GuildID, m.ChannelID, m.Author.ID), lastMessage{
		messageID: m.ID,
		content:   m.Content,
	})
}

// PrefixCommands declares the prefix command words this extension owns.
func (f *Feature) PrefixCommands() []string {
	return []string{"grab", "grabr", "grabs"}
}

// HandlePrefixCommand routes grab commands
func (f *Feature) HandlePrefixCommand(s *discordgo.Session, m *discordgo.MessageCreate, cmd bot.PrefixCommand) {
	if len(m.Mentions) == 0 {
		f.reply(s, m.ChannelID, "❌ Mention the member you mean, e.g. `grab @someone`")
		return
	}
	target := m.Mentions[0]

	switch cmd.Name {
	case "grab":
		f.handleGrab(s, m, target)
	case "grabr":
		f.handleGrabRandom(s, m, target)
	case "grabs":
		f.handleGrabList(s, m, target)
	}
}

func (f *Feature) handleGrab(s *discordgo.Session, m *discordgo.MessageCreate, target *discordgo.User) {
	if target.ID == m.Author.ID {
		f.reply(s, m.ChannelID, "❌ You cannot grab yourself")
		return
	}

	value, err := f.lastMessages.Get(lastMessageKey(m.GuildID, m.ChannelID, target.ID))
	if err != nil {
		f.reply(s, m.ChannelID, fmt.Sprintf("❌ Nothing recent from %s to grab here", common.GetUserMention(target.ID)))
		return
	}
	last := value.(lastMessage)
	quote := last.content

	ctx := context.Background()

	uow := f.uowFactory.CreateForGuild(m.GuildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		f.reply(s, m.ChannelID, "❌ Failed to save grab")
		return
	}
	defer uow.Rollback()

	if _, err := uow.GrabRepository().Create(ctx, target.ID, quote, m.Author.ID); err != nil {
		log.Errorf("Failed to create grab: %v", err)
		f.reply(s, m.ChannelID, "❌ Failed to save grab")
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing transaction: %v", err)
		f.reply(s, m.ChannelID, "❌ Failed to save grab")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Grabbed %s", common.GetDisplayName(s, m.GuildID, target.ID)),
		Description: common.Truncate(quote, common.MaxEmbedDescription),
		Color:       common.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Source",
				Value: common.FormatDiscordMessageLink(m.GuildID, m.ChannelID, last.messageID),
			},
		},
	}
	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		log.Errorf("Failed to send grab confirmation: %v", err)
	}
}

func (f *Feature) handleGrabRandom(s *discordgo.Session, m *discordgo.MessageCreate, target *discordgo.User) {
	ctx := context.Background()

	uow := f.uowFactory.CreateForGuild(m.GuildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		f.reply(s, m.ChannelID, "❌ Failed to fetch grab")
		return
	}
	defer uow.Rollback()

	grab, err := uow.GrabRepository().RandomByUser(ctx, target.ID)
	if err != nil {
		log.Errorf("Failed to fetch random grab: %v", err)
		f.reply(s, m.ChannelID, "❌ Failed to fetch grab")
		return
	}
	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing transaction: %v", err)
		f.reply(s, m.ChannelID, "❌ Failed to fetch grab")
		return
	}

	if grab == nil {
		f.reply(s, m.ChannelID, fmt.Sprintf("❌ No grabs for %s yet", common.GetUserMention(target.ID)))
		return
	}

	f.reply(s, m.ChannelID, fmt.Sprintf("💬 %s: %s", common.GetDisplayName(s, m.GuildID, grab.UserID), grab.Quote))
}

func (f *Feature) handleGrabList(s *discordgo.Session, m *discordgo.MessageCreate, target *discordgo.User) {
	ctx := context.Background()

	uow := f.uowFactory.CreateForGuild(m.GuildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		f.reply(s, m.ChannelID, "❌ Failed to list grabs")
		return
	}
	defer uow.Rollback()

	grabs, err := uow.GrabRepository().ListByUser(ctx, target.ID)
	if err != nil {
		log.Errorf("Failed to list grabs: %v", err)
		f.reply(s, m.ChannelID, "❌ Failed to list grabs")
		return
	}
	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing transaction: %v", err)
		f.reply(s, m.ChannelID, "❌ Failed to list grabs")
		return
	}

	if len(grabs) == 0 {
		f.reply(s, m.ChannelID, fmt.Sprintf("❌ No grabs for %s yet", common.GetUserMention(target.ID)))
		return
	}

	quotes := make([]string, 0, len(grabs))
	for _, grab := range grabs {
		quotes = append(quotes, "• "+common.Truncate(grab.Quote, 120))
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Grabs for %s (%d)", common.GetDisplayName(s, m.GuildID, target.ID), len(grabs)),
		Description: common.Truncate(strings.Join(quotes, "\n"), common.MaxEmbedDescription),
		Color:       common.ColorPrimary,
	}

	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		log.Errorf("Failed to send grabs list: %v", err)
	}
}

func (f *Feature) reply(s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		log.Errorf("Failed to send message: %v", err)
	}
}

func lastMessageKey(guildID, channelID, userID string) string {
	return guildID + ":" + channelID + ":" + userID
}

var _ bot.PrefixHandler = (*Feature)(nil)
var _ bot.MessageObserver = (*Feature)(nil)
var _ registry.Closer = (*Feature)(nil)
