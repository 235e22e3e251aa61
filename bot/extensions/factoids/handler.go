package factoids

import (
	"context"
	"fmt"
	"strings"

	"basementbot/bot"
	"basementbot/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// handleRemember handles /factoid remember
func (f *Feature) handleRemember(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var name, content string
	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		switch opt.Name {
		case "name":
			name = strings.ToLower(opt.StringValue())
		case "content":
			content = opt.StringValue()
		}
	}

	if name == "" || strings.ContainsAny(name, " \t\n") {
		common.RespondWithError(s, i, "Factoid names cannot contain whitespace")
		return
	}

	ctx := context.Background()

	maxContent := f.intSetting(ctx, i.GuildID, "max_content_length", 1000)
	if int64(len(content)) > maxContent {
		common.RespondWithError(s, i, fmt.Sprintf("Factoid content is limited to %d characters", maxContent))
		return
	}

	uow := f.uowFactory.CreateForGuild(i.GuildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		common.RespondWithError(s, i, "Failed to save factoid")
		return
	}
	defer uow.Rollback()

	repo := uow.FactoidRepository()

	existing, err := repo.GetByName(ctx, name)
	if err != nil {
		log.Errorf("Failed to look up factoid: %v", err)
		common.RespondWithError(s, i, "Failed to save factoid")
		return
	}

	if existing == nil {
		all, err := repo.List(ctx)
		if err != nil {
			log.Errorf("Failed to count factoids: %v", err)
			common.RespondWithError(s, i, "Failed to save factoid")
			return
		}
		maxFactoids := f.intSetting(ctx, i.GuildID, "max_factoids", 500)
		if int64(len(all)) >= maxFactoids {
			common.RespondWithError(s, i, fmt.Sprintf("This server already has %d factoids", maxFactoids))
			return
		}
	}

	if _, err := repo.Upsert(ctx, name, content, interactionUserID(i)); err != nil {
		log.Errorf("Failed to upsert factoid: %v", err)
		common.RespondWithError(s, i, "Failed to save factoid")
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing transaction: %v", err)
		common.RespondWithError(s, i, "Failed to save factoid")
		return
	}

	f.respond(s, i, fmt.Sprintf("✅ Remembered `%s`", name))
}

// handleForget handles /factoid forget
func (f *Feature) handleForget(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var name string
	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		if opt.Name == "name" {
			name = strings.ToLower(opt.StringValue())
		}
	}

	ctx := context.Background()

	uow := f.uowFactory.CreateForGuild(i.GuildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		common.RespondWithError(s, i, "Failed to delete factoid")
		return
	}
	defer uow.Rollback()

	deleted, err := uow.FactoidRepository().Delete(ctx, name)
	if err != nil {
		log.Errorf("Failed to delete factoid: %v", err)
		common.RespondWithError(s, i, "Failed to delete factoid")
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing transaction: %v", err)
		common.RespondWithError(s, i, "Failed to delete factoid")
		return
	}

	if !deleted {
		common.RespondWithError(s, i, fmt.Sprintf("No factoid named `%s`", name))
		return
	}

	f.respond(s, i, fmt.Sprintf("✅ Forgot `%s`", name))
}

// handleList handles /factoid list
func (f *Feature) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	uow := f.uowFactory.CreateForGuild(i.GuildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		common.RespondWithError(s, i, "Failed to list factoids")
		return
	}
	defer uow.Rollback()

	factoids, err := uow.FactoidRepository().List(ctx)
	if err != nil {
		log.Errorf("Failed to list factoids: %v", err)
		common.RespondWithError(s, i, "Failed to list factoids")
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing transaction: %v", err)
		common.RespondWithError(s, i, "Failed to list factoids")
		return
	}

	if len(factoids) == 0 {
		f.respond(s, i, "This server has no factoids yet")
		return
	}

	names := make([]string, len(factoids))
	for idx, factoid := range factoids {
		names[idx] = "`" + factoid.Name + "`"
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Factoids (%d)", len(factoids)),
		Description: common.Truncate(strings.Join(names, ", "), common.MaxEmbedDescription),
		Color:       common.ColorPrimary,
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	})
	if err != nil {
		log.Errorf("Failed to respond to interaction: %v", err)
	}
}

// HandleUnmatchedPrefix recalls a factoid when a prefix invocation
// matches no registered command word.
func (f *Feature) HandleUnmatchedPrefix(s *discordgo.Session, m *discordgo.MessageCreate, cmd bot.PrefixCommand) bool {
	ctx := context.Background()

	uow := f.uowFactory.CreateForGuild(m.GuildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		return false
	}
	defer uow.Rollback()

	factoid, err := uow.FactoidRepository().GetByName(ctx, cmd.Name)
	if err != nil {
		log.Errorf("Failed to look up factoid: %v", err)
		return false
	}
	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing transaction: %v", err)
		return false
	}

	if factoid == nil {
		return false
	}

	if _, err := s.ChannelMessageSend(m.ChannelID, common.Truncate(factoid.Content, common.MaxMessageLength)); err != nil {
		log.Errorf("Failed to send factoid: %v", err)
	}
	return true
}

func (f *Feature) intSetting(ctx context.Context, guildID, key string, fallback int64) int64 {
	cfg, err := f.store.Config(ctx, guildID)
	if err != nil {
		return fallback
	}
	value := cfg.IntSetting(extensionName, key)
	if value <= 0 {
		return fallback
	}
	return int64(value)
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

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
