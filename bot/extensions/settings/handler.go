package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"basementbot/bot/common"
	"basementbot/guildconfig"
	"basementbot/registry"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// handleDownload handles /config download
func (f *Feature) handleDownload(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := f.requireAdmin(s, i); err != nil {
		return err
	}

	ctx := context.Background()

	cfg, err := f.store.ConfigUncached(ctx, i.GuildID)
	if err != nil {
		return common.NewSystemError(err, "failed to fetch guild config")
	}

	doc, err := cfg.ToMap()
	if err != nil {
		return common.NewSystemError(err, "failed to convert guild config")
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return common.NewSystemError(err, "failed to marshal guild config")
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Current config document:",
			Flags:   discordgo.MessageFlagsEphemeral,
			Files: []*discordgo.File{
				{
					Name:        fmt.Sprintf("config-%s.json", i.GuildID),
					ContentType: "application/json",
					Reader:      bytes.NewReader(data),
				},
			},
		},
	})
	if err != nil {
		log.Errorf("Failed to respond to interaction: %v", err)
	}
	return nil
}

// handlePatch handles /config patch. The response is deferred while the
// attachment downloads; the uploaded document must have exactly the
// same key set as the current one, the schema diff gates the replace.
func (f *Feature) handlePatch(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := f.requireAdmin(s, i); err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		log.Errorf("Failed to defer interaction: %v", err)
		return
	}

	if err := f.applyPatch(context.Background(), i); err != nil {
		common.HandleError(s, i, err, true)
		return
	}

	f.followUp(s, i, "✅ Config updated")
}

func (f *Feature) applyPatch(ctx context.Context, i *discordgo.InteractionCreate) error {
	attachment := resolveAttachment(i)
	if attachment == nil {
		return common.NewUserError("No file attached", "config patch without attachment")
	}

	body, err := f.client.GetBytes(ctx, attachment.URL)
	if err != nil {
		return common.NewUpstreamError(err, "Could not download the attached file")
	}

	var incoming map[string]any
	if err := json.Unmarshal(body, &incoming); err != nil {
		return common.NewUserError("The attached file is not valid JSON", "config patch with invalid JSON")
	}

	current, err := f.store.ConfigUncached(ctx, i.GuildID)
	if err != nil {
		return common.NewSystemError(err, "failed to fetch guild config")
	}

	currentDoc, err := current.ToMap()
	if err != nil {
		return common.NewSystemError(err, "failed to convert guild config")
	}

	diff := guildconfig.Compare(currentDoc, incoming)
	if !diff.Empty() {
		var parts []string
		if len(diff.Added) > 0 {
			parts = append(parts, fmt.Sprintf("unexpected keys: `%s`", strings.Join(diff.Added, "`, `")))
		}
		if len(diff.Removed) > 0 {
			parts = append(parts, fmt.Sprintf("missing keys: `%s`", strings.Join(diff.Removed, "`, `")))
		}
		return common.NewUserError(
			"Config shape does not match: "+strings.Join(parts, "; "),
			"config patch rejected by shape diff",
		)
	}

	replacement, err := guildconfig.FromMap(incoming)
	if err != nil {
		return common.NewUserError("The attached file does not decode into a config document", "config patch decode failure")
	}
	// The document cannot move to another guild
	replacement.GuildID = i.GuildID

	if err := f.store.Replace(ctx, replacement); err != nil {
		return common.NewSystemError(err, "failed to replace guild config")
	}
	return nil
}

// handleToggle handles /config enable and /config disable
func (f *Feature) handleToggle(s *discordgo.Session, i *discordgo.InteractionCreate, enabled bool) error {
	if err := f.requireAdmin(s, i); err != nil {
		return err
	}

	var name string
	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		if opt.Name == "extension" {
			name = opt.StringValue()
		}
	}

	err := f.registry.SetEnabled(context.Background(), i.GuildID, name, enabled)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrUnknownExtension):
			return common.NewUserError(
				fmt.Sprintf("`%s` is not a loaded extension", name),
				"toggle of unknown extension",
			)
		case errors.Is(err, registry.ErrAlreadyInState):
			state := "disabled"
			if enabled {
				state = "enabled"
			}
			return common.NewUserError(
				fmt.Sprintf("`%s` is already %s here", name, state),
				"toggle without state change",
			)
		default:
			return common.NewSystemError(err, "failed to toggle extension")
		}
	}

	if enabled {
		f.respond(s, i, fmt.Sprintf("✅ Enabled `%s` in this server", name))
	} else {
		f.respond(s, i, fmt.Sprintf("✅ Disabled `%s` in this server", name))
	}
	return nil
}

// handlePrefix handles /config prefix
func (f *Feature) handlePrefix(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := f.requireAdmin(s, i); err != nil {
		return err
	}

	var prefix string
	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		if opt.Name == "prefix" {
			prefix = opt.StringValue()
		}
	}

	if prefix == "" || len(prefix) > 5 || strings.ContainsAny(prefix, " \t\n") {
		return common.NewUserError(
			"The prefix must be 1 to 5 characters with no whitespace",
			fmt.Sprintf("rejected prefix %q", prefix),
		)
	}

	ctx := context.Background()

	cfg, err := f.store.ConfigUncached(ctx, i.GuildID)
	if err != nil {
		return common.NewSystemError(err, "failed to fetch guild config")
	}

	cfg.CommandPrefix = prefix
	if err := f.store.Replace(ctx, cfg); err != nil {
		return common.NewSystemError(err, "failed to replace guild config")
	}

	f.respond(s, i, fmt.Sprintf("✅ Command prefix is now `%s`", prefix))
	return nil
}

func (f *Feature) requireAdmin(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	userID := ""
	if i.Member != nil && i.Member.User != nil {
		userID = i.Member.User.ID
	}
	if userID == "" || !common.IsGuildAdmin(s, i.GuildID, userID) {
		return common.NewPermissionError("You need administrator permissions to use this command")
	}
	return nil
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

func (f *Feature) followUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Errorf("Failed to send follow-up: %v", err)
	}
}

func resolveAttachment(i *discordgo.InteractionCreate) *discordgo.MessageAttachment {
	data := i.ApplicationCommandData()
	if data.Resolved == nil || len(data.Resolved.Attachments) == 0 {
		return nil
	}

	for _, opt := range data.Options[0].Options {
		if opt.Name != "file" {
			continue
		}
		id, ok := opt.Value.(string)
		if !ok {
			continue
		}
		if attachment, ok := data.Resolved.Attachments[id]; ok {
			return attachment
		}
	}
	return nil
}
