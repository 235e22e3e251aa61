// Package relay publishes guild chat messages to the message bus so
// external consumers (bridges, archivers) can follow along.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"basementbot/bot"
	"basementbot/guildconfig"
	"basementbot/infrastructure"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const extensionName = "relay"

// subjectFormat is discord.messages.<guild>.<channel>
const subjectFormat = "discord.messages.%s.%s"

// Feature relays guild messages to the message bus.
type Feature struct {
	publisher infrastructure.MessagePublisher
}

// New creates the relay extension.
func New(publisher infrastructure.MessagePublisher) *Feature {
	return &Feature{publisher: publisher}
}

func (f *Feature) Name() string { return extensionName }

func (f *Feature) Setup(ctx context.Context) error {
	if f.publisher == nil {
		return fmt.Errorf("no message publisher configured")
	}
	return nil
}

func (f *Feature) ConfigSchema() *guildconfig.Schema { return nil }

func (f *Feature) ApplicationCommands() []*discordgo.ApplicationCommand { return nil }

// relayedMessage is the wire format published to the bus.
type relayedMessage struct {
	GuildID        string    `json:"guild_id"`
	ChannelID      string    `json:"channel_id"`
	MessageID      string    `json:"message_id"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// ObserveMessage publishes the message to its guild and channel subject.
func (f *Feature) ObserveMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	payload := relayedMessage{
		GuildID:        m.GuildID,
		ChannelID:      m.ChannelID,
		MessageID:      m.ID,
		AuthorID:       m.Author.ID,
		AuthorUsername: m.Author.Username,
		Content:        m.Content,
		Timestamp:      m.Timestamp,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("Failed to marshal relayed message")
		return
	}

	subject := fmt.Sprintf(subjectFormat, m.GuildID, m.ChannelID)
	if err := f.publisher.Publish(context.Background(), subject, data); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"subject":    subject,
			"message_id": m.ID,
		}).Error("Failed to publish relayed message")
	}
}

var _ bot.MessageObserver = (*Feature)(nil)
