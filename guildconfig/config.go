package guildconfig

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Setting is one persisted config value with its schema metadata.
type Setting struct {
	Datatype    string `bson:"datatype" json:"datatype"`
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
	Default     any    `bson:"default" json:"default"`
	Value       any    `bson:"value" json:"value"`
}

// GuildConfig is the per-guild configuration document. One document
// exists per guild, created on first contact and never destroyed.
type GuildConfig struct {
	ID                  primitive.ObjectID            `bson:"_id,omitempty" json:"-"`
	GuildID             string                        `bson:"guild_id" json:"guild_id"`
	CommandPrefix       string                        `bson:"command_prefix" json:"command_prefix"`
	LoggingChannel      string                        `bson:"logging_channel" json:"logging_channel"`
	MemberEventsChannel string                        `bson:"member_events_channel" json:"member_events_channel"`
	GuildEventsChannel  string                        `bson:"guild_events_channel" json:"guild_events_channel"`
	PrivateChannels     []string                      `bson:"private_channels" json:"private_channels"`
	EnabledExtensions   []string                      `bson:"enabled_extensions" json:"enabled_extensions"`
	Extensions          map[string]map[string]Setting `bson:"extensions" json:"extensions"`
}

// ExtensionEnabled reports whether the named extension is enabled for
// this guild.
func (c *GuildConfig) ExtensionEnabled(name string) bool {
	for _, enabled := range c.EnabledExtensions {
		if enabled == name {
			return true
		}
	}
	return false
}

// IsPrivateChannel reports whether the channel is excluded from guild
// event logging.
func (c *GuildConfig) IsPrivateChannel(channelID string) bool {
	for _, id := range c.PrivateChannels {
		if id == channelID {
			return true
		}
	}
	return false
}

// SettingValue returns the configured value for an extension key,
// falling back to the declared default when no value was set.
func (c *GuildConfig) SettingValue(extension, key string) (any, bool) {
	settings, ok := c.Extensions[extension]
	if !ok {
		return nil, false
	}
	setting, ok := settings[key]
	if !ok {
		return nil, false
	}
	if setting.Value != nil {
		return setting.Value, true
	}
	return setting.Default, true
}

// StringSetting returns a string-typed setting value.
func (c *GuildConfig) StringSetting(extension, key string) string {
	v, ok := c.SettingValue(extension, key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// IntSetting returns an int-typed setting value. BSON and JSON decode
// numbers into several widths, so all of them are accepted.
func (c *GuildConfig) IntSetting(extension, key string) int {
	v, ok := c.SettingValue(extension, key)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// ToMap converts the config to a generic key/value document, used for
// schema diffing and JSON download. The Mongo _id is dropped.
func (c *GuildConfig) ToMap() (map[string]any, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal guild config: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal guild config document: %w", err)
	}

	return doc, nil
}

// FromMap decodes a generic document back into a typed config.
func FromMap(doc map[string]any) (*GuildConfig, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config document: %w", err)
	}

	var cfg GuildConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config document: %w", err)
	}

	return &cfg, nil
}
