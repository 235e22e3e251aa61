package guildconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaAddPreservesOrder(t *testing.T) {
	schema := NewSchema().
		Add("prefix", "string", "Factoid prefix", "Character that triggers factoid recall", "?").
		Add("cooldown_seconds", "int", "Cooldown", "Seconds between recalls per channel", 3).
		Add("manage_roles", "list", "Manager roles", "Roles allowed to manage factoids", []string{"Factoids"})

	entries := schema.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "prefix", entries[0].Key)
	assert.Equal(t, "cooldown_seconds", entries[1].Key)
	assert.Equal(t, "manage_roles", entries[2].Key)
}

func TestSchemaAddReplacesInPlace(t *testing.T) {
	schema := NewSchema().
		Add("prefix", "string", "Prefix", "", "?").
		Add("cooldown_seconds", "int", "Cooldown", "", 3).
		Add("prefix", "string", "Prefix", "updated", "$")

	entries := schema.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "prefix", entries[0].Key)
	assert.Equal(t, "$", entries[0].Default)
	assert.Equal(t, "updated", entries[0].Description)
}

func TestSchemaSettings(t *testing.T) {
	schema := NewSchema().
		Add("prefix", "string", "Prefix", "Trigger character", "?")

	settings := schema.Settings()
	require.Contains(t, settings, "prefix")
	assert.Equal(t, "string", settings["prefix"].Datatype)
	assert.Equal(t, "?", settings["prefix"].Default)
	assert.Equal(t, "?", settings["prefix"].Value)
}

func TestGuildConfigSettingValueFallsBackToDefault(t *testing.T) {
	cfg := &GuildConfig{
		GuildID: "123",
		Extensions: map[string]map[string]Setting{
			"factoids": {
				"prefix":  {Datatype: "string", Default: "?", Value: nil},
				"timeout": {Datatype: "int", Default: 3, Value: 10},
			},
		},
	}

	v, ok := cfg.SettingValue("factoids", "prefix")
	require.True(t, ok)
	assert.Equal(t, "?", v)

	assert.Equal(t, 10, cfg.IntSetting("factoids", "timeout"))
	assert.Equal(t, "?", cfg.StringSetting("factoids", "prefix"))

	_, ok = cfg.SettingValue("factoids", "missing")
	assert.False(t, ok)
	_, ok = cfg.SettingValue("polls", "anything")
	assert.False(t, ok)
}

func TestGuildConfigRoundTripToMap(t *testing.T) {
	cfg := &GuildConfig{
		GuildID:           "123",
		CommandPrefix:     ".",
		PrivateChannels:   []string{"42"},
		EnabledExtensions: []string{"factoids"},
		Extensions: map[string]map[string]Setting{
			"factoids": {"prefix": {Datatype: "string", Default: "?", Value: "?"}},
		},
	}

	doc, err := cfg.ToMap()
	require.NoError(t, err)
	assert.Equal(t, "123", doc["guild_id"])
	assert.NotContains(t, doc, "_id")

	decoded, err := FromMap(doc)
	require.NoError(t, err)
	assert.Equal(t, cfg.GuildID, decoded.GuildID)
	assert.True(t, decoded.ExtensionEnabled("factoids"))
	assert.True(t, decoded.IsPrivateChannel("42"))

	// identical shape diffs empty after a round trip
	redoc, err := decoded.ToMap()
	require.NoError(t, err)
	assert.True(t, Compare(doc, redoc).Empty())
}
