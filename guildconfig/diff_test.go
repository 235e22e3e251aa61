package guildconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareIdenticalKeySets(t *testing.T) {
	current := map[string]any{
		"guild_id":       "123",
		"command_prefix": ".",
		"extensions": map[string]any{
			"factoids": map[string]any{
				"prefix":           map[string]any{"datatype": "string", "value": "?"},
				"response_listen":  map[string]any{"datatype": "bool", "value": false},
			},
		},
	}
	incoming := map[string]any{
		"guild_id":       "123",
		"command_prefix": "!",
		"extensions": map[string]any{
			"factoids": map[string]any{
				"prefix":           map[string]any{"datatype": "string", "value": "$"},
				"response_listen":  map[string]any{"datatype": "bool", "value": true},
			},
		},
	}

	diff := Compare(current, incoming)
	assert.True(t, diff.Empty())
	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Removed)
}

func TestCompareMissingKeyReportedOnce(t *testing.T) {
	current := map[string]any{
		"guild_id":       "123",
		"command_prefix": ".",
		"extensions": map[string]any{
			"factoids": map[string]any{"prefix": "?"},
		},
	}
	incoming := map[string]any{
		"guild_id": "123",
		"extensions": map[string]any{
			"factoids": map[string]any{},
		},
	}

	diff := Compare(current, incoming)
	assert.Equal(t, []string{"command_prefix", "extensions.factoids.prefix"}, diff.Removed)
	assert.Empty(t, diff.Added)

	// each missing key appears exactly once
	seen := map[string]int{}
	for _, path := range diff.Removed {
		seen[path]++
	}
	for path, count := range seen {
		assert.Equalf(t, 1, count, "path %s reported %d times", path, count)
	}
}

func TestCompareAddedKeys(t *testing.T) {
	current := map[string]any{
		"guild_id": "123",
	}
	incoming := map[string]any{
		"guild_id":   "123",
		"rogue_key":  true,
		"extensions": map[string]any{"polls": map[string]any{}},
	}

	diff := Compare(current, incoming)
	assert.Equal(t, []string{"extensions", "rogue_key"}, diff.Added)
	assert.Empty(t, diff.Removed)
	assert.False(t, diff.Empty())
}

func TestCompareNestedMismatchBothDirections(t *testing.T) {
	current := map[string]any{
		"extensions": map[string]any{
			"factoids": map[string]any{"prefix": "?"},
			"grabs":    map[string]any{},
		},
	}
	incoming := map[string]any{
		"extensions": map[string]any{
			"factoids": map[string]any{"cooldown": 5},
			"polls":    map[string]any{},
		},
	}

	diff := Compare(current, incoming)
	assert.Equal(t, []string{"extensions.factoids.cooldown", "extensions.polls"}, diff.Added)
	assert.Equal(t, []string{"extensions.factoids.prefix", "extensions.grabs"}, diff.Removed)
}

func TestCompareIgnoresMongoID(t *testing.T) {
	current := map[string]any{
		"_id":      "656f0f...",
		"guild_id": "123",
	}
	incoming := map[string]any{
		"guild_id": "123",
	}

	diff := Compare(current, incoming)
	assert.True(t, diff.Empty())
}

func TestCompareValueTypesNotChecked(t *testing.T) {
	// a scalar replacing a map is a shape question for the keys below
	// it, but the key itself is present on both sides
	current := map[string]any{
		"logging_channel": map[string]any{"id": "1"},
	}
	incoming := map[string]any{
		"logging_channel": "1",
	}

	diff := Compare(current, incoming)
	assert.True(t, diff.Empty())
}
