package common

import (
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"Shorter than max", "hello", 10, "hello"},
		{"Exactly max", "hello", 5, "hello"},
		{"Longer than max", "hello world", 8, "hello w…"},
		{"Multibyte runes", "héllö wörld", 8, "héllö w…"},
		{"Max of one", "hello", 1, "h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Truncate(tt.input, tt.max)
			if result != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q; want %q", tt.input, tt.max, result, tt.expected)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"Less than a minute", 30 * time.Second, "< 1m"},
		{"Minutes only", 45 * time.Minute, "45m"},
		{"Hours and minutes", 3*time.Hour + 45*time.Minute, "3h 45m"},
		{"Days hours minutes", 62*time.Hour + 30*time.Minute, "2d 14h 30m"},
		{"Exact hour", 2 * time.Hour, "2h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatDuration(tt.duration)
			if result != tt.expected {
				t.Errorf("FormatDuration(%v) = %s; want %s", tt.duration, result, tt.expected)
			}
		})
	}
}

func TestFormatCodeBlock(t *testing.T) {
	result := FormatCodeBlock("json", `{"a": 1}`)
	expected := "```json\n{\"a\": 1}\n```"
	if result != expected {
		t.Errorf("FormatCodeBlock = %q; want %q", result, expected)
	}
}
