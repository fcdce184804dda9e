package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackTriggers(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"Tell me about your time at TikTok", "Working at TikTok"},
		{"what happened with SIX?", "co-founding adventure"},
		{"any startup advice", "co-founding adventure"},
		{"Why Siemens?", "Siemens Advanta"},
		{"best food in NYC?", "NYC food scene"},
		{"how did you like new york", "NYC food scene"},
	}

	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			assert.Contains(t, Fallback(tc.message), tc.want)
		})
	}
}

func TestFallbackFirstMatchWins(t *testing.T) {
	assert.Equal(t, Fallback("tiktok"), Fallback("tiktok and then germany"))
}

func TestFallbackDefault(t *testing.T) {
	assert.Equal(t, defaultReply, Fallback("asdf qwerty"))
	assert.Equal(t, defaultReply, Fallback(""))
}
