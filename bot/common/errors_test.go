package common

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBotErrorConstructors(t *testing.T) {
	t.Run("user error keeps both messages apart", func(t *testing.T) {
		err := NewUserError("Bad input", "user sent garbage")
		assert.Equal(t, "Bad input", err.UserMessage)
		assert.Equal(t, "user sent garbage", err.Error())
		assert.True(t, err.Ephemeral)
	})

	t.Run("permission error has a fixed log message", func(t *testing.T) {
		err := NewPermissionError("You cannot do that")
		assert.Equal(t, "You cannot do that", err.UserMessage)
		assert.Equal(t, "permission denied", err.Error())
	})

	t.Run("upstream error wraps the cause", func(t *testing.T) {
		cause := fmt.Errorf("status 503")
		err := NewUpstreamError(cause, "The service did not answer")
		assert.Equal(t, "The service did not answer", err.UserMessage)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("system error hides internals from the user", func(t *testing.T) {
		cause := fmt.Errorf("connection refused")
		err := NewSystemError(cause, "database write failed")
		assert.Equal(t, "Something went wrong. Please try again later.", err.UserMessage)
		assert.Contains(t, err.Error(), "database write failed")
		assert.ErrorIs(t, err, cause)
	})
}

type capturingTransport struct {
	requests []*http.Request
	bodies   []string
}

func (c *capturingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	body := ""
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
	}
	c.requests = append(c.requests, r)
	c.bodies = append(c.bodies, body)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("{}")),
		Header:     make(http.Header),
	}, nil
}

func capturingSession(t *testing.T) (*discordgo.Session, *capturingTransport) {
	t.Helper()

	session, err := discordgo.New("Bot test-token")
	require.NoError(t, err)

	transport := &capturingTransport{}
	session.Client = &http.Client{Transport: transport}
	return session, transport
}

func commandInteraction(name string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:    discordgo.InteractionApplicationCommand,
			GuildID: "guild-1",
			Member:  &discordgo.Member{User: &discordgo.User{ID: "user-1"}},
			Data:    discordgo.ApplicationCommandInteractionData{Name: name},
		},
	}
}

func TestHandleError(t *testing.T) {
	t.Run("taxonomy errors surface their user message", func(t *testing.T) {
		session, transport := capturingSession(t)

		HandleError(session, commandInteraction("config"), NewUserError("The prefix is too long", "rejected prefix"), false)

		require.Len(t, transport.bodies, 1)
		assert.Contains(t, transport.bodies[0], "The prefix is too long")
		assert.NotContains(t, transport.bodies[0], "rejected prefix")
	})

	t.Run("unexpected errors get the generic notice", func(t *testing.T) {
		session, transport := capturingSession(t)

		HandleError(session, commandInteraction("config"), errors.New("nil pointer somewhere"), false)

		require.Len(t, transport.bodies, 1)
		assert.Contains(t, transport.bodies[0], "Something went wrong")
		assert.NotContains(t, transport.bodies[0], "nil pointer")
	})

	t.Run("deferred interactions answer through the followup endpoint", func(t *testing.T) {
		session, transport := capturingSession(t)

		HandleError(session, commandInteraction("config"), NewUpstreamError(errors.New("status 502"), "The lookup failed"), true)

		require.Len(t, transport.requests, 1)
		assert.Contains(t, transport.requests[0].URL.Path, "/webhooks/")
		assert.Contains(t, transport.bodies[0], "The lookup failed")
	})
}
