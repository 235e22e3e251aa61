package bot

import (
	"github.com/bwmarrin/discordgo"
)

// SlashHandler is implemented by extensions that answer slash commands.
type SlashHandler interface {
	HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate)
}

// ComponentHandler is implemented by extensions that answer component
// and modal interactions. Interactions are routed by custom ID prefix,
// which must match the extension name.
type ComponentHandler interface {
	HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate)
}

// PrefixHandler is implemented by extensions that answer prefix text
// commands parsed from guild messages.
type PrefixHandler interface {
	// PrefixCommands returns the command words this extension owns.
	PrefixCommands() []string

	HandlePrefixCommand(s *discordgo.Session, m *discordgo.MessageCreate, cmd PrefixCommand)
}

// PrefixFallbackHandler is implemented by extensions that want prefix
// invocations no other extension claimed. Handled reports whether the
// invocation was consumed.
type PrefixFallbackHandler interface {
	HandleUnmatchedPrefix(s *discordgo.Session, m *discordgo.MessageCreate, cmd PrefixCommand) (handled bool)
}

// MessageObserver is implemented by extensions that watch all guild
// messages, commands or not.
type MessageObserver interface {
	ObserveMessage(s *discordgo.Session, m *discordgo.MessageCreate)
}
