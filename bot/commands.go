package bot

import (
	"fmt"
	"sort"
)

// registerCommands registers the slash commands of every loaded
// extension with Discord.
func (b *Bot) registerCommands() error {
	commands := b.registry.ApplicationCommands()

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", commands[name])
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", name, err)
		}
	}

	return nil
}
