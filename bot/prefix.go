package bot

import "strings"

// PrefixCommand is a parsed prefix text command invocation.
type PrefixCommand struct {
	Name string
	Args []string
}

// ParsePrefixCommand splits message content into a command invocation
// when it starts with the guild's prefix. Returns false for ordinary
// messages and for a bare prefix with nothing after it.
func ParsePrefixCommand(content, prefix string) (PrefixCommand, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return PrefixCommand{}, false
	}

	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return PrefixCommand{}, false
	}

	return PrefixCommand{
		Name: strings.ToLower(fields[0]),
		Args: fields[1:],
	}, true
}
