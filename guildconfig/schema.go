package guildconfig

// Entry describes a single configurable value declared by an extension.
type Entry struct {
	Key         string
	Datatype    string
	Title       string
	Description string
	Default     any
}

// Schema is the ordered list of config entries an extension declares,
// usually from its constructor.
type Schema struct {
	entries []Entry
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{}
}

// Add appends a new entry to the schema. Re-adding a key replaces the
// earlier entry in place, keeping declaration order.
func (s *Schema) Add(key, datatype, title, description string, def any) *Schema {
	entry := Entry{
		Key:         key,
		Datatype:    datatype,
		Title:       title,
		Description: description,
		Default:     def,
	}

	for i, existing := range s.entries {
		if existing.Key == key {
			s.entries[i] = entry
			return s
		}
	}

	s.entries = append(s.entries, entry)
	return s
}

// Entries returns the declared entries in declaration order.
func (s *Schema) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of declared entries.
func (s *Schema) Len() int {
	return len(s.entries)
}

// Settings builds the default settings block persisted in a guild
// config document for this schema.
func (s *Schema) Settings() map[string]Setting {
	settings := make(map[string]Setting, len(s.entries))
	for _, e := range s.entries {
		settings[e.Key] = Setting{
			Datatype:    e.Datatype,
			Title:       e.Title,
			Description: e.Description,
			Default:     e.Default,
			Value:       e.Default,
		}
	}
	return settings
}
