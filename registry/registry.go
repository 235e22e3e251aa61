// Package registry tracks the bot's feature extensions: which are
// declared, which are loaded process-wide, and which are enabled per
// guild. The registry is an explicit object owned by the process root
// and injected into whatever needs to query load state; extensions are
// declared through a manifest rather than discovered on disk.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"basementbot/guildconfig"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Extension is an independently loadable feature module.
type Extension interface {
	// Name returns the unique extension name.
	Name() string

	// Setup initializes the extension. It is invoked by Load, once
	// per successful load.
	Setup(ctx context.Context) error

	// ConfigSchema declares the extension's per-guild config entries.
	// Nil means the extension is not configurable.
	ConfigSchema() *guildconfig.Schema

	// ApplicationCommands returns the slash command metadata this
	// extension contributes to the command tree.
	ApplicationCommands() []*discordgo.ApplicationCommand
}

// Factory constructs an extension instance for loading.
type Factory func() (Extension, error)

// Closer is implemented by extensions that hold background resources,
// such as caches with janitor goroutines. Unload calls it after the
// extension leaves the loaded set.
type Closer interface {
	Close()
}

// GuildStateStore persists per-guild extension state. Implemented by
// guildconfig.Store.
type GuildStateStore interface {
	Config(ctx context.Context, guildID string) (*guildconfig.GuildConfig, error)
	Replace(ctx context.Context, cfg *guildconfig.GuildConfig) error
}

// Registry holds the extension manifest and load state. Loaded state
// is process-wide; enabled state is per guild and persisted through
// the store. The two are tracked independently.
type Registry struct {
	store GuildStateStore

	mu       sync.RWMutex
	manifest map[string]Factory
	order    []string
	loaded   map[string]Extension
}

// New creates an empty registry backed by the given guild state store.
func New(store GuildStateStore) *Registry {
	return &Registry{
		store:    store,
		manifest: make(map[string]Factory),
		loaded:   make(map[string]Extension),
	}
}

// Declare adds a manifest entry. Declaring the same name twice is a
// programming error and fails.
func (r *Registry) Declare(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.manifest[name]; ok {
		return fmt.Errorf("extension %s declared twice", name)
	}

	r.manifest[name] = factory
	r.order = append(r.order, name)
	return nil
}

// Load constructs the named extension and runs its setup hook. It
// fails with a *LoadError when the name is undeclared, already loaded,
// or when construction or setup fails.
func (r *Registry) Load(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, ok := r.manifest[name]
	if !ok {
		return &LoadError{Name: name, Err: ErrNotDeclared}
	}
	if _, ok := r.loaded[name]; ok {
		return &LoadError{Name: name, Err: ErrDuplicateExtension}
	}

	ext, err := factory()
	if err != nil {
		return &LoadError{Name: name, Err: err}
	}
	if ext == nil {
		return &LoadError{Name: name, Err: fmt.Errorf("factory returned no extension")}
	}

	if err := ext.Setup(ctx); err != nil {
		return &LoadError{Name: name, Err: fmt.Errorf("setup failed: %w", err)}
	}

	r.loaded[name] = ext
	log.WithField("extension", name).Info("Extension loaded")
	return nil
}

// LoadAll loads every declared extension except those named in skip,
// in declaration order. Failures are logged and loading continues.
func (r *Registry) LoadAll(ctx context.Context, skip []string) {
	skipped := make(map[string]struct{}, len(skip))
	for _, name := range skip {
		skipped[name] = struct{}{}
	}

	for _, name := range r.Manifest() {
		if _, ok := skipped[name]; ok {
			log.WithField("extension", name).Debug("Extension disabled on startup - ignoring load")
			continue
		}
		if err := r.Load(ctx, name); err != nil {
			log.WithError(err).WithField("extension", name).Error("Failed to load extension")
		}
	}
}

// Unload removes the named extension from the loaded set. Unloading a
// name that was never loaded is accepted silently; the asymmetry with
// Load is intentional and relied upon by reload flows.
func (r *Registry) Unload(name string) {
	r.mu.Lock()
	ext, ok := r.loaded[name]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.loaded, name)
	r.mu.Unlock()

	if closer, ok := ext.(Closer); ok {
		closer.Close()
	}
	log.WithField("extension", name).Info("Extension unloaded")
}

// Get returns the loaded extension with the given name.
func (r *Registry) Get(name string) (Extension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext, ok := r.loaded[name]
	return ext, ok
}

// Loaded returns the names of all loaded extensions, sorted.
func (r *Registry) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.loaded))
	for name := range r.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Manifest returns all declared names in declaration order.
func (r *Registry) Manifest() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Schemas returns the config schemas of all loaded, configurable
// extensions.
func (r *Registry) Schemas() map[string]*guildconfig.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make(map[string]*guildconfig.Schema)
	for name, ext := range r.loaded {
		if schema := ext.ConfigSchema(); schema != nil {
			schemas[name] = schema
		}
	}
	return schemas
}

// ApplicationCommands collects the slash command metadata of every
// loaded extension, keyed by command name.
func (r *Registry) ApplicationCommands() map[string]*discordgo.ApplicationCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()

	commands := make(map[string]*discordgo.ApplicationCommand)
	for _, ext := range r.loaded {
		for _, cmd := range ext.ApplicationCommands() {
			commands[cmd.Name] = cmd
		}
	}
	return commands
}

// CommandOwner resolves a slash command name to the loaded extension
// that declared it.
func (r *Registry) CommandOwner(commandName string) (Extension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ext := range r.loaded {
		for _, cmd := range ext.ApplicationCommands() {
			if cmd.Name == commandName {
				return ext, true
			}
		}
	}
	return nil, false
}

// SetEnabled flips the guild's enabled flag for a loaded extension and
// persists it. It fails with ErrUnknownExtension when the name was
// never loaded and ErrAlreadyInState when the flag already matches.
func (r *Registry) SetEnabled(ctx context.Context, guildID, name string, enabled bool) error {
	if _, ok := r.Get(name); !ok {
		return fmt.Errorf("extension %s: %w", name, ErrUnknownExtension)
	}

	cfg, err := r.store.Config(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to get guild config: %w", err)
	}

	if cfg.ExtensionEnabled(name) == enabled {
		return fmt.Errorf("extension %s: %w", name, ErrAlreadyInState)
	}

	// The store hands out its cached document; mutate a copy so a
	// failed persist cannot leave the cache claiming a state that was
	// never written.
	updated := *cfg
	if enabled {
		updated.EnabledExtensions = append(append([]string(nil), cfg.EnabledExtensions...), name)
		sort.Strings(updated.EnabledExtensions)
	} else {
		kept := make([]string, 0, len(cfg.EnabledExtensions))
		for _, existing := range cfg.EnabledExtensions {
			if existing != name {
				kept = append(kept, existing)
			}
		}
		updated.EnabledExtensions = kept
	}

	if err := r.store.Replace(ctx, &updated); err != nil {
		return fmt.Errorf("failed to persist guild config: %w", err)
	}

	return nil
}

// Enabled reports whether the extension is enabled for the guild.
// Unloaded extensions are never enabled.
func (r *Registry) Enabled(ctx context.Context, guildID, name string) (bool, error) {
	if _, ok := r.Get(name); !ok {
		return false, nil
	}

	cfg, err := r.store.Config(ctx, guildID)
	if err != nil {
		return false, fmt.Errorf("failed to get guild config: %w", err)
	}

	return cfg.ExtensionEnabled(name), nil
}
