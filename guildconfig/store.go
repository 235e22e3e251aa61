package guildconfig

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ReneKroon/ttlcache/v2"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SchemaSource provides the config schemas of the currently loaded
// extensions. Wired to the registry after both are constructed.
type SchemaSource func() map[string]*Schema

// Store persists guild config documents in a MongoDB collection with a
// read-through TTL cache in front.
type Store struct {
	collection    *mongo.Collection
	cache         *ttlcache.Cache
	schemas       SchemaSource
	defaultPrefix string

	// serializes document creation so concurrent first contact with
	// a guild cannot insert duplicates
	mu sync.Mutex
}

// NewStore creates a guild config store backed by the given collection.
func NewStore(collection *mongo.Collection, defaultPrefix string, cacheTTL time.Duration) *Store {
	cache := ttlcache.NewCache()
	_ = cache.SetTTL(cacheTTL)
	cache.SkipTTLExtensionOnHit(true)

	return &Store{
		collection:    collection,
		cache:         cache,
		defaultPrefix: defaultPrefix,
		schemas:       func() map[string]*Schema { return nil },
	}
}

// SetSchemaSource wires the source of extension config schemas.
func (s *Store) SetSchemaSource(source SchemaSource) {
	s.schemas = source
}

// Config returns the guild's config, from cache when fresh. A missing
// document is created with defaults, and an existing document is synced
// against the currently registered schemas.
func (s *Store) Config(ctx context.Context, guildID string) (*GuildConfig, error) {
	if cached, err := s.cache.Get(guildID); err == nil {
		if cfg, ok := cached.(*GuildConfig); ok {
			return cfg, nil
		}
	}

	return s.ConfigUncached(ctx, guildID)
}

// ConfigUncached fetches the guild's config from MongoDB, bypassing the
// cache. The cache is refreshed with the result.
func (s *Store) ConfigUncached(ctx context.Context, guildID string) (*GuildConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg GuildConfig
	err := s.collection.FindOne(ctx, bson.M{"guild_id": guildID}).Decode(&cfg)
	switch {
	case err == nil:
		if err := s.sync(ctx, &cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, mongo.ErrNoDocuments):
		created, createErr := s.create(ctx, guildID)
		if createErr != nil {
			return nil, createErr
		}
		cfg = *created
	default:
		return nil, fmt.Errorf("failed to fetch guild config for %s: %w", guildID, err)
	}

	_ = s.cache.Set(guildID, &cfg)
	return &cfg, nil
}

// Replace overwrites the guild's config document and refreshes the cache.
func (s *Store) Replace(ctx context.Context, cfg *GuildConfig) error {
	if cfg.GuildID == "" {
		return fmt.Errorf("guild config has no guild ID")
	}

	filter := bson.M{"guild_id": cfg.GuildID}
	opts := options.Replace().SetUpsert(true)

	// never write the stale _id of a previously decoded document
	replacement := *cfg
	replacement.ID = primitive.NilObjectID

	if _, err := s.collection.ReplaceOne(ctx, filter, &replacement, opts); err != nil {
		return fmt.Errorf("failed to replace guild config for %s: %w", cfg.GuildID, err)
	}

	_ = s.cache.Set(cfg.GuildID, cfg)
	return nil
}

// Invalidate drops the guild's cached config.
func (s *Store) Invalidate(guildID string) {
	_ = s.cache.Remove(guildID)
}

// Close releases the cache's background resources.
func (s *Store) Close() {
	s.cache.Close()
}

// create builds and inserts a default config for a guild, with one
// settings block per configurable loaded extension. An insert failure
// is logged but the config is still returned, since it remains usable.
func (s *Store) create(ctx context.Context, guildID string) (*GuildConfig, error) {
	cfg := &GuildConfig{
		GuildID:           guildID,
		CommandPrefix:     s.defaultPrefix,
		PrivateChannels:   []string{},
		EnabledExtensions: []string{},
		Extensions:        map[string]map[string]Setting{},
	}

	for name, schema := range s.schemas() {
		if schema == nil || schema.Len() == 0 {
			continue
		}
		cfg.Extensions[name] = schema.Settings()
	}

	log.WithField("guild_id", guildID).Debug("Inserting new guild config")
	if _, err := s.collection.InsertOne(ctx, cfg); err != nil {
		log.WithError(err).WithField("guild_id", guildID).Error("Could not insert guild config")
	}

	return cfg, nil
}

// sync adds settings blocks for extensions registered after the
// document was created. Existing keys are never dropped here; the diff
// surfaces them to admins instead.
func (s *Store) sync(ctx context.Context, cfg *GuildConfig) error {
	if cfg.Extensions == nil {
		cfg.Extensions = map[string]map[string]Setting{}
	}

	updated := false
	for name, schema := range s.schemas() {
		if schema == nil || schema.Len() == 0 {
			continue
		}
		if _, ok := cfg.Extensions[name]; ok {
			continue
		}
		log.WithFields(log.Fields{
			"guild_id":  cfg.GuildID,
			"extension": name,
		}).Debug("Adding missing extension block to guild config")
		cfg.Extensions[name] = schema.Settings()
		updated = true
	}

	if !updated {
		return nil
	}

	filter := bson.M{"guild_id": cfg.GuildID}
	update := bson.M{"$set": bson.M{"extensions": cfg.Extensions}}
	if _, err := s.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to sync guild config for %s: %w", cfg.GuildID, err)
	}

	return nil
}
