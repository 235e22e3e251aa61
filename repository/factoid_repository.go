package repository

import (
	"context"
	"fmt"

	"basementbot/domain/entities"

	"github.com/jackc/pgx/v5"
)

// FactoidRepository provides guild-scoped access to stored factoids
type FactoidRepository struct {
	q       Queryable
	guildID string
}

// NewFactoidRepositoryScoped creates a factoid repository bound to a transaction and guild
func NewFactoidRepositoryScoped(tx Queryable, guildID string) *FactoidRepository {
	return &FactoidRepository{
		q:       tx,
		guildID: guildID,
	}
}

// GetByName retrieves a factoid by name in the current guild.
// Returns nil if no factoid with that name exists.
func (r *FactoidRepository) GetByName(ctx context.Context, name string) (*entities.Factoid, error) {
	query := `
		SELECT id, guild_id, name, content, creator_id, created_at
		FROM factoids
		WHERE guild_id = $1 AND name = $2
	`

	var factoid entities.Factoid
	err := r.q.QueryRow(ctx, query, r.guildID, name).Scan(
		&factoid.ID,
		&factoid.GuildID,
		&factoid.Name,
		&factoid.Content,
		&factoid.CreatorID,
		&factoid.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get factoid %q in guild %s: %w", name, r.guildID, err)
	}

	return &factoid, nil
}

// Upsert creates a factoid or replaces the content of an existing one
func (r *FactoidRepository) Upsert(ctx context.Context, name, content, creatorID string) (*entities.Factoid, error) {
	query := `
		INSERT INTO factoids (guild_id, name, content, creator_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, name) DO UPDATE
			SET content = EXCLUDED.content, creator_id = EXCLUDED.creator_id
		RETURNING id, guild_id, name, content, creator_id, created_at
	`

	var factoid entities.Factoid
	err := r.q.QueryRow(ctx, query, r.guildID, name, content, creatorID).Scan(
		&factoid.ID,
		&factoid.GuildID,
		&factoid.Name,
		&factoid.Content,
		&factoid.CreatorID,
		&factoid.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert factoid %q in guild %s: %w", name, r.guildID, err)
	}

	return &factoid, nil
}

// Delete removes a factoid by name. Returns true when a row was deleted.
func (r *FactoidRepository) Delete(ctx context.Context, name string) (bool, error) {
	query := `DELETE FROM factoids WHERE guild_id = $1 AND name = $2`

	tag, err := r.q.Exec(ctx, query, r.guildID, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete factoid %q in guild %s: %w", name, r.guildID, err)
	}

	return tag.RowsAffected() > 0, nil
}

// List returns all factoids in the current guild ordered by name
func (r *FactoidRepository) List(ctx context.Context) ([]*entities.Factoid, error) {
	query := `
		SELECT id, guild_id, name, content, creator_id, created_at
		FROM factoids
		WHERE guild_id = $1
		ORDER BY name
	`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list factoids in guild %s: %w", r.guildID, err)
	}
	defer rows.Close()

	var factoids []*entities.Factoid
	for rows.Next() {
		var factoid entities.Factoid
		if err := rows.Scan(
			&factoid.ID,
			&factoid.GuildID,
			&factoid.Name,
			&factoid.Content,
			&factoid.CreatorID,
			&factoid.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan factoid: %w", err)
		}
		factoids = append(factoids, &factoid)
	}

	return factoids, rows.Err()
}
