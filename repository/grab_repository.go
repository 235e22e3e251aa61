package repository

import (
	"context"
	"fmt"

	"basementbot/domain/entities"

	"github.com/jackc/pgx/v5"
)

// GrabRepository provides guild-scoped access to grabbed quotes
type GrabRepository struct {
	q       Queryable
	guildID string
}

// NewGrabRepositoryScoped creates a grab repository bound to a transaction and guild
func NewGrabRepositoryScoped(tx Queryable, guildID string) *GrabRepository {
	return &GrabRepository{
		q:       tx,
		guildID: guildID,
	}
}

// Create stores a grabbed quote
func (r *GrabRepository) Create(ctx context.Context, userID, quote, grabbedBy string) (*entities.Grab, error) {
	query := `
		INSERT INTO grabs (guild_id, user_id, quote, grabbed_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, guild_id, user_id, quote, grabbed_by, created_at
	`

	var grab entities.Grab
	err := r.q.QueryRow(ctx, query, r.guildID, userID, quote, grabbedBy).Scan(
		&grab.ID,
		&grab.GuildID,
		&grab.UserID,
		&grab.Quote,
		&grab.GrabbedBy,
		&grab.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create grab for user %s in guild %s: %w", userID, r.guildID, err)
	}

	return &grab, nil
}

// ListByUser returns all grabs for a user in the current guild, newest first
func (r *GrabRepository) ListByUser(ctx context.Context, userID string) ([]*entities.Grab, error) {
	query := `
		SELECT id, guild_id, user_id, quote, grabbed_by, created_at
		FROM grabs
		WHERE guild_id = $1 AND user_id = $2
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query, r.guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grabs for user %s in guild %s: %w", userID, r.guildID, err)
	}
	defer rows.Close()

	var grabs []*entities.Grab
	for rows.Next() {
		var grab entities.Grab
		if err := rows.Scan(
			&grab.ID,
			&grab.GuildID,
			&grab.UserID,
			&grab.Quote,
			&grab.GrabbedBy,
			&grab.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan grab: %w", err)
		}
		grabs = append(grabs, &grab)
	}

	return grabs, rows.Err()
}

// RandomByUser returns a random grab for a user in the current guild.
// Returns nil if the user has no grabs.
func (r *GrabRepository) RandomByUser(ctx context.Context, userID string) (*entities.Grab, error) {
	query := `
		SELECT id, guild_id, user_id, quote, grabbed_by, created_at
		FROM grabs
		WHERE guild_id = $1 AND user_id = $2
		ORDER BY random()
		LIMIT 1
	`

	var grab entities.Grab
	err := r.q.QueryRow(ctx, query, r.guildID, userID).Scan(
		&grab.ID,
		&grab.GuildID,
		&grab.UserID,
		&grab.Quote,
		&grab.GrabbedBy,
		&grab.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get random grab for user %s in guild %s: %w", userID, r.guildID, err)
	}

	return &grab, nil
}
