package entities

import "time"

// Factoid is a named canned response stored per guild
type Factoid struct {
	ID        int64     `db:"id"`
	GuildID   string    `db:"guild_id"`
	Name      string    `db:"name"`
	Content   string    `db:"content"`
	CreatorID string    `db:"creator_id"`
	CreatedAt time.Time `db:"created_at"`
}
