package entities

import "time"

// Grab is a quoted message saved by another member
type Grab struct {
	ID        int64     `db:"id"`
	GuildID   string    `db:"guild_id"`
	UserID    string    `db:"user_id"`
	Quote     string    `db:"quote"`
	GrabbedBy string    `db:"grabbed_by"`
	CreatedAt time.Time `db:"created_at"`
}
