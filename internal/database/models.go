package database

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the bun row model for the users table.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk"`
	Email        string    `bun:"email,notnull"`
	Username     string    `bun:"username,notnull"`
	FullName     *string   `bun:"full_name"`
	PasswordHash string    `bun:"password_hash,notnull"`
	IsActive     bool      `bun:"is_active,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}
