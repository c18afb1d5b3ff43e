package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/beauty-assistant-api/internal/database"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("email or username already registered")
)

// Store is the persistence contract used by the auth and profile services.
type Store interface {
	FindByEmailOrUsername(ctx context.Context, identifier string) (*User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Insert(ctx context.Context, nu NewUser) (*User, error)
	UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	// WithTx runs fn against a Store bound to one transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// Repository handles user data persistence
type Repository struct {
	root *bun.DB
	db   bun.IDB
	ids  *snowflake.Node
	now  func() time.Time
}

// NewRepository builds a repository; nodeID identifies this process for snowflake IDs (0-1023).
func NewRepository(db *bun.DB, nodeID int64) (*Repository, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("init id generator: %w", err)
	}
	return &Repository{root: db, db: db, ids: node, now: time.Now}, nil
}

func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if _, inTx := r.db.(bun.Tx); inTx {
		return fn(ctx, r)
	}
	return r.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Repository{root: r.root, db: tx, ids: r.ids, now: r.now})
	})
}

// FindByEmailOrUsername looks a user up by email or username. An email match wins
// over a username match.
func (r *Repository) FindByEmailOrUsername(ctx context.Context, identifier string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", identifier).
		WhereOr("username = ?", identifier).
		OrderExpr("CASE WHEN email = ? THEN 0 ELSE 1 END", identifier).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by identifier: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// ExistsByEmailOrUsername checks both unique keys in one query.
func (r *Repository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Where("email = ?", email).
		WhereOr("username = ?", username).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check existing user: %w", err)
	}
	return exists, nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// Insert creates a user row. A unique violation on email or username maps to ErrAlreadyExists.
func (r *Repository) Insert(ctx context.Context, nu NewUser) (*User, error) {
	if nu.PasswordHash == "" {
		return nil, errors.New("refusing to store a user without a password hash")
	}

	now := r.now().UTC().Truncate(time.Microsecond)
	dbUser := &database.User{
		ID:           r.ids.Generate().Int64(),
		Email:        nu.Email,
		Username:     nu.Username,
		FullName:     nu.FullName,
		PasswordHash: nu.PasswordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		if database.UniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// UpdateProfile applies the non-nil fields of upd and refreshes updated_at.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*User, error) {
	dbUser := new(database.User)
	q := r.db.NewUpdate().
		Model(dbUser).
		Set("updated_at = ?", r.now().UTC().Truncate(time.Microsecond)).
		Where("id = ?", id)

	if upd.Username != nil {
		q = q.Set("username = ?", *upd.Username)
	}
	if upd.FullName != nil {
		q = q.Set("full_name = ?", *upd.FullName)
	}

	err := q.Returning("*").Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if database.UniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// UpdatePassword updates a user's password hash
func (r *Repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", r.now().UTC().Truncate(time.Microsecond)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:           dbu.ID,
		Email:        dbu.Email,
		Username:     dbu.Username,
		FullName:     dbu.FullName,
		PasswordHash: dbu.PasswordHash,
		IsActive:     dbu.IsActive,
		CreatedAt:    dbu.CreatedAt,
		UpdatedAt:    dbu.UpdatedAt,
	}
}
