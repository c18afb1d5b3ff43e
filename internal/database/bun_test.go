package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "users_email_key"})
	assert.True(t, UniqueViolation(err))
	assert.False(t, UniqueViolation(&pq.Error{Code: "23503"}), "foreign key violation is not a unique violation")
	assert.False(t, UniqueViolation(errors.New("duplicate key value violates unique constraint")))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
}
