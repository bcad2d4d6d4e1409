// Package store is the data access layer for zemahub: videos, users, and
// the per-user favorites / watch-later sets, backed by a single SQLite
// database.
package store

import (
	"database/sql"
	"errors"

	"github.com/zemahub/zemahub/idgen"
)

// ErrEmailTaken is returned when registering with an email that already
// has an account.
var ErrEmailTaken = errors.New("store: email already in use")

// Store wraps the service database.
type Store struct {
	DB    *sql.DB
	newID idgen.Generator
}

// New creates a Store from an already-opened database connection.
func New(db *sql.DB) *Store {
	return &Store{DB: db, newID: idgen.Default}
}

// SetIDGenerator overrides the ID strategy, for tests.
func (s *Store) SetIDGenerator(gen idgen.Generator) {
	s.newID = gen
}
