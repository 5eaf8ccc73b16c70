// Package store persists users, poems and favorites. Handlers depend on the
// narrow interfaces below; Open picks a backend from the connection string.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kevinaaaquil/poems/backend/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Users is the credential store. Email is unique and compared exactly as stored.
type Users interface {
	// CreateUser inserts user and fills in ID and CreatedAt. A taken email
	// fails with ErrDuplicateEmail, including when a concurrent signup won
	// the race.
	CreateUser(ctx context.Context, user *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
}

type Poems interface {
	// InsertPoem fills in ID and CreatedAt.
	InsertPoem(ctx context.Context, poem *models.Poem) error
	// ListPoems returns the feed with Author set, strictly ordered by id.
	ListPoems(ctx context.Context, q models.PoemQuery) ([]models.Poem, error)
	PoemByID(ctx context.Context, id int64) (*models.Poem, error)
	// DeletePoem removes the poem and its favorites.
	DeletePoem(ctx context.Context, id int64) error
}

type Favorites interface {
	// AddFavorite is a no-op when the pair exists; ErrNotFound if the poem does not.
	AddFavorite(ctx context.Context, userID, poemID int64) error
	// RemoveFavorite succeeds whether or not the pair exists.
	RemoveFavorite(ctx context.Context, userID, poemID int64) error
}

type Store interface {
	Users
	Poems
	Favorites
	Close(ctx context.Context) error
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*MongoDB)(nil)
)

// Open connects to the database named by dsn: postgres:// or postgresql://
// for PostgreSQL (schema migrated on open), mongodb:// or mongodb+srv:// for
// MongoDB, using mongoDB as the database name.
func Open(ctx context.Context, dsn, mongoDB string) (Store, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return NewMongoDB(ctx, dsn, mongoDB)
	default:
		return nil, fmt.Errorf("unsupported database url scheme in %q", redact(dsn))
	}
}

// redact drops everything after the scheme so credentials never reach logs.
func redact(dsn string) string {
	if i := strings.Index(dsn, "://"); i >= 0 {
		return dsn[:i+3] + "..."
	}
	return "..."
}

// likePattern turns a search needle into a literal-substring LIKE pattern.
func likePattern(needle string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(needle) + "%"
}
