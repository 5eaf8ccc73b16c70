package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kevinaaaquil/poems/backend/models"
)

const listPoemsQuery = `SELECT p.id, p.user_id, p.title, p.content, p.tags, p.anonymous, p.created_at, u.name
		 FROM poems p
		 JOIN users u ON u.id = p.user_id`

// The needle is always bound as $1; only these fixed fragments are spliced in.
const (
	searchClause = `
		 WHERE (p.title ILIKE $1 ESCAPE '\' OR p.content ILIKE $1 ESCAPE '\' OR p.tags ILIKE $1 ESCAPE '\')`
	orderAsc  = `
		 ORDER BY p.id ASC`
	orderDesc = `
		 ORDER BY p.id DESC`
)

func (p *Postgres) InsertPoem(ctx context.Context, poem *models.Poem) error {
	query :=
		`INSERT INTO poems (user_id, title, content, tags, anonymous)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := p.db.QueryRowContext(ctx, query,
		poem.UserID, poem.Title, poem.Content, nullString(poem.Tags), poem.Anonymous).Scan(&poem.ID, &poem.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (p *Postgres) ListPoems(ctx context.Context, q models.PoemQuery) ([]models.Poem, error) {
	query := listPoemsQuery
	var args []any
	if q.Search != "" {
		query += searchClause
		args = append(args, likePattern(q.Search))
	}
	if q.Ascending() {
		query += orderAsc
	} else {
		query += orderDesc
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	poems := []models.Poem{}
	for rows.Next() {
		var (
			poem  models.Poem
			tags  sql.NullString
			owner string
		)
		if err := rows.Scan(&poem.ID, &poem.UserID, &poem.Title, &poem.Content, &tags, &poem.Anonymous, &poem.CreatedAt, &owner); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		poem.Tags = stringPtr(tags)
		poem.Author = models.AuthorName(poem.Anonymous, owner)
		poems = append(poems, poem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return poems, nil
}

func (p *Postgres) PoemByID(ctx context.Context, id int64) (*models.Poem, error) {
	query :=
		`SELECT id, user_id, title, content, tags, anonymous, created_at FROM poems
		 WHERE id = $1`

	poem := &models.Poem{}
	var tags sql.NullString
	err := p.db.QueryRowContext(ctx, query, id).Scan(&poem.ID, &poem.UserID, &poem.Title, &poem.Content, &tags, &poem.Anonymous, &poem.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	poem.Tags = stringPtr(tags)
	return poem, nil
}

// DeletePoem relies on ON DELETE CASCADE to drop the poem's favorites.
func (p *Postgres) DeletePoem(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM poems WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
