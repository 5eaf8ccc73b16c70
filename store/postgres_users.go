package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kevinaaaquil/poems/backend/models"
)

func (p *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (name, email, password, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`

	err := p.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.Password, user.Role).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (p *Postgres) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, name, email, password, role, created_at FROM users
		 WHERE email = $1`

	return scanUser(p.db.QueryRowContext(ctx, query, email))
}

func (p *Postgres) UserByID(ctx context.Context, id int64) (*models.User, error) {
	query :=
		`SELECT id, name, email, password, role, created_at FROM users
		 WHERE id = $1`

	return scanUser(p.db.QueryRowContext(ctx, query, id))
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
