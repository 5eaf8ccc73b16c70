package store

import (
	"context"
	"fmt"
)

func (p *Postgres) AddFavorite(ctx context.Context, userID, poemID int64) error {
	query :=
		`INSERT INTO favorites (user_id, poem_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`

	if _, err := p.db.ExecContext(ctx, query, userID, poemID); err != nil {
		// Only a missing poem is the caller's problem; a missing user
		// means the session outlived its account.
		if pgCode(err) == pgForeignKeyViolation && pgConstraint(err) == favoritesPoemFK {
			return ErrNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (p *Postgres) RemoveFavorite(ctx context.Context, userID, poemID int64) error {
	query :=
		`DELETE FROM favorites
		 WHERE user_id = $1 AND poem_id = $2`

	if _, err := p.db.ExecContext(ctx, query, userID, poemID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
