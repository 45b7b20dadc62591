package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateSession(ctx context.Context, id, userID string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (id, user_id, expires_at)
    VALUES ($1,$2,$3)
  `, id, userID, expires)
	return err
}

func (s *Store) RevokeSession(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE id::text = $1 AND revoked_at IS NULL", id)
	return err
}

func (s *Store) SessionValid(ctx context.Context, id string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM sessions s
    JOIN users u ON u.id = s.user_id
    WHERE s.id::text = $1 AND s.expires_at > now() AND s.revoked_at IS NULL AND u.is_active
  `, id).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
