package auth

import (
	"context"
	"time"
)

type SessionStore interface {
	CreateSession(ctx context.Context, id, userID string, expires time.Time) error
	RevokeSession(ctx context.Context, id string) error
	SessionValid(ctx context.Context, id string) (bool, error)
}
