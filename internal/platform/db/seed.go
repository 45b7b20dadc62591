package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"lumigente/internal/domain/employee"
	"lumigente/internal/platform/config"
	"lumigente/internal/platform/logger"
)

// Seed applies bootstrap data that cannot come from the HR feed. It is
// idempotent and runs after each sync, since the admin account only exists
// once sync has created it.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedAdminCPF == "" {
		return nil
	}
	marked, err := ensureAdmin(ctx, pool, cfg.SeedAdminCPF)
	if err != nil {
		return err
	}
	if !marked {
		logger.From(ctx).Warn().Str("cpf", employee.MaskCPF(cfg.SeedAdminCPF)).Msg("seed admin has no account yet")
	}
	return nil
}

func ensureAdmin(ctx context.Context, pool *pgxpool.Pool, cpf string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE cpf = $1)", employee.NormalizeCPF(cpf)).Scan(&exists)
	if err != nil || !exists {
		return false, err
	}
	_, err = pool.Exec(ctx, "UPDATE users SET is_admin = true, updated_at = now() WHERE cpf = $1 AND NOT is_admin", employee.NormalizeCPF(cpf))
	return err == nil, err
}
