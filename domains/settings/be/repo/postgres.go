package repo

import (
	"context"

	"github.com/clubreserve/clubreserve/domains/settings/be/service"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// PostgresRepository reads and writes the per-club club_settings table.
type PostgresRepository struct{}

// NewPostgresRepository constructs the repository. It holds no connection;
// the per-request club handle arrives with each call.
func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

func (r *PostgresRepository) Load(ctx context.Context, db *persistence.Handle) (service.Settings, error) {
	rows, err := db.Pool().Query(ctx, `SELECT key, value FROM club_settings`)
	if err != nil {
		return nil, persistence.MapRowError(err)
	}
	defer rows.Close()

	settings := make(service.Settings)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, persistence.MapRowError(err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

func (r *PostgresRepository) Set(ctx context.Context, db *persistence.Handle, key, value string) error {
	_, err := db.Pool().Exec(ctx, `
		INSERT INTO club_settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	return persistence.MapRowError(err)
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
