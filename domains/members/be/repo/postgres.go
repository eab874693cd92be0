package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clubreserve/clubreserve/domains/members/be/service"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// PostgresRepository reads the per-club members table.
type PostgresRepository struct{}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

const memberColumns = `id, username, full_name, email, password_hash, is_admin, is_active,
	max_pending_override, max_consecutive_override, created_at`

func (r *PostgresRepository) Get(ctx context.Context, db *persistence.Handle, id uuid.UUID) (service.Member, error) {
	row := db.Pool().QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1 AND is_active = TRUE`, id)

	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return service.Member{}, service.ErrNotFound
		}
		return service.Member{}, err
	}
	return m, nil
}

func (r *PostgresRepository) ListAdmins(ctx context.Context, db *persistence.Handle) ([]service.Member, error) {
	rows, err := db.Pool().Query(ctx,
		`SELECT `+memberColumns+` FROM members WHERE is_admin = TRUE AND is_active = TRUE ORDER BY full_name`)
	if err != nil {
		return nil, persistence.MapRowError(err)
	}
	defer rows.Close()

	var admins []service.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, m)
	}
	return admins, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (service.Member, error) {
	var m service.Member
	err := row.Scan(
		&m.ID, &m.Username, &m.FullName, &m.Email, &m.PasswordHash, &m.IsAdmin, &m.IsActive,
		&m.MaxPendingOverride, &m.MaxConsecutiveOverride, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.Member{}, persistence.ErrNotFound
		}
		return service.Member{}, persistence.MapRowError(err)
	}
	return m, nil
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
