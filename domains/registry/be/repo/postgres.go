package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/clubreserve/clubreserve/domains/registry/be/service"
	"github.com/clubreserve/clubreserve/platform/go/club"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// PostgresRepository reads and writes the master registry database.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresRepository constructs a repository over the master pool.
func NewPostgresRepository(pool *pgxpool.Pool, logger *zap.Logger) *PostgresRepository {
	if pool == nil {
		panic("master pool is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &PostgresRepository{pool: pool, logger: logger}
}

const clubColumns = `id, name, short_name, vehicle_type, COALESCE(db_name, ''),
	COALESCE(db_user, ''), COALESCE(subdomain, ''), contact_email, timezone, is_active, created_at`

func (r *PostgresRepository) GetByShortName(ctx context.Context, shortName string) (club.Club, error) {
	query := fmt.Sprintf(`SELECT %s FROM clubs WHERE short_name = $1 AND is_active = TRUE`, clubColumns)
	c, err := scanClub(r.pool.QueryRow(ctx, query, shortName))
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return club.Club{}, service.ErrNotFound
		}
		return club.Club{}, err
	}
	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]club.Club, error) {
	query := fmt.Sprintf(`SELECT %s FROM clubs ORDER BY name`, clubColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, persistence.MapRowError(err)
	}
	defer rows.Close()

	var clubs []club.Club
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, err
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, c club.Club) (club.Club, error) {
	query := fmt.Sprintf(`
		INSERT INTO clubs (name, short_name, vehicle_type, db_name, db_user, subdomain, contact_email, timezone, is_active)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, TRUE)
		RETURNING %s`, clubColumns)

	created, err := scanClub(r.pool.QueryRow(ctx, query,
		c.Name, c.ShortName, string(c.VehicleType), c.DBName, c.DBUser,
		c.Subdomain, c.ContactEmail, c.Timezone,
	))
	if err != nil {
		if persistence.IsUniqueViolation(err, "") {
			return club.Club{}, service.ErrConflict
		}
		return club.Club{}, err
	}
	return created, nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, shortName string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE clubs SET is_active = FALSE WHERE short_name = $1`, shortName)
	if err != nil {
		return persistence.MapRowError(err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

// AppendAudit writes one administrative action row. Failures are logged and
// dropped; the audit log must never fail the action it records.
func (r *PostgresRepository) AppendAudit(ctx context.Context, entry service.AuditEntry) {
	var detail []byte
	if entry.Detail != nil {
		var err error
		if detail, err = json.Marshal(entry.Detail); err != nil {
			r.logger.Warn("audit detail not serializable", zap.Error(err))
			detail = nil
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO master_audit_log (admin_id, action, target_type, target_id, detail)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, 0), $5)`,
		entry.AdminID, entry.Action, entry.TargetType, entry.TargetID, detail,
	)
	if err != nil {
		r.logger.Warn("audit append failed", zap.String("action", entry.Action), zap.Error(err))
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClub(row rowScanner) (club.Club, error) {
	var c club.Club
	var vehicleType string
	err := row.Scan(
		&c.ID, &c.Name, &c.ShortName, &vehicleType, &c.DBName,
		&c.DBUser, &c.Subdomain, &c.ContactEmail, &c.Timezone, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return club.Club{}, persistence.ErrNotFound
		}
		return club.Club{}, persistence.MapRowError(err)
	}
	c.VehicleType = club.VehicleType(vehicleType)
	return c, nil
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
