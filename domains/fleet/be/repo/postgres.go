package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clubreserve/clubreserve/domains/fleet/be/service"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// PostgresRepository reads and writes the per-club fleet tables.
type PostgresRepository struct{}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

func (r *PostgresRepository) ListVehicles(ctx context.Context, db *persistence.Handle, activeOnly bool) ([]service.Vehicle, error) {
	query := `SELECT id, name, registration, is_active, usage_hours, created_at FROM vehicles`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := db.Pool().Query(ctx, query)
	if err != nil {
		return nil, persistence.MapRowError(err)
	}
	defer rows.Close()

	var vehicles []service.Vehicle
	for rows.Next() {
		var v service.Vehicle
		if err := rows.Scan(&v.ID, &v.Name, &v.Registration, &v.IsActive, &v.UsageHours, &v.CreatedAt); err != nil {
			return nil, persistence.MapRowError(err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (r *PostgresRepository) GetVehicle(ctx context.Context, db *persistence.Handle, id uuid.UUID) (service.Vehicle, error) {
	var v service.Vehicle
	err := db.Pool().QueryRow(ctx,
		`SELECT id, name, registration, is_active, usage_hours, created_at FROM vehicles WHERE id = $1`, id).
		Scan(&v.ID, &v.Name, &v.Registration, &v.IsActive, &v.UsageHours, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.Vehicle{}, service.ErrNotFound
		}
		return service.Vehicle{}, persistence.MapRowError(err)
	}
	return v, nil
}

func (r *PostgresRepository) CreateVehicle(ctx context.Context, db *persistence.Handle, v service.Vehicle) (service.Vehicle, error) {
	err := db.Pool().QueryRow(ctx, `
		INSERT INTO vehicles (id, name, registration, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, registration, is_active, usage_hours, created_at`,
		v.ID, v.Name, v.Registration, v.IsActive).
		Scan(&v.ID, &v.Name, &v.Registration, &v.IsActive, &v.UsageHours, &v.CreatedAt)
	if err != nil {
		return service.Vehicle{}, persistence.MapRowError(err)
	}
	return v, nil
}

func (r *PostgresRepository) RetireVehicle(ctx context.Context, db *persistence.Handle, id uuid.UUID) error {
	tag, err := db.Pool().Exec(ctx, `UPDATE vehicles SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return persistence.MapRowError(err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateBlackout(ctx context.Context, db *persistence.Handle, b service.Blackout) (service.Blackout, error) {
	err := db.Pool().QueryRow(ctx, `
		INSERT INTO blackout_periods (id, vehicle_id, start_time, end_time, reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, vehicle_id, start_time, end_time, reason, created_by, created_at`,
		b.ID, b.VehicleID, b.Start, b.End, b.Reason, b.CreatedBy).
		Scan(&b.ID, &b.VehicleID, &b.Start, &b.End, &b.Reason, &b.CreatedBy, &b.CreatedAt)
	if err != nil {
		return service.Blackout{}, persistence.MapRowError(err)
	}
	return b, nil
}

func (r *PostgresRepository) ListBlackouts(ctx context.Context, db *persistence.Handle, from, to time.Time) ([]service.Blackout, error) {
	rows, err := db.Pool().Query(ctx, `
		SELECT id, vehicle_id, start_time, end_time, reason, created_by, created_at
		FROM blackout_periods
		WHERE start_time < $2 AND end_time > $1
		ORDER BY start_time`, from, to)
	if err != nil {
		return nil, persistence.MapRowError(err)
	}
	defer rows.Close()

	var blackouts []service.Blackout
	for rows.Next() {
		var b service.Blackout
		if err := rows.Scan(&b.ID, &b.VehicleID, &b.Start, &b.End, &b.Reason, &b.CreatedBy, &b.CreatedAt); err != nil {
			return nil, persistence.MapRowError(err)
		}
		blackouts = append(blackouts, b)
	}
	return blackouts, rows.Err()
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
