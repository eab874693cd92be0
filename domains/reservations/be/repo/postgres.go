// Package repo persists reservations in the per-club database. The overlap
// predicate is half-open: [10:00, 12:00) and [12:00, 14:00) do not conflict.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clubreserve/clubreserve/domains/reservations/be/service"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// PostgresRepository stores reservations. Stateless: every call takes the
// request's club handle.
type PostgresRepository struct{}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

const reservationColumns = `id, member_id, vehicle_id, date, start_time, end_time,
	status, notes, created_at, cancelled_at`

// overlapReservationSQL finds one blocking reservation whose window overlaps
// [start, end) on the given vehicle. A NULL vehicle blocks every vehicle and
// vice versa: in single-vehicle clubs vehicle_id is NULL everywhere, and a
// fleet-wide hold must conflict with named-vehicle rows too.
const overlapReservationSQL = `
	SELECT m.full_name, r.start_time, r.end_time
	  FROM reservations r
	  JOIN members m ON m.id = r.member_id
	 WHERE r.status IN ('active', 'pending_approval')
	   AND r.start_time < $2 AND r.end_time > $1
	   AND ($3::uuid IS NULL OR r.vehicle_id IS NULL OR r.vehicle_id = $3)
	 ORDER BY r.start_time
	 LIMIT 1`

// overlapBlackoutSQL finds one blackout covering any part of [start, end) on
// the given vehicle or fleet-wide.
const overlapBlackoutSQL = `
	SELECT reason, start_time, end_time
	  FROM blackout_periods
	 WHERE start_time < $2 AND end_time > $1
	   AND (vehicle_id IS NULL OR $3::uuid IS NULL OR vehicle_id = $3)
	 ORDER BY start_time
	 LIMIT 1`

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func findOverlap(ctx context.Context, q querier, vehicleID *uuid.UUID, start, end time.Time) (*service.Conflict, error) {
	var c service.Conflict
	err := q.QueryRow(ctx, overlapReservationSQL, start, end, vehicleID).
		Scan(&c.MemberName, &c.Start, &c.End)
	switch {
	case err == nil:
		return &c, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, persistence.MapRowError(err)
	}

	err = q.QueryRow(ctx, overlapBlackoutSQL, start, end, vehicleID).
		Scan(&c.BlackoutReason, &c.Start, &c.End)
	switch {
	case err == nil:
		return &c, nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	default:
		return nil, persistence.MapRowError(err)
	}
}

func (r *PostgresRepository) FindOverlap(ctx context.Context, db *persistence.Handle, vehicleID *uuid.UUID, start, end time.Time) (*service.Conflict, error) {
	return findOverlap(ctx, db.Pool(), vehicleID, start, end)
}

func (r *PostgresRepository) CountBlocking(ctx context.Context, db *persistence.Handle, memberID uuid.UUID, from time.Time) (int, error) {
	var n int
	err := db.Pool().QueryRow(ctx, `
		SELECT count(*) FROM reservations
		 WHERE member_id = $1
		   AND status IN ('active', 'pending_approval')
		   AND end_time > $2`, memberID, from).Scan(&n)
	if err != nil {
		return 0, persistence.MapRowError(err)
	}
	return n, nil
}

func (r *PostgresRepository) BlockingDates(ctx context.Context, db *persistence.Handle, memberID uuid.UUID, from time.Time) ([]time.Time, error) {
	rows, err := db.Pool().Query(ctx, `
		SELECT DISTINCT date FROM reservations
		 WHERE member_id = $1
		   AND status IN ('active', 'pending_approval')
		   AND end_time > $2
		 ORDER BY date`, memberID, from)
	if err != nil {
		return nil, persistence.MapRowError(err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, persistence.MapRowError(err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// CreateAll inserts every reservation or none, under the club's booking
// lock. Each window is re-checked inside the lock; the advisory pass the
// caller already ran does not count. A conflict found here means the caller
// lost a race.
func (r *PostgresRepository) CreateAll(ctx context.Context, db *persistence.Handle, rs []service.Reservation) error {
	return db.WithBookingLock(ctx, func(tx pgx.Tx) error {
		for _, res := range rs {
			c, err := findOverlap(ctx, tx, res.VehicleID, res.Start, res.End)
			if err != nil {
				return err
			}
			if c != nil {
				return &service.ConflictError{Conflicts: []service.VehicleConflict{
					{VehicleID: res.VehicleID, Conflict: *c},
				}}
			}
		}
		for _, res := range rs {
			_, err := tx.Exec(ctx, `
				INSERT INTO reservations (id, member_id, vehicle_id, date, start_time, end_time, status, notes, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				res.ID, res.MemberID, res.VehicleID, res.Date, res.Start, res.End,
				string(res.Status), res.Notes, res.CreatedAt)
			if err != nil {
				return persistence.MapRowError(err)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) Get(ctx context.Context, db *persistence.Handle, id uuid.UUID) (service.Reservation, error) {
	row := db.Pool().QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)

	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return service.Reservation{}, service.ErrNotFound
		}
		return service.Reservation{}, err
	}
	return res, nil
}

func (r *PostgresRepository) Cancel(ctx context.Context, db *persistence.Handle, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := db.Pool().Exec(ctx, `
		UPDATE reservations
		   SET status = 'cancelled', cancelled_at = $2
		 WHERE id = $1 AND status <> 'cancelled'`, id, at)
	if err != nil {
		return false, persistence.MapRowError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) Transition(ctx context.Context, db *persistence.Handle, id uuid.UUID, from, to service.Status, at time.Time) (bool, error) {
	ct, err := db.Pool().Exec(ctx, `
		UPDATE reservations
		   SET status = $3,
		       cancelled_at = CASE WHEN $3 = 'cancelled' THEN $4 ELSE cancelled_at END
		 WHERE id = $1 AND status = $2`, id, string(from), string(to), at)
	if err != nil {
		return false, persistence.MapRowError(err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *PostgresRepository) ListRange(ctx context.Context, db *persistence.Handle, from, to time.Time) ([]service.CalendarEntry, error) {
	rows, err := db.Pool().Query(ctx, `
		SELECT r.id, r.member_id, r.vehicle_id, r.date, r.start_time, r.end_time,
		       r.status, r.notes, r.created_at, r.cancelled_at,
		       m.full_name, m.username
		  FROM reservations r
		  JOIN members m ON m.id = r.member_id
		 WHERE r.date BETWEEN $1 AND $2
		 ORDER BY r.start_time, r.created_at`, from, to)
	if err != nil {
		return nil, persistence.MapRowError(err)
	}
	defer rows.Close()

	var entries []service.CalendarEntry
	for rows.Next() {
		var e service.CalendarEntry
		var status string
		err := rows.Scan(
			&e.ID, &e.MemberID, &e.VehicleID, &e.Date, &e.Start, &e.End,
			&status, &e.Notes, &e.CreatedAt, &e.CancelledAt,
			&e.MemberName, &e.MemberUsername,
		)
		if err != nil {
			return nil, persistence.MapRowError(err)
		}
		e.Status = service.Status(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *PostgresRepository) UsageStats(ctx context.Context, db *persistence.Handle, now time.Time) ([]service.MemberUsage, error) {
	rows, err := db.Pool().Query(ctx, `
		SELECT m.full_name,
		       count(*) FILTER (WHERE r.status = 'active' AND r.end_time <= $1)  AS past,
		       count(*) FILTER (WHERE r.status IN ('active', 'pending_approval') AND r.end_time > $1) AS upcoming,
		       count(*) FILTER (WHERE r.status <> 'cancelled')                     AS total,
		       count(*) FILTER (WHERE r.status = 'cancelled')                      AS cancelled
		  FROM members m
		  JOIN reservations r ON r.member_id = m.id
		 GROUP BY m.id, m.full_name
		 ORDER BY total DESC, m.full_name`, now)
	if err != nil {
		return nil, persistence.MapRowError(err)
	}
	defer rows.Close()

	var stats []service.MemberUsage
	for rows.Next() {
		var u service.MemberUsage
		if err := rows.Scan(&u.FullName, &u.Past, &u.Upcoming, &u.Total, &u.Cancelled); err != nil {
			return nil, persistence.MapRowError(err)
		}
		stats = append(stats, u)
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (service.Reservation, error) {
	var res service.Reservation
	var status string
	err := row.Scan(
		&res.ID, &res.MemberID, &res.VehicleID, &res.Date, &res.Start, &res.End,
		&status, &res.Notes, &res.CreatedAt, &res.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.Reservation{}, persistence.ErrNotFound
		}
		return service.Reservation{}, persistence.MapRowError(err)
	}
	res.Status = service.Status(status)
	return res, nil
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
