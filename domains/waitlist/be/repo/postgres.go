package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clubreserve/clubreserve/domains/waitlist/be/service"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// PostgresRepository stores waitlist entries in the per-club database.
type PostgresRepository struct{}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

// Upsert relies on the (member_id, desired_date) unique constraint: a repeat
// join changes nothing and hands back the existing row.
func (r *PostgresRepository) Upsert(ctx context.Context, db *persistence.Handle, e service.Entry) (service.Entry, bool, error) {
	tag, err := db.Pool().Exec(ctx, `
		INSERT INTO waitlist_entries (id, member_id, desired_date, notes, notified, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
		ON CONFLICT (member_id, desired_date) DO NOTHING`,
		e.ID, e.MemberID, e.DesiredDate, e.Notes, e.CreatedAt)
	if err != nil {
		return service.Entry{}, false, persistence.MapRowError(err)
	}
	created := tag.RowsAffected() == 1
	if created {
		return e, true, nil
	}

	var existing service.Entry
	err = db.Pool().QueryRow(ctx, `
		SELECT id, member_id, desired_date, notes, notified, created_at
		  FROM waitlist_entries
		 WHERE member_id = $1 AND desired_date = $2`, e.MemberID, e.DesiredDate).
		Scan(&existing.ID, &existing.MemberID, &existing.DesiredDate,
			&existing.Notes, &existing.Notified, &existing.CreatedAt)
	if err != nil {
		return service.Entry{}, false, persistence.MapRowError(err)
	}
	return existing, false, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, db *persistence.Handle, memberID uuid.UUID, date time.Time) (bool, error) {
	tag, err := db.Pool().Exec(ctx, `
		DELETE FROM waitlist_entries WHERE member_id = $1 AND desired_date = $2`,
		memberID, date)
	if err != nil {
		return false, persistence.MapRowError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) ListForMember(ctx context.Context, db *persistence.Handle, memberID uuid.UUID, from time.Time) ([]service.Entry, error) {
	rows, err := db.Pool().Query(ctx, `
		SELECT id, member_id, desired_date, notes, notified, created_at
		  FROM waitlist_entries
		 WHERE member_id = $1 AND desired_date >= $2
		 ORDER BY desired_date`, memberID, from)
	if err != nil {
		return nil, persistence.MapRowError(err)
	}
	defer rows.Close()

	var entries []service.Entry
	for rows.Next() {
		var e service.Entry
		if err := rows.Scan(&e.ID, &e.MemberID, &e.DesiredDate, &e.Notes, &e.Notified, &e.CreatedAt); err != nil {
			return nil, persistence.MapRowError(err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *PostgresRepository) ListPending(ctx context.Context, db *persistence.Handle, date time.Time) ([]service.PendingEntry, error) {
	rows, err := db.Pool().Query(ctx, `
		SELECT w.id, w.member_id, w.desired_date, w.notes, w.notified, w.created_at,
		       m.email, m.full_name
		  FROM waitlist_entries w
		  JOIN members m ON m.id = w.member_id
		 WHERE w.desired_date = $1 AND w.notified = FALSE AND m.is_active = TRUE
		 ORDER BY w.created_at`, date)
	if err != nil {
		return nil, persistence.MapRowError(err)
	}
	defer rows.Close()

	var pending []service.PendingEntry
	for rows.Next() {
		var p service.PendingEntry
		err := rows.Scan(&p.ID, &p.MemberID, &p.DesiredDate, &p.Notes, &p.Notified, &p.CreatedAt,
			&p.Contact.Email, &p.Contact.FullName)
		if err != nil {
			return nil, persistence.MapRowError(err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

func (r *PostgresRepository) MarkNotified(ctx context.Context, db *persistence.Handle, id uuid.UUID) error {
	_, err := db.Pool().Exec(ctx, `
		UPDATE waitlist_entries SET notified = TRUE WHERE id = $1`, id)
	if err != nil {
		return persistence.MapRowError(err)
	}
	return nil
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
