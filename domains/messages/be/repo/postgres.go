// Package repo persists the message board.
package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clubreserve/clubreserve/domains/messages/be/service"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// PostgresRepository stores messages in the per-club database.
type PostgresRepository struct{}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

func (r *PostgresRepository) Insert(ctx context.Context, db *persistence.Handle, m service.Message) error {
	_, err := db.Pool().Exec(ctx, `
		INSERT INTO messages (id, member_id, title, body, is_announcement, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.MemberID, m.Title, m.Body, m.IsAnnouncement, m.CreatedAt)
	if err != nil {
		return persistence.MapRowError(err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, db *persistence.Handle, id uuid.UUID) (service.Message, error) {
	var m service.Message
	err := db.Pool().QueryRow(ctx, `
		SELECT id, member_id, title, body, is_announcement, created_at
		  FROM messages
		 WHERE id = $1`, id).
		Scan(&m.ID, &m.MemberID, &m.Title, &m.Body, &m.IsAnnouncement, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.Message{}, service.ErrNotFound
		}
		return service.Message{}, persistence.MapRowError(err)
	}
	return m, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, db *persistence.Handle, id uuid.UUID) error {
	tag, err := db.Pool().Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return persistence.MapRowError(err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, db *persistence.Handle) ([]service.BoardEntry, error) {
	rows, err := db.Pool().Query(ctx, `
		SELECT msg.id, msg.member_id, msg.title, msg.body, msg.is_announcement, msg.created_at,
		       m.full_name, m.username
		  FROM messages msg
		  JOIN members m ON m.id = msg.member_id
		 ORDER BY msg.is_announcement DESC, msg.created_at DESC`)
	if err != nil {
		return nil, persistence.MapRowError(err)
	}
	defer rows.Close()

	var entries []service.BoardEntry
	for rows.Next() {
		var e service.BoardEntry
		err := rows.Scan(&e.ID, &e.MemberID, &e.Title, &e.Body, &e.IsAnnouncement, &e.CreatedAt,
			&e.AuthorName, &e.AuthorUsername)
		if err != nil {
			return nil, persistence.MapRowError(err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
