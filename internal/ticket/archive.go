package ticket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLArchive stores submission records in the ticket_submissions table.
type SQLArchive struct {
	db *sqlx.DB
}

// NewSQLArchive returns an archive over the given connection,
// or nil when no database is configured.
func NewSQLArchive(db *sqlx.DB) *SQLArchive {
	if db == nil {
		return nil
	}
	return &SQLArchive{db: db}
}

// Record inserts one submission attempt.
func (a *SQLArchive) Record(ctx context.Context, rec SubmissionRecord) error {
	payload, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("archive: marshal fields: %w", err)
	}
	const q = `
		INSERT INTO ticket_submissions
			(user_id, username, title, fields, item_id, ok, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := a.db.ExecContext(ctx, q,
		rec.UserID, rec.Username, rec.Title, payload, rec.ItemID, rec.OK, rec.Error,
	); err != nil {
		return fmt.Errorf("archive: insert submission: %w", err)
	}
	return nil
}
