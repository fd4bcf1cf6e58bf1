package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Capture is one capture attempt.
type Capture struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"sessionId"`
	Stage      string    `json:"stage"`
	Accepted   bool      `json:"accepted"`
	Reason     string    `json:"reason,omitempty"`
	Message    string    `json:"message,omitempty"`
	Brightness int       `json:"brightness"`
	BlurScore  float64   `json:"blurScore"`
	Confidence float64   `json:"confidence,omitempty"`
	Filename   string    `json:"filename,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CaptureRepository stores capture attempts.
type CaptureRepository struct {
	db *sql.DB
}

// Captures returns the capture repository for this store.
func (s *Store) Captures() *CaptureRepository {
	return &CaptureRepository{db: s.db}
}

// Create inserts a capture. The owning session row is created on demand,
// since rejected attempts can precede the first published report.
func (r *CaptureRepository) Create(ctx context.Context, c *Capture) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, state, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.SessionID, "AwaitingPalm", c.CreatedAt, c.CreatedAt,
	); err != nil {
		return fmt.Errorf("ensure session %s: %w", c.SessionID, err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO captures (session_id, stage, accepted, reason, message, brightness, blur_score, confidence, filename, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.SessionID, c.Stage, c.Accepted, c.Reason, c.Message, c.Brightness, c.BlurScore, c.Confidence, c.Filename, c.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	c.ID = id
	return nil
}

// ListBySession returns the captures of one session in attempt order.
func (r *CaptureRepository) ListBySession(ctx context.Context, sessionID string) ([]*Capture, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, stage, accepted, reason, message, brightness, blur_score, confidence, filename, created_at
		 FROM captures WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var captures []*Capture
	for rows.Next() {
		c := &Capture{}
		err := rows.Scan(&c.ID, &c.SessionID, &c.Stage, &c.Accepted, &c.Reason, &c.Message,
			&c.Brightness, &c.BlurScore, &c.Confidence, &c.Filename, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		captures = append(captures, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return captures, nil
}

// CountAccepted returns how many accepted captures a session has.
func (r *CaptureRepository) CountAccepted(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM captures WHERE session_id = ? AND accepted = 1`, sessionID,
	).Scan(&n)
	return n, err
}
