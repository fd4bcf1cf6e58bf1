package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/session"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/pkg/log"
)

// Session is the stored summary of one enrollment session.
type Session struct {
	ID             string    `json:"id"`
	DeviceID       string    `json:"deviceId"`
	State          string    `json:"state"`
	HandSide       string    `json:"handSide"`
	FingersMatched int       `json:"fingersMatched"`
	Brightness     int       `json:"brightness"`
	Light          string    `json:"light"`
	BlurScore      float64   `json:"blurScore"`
	Complete       bool      `json:"complete"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SessionRepository stores the latest report of every session.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

const sessionColumns = `id, device_id, state, hand_side, fingers_matched, brightness, light, blur_score, complete, created_at, updated_at`

// Record inserts or updates the session described by report.
func (r *SessionRepository) Record(ctx context.Context, report session.Report) error {
	now := time.Now()
	updated := report.UpdatedAt
	if updated.IsZero() {
		updated = now
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			device_id = excluded.device_id,
			state = excluded.state,
			hand_side = excluded.hand_side,
			fingers_matched = excluded.fingers_matched,
			brightness = excluded.brightness,
			light = excluded.light,
			blur_score = excluded.blur_score,
			complete = excluded.complete,
			updated_at = excluded.updated_at`,
		report.SessionID, report.DeviceID, report.State, report.HandSide, report.FingersMatched,
		report.Brightness, report.Light, report.BlurScore, report.Complete, now, updated,
	)
	return err
}

// Publish records report, logging failures. It lets the repository act as
// a report sink for the orchestrator.
func (r *SessionRepository) Publish(report session.Report) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Record(ctx, report); err != nil {
		log.Error(log.Fields{"session": report.SessionID, "error": err}, "[store.Publish] failed to record session")
	}
}

// Get retrieves a session by its ID.
func (r *SessionRepository) Get(ctx context.Context, id string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)

	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns the most recently updated sessions first. A limit <= 0
// returns all of them.
func (r *SessionRepository) List(ctx context.Context, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY updated_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes a session and its captures.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	s := &Session{}
	err := row.Scan(&s.ID, &s.DeviceID, &s.State, &s.HandSide, &s.FingersMatched,
		&s.Brightness, &s.Light, &s.BlurScore, &s.Complete, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}
