package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"photobooth/agent/internal/database"
	"photobooth/agent/internal/ids"
	"photobooth/agent/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository struct {
	db *database.DB

	// Guards the check-then-create in EnsureActive: concurrent first
	// arrivals in the watched directory must not mint two active sessions.
	ensureMu sync.Mutex
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, boothID string) (models.Session, error) {
	session := models.Session{
		ID:        ids.New(),
		BoothID:   boothID,
		Status:    models.SessionStatusActive,
		StartedAt: time.Now().UTC(),
		SyncState: models.SyncStatePending,
	}

	const query = `
		INSERT INTO sessions (id, booth_id, status, started_at, ended_at, sync_state)
		VALUES (?, ?, ?, ?, ?, 'pending')
	`
	_, err := r.db.SQL().ExecContext(ctx, query,
		session.ID,
		session.BoothID,
		session.Status,
		formatTime(session.StartedAt),
		formatNullTime(session.EndedAt),
	)
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (models.Session, error) {
	const query = `
		SELECT id, booth_id, status, started_at, ended_at, sync_state
		FROM sessions WHERE id = ?
	`
	return r.scanOne(r.db.SQL().QueryRowContext(ctx, query, id))
}

// Active returns the most recently started active session, or
// ErrSessionNotFound when no session is active.
func (r *SessionRepository) Active(ctx context.Context) (models.Session, error) {
	const query = `
		SELECT id, booth_id, status, started_at, ended_at, sync_state
		FROM sessions
		WHERE status = 'active'
		ORDER BY started_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.SQL().QueryRowContext(ctx, query))
}

// EnsureActive returns the current active session, creating one for the
// booth when none exists. Safe for concurrent callers; only one session
// is created.
func (r *SessionRepository) EnsureActive(ctx context.Context, boothID string) (models.Session, error) {
	r.ensureMu.Lock()
	defer r.ensureMu.Unlock()

	session, err := r.Active(ctx)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return models.Session{}, err
	}
	return r.Create(ctx, boothID)
}

// Complete marks the session completed and flags it for re-sync.
func (r *SessionRepository) Complete(ctx context.Context, id string) error {
	const query = `
		UPDATE sessions
		SET status = 'completed', ended_at = ?, sync_state = 'pending'
		WHERE id = ?
	`
	_, err := r.db.SQL().ExecContext(ctx, query, formatTime(time.Now().UTC()), id)
	return err
}

func (r *SessionRepository) ListPending(ctx context.Context) ([]models.Session, error) {
	const query = `
		SELECT id, booth_id, status, started_at, ended_at, sync_state
		FROM sessions
		WHERE sync_state = 'pending'
		ORDER BY started_at ASC
	`
	rows, err := r.db.SQL().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		session, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (r *SessionRepository) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.SQL().ExecContext(ctx, `UPDATE sessions SET sync_state = 'synced' WHERE id = ?`, id)
	return err
}

func (r *SessionRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.SQL().QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE sync_state = 'pending'`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SessionRepository) scanOne(row *sql.Row) (models.Session, error) {
	session, err := r.scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, ErrSessionNotFound
	}
	return session, err
}

func (r *SessionRepository) scanRow(row rowScanner) (models.Session, error) {
	var (
		session   models.Session
		startedAt string
		endedAt   sql.NullString
	)
	if err := row.Scan(
		&session.ID,
		&session.BoothID,
		&session.Status,
		&startedAt,
		&endedAt,
		&session.SyncState,
	); err != nil {
		return models.Session{}, err
	}
	session.StartedAt = parseTime(startedAt)
	session.EndedAt = parseNullTime(endedAt)
	return session, nil
}
