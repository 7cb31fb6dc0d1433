package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"voiceloom/internal/boundary"
	"voiceloom/internal/config"
	"voiceloom/internal/detection"
	"voiceloom/internal/generation"
	"voiceloom/internal/timeline"
)

// Store manages review session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the session database in the workspace.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// CreateSession persists a new session together with its command records.
// Creation timestamps are stamped here.
func (s *Store) CreateSession(ctx context.Context, session *Session, records []CommandRecord) error {
	if session == nil {
		return errors.New("session is nil")
	}
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	session.CreatedAt = now
	session.UpdatedAt = now

	timelineJSON, err := json.Marshal(session.Timeline)
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO sessions (id, title, duration_seconds, timeline_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.Title,
		session.Duration,
		string(timelineJSON),
		timestamp,
		timestamp,
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for i := range records {
		rec := &records[i]
		rec.SessionID = session.ID
		rec.UpdatedAt = now
		contextJSON, err := json.Marshal(rec.Context)
		if err != nil {
			return fmt.Errorf("marshal command context: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO commands (
                session_id, command_id, position, context_json,
                start_relative, end_relative, status, response_json, failure_message, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.SessionID,
			rec.CommandID,
			rec.Position,
			string(contextJSON),
			rec.Boundary.StartRelative,
			rec.Boundary.EndRelative,
			string(rec.Status),
			nullableString(marshalResponse(rec.Response)),
			nullableString(rec.FailureMessage),
			timestamp,
		); err != nil {
			return fmt.Errorf("insert command %s: %w", rec.CommandID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// GetSession fetches a session by id, returning nil when absent.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, title, duration_seconds, timeline_json, created_at, updated_at FROM sessions WHERE id = ?`,
		id,
	)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// LatestSessionID returns the most recently created session, or empty when
// the store holds none. Imports are serialized by the workspace lock, so
// insertion order is creation order.
func (s *Store) LatestSessionID(ctx context.Context) (string, error) {
	ctx = ensureContext(ctx)
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM sessions ORDER BY rowid DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest session: %w", err)
	}
	return id, nil
}

// ListSessions returns summaries for every stored session in creation order.
func (s *Store) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT s.id, s.title, s.duration_seconds, s.created_at, s.updated_at,
                COUNT(c.command_id),
                COALESCE(SUM(CASE WHEN c.status = ? THEN 1 ELSE 0 END), 0)
         FROM sessions s
         LEFT JOIN commands c ON c.session_id = s.id
         GROUP BY s.id
         ORDER BY s.rowid`,
		string(generation.StatusReady),
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var (
			summary    SessionSummary
			createdRaw string
			updatedRaw string
		)
		if err := rows.Scan(
			&summary.ID,
			&summary.Title,
			&summary.Duration,
			&createdRaw,
			&updatedRaw,
			&summary.Commands,
			&summary.Ready,
		); err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			summary.CreatedAt = created
		}
		if updated, err := parseTimeString(updatedRaw); err == nil {
			summary.UpdatedAt = updated
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// LoadCommands returns the command records for a session in detection order.
func (s *Store) LoadCommands(ctx context.Context, sessionID string) ([]CommandRecord, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT session_id, command_id, position, context_json,
                start_relative, end_relative, status, response_json, failure_message, updated_at
         FROM commands WHERE session_id = ? ORDER BY position`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load commands: %w", err)
	}
	defer rows.Close()

	var records []CommandRecord
	for rows.Next() {
		rec, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// UpdateTimeline replaces the stored segment layout for a session.
func (s *Store) UpdateTimeline(ctx context.Context, sessionID string, tl timeline.Timeline) error {
	timelineJSON, err := json.Marshal(tl)
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}
	_, err = s.execWithRetry(
		ctx,
		`UPDATE sessions SET timeline_json = ?, updated_at = ? WHERE id = ?`,
		string(timelineJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("update timeline: %w", err)
	}
	return nil
}

// SaveBoundary persists the current boundary selection for a command.
func (s *Store) SaveBoundary(ctx context.Context, sessionID, commandID string, st boundary.State) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE commands SET start_relative = ?, end_relative = ?, updated_at = ?
         WHERE session_id = ? AND command_id = ?`,
		st.StartRelative,
		st.EndRelative,
		time.Now().UTC().Format(time.RFC3339Nano),
		sessionID,
		commandID,
	)
	if err != nil {
		return fmt.Errorf("save boundary: %w", err)
	}
	return nil
}

// SaveCommandState persists the generation outcome for a command.
func (s *Store) SaveCommandState(ctx context.Context, sessionID, commandID string, status generation.Status, resp *generation.Response, failureMessage string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE commands SET status = ?, response_json = ?, failure_message = ?, updated_at = ?
         WHERE session_id = ? AND command_id = ?`,
		string(status),
		nullableString(marshalResponse(resp)),
		nullableString(failureMessage),
		time.Now().UTC().Format(time.RFC3339Nano),
		sessionID,
		commandID,
	)
	if err != nil {
		return fmt.Errorf("save command state: %w", err)
	}
	return nil
}

// ResetStuckProcessing demotes commands stranded in processing by a previous
// crash to failed so they surface as retryable with an operator message.
func (s *Store) ResetStuckProcessing(ctx context.Context, sessionID string) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE commands SET status = ?, failure_message = ?, updated_at = ?
         WHERE session_id = ? AND status = ?`,
		string(generation.StatusFailed),
		generation.FallbackFailureMessage,
		time.Now().UTC().Format(time.RFC3339Nano),
		sessionID,
		string(generation.StatusProcessing),
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck processing: %w", err)
	}
	return res.RowsAffected()
}

// DeleteSession removes a session and, through the cascade, its commands.
func (s *Store) DeleteSession(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return affected > 0, nil
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		session      Session
		timelineJSON string
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&session.ID,
		&session.Title,
		&session.Duration,
		&timelineJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	var stored timeline.Timeline
	if err := json.Unmarshal([]byte(timelineJSON), &stored); err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}
	// Revalidate on load so a corrupted row cannot smuggle in a broken tiling.
	tl, err := timeline.New(session.Duration, stored.Segments)
	if err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}
	session.Timeline = tl

	if created, err := parseTimeString(createdRaw); err == nil {
		session.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		session.UpdatedAt = updated
	}
	return &session, nil
}

func scanCommand(scanner interface{ Scan(dest ...any) error }) (*CommandRecord, error) {
	var (
		rec         CommandRecord
		contextJSON string
		statusStr   string
		respJSON    sql.NullString
		failureMsg  sql.NullString
		updatedRaw  string
	)
	if err := scanner.Scan(
		&rec.SessionID,
		&rec.CommandID,
		&rec.Position,
		&contextJSON,
		&rec.Boundary.StartRelative,
		&rec.Boundary.EndRelative,
		&statusStr,
		&respJSON,
		&failureMsg,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	var cmdCtx detection.CommandContext
	if err := json.Unmarshal([]byte(contextJSON), &cmdCtx); err != nil {
		return nil, fmt.Errorf("decode command context: %w", err)
	}
	rec.Context = cmdCtx
	rec.Status = generation.Status(statusStr)
	rec.FailureMessage = failureMsg.String

	if respJSON.Valid && strings.TrimSpace(respJSON.String) != "" {
		var resp generation.Response
		if err := json.Unmarshal([]byte(respJSON.String), &resp); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		rec.Response = &resp
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		rec.UpdatedAt = updated
	}
	return &rec, nil
}

func marshalResponse(resp *generation.Response) string {
	if resp == nil {
		return ""
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return ""
	}
	return string(data)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
