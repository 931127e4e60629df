package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/client/models"
	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/dbx"
)

const columns = `identifier, path, destination, filename, total_size, total_chunks, chunks_done, attempt, updated_at`

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.Session, error) {
	var s models.Session
	var updated int64
	if err := row.Scan(&s.Identifier, &s.Path, &s.Destination, &s.Filename,
		&s.TotalSize, &s.TotalChunks, &s.ChunksDone, &s.Attempt, &updated); err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Unix(updated, 0)
	return &s, nil
}

func (r *SQLiteRepository) Find(ctx context.Context, path, destination string) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM upload_sessions WHERE path = ? AND destination = ?`, path, destination)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session for %s: %w", path, err)
	}
	return s, nil
}

// Save inserts s or replaces the session with the same path and
// destination.
func (r *SQLiteRepository) Save(ctx context.Context, s *models.Session) error {
	s.UpdatedAt = r.now()

	_, err := r.db.ExecContext(ctx, `DELETE FROM upload_sessions WHERE path = ? AND destination = ? AND identifier <> ?`,
		s.Path, s.Destination, s.Identifier)
	if err != nil {
		return fmt.Errorf("failed to replace session %s: %w", s.Identifier, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO upload_sessions (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			path = excluded.path,
			destination = excluded.destination,
			filename = excluded.filename,
			total_size = excluded.total_size,
			total_chunks = excluded.total_chunks,
			chunks_done = excluded.chunks_done,
			attempt = excluded.attempt,
			updated_at = excluded.updated_at
	`, s.Identifier, s.Path, s.Destination, s.Filename, s.TotalSize, s.TotalChunks, s.ChunksDone, s.Attempt, s.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.Identifier, err)
	}
	return nil
}

func (r *SQLiteRepository) SetProgress(ctx context.Context, identifier string, chunksDone int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE upload_sessions SET chunks_done = ?, updated_at = ? WHERE identifier = ?`,
		chunksDone, r.now().Unix(), identifier)
	if err != nil {
		return fmt.Errorf("failed to update session %s: %w", identifier, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, identifier string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM upload_sessions WHERE identifier = ?`, identifier); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", identifier, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM upload_sessions ORDER BY updated_at DESC, identifier`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	return result, nil
}
