package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/raushankrgupta/fitly-tryon/models"

	_ "modernc.org/sqlite"
)

const outfitsSchema = `
CREATE TABLE IF NOT EXISTS outfits (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id           TEXT    NOT NULL,
	man_image_path    TEXT    NOT NULL,
	cloth_image_path  TEXT    NOT NULL,
	result_image_path TEXT    NOT NULL,
	created_at        INTEGER NOT NULL,
	UNIQUE (user_id, man_image_path, cloth_image_path)
);
CREATE INDEX IF NOT EXISTS idx_outfits_user_created ON outfits (user_id, created_at DESC);
`

// SQLiteStore persists outfit records in SQLite.
type SQLiteStore struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLite opens (creating if needed) the ledger database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single writer; concurrent inserts queue on the pool instead of hitting SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(outfitsSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create outfits table: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Insert writes rec; an existing triple is left untouched.
func (s *SQLiteStore) Insert(ctx context.Context, rec models.OutfitRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	if err := validate(rec); err != nil {
		return false, err
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO outfits (user_id, man_image_path, cloth_image_path, result_image_path, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, man_image_path, cloth_image_path) DO NOTHING`,
		rec.UserID,
		rec.PersonImagePath,
		rec.GarmentImagePath,
		rec.ResultImagePath,
		toMillis(createdAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert outfit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert outfit rows affected: %w", err)
	}
	return n == 1, nil
}

// ListByUser returns the caller's outfits ordered by created_at descending.
func (s *SQLiteStore) ListByUser(ctx context.Context, userID string, page, limit int) (*models.OutfitPage, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	page, offset := normalizePage(page, limit)

	var total int64
	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outfits WHERE user_id = ?`, userID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("count outfits: %w", err)
	}

	query := `SELECT id, user_id, man_image_path, cloth_image_path, result_image_path, created_at
		FROM outfits WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list outfits: %w", err)
	}
	defer rows.Close()

	var outfits []models.OutfitRecord
	for rows.Next() {
		var (
			rec       models.OutfitRecord
			id        int64
			createdAt int64
		)
		if err := rows.Scan(&id, &rec.UserID, &rec.PersonImagePath, &rec.GarmentImagePath, &rec.ResultImagePath, &createdAt); err != nil {
			return nil, fmt.Errorf("scan outfit: %w", err)
		}
		rec.ID = strconv.FormatInt(id, 10)
		rec.CreatedAt = fromMillis(createdAt)
		outfits = append(outfits, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outfits: %w", err)
	}
	return newPage(outfits, total, page, limit), nil
}
