package upload

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// StateDB tracks which exports have been uploaded to avoid re-sending.
type StateDB struct {
	db *sql.DB
}

// UploadRecord is one successfully uploaded export.
type UploadRecord struct {
	Path       string
	Size       int64
	Hash       string
	Workouts   int
	Sets       int64
	UploadedAt time.Time
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS uploaded_exports (
		path        TEXT PRIMARY KEY,
		size        INTEGER NOT NULL,
		hash        TEXT NOT NULL,
		workouts    INTEGER NOT NULL DEFAULT 0,
		sets        INTEGER NOT NULL DEFAULT 0,
		uploaded_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// IsUploaded checks if an export has already been uploaded with the same size and hash.
func (s *StateDB) IsUploaded(relPath string, size int64, hash string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM uploaded_exports WHERE path = ? AND size = ? AND hash = ?`,
		relPath, size, hash,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkUploaded records that an export was successfully uploaded.
func (s *StateDB) MarkUploaded(rec UploadRecord) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO uploaded_exports (path, size, hash, workouts, sets, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Path, rec.Size, rec.Hash, rec.Workouts, rec.Sets, time.Now().Unix(),
	)
	return err
}

// History returns the most recent uploads, newest first.
func (s *StateDB) History(limit int) ([]UploadRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT path, size, hash, workouts, sets, uploaded_at
		 FROM uploaded_exports ORDER BY uploaded_at DESC, path LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying upload history: %w", err)
	}
	defer rows.Close()

	var out []UploadRecord
	for rows.Next() {
		var r UploadRecord
		var unix int64
		if err := rows.Scan(&r.Path, &r.Size, &r.Hash, &r.Workouts, &r.Sets, &unix); err != nil {
			return nil, fmt.Errorf("scanning upload record: %w", err)
		}
		r.UploadedAt = time.Unix(unix, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// HashFile computes the SHA-256 hash of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
