package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/flightcompare/internal/fsutil"
	"github.com/banshee-data/flightcompare/internal/monitoring"
	"github.com/banshee-data/flightcompare/internal/security"
	"github.com/banshee-data/flightcompare/internal/timeutil"
)

// Upload is a staged GPX file.
type Upload struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	Path         string    `json:"path"`
	SizeBytes    int64     `json:"size_bytes"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

func (db *DB) RecordUpload(ctx context.Context, u Upload) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO uploads (id, original_name, path, size_bytes, uploaded_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.OriginalName, u.Path, u.SizeBytes, u.UploadedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record upload %s: %w", u.Path, err)
	}
	return nil
}

// ListUploads returns staged uploads, newest first.
func (db *DB) ListUploads(ctx context.Context) ([]Upload, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, original_name, path, size_bytes, uploaded_at FROM uploads ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()

	var out []Upload
	for rows.Next() {
		var u Upload
		var ms int64
		if err := rows.Scan(&u.ID, &u.OriginalName, &u.Path, &u.SizeBytes, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		u.UploadedAt = time.UnixMilli(ms).UTC()
		out = append(out, u)
	}
	return out, rows.Err()
}

// PurgeUploadsBefore deletes uploads staged before cutoff, removing their
// files from fsys. Files that are already gone are not an error.
func (db *DB) PurgeUploadsBefore(ctx context.Context, cutoff time.Time, fsys fsutil.FileSystem) (int, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, path FROM uploads WHERE uploaded_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to query stale uploads: %w", err)
	}
	type stale struct{ id, path string }
	var victims []stale
	for rows.Next() {
		var s stale
		if err := rows.Scan(&s.id, &s.path); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan stale upload: %w", err)
		}
		victims = append(victims, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	purged := 0
	for _, s := range victims {
		if err := fsys.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			monitoring.Warnf("purge", "failed to remove staged file %s: %v", s.path, err)
			continue
		}
		if _, err := db.ExecContext(ctx, `DELETE FROM uploads WHERE id = ?`, s.id); err != nil {
			return purged, fmt.Errorf("failed to delete upload %s: %w", s.id, err)
		}
		purged++
	}
	return purged, nil
}

// Stager writes uploaded GPX files into a directory and records them.
type Stager struct {
	DB    *DB
	FS    fsutil.FileSystem
	Clock timeutil.Clock
	Dir   string
	// MaxBytes caps a single upload; zero means unlimited.
	MaxBytes int64
}

// ErrTooLarge is returned when an upload exceeds Stager.MaxBytes.
var ErrTooLarge = errors.New("upload exceeds size limit")

// Stage copies r into the staging directory under a unique name.
func (s *Stager) Stage(ctx context.Context, originalName string, r io.Reader) (Upload, error) {
	if err := security.ValidateGPXName(originalName); err != nil {
		return Upload{}, err
	}
	if err := s.FS.MkdirAll(s.Dir, 0o755); err != nil {
		return Upload{}, fmt.Errorf("failed to create upload dir: %w", err)
	}

	id := uuid.NewString()
	path := filepath.Join(s.Dir, security.StagedName(id, originalName))
	f, err := s.FS.Create(path)
	if err != nil {
		return Upload{}, fmt.Errorf("failed to create %s: %w", path, err)
	}

	src := r
	if s.MaxBytes > 0 {
		src = io.LimitReader(r, s.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.MaxBytes > 0 && n > s.MaxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		s.FS.Remove(path)
		return Upload{}, fmt.Errorf("failed to stage %s: %w", originalName, err)
	}

	u := Upload{
		ID:           id,
		OriginalName: originalName,
		Path:         path,
		SizeBytes:    n,
		UploadedAt:   s.Clock.Now().UTC(),
	}
	if err := s.DB.RecordUpload(ctx, u); err != nil {
		s.FS.Remove(path)
		return Upload{}, err
	}
	return u, nil
}

// RunJanitor purges uploads older than retention every interval until ctx
// is done.
func (s *Stager) RunJanitor(ctx context.Context, retention, interval time.Duration) {
	ticker := s.Clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			n, err := s.DB.PurgeUploadsBefore(ctx, s.Clock.Now().Add(-retention), s.FS)
			if err != nil {
				monitoring.Warnf("purge", "upload purge failed: %v", err)
				continue
			}
			if n > 0 {
				monitoring.Logf("purged %d stale uploads", n)
			}
		}
	}
}
