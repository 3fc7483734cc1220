// Package library handles the on-disk photo library and its SQLite index.
package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/echosnap/internal/device"
	"github.com/verte-zerg/echosnap/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Library stores captured photos as JPEG files and indexes them in SQLite.
type Library struct {
	dir string
	db  *sql.DB
}

// Open opens or creates the library at dir with its index database at
// dbPath, applying migrations.
func Open(dir, dbPath string) (*Library, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	lib := &Library{dir: dir, db: db}
	if err := lib.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return lib, nil
}

// Close closes the underlying database.
func (l *Library) Close() error {
	return l.db.Close()
}

func (l *Library) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS shots (
			id INTEGER PRIMARY KEY,
			taken_at TEXT NOT NULL,
			path TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			zoom_factor REAL NOT NULL,
			exposure_bias REAL NOT NULL,
			orientation TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_shots_taken_at ON shots(taken_at);`,
	}
	for _, stmt := range stmts {
		if _, err := l.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save writes a photo file and indexes it, returning the stored shot.
func (l *Library) Save(ctx context.Context, photo device.Photo, zoom, bias float64) (model.Shot, error) {
	if len(photo.Data) == 0 {
		return model.Shot{}, fmt.Errorf("photo has no image data")
	}
	name := uuid.NewString() + ".jpg"
	path := filepath.Join(l.dir, name)
	if err := os.WriteFile(path, photo.Data, 0o644); err != nil {
		return model.Shot{}, fmt.Errorf("failed to write photo: %w", err)
	}

	shot := model.Shot{
		TakenAt:      time.Now(),
		Path:         path,
		Width:        photo.Width,
		Height:       photo.Height,
		ZoomFactor:   zoom,
		ExposureBias: bias,
		Orientation:  photo.Orientation.String(),
	}
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO shots (taken_at, path, width, height, zoom_factor, exposure_bias, orientation)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		shot.TakenAt.Format(time.RFC3339Nano),
		shot.Path,
		shot.Width,
		shot.Height,
		shot.ZoomFactor,
		shot.ExposureBias,
		shot.Orientation,
	)
	if err != nil {
		if rerr := os.Remove(path); rerr != nil {
			// Best-effort cleanup of the orphaned file.
			_ = rerr
		}
		return model.Shot{}, fmt.Errorf("failed to index photo: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Shot{}, err
	}
	shot.ID = id
	return shot, nil
}

// SaveAsync persists a photo in the background, fire-and-forget. The
// outcome is reported via done; callers are expected to only log failures.
func (l *Library) SaveAsync(photo device.Photo, zoom, bias float64, done func(model.Shot, error)) {
	go func() {
		shot, err := l.Save(context.Background(), photo, zoom, bias)
		if done != nil {
			done(shot, err)
		}
	}()
}

// List returns saved shots matching the query, oldest first.
func (l *Library) List(ctx context.Context, q model.LibraryQuery) ([]model.Shot, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if q.Since != nil {
		clauses = append(clauses, "taken_at >= ?")
		args = append(args, q.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, taken_at, path, width, height, zoom_factor, exposure_bias, orientation
		FROM shots
		WHERE %s
		ORDER BY taken_at ASC`, strings.Join(clauses, " AND "))
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var shots []model.Shot
	for rows.Next() {
		var shot model.Shot
		var takenAt string
		if err := rows.Scan(&shot.ID, &takenAt, &shot.Path, &shot.Width, &shot.Height,
			&shot.ZoomFactor, &shot.ExposureBias, &shot.Orientation); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, takenAt)
		if err != nil {
			return nil, err
		}
		shot.TakenAt = parsed
		shots = append(shots, shot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if q.Last > 0 && len(shots) > q.Last {
		shots = shots[len(shots)-q.Last:]
	}
	return shots, nil
}
