// Package store provides an optional sqlite-backed diagnostic log of
// estimator output, independent of the prior-map text-file format used for
// actual SLAM state persistence (spec.md §6). It never feeds back into
// estimation — strictly a side channel for offline plotting and crash
// forensics.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/reflector-slam/internal/slam"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DiagnosticStore appends pose history and landmark snapshots to a sqlite
// database, tagging every write with the session's uuid so multiple runs
// can share one file without their rows being confused.
type DiagnosticStore struct {
	db        *sql.DB
	sessionID uuid.UUID
}

// Open creates (or reuses) the sqlite file at path, applies pending
// migrations, and returns a store tagged with a fresh session ID.
func Open(path string) (*DiagnosticStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %q: %w", path, err)
	}

	if err := applyMigrations(db, path); err != nil {
		db.Close()
		return nil, err
	}

	return &DiagnosticStore{db: db, sessionID: uuid.New()}, nil
}

func applyMigrations(db *sql.DB, path string) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("store: reading embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("store: sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, path, driver)
	if err != nil {
		return fmt.Errorf("store: building migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("store: applying migrations: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *DiagnosticStore) Close() error {
	return s.db.Close()
}

// RecordPose appends one pose-with-covariance snapshot.
func (s *DiagnosticStore) RecordPose(ctx context.Context, t time.Time, pose slam.PoseWithCovariance) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pose_history (session_id, recorded_at, x, y, yaw) VALUES (?, ?, ?, ?, ?)`,
		s.sessionID.String(), t.UTC(), pose.Pose.X, pose.Pose.Y, pose.Pose.Yaw,
	)
	if err != nil {
		return fmt.Errorf("store: recording pose: %w", err)
	}
	return nil
}

// RecordLandmarkSnapshot appends one row per tracked landmark for the given
// tick, so an offline viewer can reconstruct the map's evolution over time.
func (s *DiagnosticStore) RecordLandmarkSnapshot(ctx context.Context, t time.Time, markers []slam.LandmarkMarker) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: beginning landmark snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO landmark_snapshot (session_id, recorded_at, landmark_index, x, y, semi_axis_a, semi_axis_b, angle_rad)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: preparing landmark snapshot insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range markers {
		if _, err := stmt.ExecContext(ctx, s.sessionID.String(), t.UTC(), i, m.Position.X, m.Position.Y, m.SemiAxisA, m.SemiAxisB, m.AngleRad); err != nil {
			return fmt.Errorf("store: inserting landmark %d: %w", i, err)
		}
	}

	return tx.Commit()
}
