package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db}, db.PingContext(context.Background())
}

const schema = `
CREATE TABLE IF NOT EXISTS teachers (
	id            TEXT PRIMARY KEY,
	username      TEXT UNIQUE NOT NULL,
	email         TEXT NOT NULL,
	full_name     TEXT NOT NULL,
	password_hash BYTEA NOT NULL
);

CREATE TABLE IF NOT EXISTS classes (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	level      TEXT NOT NULL,
	stream     TEXT NOT NULL,
	teacher_id TEXT NOT NULL REFERENCES teachers(id),
	position   SERIAL
);

CREATE TABLE IF NOT EXISTS students (
	id        TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	class_id  TEXT NOT NULL REFERENCES classes(id),
	position  SERIAL
);

CREATE TABLE IF NOT EXISTS attendance_records (
	id          TEXT PRIMARY KEY,
	class_id    TEXT NOT NULL REFERENCES classes(id),
	student_id  TEXT NOT NULL,
	date        TEXT NOT NULL,
	session     TEXT NOT NULL,
	status      TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	recorded_by TEXT NOT NULL,
	UNIQUE (class_id, date, session, student_id)
);

CREATE INDEX IF NOT EXISTS idx_students_class ON students(class_id);
CREATE INDEX IF NOT EXISTS idx_attendance_key ON attendance_records(class_id, date, session);
`

// Migrate creates the tables when they do not exist.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.Client.ExecContext(ctx, schema)
	return err
}

// Healthy verifies database connectivity.
func (d *DB) Healthy(ctx context.Context) bool {
	if d == nil || d.Client == nil {
		return false
	}
	return d.Client.PingContext(ctx) == nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
