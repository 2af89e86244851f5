package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/DDS3579/attendance-manager/internal/model"
)

// ErrConstraint reports that an insert lost a uniqueness race; the caller
// treats it the same as a duplicate found by the pre-check.
var ErrConstraint = errors.New("constraint violation")

// Store is the embedded SQLite persistence layer. It is opened once at
// startup and owns all durable state.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database file and ensures the schema exists.
// Any failure here is fatal to the application.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL UNIQUE,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id  INTEGER NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		date        TEXT NOT NULL,
		is_present  BOOLEAN NOT NULL,
		UNIQUE(student_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *Store) Close() error { return s.db.Close() }

// -------- Students --------

// ListStudents returns all students ordered by name.
func (s *Store) ListStudents(ctx context.Context) ([]model.Student, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM students ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// FindStudentByName does an exact-match lookup. Returns nil, nil when no
// student has that name.
func (s *Store) FindStudentByName(ctx context.Context, name string) (*model.Student, error) {
	var st model.Student
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM students WHERE name = ?`, name,
	).Scan(&st.ID, &st.Name, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// InsertStudent creates a student and returns the generated id. A name
// collision that raced past the caller's duplicate check surfaces as
// ErrConstraint.
func (s *Store) InsertStudent(ctx context.Context, name string, createdAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO students (name, created_at) VALUES (?, ?)`, name, createdAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return 0, fmt.Errorf("%w: student %q: %v", ErrConstraint, name, err)
		}
		return 0, err
	}
	return res.LastInsertId()
}

// DeleteStudent removes the student and its attendance rows in one
// transaction so a crash mid-delete never leaves orphans.
func (s *Store) DeleteStudent(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE student_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// -------- Attendance --------

// QueryAttendance returns all attendance rows for the given day.
func (s *Store) QueryAttendance(ctx context.Context, date string) ([]model.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, student_id, date, is_present FROM attendance WHERE date = ?`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		var r model.AttendanceRecord
		if err := rows.Scan(&r.ID, &r.StudentID, &r.Date, &r.IsPresent); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// UpsertAttendance inserts or overwrites the unique (student, date) mark.
func (s *Store) UpsertAttendance(ctx context.Context, studentID int64, date string, isPresent bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance (student_id, date, is_present)
		VALUES (?, ?, ?)
		ON CONFLICT(student_id, date) DO UPDATE SET is_present = excluded.is_present
	`, studentID, date, isPresent)
	return err
}

// CountAttendance reports how many rows exist for the (student, date) pair.
func (s *Store) CountAttendance(ctx context.Context, studentID int64, date string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance WHERE student_id = ? AND date = ?`, studentID, date,
	).Scan(&n)
	return n, err
}
