package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"classroll/internal/model"
)

// PostgresRepository persists attendance data in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CountTeachers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teachers`).Scan(&n)
	return n, err
}

func (r *PostgresRepository) CreateTeacher(ctx context.Context, acc Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teachers (id, username, email, full_name, password_hash)
		VALUES ($1, $2, $3, $4, $5)
	`, acc.ID, acc.Username, acc.Email, acc.FullName, acc.PasswordHash)
	return err
}

func (r *PostgresRepository) TeacherByUsername(ctx context.Context, username string) (Account, error) {
	return r.teacher(ctx, `WHERE username = $1`, username)
}

func (r *PostgresRepository) TeacherByID(ctx context.Context, id string) (Account, error) {
	return r.teacher(ctx, `WHERE id = $1`, id)
}

func (r *PostgresRepository) teacher(ctx context.Context, where string, arg string) (Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, full_name, password_hash FROM teachers `+where, arg)
	var acc Account
	if err := row.Scan(&acc.ID, &acc.Username, &acc.Email, &acc.FullName, &acc.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrTeacherNotFound
		}
		return Account{}, err
	}
	return acc, nil
}

func (r *PostgresRepository) CreateClass(ctx context.Context, class model.SchoolClass) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO classes (id, name, level, stream, teacher_id)
		VALUES ($1, $2, $3, $4, $5)
	`, class.ID, class.Name, class.Level, class.Stream, class.TeacherID)
	return err
}

func (r *PostgresRepository) ListClasses(ctx context.Context, teacherID string) ([]model.SchoolClass, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, level, stream, teacher_id
		FROM classes
		WHERE teacher_id = $1
		ORDER BY position
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.SchoolClass{}
	for rows.Next() {
		var c model.SchoolClass
		if err := rows.Scan(&c.ID, &c.Name, &c.Level, &c.Stream, &c.TeacherID); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		if res[i].Students, err = r.enrolled(ctx, res[i].ID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *PostgresRepository) GetClass(ctx context.Context, teacherID, classID string) (model.SchoolClass, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, level, stream, teacher_id
		FROM classes WHERE id = $1 AND teacher_id = $2
	`, classID, teacherID)
	var c model.SchoolClass
	if err := row.Scan(&c.ID, &c.Name, &c.Level, &c.Stream, &c.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SchoolClass{}, ErrClassNotFound
		}
		return model.SchoolClass{}, err
	}
	var err error
	c.Students, err = r.enrolled(ctx, c.ID)
	return c, err
}

func (r *PostgresRepository) enrolled(ctx context.Context, classID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM students WHERE class_id = $1 ORDER BY position`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepository) CreateStudent(ctx context.Context, st model.Student) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (id, full_name, class_id)
		VALUES ($1, $2, $3)
	`, st.ID, st.FullName, st.ClassID)
	return err
}

func (r *PostgresRepository) ListStudents(ctx context.Context, classID string) ([]model.Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, full_name, class_id FROM students
		WHERE class_id = $1
		ORDER BY position
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []model.Student{}
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.FullName, &st.ClassID); err != nil {
			return nil, err
		}
		res = append(res, st)
	}
	return res, rows.Err()
}

func (r *PostgresRepository) ListRecords(ctx context.Context, classID, date string, session model.Session) ([]model.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, class_id, student_id, date, session, status, recorded_at, recorded_by
		FROM attendance_records
		WHERE class_id = $1 AND date = $2 AND session = $3
		ORDER BY recorded_at, id
	`, classID, date, string(session))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []model.AttendanceRecord{}
	for rows.Next() {
		var rec model.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.ClassID, &rec.StudentID, &rec.Date, &rec.Session, &rec.Status, &rec.RecordedAt, &rec.RecordedBy); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

func (r *PostgresRepository) InsertRecords(ctx context.Context, classID, date string, session model.Session, records []model.AttendanceRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	// serialize writers of the same key until commit
	lockKey := fmt.Sprintf("%s|%s|%s", classID, date, session)
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return err
	}
	var exists bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance_records WHERE class_id = $1 AND date = $2 AND session = $3
		)
	`, classID, date, string(session)).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrAlreadySubmitted
	}
	for _, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_records (id, class_id, student_id, date, session, status, recorded_at, recorded_by)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, rec.ID, rec.ClassID, rec.StudentID, rec.Date, string(rec.Session), string(rec.Status), rec.RecordedAt, rec.RecordedBy)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadySubmitted
			}
			return err
		}
	}
	return tx.Commit()
}

// isUniqueViolation reports SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
