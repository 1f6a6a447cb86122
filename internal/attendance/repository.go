package attendance

import (
	"context"
	"errors"

	"classroll/internal/model"
)

var (
	ErrTeacherNotFound    = errors.New("teacher not found")
	ErrClassNotFound      = errors.New("Class not found or access denied")
	ErrAlreadySubmitted   = errors.New("Attendance already submitted for this session")
	ErrInvalidCredentials = errors.New("Invalid credentials")
)

// Account is a teacher together with the credentials used to log in.
type Account struct {
	model.Teacher
	PasswordHash []byte
}

// Repository persists teachers, classes, students and attendance records.
type Repository interface {
	CountTeachers(ctx context.Context) (int, error)
	CreateTeacher(ctx context.Context, acc Account) error
	TeacherByUsername(ctx context.Context, username string) (Account, error)
	TeacherByID(ctx context.Context, id string) (Account, error)

	CreateClass(ctx context.Context, class model.SchoolClass) error
	// ListClasses returns the classes of a teacher in creation order.
	ListClasses(ctx context.Context, teacherID string) ([]model.SchoolClass, error)
	// GetClass returns ErrClassNotFound unless the class belongs to teacherID.
	GetClass(ctx context.Context, teacherID, classID string) (model.SchoolClass, error)

	// CreateStudent stores a student and enrolls it in its class.
	CreateStudent(ctx context.Context, st model.Student) error
	ListStudents(ctx context.Context, classID string) ([]model.Student, error)

	ListRecords(ctx context.Context, classID, date string, session model.Session) ([]model.AttendanceRecord, error)
	// InsertRecords stores all records of one (class, date, session) key at
	// once, or returns ErrAlreadySubmitted when any record exists for the key.
	InsertRecords(ctx context.Context, classID, date string, session model.Session, records []model.AttendanceRecord) error
}
