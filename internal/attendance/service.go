package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"classroll/internal/auth"
	"classroll/internal/model"
)

// ErrClassMismatch is returned when the body's class_id differs from the URL.
var ErrClassMismatch = errors.New("class_id does not match the requested class")

// NotEnrolledError names a submitted student that is not in the class.
type NotEnrolledError struct {
	StudentID string
}

func (e *NotEnrolledError) Error() string {
	return fmt.Sprintf("student %s is not enrolled in this class", e.StudentID)
}

// DuplicateStudentError names a student listed more than once in a submission.
type DuplicateStudentError struct {
	StudentID string
}

func (e *DuplicateStudentError) Error() string {
	return fmt.Sprintf("duplicate student %s in submission", e.StudentID)
}

var nowFunc = time.Now // mockable

// Service coordinates class ownership checks and attendance submission.
type Service struct {
	repo Repository
}

// NewService creates a service backed by a repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate checks credentials and returns the teacher.
func (s *Service) Authenticate(ctx context.Context, username, password string) (model.Teacher, error) {
	acc, err := s.repo.TeacherByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrTeacherNotFound) {
			return model.Teacher{}, ErrInvalidCredentials
		}
		return model.Teacher{}, err
	}
	if !auth.CheckPassword(acc.PasswordHash, password) {
		return model.Teacher{}, ErrInvalidCredentials
	}
	return acc.Teacher, nil
}

// Profile returns the teacher behind a token.
func (s *Service) Profile(ctx context.Context, teacherID string) (model.Teacher, error) {
	acc, err := s.repo.TeacherByID(ctx, teacherID)
	if err != nil {
		return model.Teacher{}, err
	}
	return acc.Teacher, nil
}

func (s *Service) Classes(ctx context.Context, teacherID string) ([]model.SchoolClass, error) {
	return s.repo.ListClasses(ctx, teacherID)
}

func (s *Service) Class(ctx context.Context, teacherID, classID string) (model.SchoolClass, error) {
	return s.repo.GetClass(ctx, teacherID, classID)
}

// Students returns the roster of a class owned by teacherID.
func (s *Service) Students(ctx context.Context, teacherID, classID string) ([]model.Student, error) {
	if _, err := s.repo.GetClass(ctx, teacherID, classID); err != nil {
		return nil, err
	}
	return s.repo.ListStudents(ctx, classID)
}

// Records returns the records for (class, date, session); empty when nothing was submitted.
func (s *Service) Records(ctx context.Context, teacherID, classID, date string, session model.Session) ([]model.AttendanceRecord, error) {
	if _, err := s.repo.GetClass(ctx, teacherID, classID); err != nil {
		return nil, err
	}
	return s.repo.ListRecords(ctx, classID, date, session)
}

// Submit validates a submission and stores one record per entry. A key that
// already has records is never written again.
func (s *Service) Submit(ctx context.Context, teacherID, classID string, sub model.Submission) ([]model.AttendanceRecord, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if sub.ClassID != classID {
		return nil, ErrClassMismatch
	}
	class, err := s.repo.GetClass(ctx, teacherID, classID)
	if err != nil {
		return nil, err
	}
	enrolled := make(map[string]bool, len(class.Students))
	for _, id := range class.Students {
		enrolled[id] = true
	}

	now := nowFunc().UTC()
	records := make([]model.AttendanceRecord, 0, len(sub.Entries))
	seen := make(map[string]bool, len(sub.Entries))
	for _, e := range sub.Entries {
		if !enrolled[e.StudentID] {
			return nil, &NotEnrolledError{StudentID: e.StudentID}
		}
		if seen[e.StudentID] {
			return nil, &DuplicateStudentError{StudentID: e.StudentID}
		}
		seen[e.StudentID] = true
		records = append(records, model.AttendanceRecord{
			ID:         uuid.NewString(),
			ClassID:    classID,
			StudentID:  e.StudentID,
			Date:       sub.Date,
			Session:    sub.Session,
			Status:     e.Status,
			RecordedAt: now,
			RecordedBy: teacherID,
		})
	}
	if err := s.repo.InsertRecords(ctx, classID, sub.Date, sub.Session, records); err != nil {
		return nil, err
	}
	return records, nil
}
