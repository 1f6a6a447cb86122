package attendance

import (
	"context"
	"sync"

	"classroll/internal/model"
)

// MemoryRepository keeps everything in process memory. Used for dev and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	teachers []Account
	classes  []model.SchoolClass
	students []model.Student
	records  map[recordKey][]model.AttendanceRecord
}

type recordKey struct {
	classID string
	date    string
	session model.Session
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[recordKey][]model.AttendanceRecord)}
}

func (r *MemoryRepository) CountTeachers(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.teachers), nil
}

func (r *MemoryRepository) CreateTeacher(_ context.Context, acc Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teachers = append(r.teachers, acc)
	return nil
}

func (r *MemoryRepository) TeacherByUsername(_ context.Context, username string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, acc := range r.teachers {
		if acc.Username == username {
			return acc, nil
		}
	}
	return Account{}, ErrTeacherNotFound
}

func (r *MemoryRepository) TeacherByID(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, acc := range r.teachers {
		if acc.ID == id {
			return acc, nil
		}
	}
	return Account{}, ErrTeacherNotFound
}

func (r *MemoryRepository) CreateClass(_ context.Context, class model.SchoolClass) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	class.Students = append([]string{}, class.Students...)
	r.classes = append(r.classes, class)
	return nil
}

func (r *MemoryRepository) ListClasses(_ context.Context, teacherID string) ([]model.SchoolClass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := []model.SchoolClass{}
	for _, c := range r.classes {
		if c.TeacherID == teacherID {
			c.Students = append([]string{}, c.Students...)
			res = append(res, c)
		}
	}
	return res, nil
}

func (r *MemoryRepository) GetClass(_ context.Context, teacherID, classID string) (model.SchoolClass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.classes {
		if c.ID == classID && c.TeacherID == teacherID {
			c.Students = append([]string{}, c.Students...)
			return c, nil
		}
	}
	return model.SchoolClass{}, ErrClassNotFound
}

func (r *MemoryRepository) CreateStudent(_ context.Context, st model.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.classes {
		if r.classes[i].ID == st.ClassID {
			r.classes[i].Students = append(r.classes[i].Students, st.ID)
			r.students = append(r.students, st)
			return nil
		}
	}
	return ErrClassNotFound
}

func (r *MemoryRepository) ListStudents(_ context.Context, classID string) ([]model.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := []model.Student{}
	for _, st := range r.students {
		if st.ClassID == classID {
			res = append(res, st)
		}
	}
	return res, nil
}

func (r *MemoryRepository) ListRecords(_ context.Context, classID, date string, session model.Session) ([]model.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs := r.records[recordKey{classID, date, session}]
	return append([]model.AttendanceRecord{}, recs...), nil
}

func (r *MemoryRepository) InsertRecords(_ context.Context, classID, date string, session model.Session, records []model.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey{classID, date, session}
	if len(r.records[key]) > 0 {
		return ErrAlreadySubmitted
	}
	r.records[key] = append([]model.AttendanceRecord{}, records...)
	return nil
}
