package sheet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"classroll/internal/model"
)

var (
	// ErrSubmitted is returned by edits and submissions once the selected
	// (date, session) has stored records.
	ErrSubmitted        = errors.New("attendance already submitted")
	ErrUnknownStudent   = errors.New("student is not on the roster")
	ErrSubmitInProgress = errors.New("submission in progress")
)

var nowFunc = time.Now // mockable

// API is the subset of the attendance API a sheet needs.
type API interface {
	ListStudents(ctx context.Context, classID string) ([]model.Student, error)
	GetAttendance(ctx context.Context, classID, date string, session model.Session) ([]model.AttendanceRecord, error)
	SubmitAttendance(ctx context.Context, sub model.Submission) error
}

// Stats summarizes the draft.
type Stats struct {
	Total   int
	Present int
	Absent  int
	Rate    int // percent present, rounded
}

// Row is one roster line. Status is empty when a submitted key holds no
// record for the student.
type Row struct {
	Student model.Student
	Status  model.Status
}

// Sheet reconciles a class roster with the records stored for one
// (date, session) key. Every load bumps a generation; fetch results from an
// older generation are dropped.
type Sheet struct {
	api    API
	class  model.SchoolClass
	logger *log.Logger

	mu         sync.Mutex
	gen        uint64
	date       string
	session    model.Session
	roster     []model.Student
	draft      map[string]model.Status
	submitted  bool
	reported   bool // records arrived for the current generation
	submitting bool
}

// New creates a sheet for class, keyed to today's date and the morning
// session. Call Load to fetch.
func New(api API, class model.SchoolClass, logger *log.Logger) *Sheet {
	if logger == nil {
		logger = log.Default()
	}
	return &Sheet{
		api:     api,
		class:   class,
		logger:  logger,
		date:    Today(),
		session: model.SessionMorning,
		draft:   map[string]model.Status{},
	}
}

// Today returns the local calendar date as YYYY-MM-DD.
func Today() string {
	return nowFunc().Format(model.DateLayout)
}

// Load fetches the roster and the stored records for the current key.
func (s *Sheet) Load(ctx context.Context) {
	s.mu.Lock()
	date, session := s.date, s.session
	s.mu.Unlock()
	s.load(ctx, date, session)
}

// Select switches to another (date, session) and reloads.
func (s *Sheet) Select(ctx context.Context, date string, session model.Session) error {
	d, err := model.ParseDate(date)
	if err != nil {
		return err
	}
	if !session.Valid() {
		return fmt.Errorf("invalid session %q", session)
	}
	s.load(ctx, d, session)
	return nil
}

func (s *Sheet) load(ctx context.Context, date string, session model.Session) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.date, s.session = date, session
	s.roster = nil
	s.draft = map[string]model.Status{}
	s.submitted, s.reported = false, false
	s.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		students, err := s.api.ListStudents(ctx, s.class.ID)
		if err != nil {
			s.logger.Printf("error fetching students: %v", err)
			students = nil
		}
		s.applyRoster(gen, students)
		return nil
	})
	g.Go(func() error {
		records, err := s.api.GetAttendance(ctx, s.class.ID, date, session)
		if err != nil {
			s.logger.Printf("error checking existing attendance: %v", err)
			records = nil
		}
		s.applyRecords(gen, records)
		return nil
	})
	_ = g.Wait()
}

func (s *Sheet) applyRoster(gen uint64, students []model.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.roster = students
	if s.reported {
		return
	}
	draft := make(map[string]model.Status, len(students))
	for _, st := range students {
		draft[st.ID] = model.StatusPresent
	}
	s.draft = draft
}

func (s *Sheet) applyRecords(gen uint64, records []model.AttendanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || len(records) == 0 {
		return
	}
	draft := make(map[string]model.Status, len(records))
	for _, r := range records {
		draft[r.StudentID] = r.Status
	}
	s.draft = draft
	s.submitted, s.reported = true, true
}

// SetStatus changes one student's draft status.
func (s *Sheet) SetStatus(studentID string, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return ErrSubmitted
	}
	if s.submitting {
		return ErrSubmitInProgress
	}
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	if !s.onRoster(studentID) {
		return ErrUnknownStudent
	}
	s.draft[studentID] = status
	return nil
}

func (s *Sheet) onRoster(studentID string) bool {
	for _, st := range s.roster {
		if st.ID == studentID {
			return true
		}
	}
	return false
}

// Submit sends every roster student's draft status, in roster order. An
// already submitted key is refused without contacting the server. On
// failure the draft is kept so the call can be retried.
func (s *Sheet) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.submitted {
		s.mu.Unlock()
		return ErrSubmitted
	}
	if s.submitting {
		s.mu.Unlock()
		return ErrSubmitInProgress
	}
	gen := s.gen
	sub := model.Submission{
		ClassID: s.class.ID,
		Date:    s.date,
		Session: s.session,
		Entries: make([]model.Entry, 0, len(s.roster)),
	}
	for _, st := range s.roster {
		status, ok := s.draft[st.ID]
		if !ok {
			status = model.StatusPresent
		}
		sub.Entries = append(sub.Entries, model.Entry{StudentID: st.ID, Status: status})
	}
	s.submitting = true
	s.mu.Unlock()

	err := s.api.SubmitAttendance(ctx, sub)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		return err
	}
	if gen == s.gen {
		s.submitted = true
	}
	return nil
}

// Class returns the class the sheet was opened for.
func (s *Sheet) Class() model.SchoolClass { return s.class }

// Date returns the selected date as YYYY-MM-DD.
func (s *Sheet) Date() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// Session returns the selected session.
func (s *Sheet) Session() model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Submitted reports whether the current key is locked.
func (s *Sheet) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

// Status returns the draft status of one student.
func (s *Sheet) Status(studentID string) (model.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.draft[studentID]
	return st, ok
}

// Rows returns the roster with draft statuses, in roster order.
func (s *Sheet) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]Row, len(s.roster))
	for i, st := range s.roster {
		rows[i] = Row{Student: st, Status: s.draft[st.ID]}
	}
	return rows
}

// Stats counts draft statuses against the roster size.
func (s *Sheet) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Total: len(s.roster)}
	for _, status := range s.draft {
		switch status {
		case model.StatusPresent:
			st.Present++
		case model.StatusAbsent:
			st.Absent++
		}
	}
	if st.Total > 0 {
		st.Rate = int(math.Round(float64(st.Present) / float64(st.Total) * 100))
	}
	return st
}
