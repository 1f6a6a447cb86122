package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of attendance dates.
const DateLayout = "2006-01-02"

// Teacher is the authenticated identity returned by the login endpoint.
type Teacher struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// SchoolClass is a class taught by one teacher.
type SchoolClass struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Level     string   `json:"level"`  // Common Core, 1st Baccalaureate, 2nd Baccalaureate
	Stream    string   `json:"stream"` // General, Science, Arts
	TeacherID string   `json:"teacher_id"`
	Students  []string `json:"students"`
}

// StudentCount returns the number of enrolled students.
func (c SchoolClass) StudentCount() int { return len(c.Students) }

// GroupKey is the composite level/stream key classes are grouped by.
func (c SchoolClass) GroupKey() string { return c.Level + " - " + c.Stream }

// Student is enrolled in exactly one class.
type Student struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	ClassID  string `json:"class_id"`
}

// Session is a half-day teaching block.
type Session string

const (
	SessionMorning   Session = "morning"
	SessionAfternoon Session = "afternoon"
)

// Sessions lists every session in display order.
var Sessions = []Session{SessionMorning, SessionAfternoon}

func (s Session) Valid() bool {
	return s == SessionMorning || s == SessionAfternoon
}

// Window returns the fixed time window of the session. Display only.
func (s Session) Window() string {
	if s == SessionMorning {
		return "08:30 - 12:30"
	}
	return "14:30 - 18:30"
}

// Label is the human readable session name, e.g. "Morning Session".
func (s Session) Label() string {
	if s == SessionMorning {
		return "Morning Session"
	}
	return "Afternoon Session"
}

// ParseSession accepts "morning" or "afternoon", case-insensitively.
func ParseSession(s string) (Session, error) {
	sess := Session(strings.ToLower(strings.TrimSpace(s)))
	if !sess.Valid() {
		return "", fmt.Errorf("invalid session %q: want morning or afternoon", s)
	}
	return sess, nil
}

// Status is a student's attendance status.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// AttendanceRecord is one persisted status for one student, keyed by
// (class, date, session).
type AttendanceRecord struct {
	ID         string    `json:"id"`
	ClassID    string    `json:"class_id"`
	StudentID  string    `json:"student_id"`
	Date       string    `json:"date"`
	Session    Session   `json:"session"`
	Status     Status    `json:"status"`
	RecordedAt time.Time `json:"recorded_at"`
	RecordedBy string    `json:"recorded_by"`
}

// ParseDate validates a YYYY-MM-DD date and returns it normalized.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t.Format(DateLayout), nil
}
