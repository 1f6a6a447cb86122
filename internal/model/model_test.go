package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSession(t *testing.T) {
	tests := []struct {
		in      string
		want    Session
		wantErr bool
	}{
		{in: "morning", want: SessionMorning},
		{in: " Afternoon ", want: SessionAfternoon},
		{in: "evening", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSession(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionWindow(t *testing.T) {
	assert.Equal(t, "08:30 - 12:30", SessionMorning.Window())
	assert.Equal(t, "14:30 - 18:30", SessionAfternoon.Window())
	assert.Equal(t, "Morning Session", SessionMorning.Label())
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09", got)

	_, err = ParseDate("09/03/2024")
	assert.Error(t, err)
	_, err = ParseDate("2024-02-30")
	assert.Error(t, err)
}

func TestSchoolClassGroupKey(t *testing.T) {
	c := SchoolClass{Level: "1st Baccalaureate", Stream: "Science", Students: []string{"a", "b"}}
	assert.Equal(t, "1st Baccalaureate - Science", c.GroupKey())
	assert.Equal(t, 2, c.StudentCount())
}

func TestSubmissionValidate(t *testing.T) {
	valid := Submission{
		ClassID: "c1",
		Date:    "2024-03-09",
		Session: SessionMorning,
		Entries: []Entry{{StudentID: "s1", Status: StatusPresent}, {StudentID: "s2", Status: StatusAbsent}},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name      string
		mutate    func(s *Submission)
		wantField string
	}{
		{name: "missing class", mutate: func(s *Submission) { s.ClassID = "" }, wantField: "class_id"},
		{name: "bad date", mutate: func(s *Submission) { s.Date = "yesterday" }, wantField: "date"},
		{name: "bad session", mutate: func(s *Submission) { s.Session = "night" }, wantField: "session"},
		{name: "no entries", mutate: func(s *Submission) { s.Entries = nil }, wantField: "attendance_data"},
		{name: "bad status", mutate: func(s *Submission) {
			s.Entries = []Entry{{StudentID: "s1", Status: "late"}}
		}, wantField: "attendance_data[0].status"},
		{name: "missing student", mutate: func(s *Submission) {
			s.Entries = []Entry{{Status: StatusAbsent}}
		}, wantField: "attendance_data[0].student_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := valid
			sub.Entries = append([]Entry(nil), valid.Entries...)
			tt.mutate(&sub)

			err := sub.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSubmission))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.wantField, verr.Fields[0].Field)
			assert.NotEmpty(t, verr.Fields[0].Error)
		})
	}
}
