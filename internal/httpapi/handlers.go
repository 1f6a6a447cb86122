package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classroll/internal/attendance"
	"classroll/internal/auth"
	"classroll/internal/metrics"
	"classroll/internal/model"
	"classroll/internal/queue"
)

// Handler serves the attendance endpoints.
type Handler struct {
	svc        *attendance.Service
	signingKey string
	issuer     string
	accessTTL  time.Duration
	events     queue.Queue
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the body returned by POST /api/auth/login.
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	Teacher     model.Teacher `json:"teacher"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.Logins.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	teacher, err := h.svc.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, attendance.ErrInvalidCredentials) {
			metrics.Logins.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
			return
		}
		metrics.Logins.WithLabelValues("error").Inc()
		writeError(c, err)
		return
	}
	tok, err := auth.Issue(teacher.ID, h.issuer, h.signingKey, h.accessTTL)
	if err != nil {
		metrics.Logins.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "token issue failed"})
		return
	}
	metrics.Logins.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, LoginResponse{AccessToken: tok.AccessToken, TokenType: "bearer", Teacher: teacher})
}

func (h *Handler) Profile(c *gin.Context) {
	teacher, err := h.svc.Profile(c.Request.Context(), auth.TeacherID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, teacher)
}

func (h *Handler) ListClasses(c *gin.Context) {
	classes, err := h.svc.Classes(c.Request.Context(), auth.TeacherID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

func (h *Handler) GetClass(c *gin.Context) {
	class, err := h.svc.Class(c.Request.Context(), auth.TeacherID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.svc.Students(c.Request.Context(), auth.TeacherID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

// GetAttendance returns the records for ?date=&session=; an empty list means
// nothing was submitted for that key.
func (h *Handler) GetAttendance(c *gin.Context) {
	var fields []model.FieldError
	date, err := model.ParseDate(c.Query("date"))
	if err != nil {
		fields = append(fields, model.FieldError{Field: "date", Error: err.Error()})
	}
	session, err := model.ParseSession(c.Query("session"))
	if err != nil {
		fields = append(fields, model.FieldError{Field: "session", Error: err.Error()})
	}
	if len(fields) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": fields})
		return
	}

	records, err := h.svc.Records(c.Request.Context(), auth.TeacherID(c), c.Param("id"), date, session)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) SubmitAttendance(c *gin.Context) {
	var sub model.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		metrics.Submissions.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	teacherID := auth.TeacherID(c)
	records, err := h.svc.Submit(c.Request.Context(), teacherID, c.Param("id"), sub)
	if err != nil {
		metrics.Submissions.WithLabelValues(submitResult(err)).Inc()
		writeError(c, err)
		return
	}
	metrics.Submissions.WithLabelValues("accepted").Inc()
	metrics.RecordsWritten.Add(float64(len(records)))
	h.publish(c.Request.Context(), teacherID, sub)

	c.JSON(http.StatusOK, gin.H{
		"message":       "Attendance submitted successfully",
		"records_count": len(records),
	})
}

// publish emits a submission event. Failures are logged only; the records
// are already stored.
func (h *Handler) publish(ctx context.Context, teacherID string, sub model.Submission) {
	if h.events == nil {
		return
	}
	evt := queue.SubmissionEvent{
		ClassID:     sub.ClassID,
		TeacherID:   teacherID,
		Date:        sub.Date,
		Session:     string(sub.Session),
		SubmittedAt: time.Now().UTC(),
	}
	for _, e := range sub.Entries {
		if e.Status == model.StatusPresent {
			evt.Present++
		} else {
			evt.Absent++
		}
	}
	msg, err := queue.NewSubmissionMessage(evt)
	if err == nil {
		err = h.events.Publish(ctx, msg)
	}
	if err != nil {
		log.Printf("publish submission event for class %s: %v", sub.ClassID, err)
	}
}

func submitResult(err error) string {
	var (
		verr *model.ValidationError
		nee  *attendance.NotEnrolledError
		dse  *attendance.DuplicateStudentError
	)
	switch {
	case errors.Is(err, attendance.ErrAlreadySubmitted):
		return "duplicate"
	case errors.As(err, &verr), errors.As(err, &nee), errors.As(err, &dse),
		errors.Is(err, attendance.ErrClassMismatch):
		return "invalid"
	default:
		return "error"
	}
}

// writeError maps service errors onto {"detail": ...} responses.
func writeError(c *gin.Context, err error) {
	var (
		verr *model.ValidationError
		nee  *attendance.NotEnrolledError
		dse  *attendance.DuplicateStudentError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": verr.Fields})
	case errors.Is(err, attendance.ErrClassNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
	case errors.Is(err, attendance.ErrTeacherNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Teacher not found"})
	case errors.Is(err, attendance.ErrAlreadySubmitted),
		errors.Is(err, attendance.ErrClassMismatch),
		errors.As(err, &nee),
		errors.As(err, &dse):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.Is(err, attendance.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}
}
