package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"classroll/internal/model"
)

// TokenSource supplies the bearer token for authenticated requests.
type TokenSource interface {
	Token() string
}

// APIError is a non-2xx response from the attendance API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string { return e.Detail }

// LoginResult is the body of a successful login.
type LoginResult struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	Teacher     model.Teacher `json:"teacher"`
}

// Client calls the attendance REST API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenSource
}

// New creates a client. Requests have no timeout; cancel through ctx.
func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		Tokens:  tokens,
	}
}

// Login exchanges credentials for a bearer token. It never sends a token.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	body := map[string]string{"username": username, "password": password}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out, false)
	return out, err
}

// Profile returns the teacher behind the current token.
func (c *Client) Profile(ctx context.Context) (model.Teacher, error) {
	var out model.Teacher
	err := c.do(ctx, http.MethodGet, "/api/teacher/profile", nil, &out, true)
	return out, err
}

func (c *Client) ListClasses(ctx context.Context) ([]model.SchoolClass, error) {
	var out []model.SchoolClass
	err := c.do(ctx, http.MethodGet, "/api/classes", nil, &out, true)
	return out, err
}

func (c *Client) GetClass(ctx context.Context, classID string) (model.SchoolClass, error) {
	var out model.SchoolClass
	err := c.do(ctx, http.MethodGet, "/api/classes/"+url.PathEscape(classID), nil, &out, true)
	return out, err
}

// ListStudents returns the roster in server order.
func (c *Client) ListStudents(ctx context.Context, classID string) ([]model.Student, error) {
	var out []model.Student
	err := c.do(ctx, http.MethodGet, "/api/classes/"+url.PathEscape(classID)+"/students", nil, &out, true)
	return out, err
}

// GetAttendance returns the records stored for (class, date, session). An
// empty result means nothing was submitted yet.
func (c *Client) GetAttendance(ctx context.Context, classID, date string, session model.Session) ([]model.AttendanceRecord, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("session", string(session))
	path := "/api/classes/" + url.PathEscape(classID) + "/attendance?" + q.Encode()

	var out []model.AttendanceRecord
	err := c.do(ctx, http.MethodGet, path, nil, &out, true)
	return out, err
}

// SubmitAttendance posts a full-roster submission.
func (c *Client) SubmitAttendance(ctx context.Context, sub model.Submission) error {
	path := "/api/classes/" + url.PathEscape(sub.ClassID) + "/attendance"
	return c.do(ctx, http.MethodPost, path, sub, nil, true)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed && c.Tokens != nil {
		if tok := c.Tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Detail: detailOf(resp.StatusCode, bodyBytes)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// detailOf extracts {"detail": ...}. A list of field errors is flattened to
// "field: message; ...". Anything else falls back to the status text.
func detailOf(status int, body []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Detail) > 0 {
		var s string
		if json.Unmarshal(env.Detail, &s) == nil && s != "" {
			return s
		}
		var fields []model.FieldError
		if json.Unmarshal(env.Detail, &fields) == nil && len(fields) > 0 {
			parts := make([]string, 0, len(fields))
			for _, f := range fields {
				parts = append(parts, f.Field+": "+f.Error)
			}
			return strings.Join(parts, "; ")
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}
