package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classroll/internal/app"
	"classroll/internal/attendance"
	"classroll/internal/httpapi"
	"classroll/internal/session"
)

// apiServer runs the real router over the in-memory repository and counts
// submissions. The first failPosts submissions get a 500.
type apiServer struct {
	*httptest.Server
	posts     atomic.Int32
	failPosts int32
}

func newAPIServer(t *testing.T, failPosts int32) *apiServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := attendance.NewMemoryRepository()
	require.NoError(t, attendance.Seed(context.Background(), repo))
	router := httpapi.NewRouter(httpapi.Options{
		Service:    attendance.NewService(repo),
		SigningKey: "test-secret",
		Issuer:     "classroll",
		AccessTTL:  time.Hour,
	})

	s := &apiServer{failPosts: failPosts}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/attendance") {
			if s.posts.Add(1) <= s.failPosts {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, `{"detail":"database unavailable"}`)
				return
			}
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func runConsole(t *testing.T, url string, kv session.KV, in io.Reader) string {
	t.Helper()
	ctx := context.Background()
	r := app.New(url, kv, log.New(io.Discard, "", 0))
	require.NoError(t, r.Restore(ctx))
	var out bytes.Buffer
	require.NoError(t, New(r, in, &out).Run(ctx))
	return out.String()
}

func input(lines ...string) io.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func newKV(t *testing.T) session.KV {
	return session.NewFileKV(filepath.Join(t.TempDir(), "session.json"))
}

func TestSubmitAndRevisit(t *testing.T) {
	srv := newAPIServer(t, 0)
	kv := newKV(t)

	out := runConsole(t, srv.URL, kv, input(
		"teacher1", attendance.SeedPassword,
		"1",
		"absent 3",
		"submit", "y",
		"quit",
	))
	assert.Contains(t, out, "Welcome back, Sarah Johnson")
	assert.Contains(t, out, "Common Core - General")
	assert.Contains(t, out, "1) Mathematics - Common Core  Students: 25")
	assert.Contains(t, out, "2) Physics - 1st Baccalaureate Science  Students: 25")
	assert.Contains(t, out, "Session: Morning Session (08:30 - 12:30)")
	assert.Contains(t, out, "Total: 25  Present: 25  Absent: 0  Rate: 100%")
	assert.Contains(t, out, confirmSubmit)
	assert.Contains(t, out, "Attendance submitted successfully!")
	assert.Contains(t, out, "[Submitted]")
	assert.Contains(t, out, "Total: 25  Present: 24  Absent: 1  Rate: 96%")
	assert.Equal(t, int32(1), srv.posts.Load())

	// the next run restores the session and finds the key locked
	out = runConsole(t, srv.URL, kv, input(
		"1",
		"present 3",
		"submit",
		"quit",
	))
	assert.NotContains(t, out, "Username:")
	assert.Contains(t, out, "[Submitted]")
	assert.Contains(t, out, "Total: 25  Present: 24  Absent: 1  Rate: 96%")
	assert.Contains(t, out, "it cannot be changed")
	assert.Contains(t, out, "Attendance already submitted for this session.")
	assert.NotContains(t, out, confirmSubmit)
	assert.Equal(t, int32(1), srv.posts.Load())
}

func TestInvalidCredentials(t *testing.T) {
	srv := newAPIServer(t, 0)
	kv := newKV(t)

	out := runConsole(t, srv.URL, kv, input("teacher1", "wrongpassword", "quit"))
	assert.Contains(t, out, "Invalid credentials")
	assert.NotContains(t, out, "My Classes")
	assert.Equal(t, 2, strings.Count(out, "Username: "))

	_, ok, err := kv.Get(context.Background(), session.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubmitFailureThenRetry(t *testing.T) {
	srv := newAPIServer(t, 1)

	out := runConsole(t, srv.URL, newKV(t), input(
		"teacher1", attendance.SeedPassword,
		"2",
		"submit", "y",
		"submit", "y",
		"quit",
	))
	assert.Contains(t, out, "Error: database unavailable")
	assert.Contains(t, out, "Attendance submitted successfully!")
	assert.Less(t, strings.Index(out, "Error: database unavailable"), strings.Index(out, "Attendance submitted successfully!"))
	assert.Equal(t, int32(2), srv.posts.Load())
}

func TestSubmitCancelled(t *testing.T) {
	srv := newAPIServer(t, 0)

	out := runConsole(t, srv.URL, newKV(t), input(
		"teacher1", attendance.SeedPassword,
		"1",
		"submit", "n",
		"quit",
	))
	assert.Contains(t, out, "Submission cancelled.")
	assert.NotContains(t, out, "[Submitted]")
	assert.Zero(t, srv.posts.Load())
}

func TestSessionSwitchAndBack(t *testing.T) {
	srv := newAPIServer(t, 0)

	out := runConsole(t, srv.URL, newKV(t), input(
		"teacher1", attendance.SeedPassword,
		"1",
		"session afternoon",
		"session evening",
		"date 2024-13-01",
		"back",
		"7",
		"quit",
	))
	assert.Contains(t, out, "Session: Afternoon Session (14:30 - 18:30)")
	assert.Contains(t, out, `invalid session "evening"`)
	assert.Contains(t, out, `invalid date "2024-13-01"`)
	assert.Equal(t, 3, strings.Count(out, "My Classes"))
	assert.Contains(t, out, "Unknown command: 7")
}

func TestLogoutFromSheet(t *testing.T) {
	srv := newAPIServer(t, 0)
	kv := newKV(t)

	out := runConsole(t, srv.URL, kv, input(
		"teacher1", attendance.SeedPassword,
		"1",
		"logout",
		"quit",
	))
	assert.Contains(t, out, "Signed out.")
	for _, k := range []string{session.KeyToken, session.KeyTeacher} {
		_, ok, err := kv.Get(context.Background(), k)
		require.NoError(t, err)
		assert.False(t, ok, k)
	}
}

type failingDeleteKV struct {
	session.KV
}

func (failingDeleteKV) Delete(context.Context, ...string) error {
	return errors.New("read-only file system")
}

func TestLogoutStoreFailureKeepsRunning(t *testing.T) {
	srv := newAPIServer(t, 0)

	out := runConsole(t, srv.URL, failingDeleteKV{newKV(t)}, input(
		"teacher1", attendance.SeedPassword,
		"1",
		"logout",
		"quit",
	))
	require.Contains(t, out, "Logout failed: read-only file system")
	after := out[strings.Index(out, "Logout failed:"):]
	assert.Contains(t, after, "Username: ")
	assert.NotContains(t, out, "Signed out.")
}

func TestPasswordFromTerminal(t *testing.T) {
	srv := newAPIServer(t, 0)

	prevRead, prevIsTerm := readPasswordFunc, isTerminalFunc
	t.Cleanup(func() { readPasswordFunc, isTerminalFunc = prevRead, prevIsTerm })
	isTerminalFunc = func(int) bool { return true }
	readPasswordFunc = func(int) ([]byte, error) { return []byte(attendance.SeedPassword), nil }

	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pr.Close()
	_, err = io.WriteString(pw, "teacher2\nquit\n")
	require.NoError(t, err)
	require.NoError(t, pw.Close())

	out := runConsole(t, srv.URL, newKV(t), pr)
	assert.Contains(t, out, "Welcome back, Michael Smith")
	assert.Contains(t, out, "2nd Baccalaureate - Arts")
}
