package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
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

type cliTest struct {
	name       string
	args       []string // without program name
	stdin      string
	wantErr    error
	wantErrStr string
	wantOut    string
}

func setup(t *testing.T) (url string, kv session.KV) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := attendance.NewMemoryRepository()
	require.NoError(t, attendance.Seed(context.Background(), repo))
	srv := httptest.NewServer(httpapi.NewRouter(httpapi.Options{
		Service:    attendance.NewService(repo),
		SigningKey: "test-secret",
		Issuer:     "classroll",
		AccessTTL:  time.Hour,
	}))
	t.Cleanup(srv.Close)
	return srv.URL, session.NewFileKV(filepath.Join(t.TempDir(), "session.json"))
}

func newCLI(t *testing.T, url string, kv session.KV, stdin io.Reader, out io.Writer) *commandLine {
	t.Helper()
	r := app.New(url, kv, log.New(io.Discard, "", 0))
	require.NoError(t, r.Restore(context.Background()))
	return &commandLine{router: r, in: stdin, out: out}
}

func runTests(t *testing.T, url string, kv session.KV, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cli := newCLI(t, url, kv, strings.NewReader(tt.stdin), &out)
			err := cli.run(append([]string{"attend"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrStr != "":
				assert.EqualError(t, err, tt.wantErrStr)
			default:
				require.NoError(t, err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	url, kv := setup(t)

	// order matters: the session persists between cases
	runTests(t, url, kv, []cliTest{
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp, wantOut: "Usage:"},
		{name: "whoami signed out", args: []string{"whoami"}, wantErr: errNotSignedIn},
		{name: "classes signed out", args: []string{"classes"}, wantErr: errNotSignedIn},
		{name: "login: no username", args: []string{"login"}, wantErr: errHelp},
		{name: "login: no password", args: []string{"login", "-username", "teacher1"}, wantErr: errHelp},
		{name: "login: bad flag", args: []string{"login", "-nope"}, wantErr: errHelp},
		{name: "login: wrong password", args: []string{"login", "-username", "teacher1"}, stdin: "wrongpassword\n", wantErrStr: "Invalid credentials"},
		{name: "login", args: []string{"login", "-username", "teacher1"}, stdin: attendance.SeedPassword + "\n", wantOut: "Signed in as Sarah Johnson"},
		{name: "whoami", args: []string{"whoami"}, wantOut: "Sarah Johnson (teacher1) <teacher1@school.com>"},
		{name: "classes", args: []string{"classes"}, wantOut: "1st Baccalaureate - Science\n  Physics - 1st Baccalaureate Science  Students: 25"},
		{name: "shell", args: []string{"shell"}, stdin: "quit\n", wantOut: "Welcome back, Sarah Johnson"},
		{name: "logout", args: []string{"logout"}, wantOut: "Signed out."},
		{name: "whoami after logout", args: []string{"whoami"}, wantErr: errNotSignedIn},
		{name: "default shell", stdin: "quit\n", wantOut: "Sign in to take attendance"},
	})
}

func Test_commandLine_loginFromTerminal(t *testing.T) {
	url, kv := setup(t)

	prevRead, prevIsTerm := readPasswordFunc, isTerminalFunc
	t.Cleanup(func() { readPasswordFunc, isTerminalFunc = prevRead, prevIsTerm })
	isTerminalFunc = func(int) bool { return true }
	readPasswordFunc = func(int) ([]byte, error) { return []byte(attendance.SeedPassword), nil }

	var out bytes.Buffer
	cli := newCLI(t, url, kv, os.Stdin, &out)
	require.NoError(t, cli.run([]string{"attend", "login", "-username", "teacher2"}))
	assert.Contains(t, out.String(), "Signed in as Michael Smith")
}
