package app

import (
	"bytes"
	"context"
	"log"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classroll/internal/attendance"
	"classroll/internal/httpapi"
	"classroll/internal/session"
)

func newServer(t *testing.T) *httptest.Server {
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
	return srv
}

func TestRouterFlow(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	kv := session.NewFileKV(filepath.Join(t.TempDir(), "session.json"))
	r := New(srv.URL, kv, log.New(&bytes.Buffer{}, "", 0))

	require.NoError(t, r.Restore(ctx))
	assert.Equal(t, ViewLogin, r.View())

	_, err := r.Login(ctx, "teacher1", "wrongpassword")
	assert.ErrorIs(t, err, session.ErrInvalidCredentials)
	assert.Equal(t, ViewLogin, r.View())

	teacher, err := r.Login(ctx, "teacher1", attendance.SeedPassword)
	require.NoError(t, err)
	assert.Equal(t, "Sarah Johnson", teacher.FullName)
	assert.Equal(t, ViewClasses, r.View())

	classes := r.Classes.Load(ctx)
	require.Len(t, classes, 2)

	sh := r.SelectClass(ctx, classes[0])
	assert.Equal(t, ViewSheet, r.View())
	assert.Same(t, sh, r.Sheet())
	assert.Len(t, sh.Rows(), attendance.StudentsPerClass)

	r.Back()
	assert.Equal(t, ViewClasses, r.View())
	assert.Nil(t, r.Sheet())

	// a second process restores the persisted session without logging in
	other := New(srv.URL, kv, nil)
	require.NoError(t, other.Restore(ctx))
	assert.Equal(t, ViewClasses, other.View())
	assert.Len(t, other.Classes.Load(ctx), 2)

	r.SelectClass(ctx, classes[1])
	require.NoError(t, r.Logout(ctx))
	assert.Equal(t, ViewLogin, r.View())
	assert.Nil(t, r.Sheet())
	for _, k := range []string{session.KeyToken, session.KeyTeacher} {
		_, ok, err := kv.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, k)
	}
}

func TestViewString(t *testing.T) {
	assert.Equal(t, "login", ViewLogin.String())
	assert.Equal(t, "sheet", ViewSheet.String())
}
