package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParse(t *testing.T) {
	tok, err := Issue("t-1", "classroll", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(tok.AccessToken, "secret", "classroll")
	require.NoError(t, err)
	assert.Equal(t, "t-1", claims.TeacherID)
	assert.Equal(t, "t-1", claims.Subject)

	tests := []struct {
		name   string
		token  string
		key    string
		issuer string
	}{
		{name: "garbage", token: "lol", key: "secret", issuer: "classroll"},
		{name: "wrong key", token: tok.AccessToken, key: "other", issuer: "classroll"},
		{name: "wrong issuer", token: tok.AccessToken, key: "secret", issuer: "someone-else"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.token, tt.key, tt.issuer)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseExpired(t *testing.T) {
	nowFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := Issue("t-1", "classroll", "secret", time.Hour)
	nowFunc = time.Now // reset
	require.NoError(t, err)

	_, err = Parse(tok.AccessToken, "secret", "classroll")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "password123"))
	assert.False(t, CheckPassword(hash, "wrongpassword"))
}

func TestTeacherAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", TeacherAuth("secret", "classroll"), func(c *gin.Context) {
		c.String(http.StatusOK, TeacherID(c))
	})

	tok, err := Issue("t-9", "classroll", "secret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{name: "no header", wantCode: http.StatusUnauthorized, wantBody: `{"detail":"Not authenticated"}`},
		{name: "not bearer", header: "Basic abc", wantCode: http.StatusUnauthorized, wantBody: `{"detail":"Not authenticated"}`},
		{name: "bad token", header: "Bearer nope", wantCode: http.StatusUnauthorized, wantBody: `{"detail":"Invalid token"}`},
		{name: "ok", header: "Bearer " + tok.AccessToken, wantCode: http.StatusOK, wantBody: "t-9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}
