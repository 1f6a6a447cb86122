package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"classroll/internal/apiclient"
	"classroll/internal/model"
)

// Persisted entry names. Both are written on login and removed on logout.
const (
	KeyToken   = "token"
	KeyTeacher = "teacher"
)

// ErrInvalidCredentials is returned for any non-2xx login response.
var ErrInvalidCredentials = errors.New("Invalid credentials")

// Authenticator performs the login request.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (apiclient.LoginResult, error)
}

// Store holds the signed-in teacher and bearer token. It is the token
// source of the API client.
type Store struct {
	kv  KV
	api Authenticator

	mu      sync.RWMutex
	token   string
	teacher *model.Teacher
}

func NewStore(kv KV, api Authenticator) *Store {
	return &Store{kv: kv, api: api}
}

// Login authenticates and persists the session.
func (s *Store) Login(ctx context.Context, username, password string) (model.Teacher, error) {
	res, err := s.api.Login(ctx, username, password)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			return model.Teacher{}, ErrInvalidCredentials
		}
		return model.Teacher{}, fmt.Errorf("login: %w", err)
	}

	raw, err := json.Marshal(res.Teacher)
	if err != nil {
		return model.Teacher{}, err
	}
	if err := s.kv.Set(ctx, KeyToken, res.AccessToken); err != nil {
		return model.Teacher{}, fmt.Errorf("save token: %w", err)
	}
	if err := s.kv.Set(ctx, KeyTeacher, string(raw)); err != nil {
		return model.Teacher{}, fmt.Errorf("save teacher: %w", err)
	}

	s.mu.Lock()
	s.token = res.AccessToken
	t := res.Teacher
	s.teacher = &t
	s.mu.Unlock()
	return t, nil
}

// Restore loads a persisted session. The token is not re-validated against
// the server; a missing or undecodable entry leaves the store signed out.
func (s *Store) Restore(ctx context.Context) error {
	token, okTok, err := s.kv.Get(ctx, KeyToken)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	raw, okTeacher, err := s.kv.Get(ctx, KeyTeacher)
	if err != nil {
		return fmt.Errorf("read teacher: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.teacher = "", nil
	if !okTok || !okTeacher || token == "" {
		return nil
	}
	var t model.Teacher
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil
	}
	s.token, s.teacher = token, &t
	return nil
}

// Logout forgets the session locally. The server is not contacted.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token, s.teacher = "", nil
	s.mu.Unlock()
	return s.kv.Delete(ctx, KeyToken, KeyTeacher)
}

// Token implements apiclient.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Teacher returns the signed-in teacher, if any.
func (s *Store) Teacher() (model.Teacher, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.teacher == nil {
		return model.Teacher{}, false
	}
	return *s.teacher, true
}

func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.teacher != nil && s.token != ""
}
