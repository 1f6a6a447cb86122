package browser

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classroll/internal/model"
)

type listerFunc func(ctx context.Context) ([]model.SchoolClass, error)

func (f listerFunc) ListClasses(ctx context.Context) ([]model.SchoolClass, error) { return f(ctx) }

func TestLoadDegradesToEmpty(t *testing.T) {
	var buf bytes.Buffer
	b := New(listerFunc(func(context.Context) ([]model.SchoolClass, error) {
		return nil, errors.New("connection refused")
	}), log.New(&buf, "", 0))

	got := b.Load(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Contains(t, buf.String(), "error fetching classes: connection refused")
}

func TestLoad(t *testing.T) {
	b := New(listerFunc(func(context.Context) ([]model.SchoolClass, error) {
		return []model.SchoolClass{{ID: "c1"}}, nil
	}), nil)
	assert.Len(t, b.Load(context.Background()), 1)
}

func TestGroupClasses(t *testing.T) {
	classes := []model.SchoolClass{
		{ID: "1", Level: "1st Baccalaureate", Stream: "Science"},
		{ID: "2", Level: "Common Core", Stream: "General"},
		{ID: "3", Level: "1st Baccalaureate", Stream: "Science"},
		{ID: "4", Level: "1st Baccalaureate", Stream: "Arts"},
	}
	groups := GroupClasses(classes)
	require.Len(t, groups, 3)

	assert.Equal(t, "1st Baccalaureate - Science", groups[0].Key)
	assert.Equal(t, "1", groups[0].Classes[0].ID)
	assert.Equal(t, "3", groups[0].Classes[1].ID)
	assert.Equal(t, "Common Core - General", groups[1].Key)
	assert.Equal(t, "1st Baccalaureate - Arts", groups[2].Key)

	assert.Empty(t, GroupClasses(nil))
}
