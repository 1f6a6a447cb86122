package browser

import (
	"context"
	"log"

	"classroll/internal/model"
)

// ClassLister fetches the signed-in teacher's classes.
type ClassLister interface {
	ListClasses(ctx context.Context) ([]model.SchoolClass, error)
}

// Group is the classes sharing one "level - stream" key.
type Group struct {
	Key     string
	Classes []model.SchoolClass
}

// Browser loads the class list.
type Browser struct {
	api    ClassLister
	logger *log.Logger
}

func New(api ClassLister, logger *log.Logger) *Browser {
	if logger == nil {
		logger = log.Default()
	}
	return &Browser{api: api, logger: logger}
}

// Load returns the teacher's classes. A failed fetch is logged and yields an
// empty list.
func (b *Browser) Load(ctx context.Context) []model.SchoolClass {
	classes, err := b.api.ListClasses(ctx)
	if err != nil {
		b.logger.Printf("error fetching classes: %v", err)
		return []model.SchoolClass{}
	}
	if classes == nil {
		classes = []model.SchoolClass{}
	}
	return classes
}

// GroupClasses groups by level and stream, keeping first-appearance order of
// groups and of classes within a group.
func GroupClasses(classes []model.SchoolClass) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, c := range classes {
		key := c.GroupKey()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Classes = append(groups[i].Classes, c)
	}
	return groups
}
