package attendance

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"classroll/internal/auth"
	"classroll/internal/model"
)

// SeedPassword is the password of every seeded teacher.
const SeedPassword = "password123"

// StudentsPerClass is the roster size of seeded classes.
const StudentsPerClass = 25

// Seed fills an empty repository with two teachers, three classes and their
// students. It does nothing when teachers already exist.
func Seed(ctx context.Context, repo Repository) error {
	n, err := repo.CountTeachers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := auth.HashPassword(SeedPassword)
	if err != nil {
		return err
	}
	teachers := []Account{
		{Teacher: model.Teacher{ID: uuid.NewString(), Username: "teacher1", Email: "teacher1@school.com", FullName: "Sarah Johnson"}, PasswordHash: hash},
		{Teacher: model.Teacher{ID: uuid.NewString(), Username: "teacher2", Email: "teacher2@school.com", FullName: "Michael Smith"}, PasswordHash: hash},
	}
	for _, acc := range teachers {
		if err := repo.CreateTeacher(ctx, acc); err != nil {
			return fmt.Errorf("seed teacher %s: %w", acc.Username, err)
		}
	}

	classes := []model.SchoolClass{
		{ID: uuid.NewString(), Name: "Mathematics - Common Core", Level: "Common Core", Stream: "General", TeacherID: teachers[0].ID},
		{ID: uuid.NewString(), Name: "Physics - 1st Baccalaureate Science", Level: "1st Baccalaureate", Stream: "Science", TeacherID: teachers[0].ID},
		{ID: uuid.NewString(), Name: "Literature - 2nd Baccalaureate Arts", Level: "2nd Baccalaureate", Stream: "Arts", TeacherID: teachers[1].ID},
	}
	for _, c := range classes {
		if err := repo.CreateClass(ctx, c); err != nil {
			return fmt.Errorf("seed class %s: %w", c.Name, err)
		}
		for i := 0; i < StudentsPerClass; i++ {
			st := model.Student{
				ID:       uuid.NewString(),
				FullName: fmt.Sprintf("Student %d %s", i+1, c.Level[:3]),
				ClassID:  c.ID,
			}
			if err := repo.CreateStudent(ctx, st); err != nil {
				return fmt.Errorf("seed student: %w", err)
			}
		}
	}
	return nil
}
