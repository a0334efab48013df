package task

import (
	"context"

	"github.com/gestao-escolar/school-hub/internal/domain/shared"
)

// Repository defines storage operations for tasks.
type Repository interface {
	shared.Repository[Task, Patch]

	// GetByStudentID returns every task of a student ordered by ID.
	GetByStudentID(ctx context.Context, studentID int64) ([]*Task, error)

	// GetPendingByStudentID returns the incomplete tasks of a student.
	GetPendingByStudentID(ctx context.Context, studentID int64) ([]*Task, error)

	// GetByStudentIDWithSubject returns the tasks of a student together with
	// their subject name.
	GetByStudentIDWithSubject(ctx context.Context, studentID int64) ([]*WithSubject, error)
}
