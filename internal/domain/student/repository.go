package student

import (
	"context"

	"github.com/gestao-escolar/school-hub/internal/domain/shared"
)

// Repository defines storage operations for students and their subject
// memberships.
type Repository interface {
	shared.Repository[Student, Patch]

	// GetByClassID returns the students of a class ordered by ID.
	GetByClassID(ctx context.Context, classID int64) ([]*Student, error)

	// GetBySubjectID returns the students enrolled in a subject ordered by ID.
	GetBySubjectID(ctx context.Context, subjectID int64) ([]*Student, error)

	// AddSubject adds the (student, subject) membership. Adding an existing
	// pair is a no-op; added reports whether a row was inserted.
	AddSubject(ctx context.Context, studentID, subjectID int64) (added bool, err error)

	// DeleteOrphanMemberships removes the memberships of a subject whose
	// student no longer exists and returns how many rows went.
	DeleteOrphanMemberships(ctx context.Context, subjectID int64) (int64, error)

	// SubjectIDs returns the subjects a student is enrolled in, ascending.
	SubjectIDs(ctx context.Context, studentID int64) ([]int64, error)

	// Memberships returns every membership row ordered by student then subject.
	Memberships(ctx context.Context) ([]Membership, error)
}
