package subject

import (
	"context"

	"github.com/gestao-escolar/school-hub/internal/domain/shared"
)

// Repository defines storage operations for subjects.
type Repository interface {
	shared.Repository[Subject, Patch]

	// GetByName returns the subject with the given name, or nil.
	GetByName(ctx context.Context, name string) (*Subject, error)

	// GetByIDs returns the subjects matching ids ordered by ID. Unknown ids
	// are skipped.
	GetByIDs(ctx context.Context, ids []int64) ([]*Subject, error)
}
