package class

import (
	"context"

	"github.com/gestao-escolar/school-hub/internal/domain/shared"
)

// Repository defines storage operations for classes.
type Repository interface {
	shared.Repository[Class, Patch]

	// GetByName returns the class with the given name, or nil.
	GetByName(ctx context.Context, name string) (*Class, error)
}
