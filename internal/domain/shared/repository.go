package shared

import "context"

// Repository is the storage contract implemented once per entity.
// T is the entity type and P its partial-update structure.
//
// Lookups report absence as a nil entity with a nil error; only storage
// failures (KindDatabase, KindConnection, KindIntegrity) are returned as errors.
type Repository[T any, P any] interface {
	// Create inserts the entity and returns it with its identifier and
	// defaulted fields populated. No existence checks are made.
	Create(ctx context.Context, entity *T) (*T, error)

	// GetByID returns the entity, or nil when no row matches.
	GetByID(ctx context.Context, id int64) (*T, error)

	// GetAll returns every row ordered by identifier.
	GetAll(ctx context.Context) ([]*T, error)

	// Update applies only the fields set in patch. Returns nil when no row matches.
	Update(ctx context.Context, id int64, patch P) (*T, error)

	// Delete removes the row and reports whether one existed.
	Delete(ctx context.Context, id int64) (bool, error)
}
