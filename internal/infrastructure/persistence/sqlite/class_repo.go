package sqlite

import (
	"context"

	"github.com/gestao-escolar/school-hub/internal/domain/class"
)

// ClassRepository implements class.Repository for SQLite.
type ClassRepository struct {
	q querier
}

func classDest(c *class.Class) []any { return []any{&c.ID, &c.Name} }

// Create inserts a class and returns it with its generated ID.
func (r *ClassRepository) Create(ctx context.Context, c *class.Class) (*class.Class, error) {
	out := *c
	err := r.q.QueryRowContext(ctx, `INSERT INTO classes (name) VALUES (?) RETURNING id`, c.Name).Scan(&out.ID)
	if err != nil {
		return nil, classifyError("create class", err)
	}
	return &out, nil
}

// GetByID returns a class by ID, or nil if absent.
func (r *ClassRepository) GetByID(ctx context.Context, id int64) (*class.Class, error) {
	return scanOne[class.Class](r.q.QueryRowContext(ctx, `SELECT id, name FROM classes WHERE id = ?`, id),
		"get class", classDest)
}

// GetByName returns a class by name, or nil if absent.
func (r *ClassRepository) GetByName(ctx context.Context, name string) (*class.Class, error) {
	return scanOne[class.Class](r.q.QueryRowContext(ctx, `SELECT id, name FROM classes WHERE name = ?`, name),
		"get class by name", classDest)
}

// GetAll returns every class ordered by ID.
func (r *ClassRepository) GetAll(ctx context.Context) ([]*class.Class, error) {
	return queryAll(ctx, r.q, "list classes", classDest,
		`SELECT id, name FROM classes ORDER BY id`)
}

// Update applies the patch and returns the updated class, or nil if absent.
func (r *ClassRepository) Update(ctx context.Context, id int64, p class.Patch) (*class.Class, error) {
	return scanOne[class.Class](r.q.QueryRowContext(ctx,
		`UPDATE classes SET name = COALESCE(?, name) WHERE id = ? RETURNING id, name`, p.Name, id),
		"update class", classDest)
}

// Delete removes a class. It reports false when nothing was deleted.
func (r *ClassRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return execDelete(ctx, r.q, "delete class", `DELETE FROM classes WHERE id = ?`, id)
}
