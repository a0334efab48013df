package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/gestao-escolar/school-hub/internal/domain/class"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLASS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ClassRepository implements class.Repository for PostgreSQL.
type ClassRepository struct {
	q Querier
}

// NewClassRepository creates a ClassRepository bound to q.
func NewClassRepository(q Querier) *ClassRepository {
	return &ClassRepository{q: q}
}

// Create inserts a class and returns it with its generated ID.
func (r *ClassRepository) Create(ctx context.Context, c *class.Class) (*class.Class, error) {
	out := *c
	err := r.q.QueryRow(ctx,
		`INSERT INTO classes (name) VALUES ($1) RETURNING id`,
		c.Name,
	).Scan(&out.ID)
	if err != nil {
		return nil, classifyError("create class", err)
	}
	return &out, nil
}

// GetByID returns a class by ID, or nil if absent.
func (r *ClassRepository) GetByID(ctx context.Context, id int64) (*class.Class, error) {
	row := r.q.QueryRow(ctx, `SELECT id, name FROM classes WHERE id = $1`, id)
	return r.scanOne(row, "get class")
}

// GetByName returns a class by name, or nil if absent.
func (r *ClassRepository) GetByName(ctx context.Context, name string) (*class.Class, error) {
	row := r.q.QueryRow(ctx, `SELECT id, name FROM classes WHERE name = $1`, name)
	return r.scanOne(row, "get class by name")
}

// GetAll returns every class ordered by ID.
func (r *ClassRepository) GetAll(ctx context.Context) ([]*class.Class, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name FROM classes ORDER BY id`)
	if err != nil {
		return nil, classifyError("list classes", err)
	}
	defer rows.Close()

	classes := make([]*class.Class, 0)
	for rows.Next() {
		var c class.Class
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, classifyError("scan class", err)
		}
		classes = append(classes, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("list classes", err)
	}
	return classes, nil
}

// Update applies the patch and returns the updated class, or nil if absent.
func (r *ClassRepository) Update(ctx context.Context, id int64, p class.Patch) (*class.Class, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE classes SET name = COALESCE($2, name)
		WHERE id = $1
		RETURNING id, name
	`, id, p.Name)
	return r.scanOne(row, "update class")
}

// Delete removes a class. It reports false when nothing was deleted.
func (r *ClassRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return false, classifyError("delete class", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ClassRepository) scanOne(row pgx.Row, op string) (*class.Class, error) {
	var c class.Class
	if err := row.Scan(&c.ID, &c.Name); err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, classifyError(op, err)
	}
	return &c, nil
}
