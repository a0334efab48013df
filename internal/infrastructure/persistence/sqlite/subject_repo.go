package sqlite

import (
	"context"

	"github.com/gestao-escolar/school-hub/internal/domain/subject"
)

// SubjectRepository implements subject.Repository for SQLite.
type SubjectRepository struct {
	q querier
}

func subjectDest(s *subject.Subject) []any { return []any{&s.ID, &s.Name} }

// Create inserts a subject and returns it with its generated ID.
func (r *SubjectRepository) Create(ctx context.Context, s *subject.Subject) (*subject.Subject, error) {
	out := *s
	err := r.q.QueryRowContext(ctx, `INSERT INTO subjects (name) VALUES (?) RETURNING id`, s.Name).Scan(&out.ID)
	if err != nil {
		return nil, classifyError("create subject", err)
	}
	return &out, nil
}

// GetByID returns a subject by ID, or nil if absent.
func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*subject.Subject, error) {
	return scanOne[subject.Subject](r.q.QueryRowContext(ctx, `SELECT id, name FROM subjects WHERE id = ?`, id),
		"get subject", subjectDest)
}

// GetByName returns a subject by name, or nil if absent.
func (r *SubjectRepository) GetByName(ctx context.Context, name string) (*subject.Subject, error) {
	return scanOne[subject.Subject](r.q.QueryRowContext(ctx, `SELECT id, name FROM subjects WHERE name = ?`, name),
		"get subject by name", subjectDest)
}

// GetAll returns every subject ordered by ID.
func (r *SubjectRepository) GetAll(ctx context.Context) ([]*subject.Subject, error) {
	return queryAll(ctx, r.q, "list subjects", subjectDest, `SELECT id, name FROM subjects ORDER BY id`)
}

// GetByIDs returns the subjects with the given IDs. Unknown IDs are skipped.
func (r *SubjectRepository) GetByIDs(ctx context.Context, ids []int64) ([]*subject.Subject, error) {
	if len(ids) == 0 {
		return []*subject.Subject{}, nil
	}
	placeholders, args := inClause(ids)
	return queryAll(ctx, r.q, "get subjects by ids", subjectDest,
		`SELECT id, name FROM subjects WHERE id IN (`+placeholders+`) ORDER BY id`, args...)
}

// Update applies the patch and returns the updated subject, or nil if absent.
func (r *SubjectRepository) Update(ctx context.Context, id int64, p subject.Patch) (*subject.Subject, error) {
	return scanOne[subject.Subject](r.q.QueryRowContext(ctx,
		`UPDATE subjects SET name = COALESCE(?, name) WHERE id = ? RETURNING id, name`, p.Name, id),
		"update subject", subjectDest)
}

// Delete removes a subject. It reports false when nothing was deleted.
func (r *SubjectRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return execDelete(ctx, r.q, "delete subject", `DELETE FROM subjects WHERE id = ?`, id)
}
