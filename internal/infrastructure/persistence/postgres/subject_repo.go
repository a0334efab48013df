package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/gestao-escolar/school-hub/internal/domain/subject"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SubjectRepository implements subject.Repository for PostgreSQL.
type SubjectRepository struct {
	q Querier
}

// NewSubjectRepository creates a SubjectRepository bound to q.
func NewSubjectRepository(q Querier) *SubjectRepository {
	return &SubjectRepository{q: q}
}

// Create inserts a subject and returns it with its generated ID.
func (r *SubjectRepository) Create(ctx context.Context, s *subject.Subject) (*subject.Subject, error) {
	out := *s
	err := r.q.QueryRow(ctx,
		`INSERT INTO subjects (name) VALUES ($1) RETURNING id`,
		s.Name,
	).Scan(&out.ID)
	if err != nil {
		return nil, classifyError("create subject", err)
	}
	return &out, nil
}

// GetByID returns a subject by ID, or nil if absent.
func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*subject.Subject, error) {
	row := r.q.QueryRow(ctx, `SELECT id, name FROM subjects WHERE id = $1`, id)
	return r.scanOne(row, "get subject")
}

// GetByName returns a subject by name, or nil if absent.
func (r *SubjectRepository) GetByName(ctx context.Context, name string) (*subject.Subject, error) {
	row := r.q.QueryRow(ctx, `SELECT id, name FROM subjects WHERE name = $1`, name)
	return r.scanOne(row, "get subject by name")
}

// GetAll returns every subject ordered by ID.
func (r *SubjectRepository) GetAll(ctx context.Context) ([]*subject.Subject, error) {
	return r.list(ctx, "list subjects", `SELECT id, name FROM subjects ORDER BY id`)
}

// GetByIDs returns the subjects with the given IDs. Unknown IDs are skipped.
func (r *SubjectRepository) GetByIDs(ctx context.Context, ids []int64) ([]*subject.Subject, error) {
	if len(ids) == 0 {
		return []*subject.Subject{}, nil
	}
	return r.list(ctx, "get subjects by ids",
		`SELECT id, name FROM subjects WHERE id = ANY($1) ORDER BY id`, ids)
}

// Update applies the patch and returns the updated subject, or nil if absent.
func (r *SubjectRepository) Update(ctx context.Context, id int64, p subject.Patch) (*subject.Subject, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE subjects SET name = COALESCE($2, name)
		WHERE id = $1
		RETURNING id, name
	`, id, p.Name)
	return r.scanOne(row, "update subject")
}

// Delete removes a subject. It reports false when nothing was deleted.
func (r *SubjectRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return false, classifyError("delete subject", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SubjectRepository) list(ctx context.Context, op, query string, args ...any) ([]*subject.Subject, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError(op, err)
	}
	defer rows.Close()

	subjects := make([]*subject.Subject, 0)
	for rows.Next() {
		var s subject.Subject
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, classifyError(op, err)
		}
		subjects = append(subjects, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(op, err)
	}
	return subjects, nil
}

func (r *SubjectRepository) scanOne(row pgx.Row, op string) (*subject.Subject, error) {
	var s subject.Subject
	if err := row.Scan(&s.ID, &s.Name); err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, classifyError(op, err)
	}
	return &s, nil
}
