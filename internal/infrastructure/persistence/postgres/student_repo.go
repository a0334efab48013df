package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/gestao-escolar/school-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const studentColumns = `id, name, age, scholarship, class_id`

// StudentRepository implements student.Repository for PostgreSQL.
type StudentRepository struct {
	q Querier
}

// NewStudentRepository creates a StudentRepository bound to q.
func NewStudentRepository(q Querier) *StudentRepository {
	return &StudentRepository{q: q}
}

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create inserts a student and returns it with its generated ID.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) (*student.Student, error) {
	out := *s
	err := r.q.QueryRow(ctx, `
		INSERT INTO students (name, age, scholarship, class_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, s.Name, s.Age, s.Scholarship, s.ClassID).Scan(&out.ID)
	if err != nil {
		return nil, classifyError("create student", err)
	}
	return &out, nil
}

// GetByID returns a student by ID, or nil if absent.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*student.Student, error) {
	row := r.q.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	return r.scanOne(row, "get student")
}

// GetAll returns every student ordered by ID.
func (r *StudentRepository) GetAll(ctx context.Context) ([]*student.Student, error) {
	return r.list(ctx, "list students", `SELECT `+studentColumns+` FROM students ORDER BY id`)
}

// Update applies the patch and returns the updated student, or nil if absent.
func (r *StudentRepository) Update(ctx context.Context, id int64, p student.Patch) (*student.Student, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE students SET
			name = COALESCE($2, name),
			age = COALESCE($3, age),
			scholarship = COALESCE($4, scholarship),
			class_id = COALESCE($5, class_id)
		WHERE id = $1
		RETURNING `+studentColumns,
		id, p.Name, p.Age, p.Scholarship, p.ClassID,
	)
	return r.scanOne(row, "update student")
}

// Delete removes a student. Tasks and memberships of the student are kept.
func (r *StudentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return false, classifyError("delete student", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Relationship Queries
// ─────────────────────────────────────────────────────────────────────────────

// GetByClassID returns the students of a class ordered by ID.
func (r *StudentRepository) GetByClassID(ctx context.Context, classID int64) ([]*student.Student, error) {
	return r.list(ctx, "list students by class",
		`SELECT `+studentColumns+` FROM students WHERE class_id = $1 ORDER BY id`, classID)
}

// GetBySubjectID returns the students enrolled in a subject ordered by ID.
func (r *StudentRepository) GetBySubjectID(ctx context.Context, subjectID int64) ([]*student.Student, error) {
	return r.list(ctx, "list students by subject", `
		SELECT s.id, s.name, s.age, s.scholarship, s.class_id
		FROM students s
		JOIN student_subjects ss ON ss.student_id = s.id
		WHERE ss.subject_id = $1
		ORDER BY s.id
	`, subjectID)
}

// AddSubject enrolls the student in the subject. An existing pair is kept.
func (r *StudentRepository) AddSubject(ctx context.Context, studentID, subjectID int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO student_subjects (student_id, subject_id)
		VALUES ($1, $2)
		ON CONFLICT (student_id, subject_id) DO NOTHING
	`, studentID, subjectID)
	if err != nil {
		return false, classifyError("add student subject", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteOrphanMemberships drops the subject's memberships left behind by
// deleted students.
func (r *StudentRepository) DeleteOrphanMemberships(ctx context.Context, subjectID int64) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM student_subjects ss
		WHERE ss.subject_id = $1
		  AND NOT EXISTS (SELECT 1 FROM students s WHERE s.id = ss.student_id)
	`, subjectID)
	if err != nil {
		return 0, classifyError("delete orphan memberships", err)
	}
	return tag.RowsAffected(), nil
}

// SubjectIDs returns the subjects a student is enrolled in, ascending.
func (r *StudentRepository) SubjectIDs(ctx context.Context, studentID int64) ([]int64, error) {
	rows, err := r.q.Query(ctx,
		`SELECT subject_id FROM student_subjects WHERE student_id = $1 ORDER BY subject_id`, studentID)
	if err != nil {
		return nil, classifyError("list student subjects", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, classifyError("list student subjects", err)
	}
	return ids, nil
}

// Memberships returns every membership row ordered by student then subject.
func (r *StudentRepository) Memberships(ctx context.Context) ([]student.Membership, error) {
	rows, err := r.q.Query(ctx,
		`SELECT student_id, subject_id FROM student_subjects ORDER BY student_id, subject_id`)
	if err != nil {
		return nil, classifyError("list memberships", err)
	}
	defer rows.Close()

	out := make([]student.Membership, 0)
	for rows.Next() {
		var m student.Membership
		if err := rows.Scan(&m.StudentID, &m.SubjectID); err != nil {
			return nil, classifyError("scan membership", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("list memberships", err)
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helper Methods
// ─────────────────────────────────────────────────────────────────────────────

func (r *StudentRepository) list(ctx context.Context, op, query string, args ...any) ([]*student.Student, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError(op, err)
	}
	defer rows.Close()

	students := make([]*student.Student, 0)
	for rows.Next() {
		var s student.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Age, &s.Scholarship, &s.ClassID); err != nil {
			return nil, classifyError(op, err)
		}
		students = append(students, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(op, err)
	}
	return students, nil
}

func (r *StudentRepository) scanOne(row pgx.Row, op string) (*student.Student, error) {
	var s student.Student
	if err := row.Scan(&s.ID, &s.Name, &s.Age, &s.Scholarship, &s.ClassID); err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, classifyError(op, err)
	}
	return &s, nil
}
