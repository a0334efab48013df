package sqlite

import (
	"context"

	"github.com/gestao-escolar/school-hub/internal/domain/student"
)

const studentColumns = `id, name, age, scholarship, class_id`

// StudentRepository implements student.Repository for SQLite.
type StudentRepository struct {
	q querier
}

func studentDest(s *student.Student) []any {
	return []any{&s.ID, &s.Name, &s.Age, &s.Scholarship, &s.ClassID}
}

// Create inserts a student and returns it with its generated ID.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) (*student.Student, error) {
	out := *s
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO students (name, age, scholarship, class_id) VALUES (?, ?, ?, ?) RETURNING id`,
		s.Name, s.Age, boolArg(&s.Scholarship), s.ClassID,
	).Scan(&out.ID)
	if err != nil {
		return nil, classifyError("create student", err)
	}
	return &out, nil
}

// GetByID returns a student by ID, or nil if absent.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*student.Student, error) {
	return scanOne(r.q.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ?`, id),
		"get student", studentDest)
}

// GetAll returns every student ordered by ID.
func (r *StudentRepository) GetAll(ctx context.Context) ([]*student.Student, error) {
	return queryAll(ctx, r.q, "list students", studentDest,
		`SELECT `+studentColumns+` FROM students ORDER BY id`)
}

// Update applies the patch and returns the updated student, or nil if absent.
func (r *StudentRepository) Update(ctx context.Context, id int64, p student.Patch) (*student.Student, error) {
	return scanOne(r.q.QueryRowContext(ctx, `
		UPDATE students SET
			name = COALESCE(?, name),
			age = COALESCE(?, age),
			scholarship = COALESCE(?, scholarship),
			class_id = COALESCE(?, class_id)
		WHERE id = ?
		RETURNING `+studentColumns,
		p.Name, p.Age, boolArg(p.Scholarship), p.ClassID, id,
	), "update student", studentDest)
}

// Delete removes a student. Tasks and memberships of the student are kept.
func (r *StudentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return execDelete(ctx, r.q, "delete student", `DELETE FROM students WHERE id = ?`, id)
}

// GetByClassID returns the students of a class ordered by ID.
func (r *StudentRepository) GetByClassID(ctx context.Context, classID int64) ([]*student.Student, error) {
	return queryAll(ctx, r.q, "list students by class", studentDest,
		`SELECT `+studentColumns+` FROM students WHERE class_id = ? ORDER BY id`, classID)
}

// GetBySubjectID returns the students enrolled in a subject ordered by ID.
func (r *StudentRepository) GetBySubjectID(ctx context.Context, subjectID int64) ([]*student.Student, error) {
	return queryAll(ctx, r.q, "list students by subject", studentDest, `
		SELECT s.id, s.name, s.age, s.scholarship, s.class_id
		FROM students s
		JOIN student_subjects ss ON ss.student_id = s.id
		WHERE ss.subject_id = ?
		ORDER BY s.id
	`, subjectID)
}

// AddSubject enrolls the student in the subject. An existing pair is kept.
func (r *StudentRepository) AddSubject(ctx context.Context, studentID, subjectID int64) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO student_subjects (student_id, subject_id) VALUES (?, ?)
		ON CONFLICT (student_id, subject_id) DO NOTHING
	`, studentID, subjectID)
	if err != nil {
		return false, classifyError("add student subject", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classifyError("add student subject", err)
	}
	return n > 0, nil
}

// DeleteOrphanMemberships drops the subject's memberships left behind by
// deleted students.
func (r *StudentRepository) DeleteOrphanMemberships(ctx context.Context, subjectID int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM student_subjects
		WHERE subject_id = ? AND student_id NOT IN (SELECT id FROM students)
	`, subjectID)
	if err != nil {
		return 0, classifyError("delete orphan memberships", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classifyError("delete orphan memberships", err)
	}
	return n, nil
}

// SubjectIDs returns the subjects a student is enrolled in, ascending.
func (r *StudentRepository) SubjectIDs(ctx context.Context, studentID int64) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT subject_id FROM student_subjects WHERE student_id = ? ORDER BY subject_id`, studentID)
	if err != nil {
		return nil, classifyError("list student subjects", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, classifyError("list student subjects", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("list student subjects", err)
	}
	return ids, nil
}

// Memberships returns every membership row ordered by student then subject.
func (r *StudentRepository) Memberships(ctx context.Context) ([]student.Membership, error) {
	rows, err := queryAll(ctx, r.q, "list memberships",
		func(m *student.Membership) []any { return []any{&m.StudentID, &m.SubjectID} },
		`SELECT student_id, subject_id FROM student_subjects ORDER BY student_id, subject_id`)
	return values(rows), err
}
