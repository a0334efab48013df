package sqlite

import (
	"context"

	"github.com/gestao-escolar/school-hub/internal/domain/report"
)

// ReportRepository implements report.Repository for SQLite.
type ReportRepository struct {
	q querier
}

// StudentsByPendingTasks ranks students by their incomplete task count.
func (r *ReportRepository) StudentsByPendingTasks(ctx context.Context) ([]report.StudentPending, error) {
	rows, err := queryAll(ctx, r.q, "report students by pending tasks",
		func(p *report.StudentPending) []any { return []any{&p.StudentID, &p.Name, &p.Pending} }, `
		SELECT s.id, s.name, COUNT(t.id) AS pending
		FROM students s
		LEFT JOIN tasks t ON t.student_id = s.id
		WHERE t.completed = 0
		GROUP BY s.id, s.name
		ORDER BY pending DESC, s.id ASC
	`)
	return values(rows), err
}

// SubjectsByEnrollment ranks subjects by distinct enrolled students.
func (r *ReportRepository) SubjectsByEnrollment(ctx context.Context) ([]report.SubjectEnrollment, error) {
	rows, err := queryAll(ctx, r.q, "report subjects by enrollment",
		func(e *report.SubjectEnrollment) []any { return []any{&e.SubjectID, &e.Name, &e.Students} }, `
		SELECT sb.id, sb.name, COUNT(DISTINCT ss.student_id) AS total
		FROM subjects sb
		JOIN student_subjects ss ON ss.subject_id = sb.id
		JOIN students s ON s.id = ss.student_id
		GROUP BY sb.id, sb.name
		ORDER BY total DESC, sb.id ASC
	`)
	return values(rows), err
}

// ClassesByScholarshipHolders ranks classes by scholarship students.
func (r *ReportRepository) ClassesByScholarshipHolders(ctx context.Context) ([]report.ClassScholarship, error) {
	rows, err := queryAll(ctx, r.q, "report classes by scholarship holders",
		func(c *report.ClassScholarship) []any { return []any{&c.ClassID, &c.Name, &c.ScholarshipHolders} }, `
		SELECT c.id, c.name, COUNT(s.id) AS total
		FROM classes c
		JOIN students s ON s.class_id = c.id
		WHERE s.scholarship = 1
		GROUP BY c.id, c.name
		ORDER BY total DESC, c.id ASC
	`)
	return values(rows), err
}

func values[T any](rows []*T) []T {
	if rows == nil {
		return nil
	}
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = *r
	}
	return out
}
