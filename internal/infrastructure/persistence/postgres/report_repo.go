package postgres

import (
	"context"

	"github.com/gestao-escolar/school-hub/internal/domain/report"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const (
	queryStudentsByPendingTasks = `
		SELECT s.id, s.name, COUNT(t.id) AS pending
		FROM students s
		LEFT JOIN tasks t ON t.student_id = s.id
		WHERE t.completed = FALSE
		GROUP BY s.id, s.name
		ORDER BY pending DESC, s.id ASC
	`

	querySubjectsByEnrollment = `
		SELECT sb.id, sb.name, COUNT(DISTINCT ss.student_id) AS total
		FROM subjects sb
		JOIN student_subjects ss ON ss.subject_id = sb.id
		JOIN students s ON s.id = ss.student_id
		GROUP BY sb.id, sb.name
		ORDER BY total DESC, sb.id ASC
	`

	queryClassesByScholarshipHolders = `
		SELECT c.id, c.name, COUNT(s.id) AS total
		FROM classes c
		JOIN students s ON s.class_id = c.id
		WHERE s.scholarship = TRUE
		GROUP BY c.id, c.name
		ORDER BY total DESC, c.id ASC
	`
)

// ReportRepository implements report.Repository for PostgreSQL.
type ReportRepository struct {
	q Querier
}

// NewReportRepository creates a ReportRepository bound to q.
func NewReportRepository(q Querier) *ReportRepository {
	return &ReportRepository{q: q}
}

// StudentsByPendingTasks ranks students by their incomplete task count.
func (r *ReportRepository) StudentsByPendingTasks(ctx context.Context) ([]report.StudentPending, error) {
	rows, err := r.q.Query(ctx, queryStudentsByPendingTasks)
	if err != nil {
		return nil, classifyError("report students by pending tasks", err)
	}
	defer rows.Close()

	out := make([]report.StudentPending, 0)
	for rows.Next() {
		var row report.StudentPending
		if err := rows.Scan(&row.StudentID, &row.Name, &row.Pending); err != nil {
			return nil, classifyError("scan pending row", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("report students by pending tasks", err)
	}
	return out, nil
}

// SubjectsByEnrollment ranks subjects by distinct enrolled students.
func (r *ReportRepository) SubjectsByEnrollment(ctx context.Context) ([]report.SubjectEnrollment, error) {
	rows, err := r.q.Query(ctx, querySubjectsByEnrollment)
	if err != nil {
		return nil, classifyError("report subjects by enrollment", err)
	}
	defer rows.Close()

	out := make([]report.SubjectEnrollment, 0)
	for rows.Next() {
		var row report.SubjectEnrollment
		if err := rows.Scan(&row.SubjectID, &row.Name, &row.Students); err != nil {
			return nil, classifyError("scan enrollment row", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("report subjects by enrollment", err)
	}
	return out, nil
}

// ClassesByScholarshipHolders ranks classes by scholarship students.
func (r *ReportRepository) ClassesByScholarshipHolders(ctx context.Context) ([]report.ClassScholarship, error) {
	rows, err := r.q.Query(ctx, queryClassesByScholarshipHolders)
	if err != nil {
		return nil, classifyError("report classes by scholarship holders", err)
	}
	defer rows.Close()

	out := make([]report.ClassScholarship, 0)
	for rows.Next() {
		var row report.ClassScholarship
		if err := rows.Scan(&row.ClassID, &row.Name, &row.ScholarshipHolders); err != nil {
			return nil, classifyError("scan scholarship row", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("report classes by scholarship holders", err)
	}
	return out, nil
}
