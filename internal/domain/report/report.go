// Package report defines the fixed set of ranking reports and the storage
// contract that computes them.
//
// Every report is ordered by its count descending; equal counts are ordered by
// the ranked entity's ID ascending so results do not depend on the engine.
package report

import "context"

// StudentPending is one row of the students-by-pending-tasks ranking.
type StudentPending struct {
	StudentID int64  `json:"id"`
	Name      string `json:"name"`
	Pending   int    `json:"pending"`
}

// SubjectEnrollment is one row of the subjects-by-enrollment ranking.
type SubjectEnrollment struct {
	SubjectID int64  `json:"id"`
	Name      string `json:"name"`
	Students  int    `json:"total_students"`
}

// ClassScholarship is one row of the classes-by-scholarship-holders ranking.
type ClassScholarship struct {
	ClassID            int64  `json:"id"`
	Name               string `json:"name"`
	ScholarshipHolders int    `json:"total_scholarship_holders"`
}

// Repository computes the ranking reports in storage.
type Repository interface {
	// StudentsByPendingTasks counts incomplete tasks per student. Students with
	// no incomplete task (including students with no task at all) are absent.
	StudentsByPendingTasks(ctx context.Context) ([]StudentPending, error)

	// SubjectsByEnrollment counts distinct enrolled students per subject.
	// Subjects without enrolled students are absent.
	SubjectsByEnrollment(ctx context.Context) ([]SubjectEnrollment, error)

	// ClassesByScholarshipHolders counts scholarship students per class.
	// Classes without scholarship students are absent.
	ClassesByScholarshipHolders(ctx context.Context) ([]ClassScholarship, error)
}
