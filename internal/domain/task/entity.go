// Package task contains the Task entity: a unit of work tied to one student
// and one subject.
package task

// Task starts incomplete. Completed only ever moves from false to true.
type Task struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
	SubjectID int64  `json:"subject_id"`
	StudentID int64  `json:"student_id"`
}

// Patch lists the task fields to change. Nil fields are left untouched.
type Patch struct {
	Name      *string
	Completed *bool
	SubjectID *int64
	StudentID *int64
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Completed == nil && p.SubjectID == nil && p.StudentID == nil
}

// Complete returns the patch that marks a task as done.
func Complete() Patch {
	done := true
	return Patch{Completed: &done}
}

// WithSubject is a task joined with its subject name for student listings.
type WithSubject struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Completed   bool   `json:"completed"`
	SubjectName string `json:"subject"`
}
