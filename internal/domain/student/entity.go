// Package student contains the Student entity and its subject memberships.
package student

// Student belongs to exactly one class and may be enrolled in many subjects.
// No validation lives here: the service layer checks references before a
// student is persisted.
type Student struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Age         int    `json:"age"`
	Scholarship bool   `json:"scholarship"`
	ClassID     int64  `json:"class_id"`
}

// Patch lists the student fields to change. Nil fields are left untouched.
type Patch struct {
	Name        *string
	Age         *int
	Scholarship *bool
	ClassID     *int64
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Age == nil && p.Scholarship == nil && p.ClassID == nil
}

// ReplaceWith builds a patch that writes every field of s.
func ReplaceWith(s Student) Patch {
	return Patch{
		Name:        &s.Name,
		Age:         &s.Age,
		Scholarship: &s.Scholarship,
		ClassID:     &s.ClassID,
	}
}

// Membership is one (student, subject) enrollment pair.
type Membership struct {
	StudentID int64 `json:"student_id"`
	SubjectID int64 `json:"subject_id"`
}
