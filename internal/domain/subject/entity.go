// Package subject contains the Subject entity.
package subject

// Subject is a named course. Name is unique across subjects.
type Subject struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Patch lists the subject fields to change. Nil fields are left untouched.
type Patch struct {
	Name *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil
}
