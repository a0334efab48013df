// Package class contains the Class entity: a named group of students.
package class

// Class is a named group of students. Name is unique across classes.
type Class struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Patch lists the class fields to change. Nil fields are left untouched.
type Patch struct {
	Name *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil
}
