// Package shared contains common domain types, errors, events and the generic
// repository contract used across all domain packages.
// This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind tags the family of a failure. Transport code switches on it to pick a
// response; every Kind must be handled there.
type Kind int

const (
	// KindUnknown is reported for errors that did not come from this package.
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindBusinessRule
	KindDatabase
	KindConnection
	KindIntegrity
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindBusinessRule:
		return "business_rule"
	case KindDatabase:
		return "database"
	case KindConnection:
		return "connection_failure"
	case KindIntegrity:
		return "integrity_violation"
	default:
		return "unknown"
	}
}

// Base errors that can be used for error checking with errors.Is().
var (
	ErrNotFound     = errors.New("entity not found")
	ErrValidation   = errors.New("validation error")
	ErrBusinessRule = errors.New("business rule violation")
	ErrDatabase     = errors.New("database error")
	ErrConnection   = errors.New("database connection failure")
	ErrIntegrity    = errors.New("data integrity violation")
)

// Entity names the kind of row a NotFound failure refers to.
type Entity string

const (
	EntityClass   Entity = "class"
	EntityStudent Entity = "student"
	EntitySubject Entity = "subject"
	EntityTask    Entity = "task"
)

// Error is the single failure type raised by the domain, repositories and
// services. Only the fields relevant to its Kind are populated.
type Error struct {
	Kind    Kind
	Entity  Entity // NotFound
	ID      int64  // NotFound
	Field   string // Validation
	Reason  string // Validation, BusinessRule
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if len(e.Details) > 0 {
		msg = fmt.Sprintf("%s (%s)", msg, formatDetails(e.Details))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is() matching against the base errors.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrBusinessRule:
		return e.Kind == KindBusinessRule
	case ErrDatabase:
		return e.Kind == KindDatabase || e.Kind == KindConnection || e.Kind == KindIntegrity
	case ErrConnection:
		return e.Kind == KindConnection
	case ErrIntegrity:
		return e.Kind == KindIntegrity
	}
	return false
}

// ToMap converts the error into a map for API consumers.
func (e *Error) ToMap() map[string]any {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	return map[string]any{
		"error":   e.Kind.String(),
		"message": e.Message,
		"details": details,
	}
}

func formatDetails(details map[string]any) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, ", ")
}

// ══════════════════════════════════════════════════════════════════════════════
// NOT FOUND
// ══════════════════════════════════════════════════════════════════════════════

// NotFound creates a not-found failure for the given entity and identifier.
func NotFound(entity Entity, id int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Entity:  entity,
		ID:      id,
		Message: fmt.Sprintf("%s %d not found", entity, id),
		Details: map[string]any{string(entity) + "_id": id},
	}
}

func StudentNotFound(id int64) *Error { return NotFound(EntityStudent, id) }
func SubjectNotFound(id int64) *Error { return NotFound(EntitySubject, id) }
func TaskNotFound(id int64) *Error    { return NotFound(EntityTask, id) }
func ClassNotFound(id int64) *Error   { return NotFound(EntityClass, id) }

// NoStudentsInClass reports that a class has no students to act on.
func NoStudentsInClass(classID int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Entity:  EntityStudent,
		Message: fmt.Sprintf("no students found for class %d", classID),
		Details: map[string]any{"class_id": classID},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// Validation creates a field-level validation failure.
func Validation(field, reason string) *Error {
	return &Error{
		Kind:    KindValidation,
		Field:   field,
		Reason:  reason,
		Message: reason,
		Details: map[string]any{"field": field},
	}
}

// InvalidAge reports an age outside the allowed range.
func InvalidAge(age, minAge, maxAge int) *Error {
	e := Validation("age", fmt.Sprintf("age %d is outside the allowed range", age))
	e.Details["age"] = age
	e.Details["min_age"] = minAge
	e.Details["max_age"] = maxAge
	return e
}

// InvalidName reports an empty or malformed name.
func InvalidName(reason string) *Error {
	if reason == "" {
		reason = "invalid name"
	}
	return Validation("name", reason)
}

// InvalidEmail reports a malformed email address.
func InvalidEmail(email string) *Error {
	if email == "" {
		return Validation("email", "invalid email")
	}
	e := Validation("email", fmt.Sprintf("email %q has an invalid format", email))
	e.Details["email"] = email
	return e
}

// ══════════════════════════════════════════════════════════════════════════════
// BUSINESS RULES
// ══════════════════════════════════════════════════════════════════════════════

// BusinessRule creates a named rule violation.
func BusinessRule(description string) *Error {
	return &Error{
		Kind:    KindBusinessRule,
		Reason:  description,
		Message: description,
	}
}

// WithDetail attaches a structured detail and returns the same error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// ══════════════════════════════════════════════════════════════════════════════
// DATABASE
// ══════════════════════════════════════════════════════════════════════════════

// DatabaseFailure wraps a storage error that is neither a connection failure
// nor a constraint violation.
func DatabaseFailure(op string, err error) *Error {
	return &Error{
		Kind:    KindDatabase,
		Message: fmt.Sprintf("database error during %s", op),
		Details: map[string]any{"operation": op},
		Err:     err,
	}
}

// ConnectionFailure reports that the storage engine could not be reached.
func ConnectionFailure(err error) *Error {
	return &Error{
		Kind:    KindConnection,
		Message: "database connection failure",
		Err:     err,
	}
}

// IntegrityViolation reports a constraint rejected by the storage engine.
func IntegrityViolation(constraint string, err error) *Error {
	e := &Error{
		Kind:    KindIntegrity,
		Message: "data integrity violation",
		Err:     err,
	}
	if constraint != "" {
		e.Details = map[string]any{"constraint": constraint}
	}
	return e
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// AsError extracts the domain failure from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindUnknown
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsBusinessRule checks if the error is a business rule violation.
func IsBusinessRule(err error) bool {
	return errors.Is(err, ErrBusinessRule)
}

// IsDatabase checks if the error comes from the storage layer.
func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}
