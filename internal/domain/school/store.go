// Package school ties the entity repositories together behind a single store
// with an explicit transaction boundary.
package school

import (
	"context"

	"github.com/gestao-escolar/school-hub/internal/domain/class"
	"github.com/gestao-escolar/school-hub/internal/domain/report"
	"github.com/gestao-escolar/school-hub/internal/domain/student"
	"github.com/gestao-escolar/school-hub/internal/domain/subject"
	"github.com/gestao-escolar/school-hub/internal/domain/task"
)

// UnitOfWork exposes the repositories bound to one storage scope: either the
// connection pool (every statement commits on its own) or a transaction.
type UnitOfWork interface {
	Classes() class.Repository
	Students() student.Repository
	Subjects() subject.Repository
	Tasks() task.Repository
	Reports() report.Repository
}

// Store is the storage collaborator of the application layer.
type Store interface {
	UnitOfWork

	// WithinTx runs fn on a transaction-scoped UnitOfWork. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	WithinTx(ctx context.Context, fn func(uow UnitOfWork) error) error

	// Ping checks that storage is reachable.
	Ping(ctx context.Context) error

	// Close releases the storage handle.
	Close() error
}
