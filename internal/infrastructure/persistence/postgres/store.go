package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/gestao-escolar/school-hub/internal/domain/class"
	"github.com/gestao-escolar/school-hub/internal/domain/report"
	"github.com/gestao-escolar/school-hub/internal/domain/school"
	"github.com/gestao-escolar/school-hub/internal/domain/student"
	"github.com/gestao-escolar/school-hub/internal/domain/subject"
	"github.com/gestao-escolar/school-hub/internal/domain/task"
)

// unitOfWork binds every repository to the same Querier.
type unitOfWork struct {
	classes  *ClassRepository
	students *StudentRepository
	subjects *SubjectRepository
	tasks    *TaskRepository
	reports  *ReportRepository
}

func newUnitOfWork(q Querier) *unitOfWork {
	return &unitOfWork{
		classes:  NewClassRepository(q),
		students: NewStudentRepository(q),
		subjects: NewSubjectRepository(q),
		tasks:    NewTaskRepository(q),
		reports:  NewReportRepository(q),
	}
}

func (u *unitOfWork) Classes() class.Repository    { return u.classes }
func (u *unitOfWork) Students() student.Repository { return u.students }
func (u *unitOfWork) Subjects() subject.Repository { return u.subjects }
func (u *unitOfWork) Tasks() task.Repository       { return u.tasks }
func (u *unitOfWork) Reports() report.Repository   { return u.reports }

// Store implements school.Store on a PostgreSQL pool.
type Store struct {
	*unitOfWork
	conn *Connection
}

var _ school.Store = (*Store)(nil)

// NewStore wraps an open connection.
func NewStore(conn *Connection) *Store {
	return &Store{unitOfWork: newUnitOfWork(conn), conn: conn}
}

// Open connects, applies pending migrations and returns the store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	conn, err := NewConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := NewMigrator(conn).Migrate(ctx); err != nil {
		conn.Close()
		return nil, classifyError("migrate", err)
	}
	return NewStore(conn), nil
}

// WithinTx runs fn with repositories bound to a single transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(uow school.UnitOfWork) error) error {
	return s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(newUnitOfWork(tx))
	})
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() error {
	s.conn.Close()
	return nil
}
