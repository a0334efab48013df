package sqlite

import (
	"context"
	"database/sql"

	"github.com/gestao-escolar/school-hub/internal/domain/class"
	"github.com/gestao-escolar/school-hub/internal/domain/report"
	"github.com/gestao-escolar/school-hub/internal/domain/school"
	"github.com/gestao-escolar/school-hub/internal/domain/student"
	"github.com/gestao-escolar/school-hub/internal/domain/subject"
	"github.com/gestao-escolar/school-hub/internal/domain/task"
)

type unitOfWork struct {
	classes  *ClassRepository
	students *StudentRepository
	subjects *SubjectRepository
	tasks    *TaskRepository
	reports  *ReportRepository
}

func newUnitOfWork(q querier) *unitOfWork {
	return &unitOfWork{
		classes:  &ClassRepository{q: q},
		students: &StudentRepository{q: q},
		subjects: &SubjectRepository{q: q},
		tasks:    &TaskRepository{q: q},
		reports:  &ReportRepository{q: q},
	}
}

func (u *unitOfWork) Classes() class.Repository    { return u.classes }
func (u *unitOfWork) Students() student.Repository { return u.students }
func (u *unitOfWork) Subjects() subject.Repository { return u.subjects }
func (u *unitOfWork) Tasks() task.Repository       { return u.tasks }
func (u *unitOfWork) Reports() report.Repository   { return u.reports }

// Store persists School Hub state in SQLite.
type Store struct {
	*unitOfWork
	db *sql.DB
}

var _ school.Store = (*Store)(nil)

// Open opens the database at path (or MemoryPath) and applies the embedded
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, classifyError("migrate", err)
	}
	return &Store{unitOfWork: newUnitOfWork(db), db: db}, nil
}

// WithinTx runs fn with repositories bound to a single transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(uow school.UnitOfWork) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyError("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(newUnitOfWork(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return classifyError("commit transaction", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classifyError("ping", err)
	}
	return nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
