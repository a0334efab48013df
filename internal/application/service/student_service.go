package service

import (
	"context"

	"github.com/gestao-escolar/school-hub/internal/application/relationship"
	"github.com/gestao-escolar/school-hub/internal/domain/class"
	"github.com/gestao-escolar/school-hub/internal/domain/report"
	"github.com/gestao-escolar/school-hub/internal/domain/school"
	"github.com/gestao-escolar/school-hub/internal/domain/shared"
	"github.com/gestao-escolar/school-hub/internal/domain/student"
	"github.com/gestao-escolar/school-hub/internal/domain/subject"
	"github.com/gestao-escolar/school-hub/pkg/logger"
)

// StudentService manages students and their subject memberships.
type StudentService struct {
	base
}

// NewStudentService creates a StudentService.
func NewStudentService(store school.Store, engine *relationship.Engine, events shared.EventPublisher, log *logger.Logger) *StudentService {
	return &StudentService{base: newBase(store, engine, events, log, "student_service")}
}

// Create adds a student to an existing class. in.ID is ignored.
func (s *StudentService) Create(ctx context.Context, in student.Student) (_ *student.Student, err error) {
	defer s.observe("student.create", &err)

	if in, err = validStudent(in); err != nil {
		return nil, err
	}
	if _, err := requireClass(ctx, s.store, in.ClassID); err != nil {
		return nil, err
	}

	in.ID = 0
	created, err := s.store.Students().Create(ctx, &in)
	if err != nil {
		return nil, err
	}

	s.log.Info("student created", logger.StudentID(created.ID), logger.ClassID(created.ClassID))
	s.publish(shared.EventStudentCreated, created.ID, map[string]interface{}{"class_id": created.ClassID})
	return created, nil
}

// CreateBatch adds several students at once. Every row is validated and
// every class checked before the batch commits; any failure leaves no row
// behind. The error of the first failing row is returned.
func (s *StudentService) CreateBatch(ctx context.Context, in []student.Student) (_ []*student.Student, err error) {
	defer s.observe("student.create_batch", &err)

	if len(in) == 0 {
		return []*student.Student{}, nil
	}

	rows := make([]student.Student, len(in))
	for i, st := range in {
		if rows[i], err = validStudent(st); err != nil {
			return nil, withIndex(err, i)
		}
		rows[i].ID = 0
	}

	created := make([]*student.Student, 0, len(rows))
	err = s.store.WithinTx(ctx, func(uow school.UnitOfWork) error {
		known := make(map[int64]bool)
		for i := range rows {
			classID := rows[i].ClassID
			if !known[classID] {
				if _, err := requireClass(ctx, uow, classID); err != nil {
					return withIndex(err, i)
				}
				known[classID] = true
			}

			st, err := uow.Students().Create(ctx, &rows[i])
			if err != nil {
				return err
			}
			created = append(created, st)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(created))
	for i, st := range created {
		ids[i] = st.ID
	}
	s.log.Info("student batch created", logger.Count(len(created)))
	s.publish(shared.EventStudentBatchCreated, ids[0], map[string]interface{}{"student_ids": ids})
	return created, nil
}

// Get returns a student or StudentNotFound.
func (s *StudentService) Get(ctx context.Context, id int64) (_ *student.Student, err error) {
	defer s.observe("student.get", &err)
	return requireStudent(ctx, s.store, id)
}

// List returns every student ordered by ID.
func (s *StudentService) List(ctx context.Context) (_ []*student.Student, err error) {
	defer s.observe("student.list", &err)
	return s.store.Students().GetAll(ctx)
}

// Update replaces every field of the student. The target class must exist.
func (s *StudentService) Update(ctx context.Context, id int64, in student.Student) (_ *student.Student, err error) {
	defer s.observe("student.update", &err)

	if in, err = validStudent(in); err != nil {
		return nil, err
	}
	if _, err := requireStudent(ctx, s.store, id); err != nil {
		return nil, err
	}
	if _, err := requireClass(ctx, s.store, in.ClassID); err != nil {
		return nil, err
	}

	updated, err := s.store.Students().Update(ctx, id, student.ReplaceWith(in))
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, shared.StudentNotFound(id)
	}

	s.log.Info("student updated", logger.StudentID(id))
	s.publish(shared.EventStudentUpdated, id, map[string]interface{}{"class_id": updated.ClassID})
	return updated, nil
}

// Delete removes a student. Its tasks and memberships are kept.
func (s *StudentService) Delete(ctx context.Context, id int64) (err error) {
	defer s.observe("student.delete", &err)

	deleted, err := s.store.Students().Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return shared.StudentNotFound(id)
	}

	s.log.Info("student deleted", logger.StudentID(id))
	s.publish(shared.EventStudentDeleted, id, nil)
	return nil
}

// Enroll adds the student to a subject. Enrolling twice is a no-op; added
// reports whether a membership was created.
func (s *StudentService) Enroll(ctx context.Context, studentID, subjectID int64) (added bool, err error) {
	defer s.observe("student.enroll", &err)

	added, err = s.engine.Enroll(ctx, studentID, subjectID)
	if err != nil {
		return false, err
	}
	if added {
		s.publish(shared.EventStudentEnrolled, studentID, map[string]interface{}{"subject_id": subjectID})
	}
	return added, nil
}

// ListSubjects returns the subjects a student is enrolled in.
func (s *StudentService) ListSubjects(ctx context.Context, studentID int64) (_ []*subject.Subject, err error) {
	defer s.observe("student.list_subjects", &err)

	if _, err := requireStudent(ctx, s.store, studentID); err != nil {
		return nil, err
	}
	ids, err := s.store.Students().SubjectIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*subject.Subject{}, nil
	}
	return s.store.Subjects().GetByIDs(ctx, ids)
}

// RankByPendingTasks ranks students by incomplete tasks.
func (s *StudentService) RankByPendingTasks(ctx context.Context) (_ []report.StudentPending, err error) {
	defer s.observe("student.rank_by_pending_tasks", &err)
	return s.engine.StudentsByPendingTasks(ctx)
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func validStudent(in student.Student) (student.Student, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return in, err
	}
	if err := checkAge(in.Age); err != nil {
		return in, err
	}
	in.Name = name
	return in, nil
}

// withIndex tags a failure with the batch row that caused it.
func withIndex(err error, i int) error {
	if e, ok := shared.AsError(err); ok {
		return e.WithDetail("index", i)
	}
	return err
}

func requireStudent(ctx context.Context, uow school.UnitOfWork, id int64) (*student.Student, error) {
	st, err := uow.Students().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, shared.StudentNotFound(id)
	}
	return st, nil
}

func requireClass(ctx context.Context, uow school.UnitOfWork, id int64) (*class.Class, error) {
	c, err := uow.Classes().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, shared.ClassNotFound(id)
	}
	return c, nil
}

func requireSubject(ctx context.Context, uow school.UnitOfWork, id int64) (*subject.Subject, error) {
	sub, err := uow.Subjects().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, shared.SubjectNotFound(id)
	}
	return sub, nil
}
