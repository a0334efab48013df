// Package relationship implements the cross-entity operations of School Hub:
// enrollment, bulk assignment across a class, and the ranking reports.
package relationship

import (
	"context"
	"slices"

	"github.com/gestao-escolar/school-hub/internal/domain/report"
	"github.com/gestao-escolar/school-hub/internal/domain/school"
	"github.com/gestao-escolar/school-hub/internal/domain/shared"
	"github.com/gestao-escolar/school-hub/internal/domain/student"
	"github.com/gestao-escolar/school-hub/internal/domain/subject"
	"github.com/gestao-escolar/school-hub/internal/domain/task"
	"github.com/gestao-escolar/school-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESULTS
// ══════════════════════════════════════════════════════════════════════════════

// SubjectAssignment summarizes a bulk subject assignment.
type SubjectAssignment struct {
	ClassID          int64 `json:"class_id"`
	SubjectsAssigned int   `json:"subjects_assigned"`
	StudentsAffected int   `json:"students_affected"`

	// MembershipsAdded counts pairs that did not exist before.
	MembershipsAdded int `json:"memberships_added"`
}

// TaskAssignment summarizes a bulk task creation.
type TaskAssignment struct {
	ClassID      int64        `json:"class_id"`
	SubjectID    int64        `json:"subject_id"`
	TasksCreated int          `json:"tasks_created"`
	Tasks        []*task.Task `json:"-"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Engine runs operations that span several repositories.
type Engine struct {
	store school.Store
	log   *logger.Logger
}

// NewEngine creates an Engine on store.
func NewEngine(store school.Store, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Default()
	}
	return &Engine{
		store: store,
		log:   log.With(logger.Component("relationship")),
	}
}

// Enroll adds the (student, subject) membership after checking both exist.
// An existing pair is left as is and added is false.
func (e *Engine) Enroll(ctx context.Context, studentID, subjectID int64) (added bool, err error) {
	st, err := e.store.Students().GetByID(ctx, studentID)
	if err != nil {
		return false, err
	}
	if st == nil {
		return false, shared.StudentNotFound(studentID)
	}

	sub, err := e.store.Subjects().GetByID(ctx, subjectID)
	if err != nil {
		return false, err
	}
	if sub == nil {
		return false, shared.SubjectNotFound(subjectID)
	}

	added, err = e.store.Students().AddSubject(ctx, studentID, subjectID)
	if err != nil {
		return false, err
	}

	e.log.Info("student enrolled",
		logger.StudentID(studentID),
		logger.SubjectID(subjectID),
		logger.Bool("added", added),
	)
	return added, nil
}

// AssignSubjectsToClass enrolls every student of the class in every listed
// subject. Duplicate ids count once. All references are checked before the
// first membership is written and the whole assignment commits at once.
func (e *Engine) AssignSubjectsToClass(ctx context.Context, classID int64, subjectIDs []int64) (*SubjectAssignment, error) {
	ids := dedupe(subjectIDs)
	if len(ids) == 0 {
		return nil, shared.BusinessRule("at least one subject is required").
			WithDetail("class_id", classID)
	}

	result := &SubjectAssignment{ClassID: classID}
	err := e.store.WithinTx(ctx, func(uow school.UnitOfWork) error {
		students, err := studentsOfClass(ctx, uow, classID)
		if err != nil {
			return err
		}

		found, err := uow.Subjects().GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if missing, ok := firstMissing(ids, found); ok {
			return shared.SubjectNotFound(missing)
		}

		for _, st := range students {
			for _, subjectID := range ids {
				added, err := uow.Students().AddSubject(ctx, st.ID, subjectID)
				if err != nil {
					return err
				}
				if added {
					result.MembershipsAdded++
				}
			}
		}

		result.SubjectsAssigned = len(ids)
		result.StudentsAffected = len(students)
		return nil
	})
	if err != nil {
		e.log.Debug("subject assignment rejected", logger.ClassID(classID), logger.Err(err))
		return nil, err
	}

	e.log.Info("subjects assigned to class",
		logger.ClassID(classID),
		logger.Int("subjects_assigned", result.SubjectsAssigned),
		logger.Int("students_affected", result.StudentsAffected),
		logger.Int("memberships_added", result.MembershipsAdded),
	)
	return result, nil
}

// AssignTaskToClass creates one task named name under the subject for every
// student of the class. Repeating the call creates the tasks again.
func (e *Engine) AssignTaskToClass(ctx context.Context, classID int64, name string, subjectID int64) (*TaskAssignment, error) {
	result := &TaskAssignment{ClassID: classID, SubjectID: subjectID}

	err := e.store.WithinTx(ctx, func(uow school.UnitOfWork) error {
		if err := requireClass(ctx, uow, classID); err != nil {
			return err
		}

		sub, err := uow.Subjects().GetByID(ctx, subjectID)
		if err != nil {
			return err
		}
		if sub == nil {
			return shared.SubjectNotFound(subjectID)
		}

		students, err := studentsOfClass(ctx, uow, classID)
		if err != nil {
			return err
		}

		result.Tasks = make([]*task.Task, 0, len(students))
		for _, st := range students {
			created, err := uow.Tasks().Create(ctx, &task.Task{
				Name:      name,
				SubjectID: subjectID,
				StudentID: st.ID,
			})
			if err != nil {
				return err
			}
			result.Tasks = append(result.Tasks, created)
		}
		result.TasksCreated = len(result.Tasks)
		return nil
	})
	if err != nil {
		e.log.Debug("task assignment rejected", logger.ClassID(classID), logger.Err(err))
		return nil, err
	}

	e.log.Info("task assigned to class",
		logger.ClassID(classID),
		logger.SubjectID(subjectID),
		logger.Int("tasks_created", result.TasksCreated),
	)
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKINGS
// ══════════════════════════════════════════════════════════════════════════════

// StudentsByPendingTasks ranks students by incomplete task count, highest
// first, ties by student ID.
func (e *Engine) StudentsByPendingTasks(ctx context.Context) ([]report.StudentPending, error) {
	return e.store.Reports().StudentsByPendingTasks(ctx)
}

// SubjectsByEnrollment ranks subjects by enrolled students, highest first,
// ties by subject ID.
func (e *Engine) SubjectsByEnrollment(ctx context.Context) ([]report.SubjectEnrollment, error) {
	return e.store.Reports().SubjectsByEnrollment(ctx)
}

// ClassesByScholarshipHolders ranks classes by scholarship students, highest
// first, ties by class ID.
func (e *Engine) ClassesByScholarshipHolders(ctx context.Context) ([]report.ClassScholarship, error) {
	return e.store.Reports().ClassesByScholarshipHolders(ctx)
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func requireClass(ctx context.Context, uow school.UnitOfWork, classID int64) error {
	c, err := uow.Classes().GetByID(ctx, classID)
	if err != nil {
		return err
	}
	if c == nil {
		return shared.ClassNotFound(classID)
	}
	return nil
}

// studentsOfClass resolves the class and its students. An empty class is
// reported as NoStudentsInClass.
func studentsOfClass(ctx context.Context, uow school.UnitOfWork, classID int64) ([]*student.Student, error) {
	if err := requireClass(ctx, uow, classID); err != nil {
		return nil, err
	}

	students, err := uow.Students().GetByClassID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, shared.NoStudentsInClass(classID)
	}
	return students, nil
}

// dedupe keeps the first occurrence of each id, in order.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// firstMissing returns the first id in ids that found does not contain.
func firstMissing(ids []int64, found []*subject.Subject) (int64, bool) {
	for _, id := range ids {
		if !slices.ContainsFunc(found, func(s *subject.Subject) bool { return s.ID == id }) {
			return id, true
		}
	}
	return 0, false
}
