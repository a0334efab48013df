package service

import (
	"context"

	"github.com/gestao-escolar/school-hub/internal/application/relationship"
	"github.com/gestao-escolar/school-hub/internal/domain/school"
	"github.com/gestao-escolar/school-hub/internal/domain/shared"
	"github.com/gestao-escolar/school-hub/internal/domain/task"
	"github.com/gestao-escolar/school-hub/pkg/logger"
)

// TaskService manages tasks.
type TaskService struct {
	base
}

// NewTaskService creates a TaskService.
func NewTaskService(store school.Store, engine *relationship.Engine, events shared.EventPublisher, log *logger.Logger) *TaskService {
	return &TaskService{base: newBase(store, engine, events, log, "task_service")}
}

// Create adds an incomplete task. The subject is checked first, then the
// student. in.ID and in.Completed are ignored.
func (s *TaskService) Create(ctx context.Context, in task.Task) (_ *task.Task, err error) {
	defer s.observe("task.create", &err)

	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}
	if _, err := requireSubject(ctx, s.store, in.SubjectID); err != nil {
		return nil, err
	}
	if _, err := requireStudent(ctx, s.store, in.StudentID); err != nil {
		return nil, err
	}
	return s.create(ctx, name, in.SubjectID, in.StudentID)
}

// AssignToStudent creates an incomplete task for one student. The student is
// checked first, then the subject.
func (s *TaskService) AssignToStudent(ctx context.Context, studentID int64, name string, subjectID int64) (_ *task.Task, err error) {
	defer s.observe("task.assign_to_student", &err)

	name, err = cleanName(name)
	if err != nil {
		return nil, err
	}
	if _, err := requireStudent(ctx, s.store, studentID); err != nil {
		return nil, err
	}
	if _, err := requireSubject(ctx, s.store, subjectID); err != nil {
		return nil, err
	}
	return s.create(ctx, name, subjectID, studentID)
}

// AssignToClass creates one task per student of the class. Repeating the
// call creates the tasks again.
func (s *TaskService) AssignToClass(ctx context.Context, classID int64, name string, subjectID int64) (_ *relationship.TaskAssignment, err error) {
	defer s.observe("task.assign_to_class", &err)

	name, err = cleanName(name)
	if err != nil {
		return nil, err
	}
	result, err := s.engine.AssignTaskToClass(ctx, classID, name, subjectID)
	if err != nil {
		return nil, err
	}
	s.publish(shared.EventTaskAssignedToClass, classID, map[string]interface{}{
		"subject_id":    subjectID,
		"tasks_created": result.TasksCreated,
	})
	return result, nil
}

// Get returns a task or TaskNotFound.
func (s *TaskService) Get(ctx context.Context, id int64) (_ *task.Task, err error) {
	defer s.observe("task.get", &err)
	return s.mustGet(ctx, id)
}

// List returns every task ordered by ID.
func (s *TaskService) List(ctx context.Context) (_ []*task.Task, err error) {
	defer s.observe("task.list", &err)
	return s.store.Tasks().GetAll(ctx)
}

// MarkComplete sets the completion flag. A completed task is returned as is.
func (s *TaskService) MarkComplete(ctx context.Context, id int64) (_ *task.Task, err error) {
	defer s.observe("task.mark_complete", &err)

	current, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Completed {
		return current, nil
	}

	updated, err := s.store.Tasks().Update(ctx, id, task.Complete())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, shared.TaskNotFound(id)
	}

	s.log.Info("task completed", logger.TaskID(id), logger.StudentID(updated.StudentID))
	s.publish(shared.EventTaskCompleted, id, map[string]interface{}{
		"student_id": updated.StudentID,
		"subject_id": updated.SubjectID,
	})
	return updated, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id int64) (err error) {
	defer s.observe("task.delete", &err)

	deleted, err := s.store.Tasks().Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return shared.TaskNotFound(id)
	}

	s.log.Info("task deleted", logger.TaskID(id))
	s.publish(shared.EventTaskDeleted, id, nil)
	return nil
}

// ListForStudent returns the tasks of a student with their subject name.
func (s *TaskService) ListForStudent(ctx context.Context, studentID int64) (_ []*task.WithSubject, err error) {
	defer s.observe("task.list_for_student", &err)

	if _, err := requireStudent(ctx, s.store, studentID); err != nil {
		return nil, err
	}
	return s.store.Tasks().GetByStudentIDWithSubject(ctx, studentID)
}

func (s *TaskService) create(ctx context.Context, name string, subjectID, studentID int64) (*task.Task, error) {
	created, err := s.store.Tasks().Create(ctx, &task.Task{
		Name:      name,
		SubjectID: subjectID,
		StudentID: studentID,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("task created", logger.TaskID(created.ID), logger.StudentID(studentID), logger.SubjectID(subjectID))
	s.publish(shared.EventTaskCreated, created.ID, map[string]interface{}{
		"student_id": studentID,
		"subject_id": subjectID,
	})
	return created, nil
}

func (s *TaskService) mustGet(ctx context.Context, id int64) (*task.Task, error) {
	t, err := s.store.Tasks().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, shared.TaskNotFound(id)
	}
	return t, nil
}
