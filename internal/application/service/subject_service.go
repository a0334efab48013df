package service

import (
	"context"

	"github.com/gestao-escolar/school-hub/internal/application/relationship"
	"github.com/gestao-escolar/school-hub/internal/domain/report"
	"github.com/gestao-escolar/school-hub/internal/domain/school"
	"github.com/gestao-escolar/school-hub/internal/domain/shared"
	"github.com/gestao-escolar/school-hub/internal/domain/student"
	"github.com/gestao-escolar/school-hub/internal/domain/subject"
	"github.com/gestao-escolar/school-hub/pkg/logger"
)

// SubjectService manages subjects.
type SubjectService struct {
	base
}

// NewSubjectService creates a SubjectService.
func NewSubjectService(store school.Store, engine *relationship.Engine, events shared.EventPublisher, log *logger.Logger) *SubjectService {
	return &SubjectService{base: newBase(store, engine, events, log, "subject_service")}
}

// Create adds a subject. Names are unique.
func (s *SubjectService) Create(ctx context.Context, name string) (_ *subject.Subject, err error) {
	defer s.observe("subject.create", &err)

	name, err = cleanName(name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	created, err := s.store.Subjects().Create(ctx, &subject.Subject{Name: name})
	if err != nil {
		return nil, err
	}

	s.log.Info("subject created", logger.SubjectID(created.ID), logger.String("name", created.Name))
	s.publish(shared.EventSubjectCreated, created.ID, map[string]interface{}{"name": created.Name})
	return created, nil
}

// Get returns a subject or SubjectNotFound.
func (s *SubjectService) Get(ctx context.Context, id int64) (_ *subject.Subject, err error) {
	defer s.observe("subject.get", &err)
	return requireSubject(ctx, s.store, id)
}

// List returns every subject ordered by ID.
func (s *SubjectService) List(ctx context.Context) (_ []*subject.Subject, err error) {
	defer s.observe("subject.list", &err)
	return s.store.Subjects().GetAll(ctx)
}

// Update replaces the subject name.
func (s *SubjectService) Update(ctx context.Context, id int64, name string) (_ *subject.Subject, err error) {
	defer s.observe("subject.update", &err)

	name, err = cleanName(name)
	if err != nil {
		return nil, err
	}
	if _, err := requireSubject(ctx, s.store, id); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, id); err != nil {
		return nil, err
	}

	updated, err := s.store.Subjects().Update(ctx, id, subject.Patch{Name: &name})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, shared.SubjectNotFound(id)
	}

	s.log.Info("subject updated", logger.SubjectID(id))
	s.publish(shared.EventSubjectUpdated, id, map[string]interface{}{"name": updated.Name})
	return updated, nil
}

// Delete removes a subject. Memberships left by deleted students go with
// it; a subject still referenced by tasks or by a live student's membership
// is rejected by storage with an integrity violation.
func (s *SubjectService) Delete(ctx context.Context, id int64) (err error) {
	defer s.observe("subject.delete", &err)

	var purged int64
	err = s.store.WithinTx(ctx, func(uow school.UnitOfWork) error {
		if _, err := requireSubject(ctx, uow, id); err != nil {
			return err
		}
		n, err := uow.Students().DeleteOrphanMemberships(ctx, id)
		if err != nil {
			return err
		}
		purged = n

		deleted, err := uow.Subjects().Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return shared.SubjectNotFound(id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("subject deleted", logger.SubjectID(id), logger.Int64("orphan_memberships", purged))
	s.publish(shared.EventSubjectDeleted, id, nil)
	return nil
}

// ListStudents returns the students enrolled in a subject.
func (s *SubjectService) ListStudents(ctx context.Context, subjectID int64) (_ []*student.Student, err error) {
	defer s.observe("subject.list_students", &err)

	if _, err := requireSubject(ctx, s.store, subjectID); err != nil {
		return nil, err
	}
	return s.store.Students().GetBySubjectID(ctx, subjectID)
}

// RankByEnrollment ranks subjects by enrolled students.
func (s *SubjectService) RankByEnrollment(ctx context.Context) (_ []report.SubjectEnrollment, err error) {
	defer s.observe("subject.rank_by_enrollment", &err)
	return s.engine.SubjectsByEnrollment(ctx)
}

// AssignToClass enrolls every student of the class in every listed subject.
func (s *SubjectService) AssignToClass(ctx context.Context, classID int64, subjectIDs []int64) (_ *relationship.SubjectAssignment, err error) {
	defer s.observe("subject.assign_to_class", &err)

	result, err := s.engine.AssignSubjectsToClass(ctx, classID, subjectIDs)
	if err != nil {
		return nil, err
	}
	s.publish(shared.EventSubjectAssignedToClass, classID, map[string]interface{}{
		"subjects_assigned": result.SubjectsAssigned,
		"students_affected": result.StudentsAffected,
	})
	return result, nil
}

// ensureNameFree fails when a subject other than self already holds name.
func (s *SubjectService) ensureNameFree(ctx context.Context, name string, self int64) error {
	existing, err := s.store.Subjects().GetByName(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != self {
		return nameTaken(shared.EntitySubject, name)
	}
	return nil
}
