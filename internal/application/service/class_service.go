package service

import (
	"context"

	"github.com/gestao-escolar/school-hub/internal/application/relationship"
	"github.com/gestao-escolar/school-hub/internal/domain/class"
	"github.com/gestao-escolar/school-hub/internal/domain/report"
	"github.com/gestao-escolar/school-hub/internal/domain/school"
	"github.com/gestao-escolar/school-hub/internal/domain/shared"
	"github.com/gestao-escolar/school-hub/internal/domain/student"
	"github.com/gestao-escolar/school-hub/pkg/logger"
)

// ClassWithStudents is a class together with its students.
type ClassWithStudents struct {
	class.Class
	Students []*student.Student `json:"students"`
}

// ClassService manages classes.
type ClassService struct {
	base
}

// NewClassService creates a ClassService.
func NewClassService(store school.Store, engine *relationship.Engine, events shared.EventPublisher, log *logger.Logger) *ClassService {
	return &ClassService{base: newBase(store, engine, events, log, "class_service")}
}

// Create adds a class. Names are unique.
func (s *ClassService) Create(ctx context.Context, name string) (_ *class.Class, err error) {
	defer s.observe("class.create", &err)

	name, err = cleanName(name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	created, err := s.store.Classes().Create(ctx, &class.Class{Name: name})
	if err != nil {
		return nil, err
	}

	s.log.Info("class created", logger.ClassID(created.ID), logger.String("name", created.Name))
	s.publish(shared.EventClassCreated, created.ID, map[string]interface{}{"name": created.Name})
	return created, nil
}

// Get returns a class or ClassNotFound.
func (s *ClassService) Get(ctx context.Context, id int64) (_ *class.Class, err error) {
	defer s.observe("class.get", &err)
	return requireClass(ctx, s.store, id)
}

// List returns every class ordered by ID.
func (s *ClassService) List(ctx context.Context) (_ []*class.Class, err error) {
	defer s.observe("class.list", &err)
	return s.store.Classes().GetAll(ctx)
}

// ListWithStudents returns every class with its students, both ordered by ID.
func (s *ClassService) ListWithStudents(ctx context.Context) (_ []ClassWithStudents, err error) {
	defer s.observe("class.list_with_students", &err)

	classes, err := s.store.Classes().GetAll(ctx)
	if err != nil {
		return nil, err
	}
	students, err := s.store.Students().GetAll(ctx)
	if err != nil {
		return nil, err
	}

	byClass := make(map[int64][]*student.Student, len(classes))
	for _, st := range students {
		byClass[st.ClassID] = append(byClass[st.ClassID], st)
	}

	out := make([]ClassWithStudents, 0, len(classes))
	for _, c := range classes {
		members := byClass[c.ID]
		if members == nil {
			members = []*student.Student{}
		}
		out = append(out, ClassWithStudents{Class: *c, Students: members})
	}
	return out, nil
}

// Update replaces the class name.
func (s *ClassService) Update(ctx context.Context, id int64, name string) (_ *class.Class, err error) {
	defer s.observe("class.update", &err)

	name, err = cleanName(name)
	if err != nil {
		return nil, err
	}
	if _, err := requireClass(ctx, s.store, id); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, id); err != nil {
		return nil, err
	}

	updated, err := s.store.Classes().Update(ctx, id, class.Patch{Name: &name})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, shared.ClassNotFound(id)
	}

	s.log.Info("class updated", logger.ClassID(id))
	s.publish(shared.EventClassUpdated, id, map[string]interface{}{"name": updated.Name})
	return updated, nil
}

// Delete removes a class. A class still referenced by students is rejected
// by storage with an integrity violation.
func (s *ClassService) Delete(ctx context.Context, id int64) (err error) {
	defer s.observe("class.delete", &err)

	deleted, err := s.store.Classes().Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return shared.ClassNotFound(id)
	}

	s.log.Info("class deleted", logger.ClassID(id))
	s.publish(shared.EventClassDeleted, id, nil)
	return nil
}

// ListStudents returns the students of a class.
func (s *ClassService) ListStudents(ctx context.Context, classID int64) (_ []*student.Student, err error) {
	defer s.observe("class.list_students", &err)

	if _, err := requireClass(ctx, s.store, classID); err != nil {
		return nil, err
	}
	return s.store.Students().GetByClassID(ctx, classID)
}

// RankByScholarshipHolders ranks classes by scholarship students.
func (s *ClassService) RankByScholarshipHolders(ctx context.Context) (_ []report.ClassScholarship, err error) {
	defer s.observe("class.rank_by_scholarship_holders", &err)
	return s.engine.ClassesByScholarshipHolders(ctx)
}

// ensureNameFree fails when a class other than self already holds name.
func (s *ClassService) ensureNameFree(ctx context.Context, name string, self int64) error {
	existing, err := s.store.Classes().GetByName(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != self {
		return nameTaken(shared.EntityClass, name)
	}
	return nil
}
