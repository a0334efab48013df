// Package service contains the School Hub use cases, one service per entity.
//
// Every operation resolves the references it needs, fails with a typed
// NotFound as soon as one is missing, and only then writes through the
// entity's own repository. Committed mutations are announced as domain events.
package service

import (
	"strings"

	"github.com/gestao-escolar/school-hub/internal/application/relationship"
	"github.com/gestao-escolar/school-hub/internal/domain/school"
	"github.com/gestao-escolar/school-hub/internal/domain/shared"
	"github.com/gestao-escolar/school-hub/pkg/logger"
)

// Student age bounds accepted on create and update.
const (
	MinAge = 1
	MaxAge = 150
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVICES
// ══════════════════════════════════════════════════════════════════════════════

// Services bundles the four entity services over one store.
type Services struct {
	Classes  *ClassService
	Students *StudentService
	Subjects *SubjectService
	Tasks    *TaskService
}

// New wires every service on store. events may be nil.
func New(store school.Store, events shared.EventPublisher, log *logger.Logger) *Services {
	if log == nil {
		log = logger.Default()
	}
	engine := relationship.NewEngine(store, log)
	return &Services{
		Classes:  NewClassService(store, engine, events, log),
		Students: NewStudentService(store, engine, events, log),
		Subjects: NewSubjectService(store, engine, events, log),
		Tasks:    NewTaskService(store, engine, events, log),
	}
}

// base holds what every service shares.
type base struct {
	store  school.Store
	engine *relationship.Engine
	events shared.EventPublisher
	log    *logger.Logger
}

func newBase(store school.Store, engine *relationship.Engine, events shared.EventPublisher, log *logger.Logger, component string) base {
	if log == nil {
		log = logger.Default()
	}
	if engine == nil {
		engine = relationship.NewEngine(store, log)
	}
	return base{
		store:  store,
		engine: engine,
		events: events,
		log:    log.With(logger.Component(component)),
	}
}

// publish announces a committed mutation. A failed publish is logged only.
func (b *base) publish(eventType shared.EventType, entityID int64, data map[string]interface{}) {
	if b.events == nil {
		return
	}
	if err := b.events.Publish(shared.NewEntityEvent(eventType, entityID, data)); err != nil {
		b.log.Warn("event publish failed",
			logger.String("event_type", string(eventType)),
			logger.Int64("entity_id", entityID),
			logger.Err(err),
		)
	}
}

// observe logs the outcome of op when *errp is set. Rejections are expected
// traffic and go to Debug; storage failures go to Error.
func (b *base) observe(op string, errp *error) {
	err := *errp
	if err == nil {
		return
	}
	switch shared.KindOf(err) {
	case shared.KindNotFound, shared.KindValidation, shared.KindBusinessRule:
		b.log.Debug("operation rejected", logger.Operation(op), logger.Err(err))
	default:
		b.log.Error("operation failed", logger.Operation(op), logger.Err(err))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// cleanName trims name and rejects it when nothing is left.
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", shared.InvalidName("name must not be blank")
	}
	return name, nil
}

func checkAge(age int) error {
	if age < MinAge || age > MaxAge {
		return shared.InvalidAge(age, MinAge, MaxAge)
	}
	return nil
}

func nameTaken(entity shared.Entity, name string) error {
	return shared.BusinessRule(string(entity)+" name already exists").
		WithDetail("name", name)
}
