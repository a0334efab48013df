package relationship

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestao-escolar/school-hub/internal/domain/class"
	"github.com/gestao-escolar/school-hub/internal/domain/report"
	"github.com/gestao-escolar/school-hub/internal/domain/shared"
	"github.com/gestao-escolar/school-hub/internal/domain/student"
	"github.com/gestao-escolar/school-hub/internal/domain/subject"
	"github.com/gestao-escolar/school-hub/internal/domain/task"
	"github.com/gestao-escolar/school-hub/internal/infrastructure/persistence/sqlite"
	"github.com/gestao-escolar/school-hub/pkg/logger"
)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *sqlite.Store
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  store,
		engine: NewEngine(store, logger.Nop()),
	}
}

func (f *fixture) class(name string) int64 {
	c, err := f.store.Classes().Create(f.ctx, &class.Class{Name: name})
	require.NoError(f.t, err)
	return c.ID
}

func (f *fixture) subject(name string) int64 {
	s, err := f.store.Subjects().Create(f.ctx, &subject.Subject{Name: name})
	require.NoError(f.t, err)
	return s.ID
}

func (f *fixture) student(name string, classID int64, scholarship bool) int64 {
	s, err := f.store.Students().Create(f.ctx, &student.Student{
		Name: name, Age: 14, Scholarship: scholarship, ClassID: classID,
	})
	require.NoError(f.t, err)
	return s.ID
}

func (f *fixture) task(name string, subjectID, studentID int64, completed bool) {
	_, err := f.store.Tasks().Create(f.ctx, &task.Task{
		Name: name, Completed: completed, SubjectID: subjectID, StudentID: studentID,
	})
	require.NoError(f.t, err)
}

func TestEnroll_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	c := f.class("A")
	st := f.student("X", c, false)
	math := f.subject("Math")

	added, err := f.engine.Enroll(f.ctx, st, math)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = f.engine.Enroll(f.ctx, st, math)
	require.NoError(t, err)
	assert.False(t, added)

	memberships, err := f.store.Students().Memberships(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []student.Membership{{StudentID: st, SubjectID: math}}, memberships)
}

func TestEnroll_MissingReferences(t *testing.T) {
	f := newFixture(t)
	c := f.class("A")
	st := f.student("X", c, false)
	math := f.subject("Math")

	_, err := f.engine.Enroll(f.ctx, 999, math)
	e, ok := shared.AsError(err)
	require.True(t, ok)
	assert.Equal(t, shared.EntityStudent, e.Entity)
	assert.Equal(t, int64(999), e.ID)

	_, err = f.engine.Enroll(f.ctx, st, 888)
	e, ok = shared.AsError(err)
	require.True(t, ok)
	assert.Equal(t, shared.EntitySubject, e.Entity)
}

func TestAssignSubjectsToClass_EveryPairOnce(t *testing.T) {
	f := newFixture(t)
	c := f.class("A")
	other := f.class("B")
	s1 := f.student("S1", c, false)
	s2 := f.student("S2", c, false)
	s3 := f.student("S3", c, false)
	outsider := f.student("O", other, false)
	math := f.subject("Math")
	art := f.subject("Art")

	_, err := f.engine.Enroll(f.ctx, s1, math)
	require.NoError(t, err)

	result, err := f.engine.AssignSubjectsToClass(f.ctx, c, []int64{math, art, math})
	require.NoError(t, err)
	assert.Equal(t, &SubjectAssignment{
		ClassID:          c,
		SubjectsAssigned: 2,
		StudentsAffected: 3,
		MembershipsAdded: 5,
	}, result)

	for _, st := range []int64{s1, s2, s3} {
		ids, err := f.store.Students().SubjectIDs(f.ctx, st)
		require.NoError(t, err)
		assert.Equal(t, []int64{math, art}, ids)
	}

	ids, err := f.store.Students().SubjectIDs(f.ctx, outsider)
	require.NoError(t, err)
	assert.Empty(t, ids)

	again, err := f.engine.AssignSubjectsToClass(f.ctx, c, []int64{math, art})
	require.NoError(t, err)
	assert.Equal(t, 0, again.MembershipsAdded)

	all, err := f.store.Students().Memberships(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestAssignSubjectsToClass_MissingSubjectWritesNothing(t *testing.T) {
	f := newFixture(t)
	c := f.class("A")
	f.student("S1", c, false)
	math := f.subject("Math")

	_, err := f.engine.AssignSubjectsToClass(f.ctx, c, []int64{math, 404})
	require.Error(t, err)
	e, ok := shared.AsError(err)
	require.True(t, ok)
	assert.Equal(t, shared.KindNotFound, e.Kind)
	assert.Equal(t, shared.EntitySubject, e.Entity)
	assert.Equal(t, int64(404), e.ID)

	all, err := f.store.Students().Memberships(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAssignSubjectsToClass_Rejections(t *testing.T) {
	f := newFixture(t)
	empty := f.class("Empty")
	math := f.subject("Math")

	_, err := f.engine.AssignSubjectsToClass(f.ctx, 999, []int64{math})
	assert.True(t, shared.IsNotFound(err))
	e, _ := shared.AsError(err)
	assert.Equal(t, shared.EntityClass, e.Entity)

	_, err = f.engine.AssignSubjectsToClass(f.ctx, empty, []int64{math})
	assert.True(t, shared.IsNotFound(err))
	e, _ = shared.AsError(err)
	assert.Equal(t, shared.EntityStudent, e.Entity)
	assert.Equal(t, empty, e.Details["class_id"])

	_, err = f.engine.AssignSubjectsToClass(f.ctx, empty, nil)
	assert.True(t, shared.IsBusinessRule(err))
}

func TestAssignTaskToClass_NotIdempotent(t *testing.T) {
	f := newFixture(t)
	c := f.class("A")
	s1 := f.student("S1", c, false)
	s2 := f.student("S2", c, false)
	math := f.subject("Math")

	result, err := f.engine.AssignTaskToClass(f.ctx, c, "Essay", math)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TasksCreated)
	require.Len(t, result.Tasks, 2)
	assert.Equal(t, s1, result.Tasks[0].StudentID)
	assert.Equal(t, s2, result.Tasks[1].StudentID)
	assert.False(t, result.Tasks[0].Completed)

	_, err = f.engine.AssignTaskToClass(f.ctx, c, "Essay", math)
	require.NoError(t, err)

	tasks, err := f.store.Tasks().GetByStudentID(f.ctx, s1)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestAssignTaskToClass_MissingSubjectWritesNothing(t *testing.T) {
	f := newFixture(t)
	c := f.class("A")
	f.student("S1", c, false)

	_, err := f.engine.AssignTaskToClass(f.ctx, c, "Essay", 77)
	require.Error(t, err)
	e, _ := shared.AsError(err)
	assert.Equal(t, shared.EntitySubject, e.Entity)

	all, err := f.store.Tasks().GetAll(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAssignTaskToClass_ChecksSubjectBeforeStudents(t *testing.T) {
	f := newFixture(t)
	empty := f.class("Empty")
	math := f.subject("Math")

	_, err := f.engine.AssignTaskToClass(f.ctx, empty, "Essay", 77)
	e, ok := shared.AsError(err)
	require.True(t, ok)
	assert.Equal(t, shared.EntitySubject, e.Entity)

	_, err = f.engine.AssignTaskToClass(f.ctx, empty, "Essay", math)
	e, ok = shared.AsError(err)
	require.True(t, ok)
	assert.Equal(t, shared.KindNotFound, e.Kind)
	assert.Equal(t, shared.EntityStudent, e.Entity)

	_, err = f.engine.AssignTaskToClass(f.ctx, 999, "Essay", math)
	e, ok = shared.AsError(err)
	require.True(t, ok)
	assert.Equal(t, shared.EntityClass, e.Entity)
}

func TestStudentsByPendingTasks_ExcludesStudentsWithoutPendingTasks(t *testing.T) {
	f := newFixture(t)
	c := f.class("A")
	math := f.subject("Math")
	s1 := f.student("S1", c, false)
	f.student("S2", c, false)
	s3 := f.student("S3", c, false)

	f.task("a", math, s1, false)
	f.task("b", math, s1, false)
	f.task("c", math, s1, true)
	f.task("d", math, s3, true)

	ranking, err := f.engine.StudentsByPendingTasks(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []report.StudentPending{{StudentID: s1, Name: "S1", Pending: 2}}, ranking)
}

func TestStudentsByPendingTasks_TiesOrderedByID(t *testing.T) {
	f := newFixture(t)
	c := f.class("A")
	math := f.subject("Math")
	first := f.student("First", c, false)
	second := f.student("Second", c, false)

	f.task("x", math, second, false)
	f.task("y", math, first, false)

	ranking, err := f.engine.StudentsByPendingTasks(f.ctx)
	require.NoError(t, err)
	require.Len(t, ranking, 2)
	assert.Equal(t, first, ranking[0].StudentID)
	assert.Equal(t, second, ranking[1].StudentID)
}

func TestSubjectsByEnrollment(t *testing.T) {
	f := newFixture(t)
	c := f.class("A")
	math := f.subject("Math")
	art := f.subject("Art")
	f.subject("Empty")
	s1 := f.student("S1", c, false)
	s2 := f.student("S2", c, false)

	for _, pair := range [][2]int64{{s1, art}, {s2, art}, {s1, math}} {
		_, err := f.engine.Enroll(f.ctx, pair[0], pair[1])
		require.NoError(t, err)
	}

	ranking, err := f.engine.SubjectsByEnrollment(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []report.SubjectEnrollment{
		{SubjectID: art, Name: "Art", Students: 2},
		{SubjectID: math, Name: "Math", Students: 1},
	}, ranking)
}

func TestClassesByScholarshipHolders(t *testing.T) {
	f := newFixture(t)
	a := f.class("A")
	b := f.class("B")
	f.student("S1", a, true)
	f.student("S2", a, true)
	f.student("S3", a, false)
	f.student("S4", b, false)

	ranking, err := f.engine.ClassesByScholarshipHolders(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []report.ClassScholarship{{ClassID: a, Name: "A", ScholarshipHolders: 2}}, ranking)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, dedupe([]int64{3, 1, 3, 2, 1}))
	assert.Empty(t, dedupe(nil))
}
