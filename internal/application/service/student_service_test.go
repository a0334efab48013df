package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestao-escolar/school-hub/internal/domain/shared"
	"github.com/gestao-escolar/school-hub/internal/domain/student"
	"github.com/gestao-escolar/school-hub/internal/domain/subject"
	"github.com/gestao-escolar/school-hub/internal/domain/task"
)

func TestStudentService_CreateGetRoundTrip(t *testing.T) {
	e := newEnv(t)
	c, err := e.svc.Classes.Create(e.ctx, "A")
	require.NoError(t, err)

	created, err := e.svc.Students.Create(e.ctx, student.Student{
		ID: 99, Name: "Ana", Age: 15, Scholarship: true, ClassID: c.ID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, int64(99), created.ID)

	got, err := e.svc.Students.Get(e.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, &student.Student{ID: created.ID, Name: "Ana", Age: 15, Scholarship: true, ClassID: c.ID}, got)
}

func TestStudentService_CreateRejections(t *testing.T) {
	e := newEnv(t)
	c, err := e.svc.Classes.Create(e.ctx, "A")
	require.NoError(t, err)

	_, err = e.svc.Students.Create(e.ctx, student.Student{Name: "", Age: 10, ClassID: c.ID})
	requireKind(t, err, shared.KindValidation)

	_, err = e.svc.Students.Create(e.ctx, student.Student{Name: "X", Age: 0, ClassID: c.ID})
	fail := requireKind(t, err, shared.KindValidation)
	assert.Equal(t, "age", fail.Field)

	_, err = e.svc.Students.Create(e.ctx, student.Student{Name: "X", Age: 10, ClassID: 404})
	fail = requireKind(t, err, shared.KindNotFound)
	assert.Equal(t, shared.EntityClass, fail.Entity)

	all, err := e.svc.Students.List(e.ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStudentService_CreateBatch(t *testing.T) {
	e := newEnv(t)
	a, err := e.svc.Classes.Create(e.ctx, "A")
	require.NoError(t, err)
	b, err := e.svc.Classes.Create(e.ctx, "B")
	require.NoError(t, err)

	created, err := e.svc.Students.CreateBatch(e.ctx, []student.Student{
		{Name: "S1", Age: 10, ClassID: a.ID},
		{Name: "S2", Age: 11, ClassID: b.ID},
		{Name: "S3", Age: 12, ClassID: a.ID},
	})
	require.NoError(t, err)
	require.Len(t, created, 3)

	all, err := e.svc.Students.List(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, created, all)

	assert.Equal(t, []shared.EventType{
		shared.EventClassCreated, shared.EventClassCreated, shared.EventStudentBatchCreated,
	}, e.events.types())
}

func TestStudentService_CreateBatchMissingClassPersistsNothing(t *testing.T) {
	e := newEnv(t)
	a, err := e.svc.Classes.Create(e.ctx, "A")
	require.NoError(t, err)

	_, err = e.svc.Students.CreateBatch(e.ctx, []student.Student{
		{Name: "S1", Age: 10, ClassID: a.ID},
		{Name: "S2", Age: 11, ClassID: 404},
		{Name: "S3", Age: 12, ClassID: a.ID},
	})
	fail := requireKind(t, err, shared.KindNotFound)
	assert.Equal(t, shared.EntityClass, fail.Entity)
	assert.Equal(t, int64(404), fail.ID)
	assert.Equal(t, 1, fail.Details["index"])

	all, err := e.svc.Students.List(e.ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStudentService_CreateBatchInvalidRow(t *testing.T) {
	e := newEnv(t)
	a, err := e.svc.Classes.Create(e.ctx, "A")
	require.NoError(t, err)

	_, err = e.svc.Students.CreateBatch(e.ctx, []student.Student{
		{Name: "S1", Age: 10, ClassID: a.ID},
		{Name: "S2", Age: 200, ClassID: a.ID},
	})
	fail := requireKind(t, err, shared.KindValidation)
	assert.Equal(t, 1, fail.Details["index"])

	empty, err := e.svc.Students.CreateBatch(e.ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStudentService_UpdateReplacesEveryField(t *testing.T) {
	e := newEnv(t)
	a, err := e.svc.Classes.Create(e.ctx, "A")
	require.NoError(t, err)
	b, err := e.svc.Classes.Create(e.ctx, "B")
	require.NoError(t, err)
	st, err := e.svc.Students.Create(e.ctx, student.Student{Name: "X", Age: 10, Scholarship: true, ClassID: a.ID})
	require.NoError(t, err)

	updated, err := e.svc.Students.Update(e.ctx, st.ID, student.Student{Name: "Y", Age: 11, ClassID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, &student.Student{ID: st.ID, Name: "Y", Age: 11, Scholarship: false, ClassID: b.ID}, updated)

	_, err = e.svc.Students.Update(e.ctx, st.ID, student.Student{Name: "Y", Age: 11, ClassID: 404})
	fail := requireKind(t, err, shared.KindNotFound)
	assert.Equal(t, shared.EntityClass, fail.Entity)

	_, err = e.svc.Students.Update(e.ctx, 999, student.Student{Name: "Y", Age: 11, ClassID: b.ID})
	fail = requireKind(t, err, shared.KindNotFound)
	assert.Equal(t, shared.EntityStudent, fail.Entity)
}

func TestStudentService_DeleteDoesNotCascade(t *testing.T) {
	e := newEnv(t)
	c, err := e.svc.Classes.Create(e.ctx, "A")
	require.NoError(t, err)
	math, err := e.svc.Subjects.Create(e.ctx, "Math")
	require.NoError(t, err)
	x, err := e.svc.Students.Create(e.ctx, student.Student{Name: "X", Age: 10, ClassID: c.ID})
	require.NoError(t, err)
	_, err = e.svc.Students.Enroll(e.ctx, x.ID, math.ID)
	require.NoError(t, err)
	homework, err := e.svc.Tasks.Create(e.ctx, task.Task{Name: "Homework", SubjectID: math.ID, StudentID: x.ID})
	require.NoError(t, err)

	require.NoError(t, e.svc.Students.Delete(e.ctx, x.ID))

	_, err = e.svc.Students.Get(e.ctx, x.ID)
	requireKind(t, err, shared.KindNotFound)
	requireKind(t, e.svc.Students.Delete(e.ctx, x.ID), shared.KindNotFound)

	kept, err := e.svc.Tasks.Get(e.ctx, homework.ID)
	require.NoError(t, err)
	assert.Equal(t, homework, kept)

	memberships, err := e.store.Students().Memberships(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, []student.Membership{{StudentID: x.ID, SubjectID: math.ID}}, memberships)
}

func TestStudentService_EnrollAndListSubjects(t *testing.T) {
	e := newEnv(t)
	c, err := e.svc.Classes.Create(e.ctx, "A")
	require.NoError(t, err)
	math, err := e.svc.Subjects.Create(e.ctx, "Math")
	require.NoError(t, err)
	art, err := e.svc.Subjects.Create(e.ctx, "Art")
	require.NoError(t, err)
	x, err := e.svc.Students.Create(e.ctx, student.Student{Name: "X", Age: 10, ClassID: c.ID})
	require.NoError(t, err)

	subjects, err := e.svc.Students.ListSubjects(e.ctx, x.ID)
	require.NoError(t, err)
	assert.Empty(t, subjects)

	for _, id := range []int64{art.ID, math.ID, art.ID} {
		_, err := e.svc.Students.Enroll(e.ctx, x.ID, id)
		require.NoError(t, err)
	}

	subjects, err = e.svc.Students.ListSubjects(e.ctx, x.ID)
	require.NoError(t, err)
	assert.Equal(t, []*subject.Subject{math, art}, subjects)

	enrolled := 0
	for _, typ := range e.events.types() {
		if typ == shared.EventStudentEnrolled {
			enrolled++
		}
	}
	assert.Equal(t, 2, enrolled)

	_, err = e.svc.Students.ListSubjects(e.ctx, 999)
	requireKind(t, err, shared.KindNotFound)
}

func TestStudentService_RankByPendingTasks(t *testing.T) {
	e := newEnv(t)
	c, err := e.svc.Classes.Create(e.ctx, "A")
	require.NoError(t, err)
	math, err := e.svc.Subjects.Create(e.ctx, "Math")
	require.NoError(t, err)
	s1, err := e.svc.Students.Create(e.ctx, student.Student{Name: "S1", Age: 10, ClassID: c.ID})
	require.NoError(t, err)
	_, err = e.svc.Students.Create(e.ctx, student.Student{Name: "S2", Age: 10, ClassID: c.ID})
	require.NoError(t, err)

	var done *task.Task
	for _, name := range []string{"a", "b", "c"} {
		done, err = e.svc.Tasks.Create(e.ctx, task.Task{Name: name, SubjectID: math.ID, StudentID: s1.ID})
		require.NoError(t, err)
	}
	_, err = e.svc.Tasks.MarkComplete(e.ctx, done.ID)
	require.NoError(t, err)

	ranking, err := e.svc.Students.RankByPendingTasks(e.ctx)
	require.NoError(t, err)
	require.Len(t, ranking, 1)
	assert.Equal(t, s1.ID, ranking[0].StudentID)
	assert.Equal(t, 2, ranking[0].Pending)
}
