package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestao-escolar/school-hub/internal/domain/class"
	"github.com/gestao-escolar/school-hub/internal/domain/shared"
	"github.com/gestao-escolar/school-hub/internal/domain/student"
)

func TestClassService_CreateGetRoundTrip(t *testing.T) {
	e := newEnv(t)

	created, err := e.svc.Classes.Create(e.ctx, " 1A ")
	require.NoError(t, err)
	assert.Equal(t, "1A", created.Name)
	assert.NotZero(t, created.ID)

	got, err := e.svc.Classes.Get(e.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestClassService_UniqueName(t *testing.T) {
	e := newEnv(t)

	a, err := e.svc.Classes.Create(e.ctx, "A")
	require.NoError(t, err)
	b, err := e.svc.Classes.Create(e.ctx, "B")
	require.NoError(t, err)

	_, err = e.svc.Classes.Create(e.ctx, "A")
	fail := requireKind(t, err, shared.KindBusinessRule)
	assert.Equal(t, "A", fail.Details["name"])

	_, err = e.svc.Classes.Update(e.ctx, b.ID, "A")
	requireKind(t, err, shared.KindBusinessRule)

	same, err := e.svc.Classes.Update(e.ctx, a.ID, "A")
	require.NoError(t, err)
	assert.Equal(t, a, same)
}

func TestClassService_NotFound(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.Classes.Get(e.ctx, 42)
	fail := requireKind(t, err, shared.KindNotFound)
	assert.Equal(t, shared.EntityClass, fail.Entity)
	assert.Equal(t, int64(42), fail.ID)

	_, err = e.svc.Classes.Update(e.ctx, 42, "X")
	requireKind(t, err, shared.KindNotFound)

	requireKind(t, e.svc.Classes.Delete(e.ctx, 42), shared.KindNotFound)

	_, err = e.svc.Classes.ListStudents(e.ctx, 42)
	requireKind(t, err, shared.KindNotFound)
}

func TestClassService_Update(t *testing.T) {
	e := newEnv(t)
	c, err := e.svc.Classes.Create(e.ctx, "A")
	require.NoError(t, err)

	updated, err := e.svc.Classes.Update(e.ctx, c.ID, "A2")
	require.NoError(t, err)
	assert.Equal(t, &class.Class{ID: c.ID, Name: "A2"}, updated)

	_, err = e.svc.Classes.Update(e.ctx, c.ID, "   ")
	requireKind(t, err, shared.KindValidation)

	assert.Equal(t, []shared.EventType{shared.EventClassCreated, shared.EventClassUpdated}, e.events.types())
}

func TestClassService_Delete(t *testing.T) {
	e := newEnv(t)
	empty, err := e.svc.Classes.Create(e.ctx, "Empty")
	require.NoError(t, err)
	busy, err := e.svc.Classes.Create(e.ctx, "Busy")
	require.NoError(t, err)
	_, err = e.svc.Students.Create(e.ctx, student.Student{Name: "X", Age: 12, ClassID: busy.ID})
	require.NoError(t, err)

	require.NoError(t, e.svc.Classes.Delete(e.ctx, empty.ID))
	_, err = e.svc.Classes.Get(e.ctx, empty.ID)
	requireKind(t, err, shared.KindNotFound)

	requireKind(t, e.svc.Classes.Delete(e.ctx, busy.ID), shared.KindIntegrity)
}

func TestClassService_ListWithStudents(t *testing.T) {
	e := newEnv(t)
	a, err := e.svc.Classes.Create(e.ctx, "A")
	require.NoError(t, err)
	b, err := e.svc.Classes.Create(e.ctx, "B")
	require.NoError(t, err)

	x, err := e.svc.Students.Create(e.ctx, student.Student{Name: "X", Age: 12, ClassID: a.ID})
	require.NoError(t, err)
	y, err := e.svc.Students.Create(e.ctx, student.Student{Name: "Y", Age: 13, ClassID: a.ID})
	require.NoError(t, err)

	list, err := e.svc.Classes.ListWithStudents(e.ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, *a, list[0].Class)
	assert.Equal(t, []*student.Student{x, y}, list[0].Students)
	assert.Equal(t, *b, list[1].Class)
	assert.NotNil(t, list[1].Students)
	assert.Empty(t, list[1].Students)

	members, err := e.svc.Classes.ListStudents(e.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []*student.Student{x, y}, members)
}

func TestClassService_RankByScholarshipHolders(t *testing.T) {
	e := newEnv(t)
	a, err := e.svc.Classes.Create(e.ctx, "A")
	require.NoError(t, err)
	b, err := e.svc.Classes.Create(e.ctx, "B")
	require.NoError(t, err)

	for _, st := range []student.Student{
		{Name: "S1", Age: 10, Scholarship: true, ClassID: a.ID},
		{Name: "S2", Age: 10, Scholarship: true, ClassID: a.ID},
		{Name: "S3", Age: 10, ClassID: a.ID},
		{Name: "S4", Age: 10, ClassID: b.ID},
	} {
		_, err := e.svc.Students.Create(e.ctx, st)
		require.NoError(t, err)
	}

	ranking, err := e.svc.Classes.RankByScholarshipHolders(e.ctx)
	require.NoError(t, err)
	require.Len(t, ranking, 1)
	assert.Equal(t, a.ID, ranking[0].ClassID)
	assert.Equal(t, 2, ranking[0].ScholarshipHolders)
}
