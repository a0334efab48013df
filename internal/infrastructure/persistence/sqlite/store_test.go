package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestao-escolar/school-hub/internal/domain/class"
	"github.com/gestao-escolar/school-hub/internal/domain/report"
	"github.com/gestao-escolar/school-hub/internal/domain/school"
	"github.com/gestao-escolar/school-hub/internal/domain/shared"
	"github.com/gestao-escolar/school-hub/internal/domain/student"
	"github.com/gestao-escolar/school-hub/internal/domain/subject"
	"github.com/gestao-escolar/school-hub/internal/domain/task"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustClass(t *testing.T, s *Store, name string) *class.Class {
	t.Helper()
	c, err := s.Classes().Create(context.Background(), &class.Class{Name: name})
	require.NoError(t, err)
	return c
}

func mustSubject(t *testing.T, s *Store, name string) *subject.Subject {
	t.Helper()
	sub, err := s.Subjects().Create(context.Background(), &subject.Subject{Name: name})
	require.NoError(t, err)
	return sub
}

func mustStudent(t *testing.T, s *Store, name string, classID int64, scholarship bool) *student.Student {
	t.Helper()
	st, err := s.Students().Create(context.Background(), &student.Student{
		Name: name, Age: 15, Scholarship: scholarship, ClassID: classID,
	})
	require.NoError(t, err)
	return st
}

func mustTask(t *testing.T, s *Store, name string, subjectID, studentID int64, completed bool) *task.Task {
	t.Helper()
	tk, err := s.Tasks().Create(context.Background(), &task.Task{
		Name: name, Completed: completed, SubjectID: subjectID, StudentID: studentID,
	})
	require.NoError(t, err)
	return tk
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.True(t, shared.IsValidation(err))
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	store := openStore(t)
	require.NoError(t, applyMigrations(context.Background(), store.db))

	var n int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestUpSection(t *testing.T) {
	sql := "-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (id INTEGER);\n", upSection(sql))
	assert.Equal(t, "SELECT 1;", upSection("SELECT 1;"))
}

func TestClassRepository_CRUD(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	c := mustClass(t, store, "1A")
	assert.NotZero(t, c.ID)

	got, err := store.Classes().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	byName, err := store.Classes().GetByName(ctx, "1A")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byName.ID)

	name := "1B"
	updated, err := store.Classes().Update(ctx, c.ID, class.Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "1B", updated.Name)

	unchanged, err := store.Classes().Update(ctx, c.ID, class.Patch{})
	require.NoError(t, err)
	assert.Equal(t, "1B", unchanged.Name)

	missing, err := store.Classes().Update(ctx, 999, class.Patch{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, missing)

	deleted, err := store.Classes().Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Classes().Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	gone, err := store.Classes().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestClassRepository_DuplicateNameIsIntegrityViolation(t *testing.T) {
	store := openStore(t)
	mustClass(t, store, "1A")

	_, err := store.Classes().Create(context.Background(), &class.Class{Name: "1A"})
	require.Error(t, err)
	assert.Equal(t, shared.KindIntegrity, shared.KindOf(err))
	assert.True(t, shared.IsDatabase(err))

	e, _ := shared.AsError(err)
	assert.Equal(t, "classes.name", e.Details["constraint"])
}

func TestConstraintName(t *testing.T) {
	tests := map[string]string{
		"constraint failed: UNIQUE constraint failed: classes.name (2067)": "classes.name",
		"constraint failed: FOREIGN KEY constraint failed (787)":           "foreign_key",
		"FOREIGN KEY constraint failed":                                    "foreign_key",
		"NOT NULL constraint failed: students.name":                        "students.name",
		"disk I/O error": "",
	}
	for msg, want := range tests {
		assert.Equal(t, want, constraintName(errors.New(msg)), msg)
	}
}

func TestStudentRepository_ForeignKeyOnClass(t *testing.T) {
	store := openStore(t)

	_, err := store.Students().Create(context.Background(), &student.Student{Name: "Ana", Age: 15, ClassID: 42})
	require.Error(t, err)
	assert.Equal(t, shared.KindIntegrity, shared.KindOf(err))

	e, _ := shared.AsError(err)
	assert.Equal(t, "foreign_key", e.Details["constraint"])
}

// Student references on tasks and memberships are not enforced by storage so
// that deleting a student never fails on them; the services check them.
func TestStudentReferencesAreNotForeignKeys(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	math := mustSubject(t, store, "Math")

	tk, err := store.Tasks().Create(ctx, &task.Task{Name: "Essay", SubjectID: math.ID, StudentID: 999})
	require.NoError(t, err)
	assert.Equal(t, int64(999), tk.StudentID)

	added, err := store.Students().AddSubject(ctx, 999, math.ID)
	require.NoError(t, err)
	assert.True(t, added)

	_, err = store.Tasks().Create(ctx, &task.Task{Name: "Essay", SubjectID: 404, StudentID: 999})
	assert.Equal(t, shared.KindIntegrity, shared.KindOf(err))
}

func TestStudentRepository_DeleteOrphanMemberships(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	c := mustClass(t, store, "1A")
	math := mustSubject(t, store, "Math")
	art := mustSubject(t, store, "Art")
	ana := mustStudent(t, store, "Ana", c.ID, false)
	bia := mustStudent(t, store, "Bia", c.ID, false)
	for _, m := range []student.Membership{
		{StudentID: ana.ID, SubjectID: math.ID},
		{StudentID: ana.ID, SubjectID: art.ID},
		{StudentID: bia.ID, SubjectID: math.ID},
	} {
		_, err := store.Students().AddSubject(ctx, m.StudentID, m.SubjectID)
		require.NoError(t, err)
	}
	_, err := store.Students().Delete(ctx, ana.ID)
	require.NoError(t, err)

	n, err := store.Students().DeleteOrphanMemberships(ctx, math.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	all, err := store.Students().Memberships(ctx)
	require.NoError(t, err)
	assert.Equal(t, []student.Membership{
		{StudentID: ana.ID, SubjectID: art.ID},
		{StudentID: bia.ID, SubjectID: math.ID},
	}, all)
}

func TestStudentRepository_UpdateAndScholarship(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	c := mustClass(t, store, "1A")
	st := mustStudent(t, store, "Ana", c.ID, false)

	yes := true
	age := 16
	updated, err := store.Students().Update(ctx, st.ID, student.Patch{Scholarship: &yes, Age: &age})
	require.NoError(t, err)
	assert.True(t, updated.Scholarship)
	assert.Equal(t, 16, updated.Age)
	assert.Equal(t, "Ana", updated.Name)
}

func TestStudentRepository_Memberships(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	c := mustClass(t, store, "1A")
	math := mustSubject(t, store, "Math")
	art := mustSubject(t, store, "Art")
	ana := mustStudent(t, store, "Ana", c.ID, false)

	added, err := store.Students().AddSubject(ctx, ana.ID, art.ID)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = store.Students().AddSubject(ctx, ana.ID, math.ID)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = store.Students().AddSubject(ctx, ana.ID, math.ID)
	require.NoError(t, err)
	assert.False(t, added)

	ids, err := store.Students().SubjectIDs(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{math.ID, art.ID}, ids)

	enrolled, err := store.Students().GetBySubjectID(ctx, math.ID)
	require.NoError(t, err)
	require.Len(t, enrolled, 1)
	assert.Equal(t, ana.ID, enrolled[0].ID)

	all, err := store.Students().Memberships(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = store.Students().AddSubject(ctx, ana.ID, 999)
	assert.Equal(t, shared.KindIntegrity, shared.KindOf(err))
}

func TestStudentRepository_DeleteKeepsTasksAndMemberships(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	c := mustClass(t, store, "1A")
	math := mustSubject(t, store, "Math")
	ana := mustStudent(t, store, "Ana", c.ID, false)
	mustTask(t, store, "Homework", math.ID, ana.ID, false)
	_, err := store.Students().AddSubject(ctx, ana.ID, math.ID)
	require.NoError(t, err)

	deleted, err := store.Students().Delete(ctx, ana.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	tasks, err := store.Tasks().GetByStudentID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	ids, err := store.Students().SubjectIDs(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{math.ID}, ids)
}

func TestSubjectRepository_GetByIDsSkipsUnknown(t *testing.T) {
	store := openStore(t)
	math := mustSubject(t, store, "Math")
	art := mustSubject(t, store, "Art")

	got, err := store.Subjects().GetByIDs(context.Background(), []int64{art.ID, 999, math.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, math.ID, got[0].ID)
	assert.Equal(t, art.ID, got[1].ID)

	empty, err := store.Subjects().GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTaskRepository_Queries(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	c := mustClass(t, store, "1A")
	math := mustSubject(t, store, "Math")
	ana := mustStudent(t, store, "Ana", c.ID, false)
	open := mustTask(t, store, "Open", math.ID, ana.ID, false)
	mustTask(t, store, "Done", math.ID, ana.ID, true)

	pending, err := store.Tasks().GetPendingByStudentID(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, open.ID, pending[0].ID)

	withSubject, err := store.Tasks().GetByStudentIDWithSubject(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, withSubject, 2)
	assert.Equal(t, "Math", withSubject[0].SubjectName)
	assert.True(t, withSubject[1].Completed)

	done, err := store.Tasks().Update(ctx, open.ID, task.Complete())
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Equal(t, "Open", done.Name)

	_, err = store.Tasks().Create(ctx, &task.Task{Name: "Orphan", SubjectID: 999, StudentID: ana.ID})
	assert.Equal(t, shared.KindIntegrity, shared.KindOf(err))
}

func TestReportRepository_Rankings(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	a := mustClass(t, store, "A")
	b := mustClass(t, store, "B")
	math := mustSubject(t, store, "Math")
	art := mustSubject(t, store, "Art")

	s1 := mustStudent(t, store, "S1", a.ID, true)
	s2 := mustStudent(t, store, "S2", a.ID, true)
	s3 := mustStudent(t, store, "S3", b.ID, true)
	s4 := mustStudent(t, store, "S4", b.ID, false)

	mustTask(t, store, "t1", math.ID, s2.ID, false)
	mustTask(t, store, "t2", math.ID, s2.ID, false)
	mustTask(t, store, "t3", math.ID, s1.ID, false)
	mustTask(t, store, "t4", math.ID, s3.ID, false)
	mustTask(t, store, "t5", math.ID, s4.ID, true)

	for _, m := range []student.Membership{
		{StudentID: s1.ID, SubjectID: art.ID},
		{StudentID: s2.ID, SubjectID: art.ID},
		{StudentID: s1.ID, SubjectID: math.ID},
		{StudentID: s3.ID, SubjectID: math.ID},
	} {
		_, err := store.Students().AddSubject(ctx, m.StudentID, m.SubjectID)
		require.NoError(t, err)
	}

	pending, err := store.Reports().StudentsByPendingTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []report.StudentPending{
		{StudentID: s2.ID, Name: "S2", Pending: 2},
		{StudentID: s1.ID, Name: "S1", Pending: 1},
		{StudentID: s3.ID, Name: "S3", Pending: 1},
	}, pending)

	enrollment, err := store.Reports().SubjectsByEnrollment(ctx)
	require.NoError(t, err)
	assert.Equal(t, []report.SubjectEnrollment{
		{SubjectID: math.ID, Name: "Math", Students: 2},
		{SubjectID: art.ID, Name: "Art", Students: 2},
	}, enrollment)

	scholarship, err := store.Reports().ClassesByScholarshipHolders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []report.ClassScholarship{
		{ClassID: a.ID, Name: "A", ScholarshipHolders: 2},
		{ClassID: b.ID, Name: "B", ScholarshipHolders: 1},
	}, scholarship)
}

func TestReportRepository_EmptyStore(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	pending, err := store.Reports().StudentsByPendingTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	enrollment, err := store.Reports().SubjectsByEnrollment(ctx)
	require.NoError(t, err)
	assert.Empty(t, enrollment)
}

func TestStore_WithinTx(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	err := store.WithinTx(ctx, func(uow school.UnitOfWork) error {
		_, err := uow.Classes().Create(ctx, &class.Class{Name: "committed"})
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithinTx(ctx, func(uow school.UnitOfWork) error {
		if _, err := uow.Classes().Create(ctx, &class.Class{Name: "rolled back"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := store.Classes().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "committed", all[0].Name)
}

func TestStore_ClosedIsConnectionFailure(t *testing.T) {
	store, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Classes().GetAll(context.Background())
	assert.Equal(t, shared.KindConnection, shared.KindOf(err))
	assert.Equal(t, shared.KindConnection, shared.KindOf(store.Ping(context.Background())))
}
