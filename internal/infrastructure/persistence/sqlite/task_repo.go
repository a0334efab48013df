package sqlite

import (
	"context"

	"github.com/gestao-escolar/school-hub/internal/domain/task"
)

const taskColumns = `id, name, completed, subject_id, student_id`

// TaskRepository implements task.Repository for SQLite.
type TaskRepository struct {
	q querier
}

func taskDest(t *task.Task) []any {
	return []any{&t.ID, &t.Name, &t.Completed, &t.SubjectID, &t.StudentID}
}

// Create inserts a task and returns it with its generated ID.
func (r *TaskRepository) Create(ctx context.Context, t *task.Task) (*task.Task, error) {
	out := *t
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO tasks (name, completed, subject_id, student_id) VALUES (?, ?, ?, ?) RETURNING id`,
		t.Name, boolArg(&t.Completed), t.SubjectID, t.StudentID,
	).Scan(&out.ID)
	if err != nil {
		return nil, classifyError("create task", err)
	}
	return &out, nil
}

// GetByID returns a task by ID, or nil if absent.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	return scanOne(r.q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id),
		"get task", taskDest)
}

// GetAll returns every task ordered by ID.
func (r *TaskRepository) GetAll(ctx context.Context) ([]*task.Task, error) {
	return queryAll(ctx, r.q, "list tasks", taskDest, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
}

// GetByStudentID returns every task of a student ordered by ID.
func (r *TaskRepository) GetByStudentID(ctx context.Context, studentID int64) ([]*task.Task, error) {
	return queryAll(ctx, r.q, "list tasks by student", taskDest,
		`SELECT `+taskColumns+` FROM tasks WHERE student_id = ? ORDER BY id`, studentID)
}

// GetPendingByStudentID returns the incomplete tasks of a student.
func (r *TaskRepository) GetPendingByStudentID(ctx context.Context, studentID int64) ([]*task.Task, error) {
	return queryAll(ctx, r.q, "list pending tasks", taskDest,
		`SELECT `+taskColumns+` FROM tasks WHERE student_id = ? AND completed = 0 ORDER BY id`, studentID)
}

// GetByStudentIDWithSubject returns the tasks of a student with their subject name.
func (r *TaskRepository) GetByStudentIDWithSubject(ctx context.Context, studentID int64) ([]*task.WithSubject, error) {
	return queryAll(ctx, r.q, "list tasks with subject",
		func(t *task.WithSubject) []any { return []any{&t.ID, &t.Name, &t.Completed, &t.SubjectName} }, `
		SELECT t.id, t.name, t.completed, s.name
		FROM tasks t
		JOIN subjects s ON s.id = t.subject_id
		WHERE t.student_id = ?
		ORDER BY t.id
	`, studentID)
}

// Update applies the patch and returns the updated task, or nil if absent.
func (r *TaskRepository) Update(ctx context.Context, id int64, p task.Patch) (*task.Task, error) {
	return scanOne(r.q.QueryRowContext(ctx, `
		UPDATE tasks SET
			name = COALESCE(?, name),
			completed = COALESCE(?, completed),
			subject_id = COALESCE(?, subject_id),
			student_id = COALESCE(?, student_id)
		WHERE id = ?
		RETURNING `+taskColumns,
		p.Name, boolArg(p.Completed), p.SubjectID, p.StudentID, id,
	), "update task", taskDest)
}

// Delete removes a task. It reports false when nothing was deleted.
func (r *TaskRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return execDelete(ctx, r.q, "delete task", `DELETE FROM tasks WHERE id = ?`, id)
}
