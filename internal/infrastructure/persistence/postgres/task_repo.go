package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/gestao-escolar/school-hub/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const taskColumns = `id, name, completed, subject_id, student_id`

// TaskRepository implements task.Repository for PostgreSQL.
type TaskRepository struct {
	q Querier
}

// NewTaskRepository creates a TaskRepository bound to q.
func NewTaskRepository(q Querier) *TaskRepository {
	return &TaskRepository{q: q}
}

// Create inserts a task and returns it with its generated ID.
func (r *TaskRepository) Create(ctx context.Context, t *task.Task) (*task.Task, error) {
	out := *t
	err := r.q.QueryRow(ctx, `
		INSERT INTO tasks (name, completed, subject_id, student_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, t.Name, t.Completed, t.SubjectID, t.StudentID).Scan(&out.ID)
	if err != nil {
		return nil, classifyError("create task", err)
	}
	return &out, nil
}

// GetByID returns a task by ID, or nil if absent.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	row := r.q.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	var t task.Task
	if err := row.Scan(&t.ID, &t.Name, &t.Completed, &t.SubjectID, &t.StudentID); err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, classifyError("get task", err)
	}
	return &t, nil
}

// GetAll returns every task ordered by ID.
func (r *TaskRepository) GetAll(ctx context.Context) ([]*task.Task, error) {
	return r.list(ctx, "list tasks", `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
}

// GetByStudentID returns every task of a student ordered by ID.
func (r *TaskRepository) GetByStudentID(ctx context.Context, studentID int64) ([]*task.Task, error) {
	return r.list(ctx, "list tasks by student",
		`SELECT `+taskColumns+` FROM tasks WHERE student_id = $1 ORDER BY id`, studentID)
}

// GetPendingByStudentID returns the incomplete tasks of a student.
func (r *TaskRepository) GetPendingByStudentID(ctx context.Context, studentID int64) ([]*task.Task, error) {
	return r.list(ctx, "list pending tasks",
		`SELECT `+taskColumns+` FROM tasks WHERE student_id = $1 AND NOT completed ORDER BY id`, studentID)
}

// GetByStudentIDWithSubject returns the tasks of a student with their subject name.
func (r *TaskRepository) GetByStudentIDWithSubject(ctx context.Context, studentID int64) ([]*task.WithSubject, error) {
	rows, err := r.q.Query(ctx, `
		SELECT t.id, t.name, t.completed, s.name
		FROM tasks t
		JOIN subjects s ON s.id = t.subject_id
		WHERE t.student_id = $1
		ORDER BY t.id
	`, studentID)
	if err != nil {
		return nil, classifyError("list tasks with subject", err)
	}
	defer rows.Close()

	out := make([]*task.WithSubject, 0)
	for rows.Next() {
		var t task.WithSubject
		if err := rows.Scan(&t.ID, &t.Name, &t.Completed, &t.SubjectName); err != nil {
			return nil, classifyError("scan task with subject", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("list tasks with subject", err)
	}
	return out, nil
}

// Update applies the patch and returns the updated task, or nil if absent.
func (r *TaskRepository) Update(ctx context.Context, id int64, p task.Patch) (*task.Task, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE tasks SET
			name = COALESCE($2, name),
			completed = COALESCE($3, completed),
			subject_id = COALESCE($4, subject_id),
			student_id = COALESCE($5, student_id)
		WHERE id = $1
		RETURNING `+taskColumns,
		id, p.Name, p.Completed, p.SubjectID, p.StudentID,
	)
	var t task.Task
	if err := row.Scan(&t.ID, &t.Name, &t.Completed, &t.SubjectID, &t.StudentID); err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, classifyError("update task", err)
	}
	return &t, nil
}

// Delete removes a task. It reports false when nothing was deleted.
func (r *TaskRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return false, classifyError("delete task", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TaskRepository) list(ctx context.Context, op, query string, args ...any) ([]*task.Task, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError(op, err)
	}

	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*task.Task, error) {
		var t task.Task
		err := row.Scan(&t.ID, &t.Name, &t.Completed, &t.SubjectID, &t.StudentID)
		return &t, err
	})
	if err != nil {
		return nil, classifyError(op, err)
	}
	return tasks, nil
}
