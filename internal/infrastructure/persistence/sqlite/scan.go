package sqlite

import (
	"context"
	"database/sql"
	"errors"
)

// scanOne scans a single row into a new T. A missing row yields nil, nil.
func scanOne[T any](row *sql.Row, op string, dest func(*T) []any) (*T, error) {
	var v T
	if err := row.Scan(dest(&v)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classifyError(op, err)
	}
	return &v, nil
}

// queryAll runs query and scans every row into a new T.
func queryAll[T any](ctx context.Context, q querier, op string, dest func(*T) []any, query string, args ...any) ([]*T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(op, err)
	}
	defer rows.Close()

	out := make([]*T, 0)
	for rows.Next() {
		var v T
		if err := rows.Scan(dest(&v)...); err != nil {
			return nil, classifyError(op, err)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(op, err)
	}
	return out, nil
}

func execDelete(ctx context.Context, q querier, op, query string, id int64) (bool, error) {
	res, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return false, classifyError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classifyError(op, err)
	}
	return n > 0, nil
}

func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	marks := make([]byte, 0, len(ids)*2)
	for i, id := range ids {
		if i > 0 {
			marks = append(marks, ',')
		}
		marks = append(marks, '?')
		args[i] = id
	}
	return string(marks), args
}
