package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, title, description, state, user_id, created_at, updated_at`

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, prom: prom}
}

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task

	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.State,
		&t.UserID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func (r *TasksRepo) Create(ctx context.Context, userID int64, req task.CreateTaskRequest) (task.Task, error) {
	var t task.Task

	err := r.prom.ObserveDB("tasks.create", func() error {
		var err error
		t, err = scanTask(r.pool.QueryRow(ctx,
			`INSERT INTO tasks (title, description, state, user_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NOW(), NOW())
			RETURNING `+taskColumns,
			req.Title, req.Description, string(req.State), userID,
		))
		return err
	})

	if err != nil {
		return task.Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id int64) (task.Task, error) {
	var t task.Task

	err := r.prom.ObserveDB("tasks.get_by_id", func() error {
		var err error
		t, err = scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (r *TasksRepo) List(ctx context.Context, f task.ListFilter) ([]task.Task, error) {
	conds := []string{"user_id = $1"}
	args := []interface{}{f.UserID}

	argsPosition := 2

	// substring filters are case-insensitive; strpos avoids LIKE escaping
	if f.Title != "" {
		conds = append(conds, fmt.Sprintf("strpos(lower(title), lower($%d)) > 0", argsPosition))
		args = append(args, f.Title)
		argsPosition++
	}

	if f.Description != "" {
		conds = append(conds, fmt.Sprintf("strpos(lower(description), lower($%d)) > 0", argsPosition))
		args = append(args, f.Description)
		argsPosition++
	}

	if f.State != "" {
		conds = append(conds, fmt.Sprintf("state = $%d", argsPosition))
		args = append(args, string(f.State))
		argsPosition++
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(conds, " AND ") +
		fmt.Sprintf(" ORDER BY id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, f.Limit, f.Offset)

	out := make([]task.Task, 0, f.Limit)

	err := r.prom.ObserveDB("tasks.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

func (r *TasksRepo) Update(ctx context.Context, t task.Task) (task.Task, error) {
	var updated task.Task

	err := r.prom.ObserveDB("tasks.update", func() error {
		var err error
		updated, err = scanTask(r.pool.QueryRow(ctx,
			`UPDATE tasks
				SET title = $2,
					description = $3,
					state = $4,
					updated_at = NOW()
			WHERE id = $1
			RETURNING `+taskColumns,
			t.ID, t.Title, t.Description, string(t.State),
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("update task: %w", err)
	}
	return updated, nil
}

func (r *TasksRepo) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := r.prom.ObserveDB("tasks.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return task.ErrNotFound
	}
	return nil
}
