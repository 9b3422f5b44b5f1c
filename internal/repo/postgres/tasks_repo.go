package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bscott89/taskhub/internal/domain/task"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, description, completed, author_id, created_at, updated_at`

// sortColumns maps API sort field names to their columns.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"description": "description",
	"completed":   "completed",
}

type TasksRepo struct {
	pool *pgxpool.Pool
}

func NewTasksRepo(pool *pgxpool.Pool) *TasksRepo {
	return &TasksRepo{pool: pool}
}

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task

	err := row.Scan(
		&t.ID,
		&t.Description,
		&t.Completed,
		&t.AuthorID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}

		return task.Task{}, err
	}

	return t, nil
}

// Create persists a task for the given author. The author always comes
// from the authenticated principal, never from the payload.
func (r *TasksRepo) Create(ctx context.Context, authorID string, req task.CreateTaskRequest) (task.Task, error) {
	now := time.Now().UTC()

	t := task.Task{
		ID:          uuid.NewString(),
		Description: req.Description,
		Completed:   req.Completed,
		AuthorID:    authorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks(id, description, completed, author_id, created_at, updated_at)
		 VALUES($1,$2,$3,$4,$5,$6)`,
		t.ID, t.Description, t.Completed, t.AuthorID, t.CreatedAt, t.UpdatedAt)

	if err != nil {
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, authorID, id string) (task.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return task.Task{}, task.ErrNotFound
	}

	return scanTask(r.pool.QueryRow(
		ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND author_id = $2`,
		id, authorID,
	))
}

func (r *TasksRepo) List(ctx context.Context, authorID string, filter task.ListFilter) ([]task.Task, error) {
	conds := []string{"author_id = $1"}
	args := []interface{}{authorID}

	argsPosition := 2

	if filter.Completed != nil {
		conds = append(conds, fmt.Sprintf("completed = $%d", argsPosition))
		args = append(args, *filter.Completed)
		argsPosition++
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(conds, " AND ")

	// stable ordering: requested field first, id as tie-breaker
	orderCol, ok := sortColumns[filter.SortField]

	if !ok {
		orderCol = "created_at"
	}

	dir := "ASC"

	if filter.SortDesc {
		dir = "DESC"
	}

	query += fmt.Sprintf(" ORDER BY %s %s, id ASC", orderCol, dir)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argsPosition)
		args = append(args, filter.Limit)
		argsPosition++
	}

	if filter.Skip > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argsPosition)
		args = append(args, filter.Skip)
	}

	rows, err := r.pool.Query(ctx, query, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	output := make([]task.Task, 0)

	for rows.Next() {
		var t task.Task

		err = rows.Scan(&t.ID, &t.Description, &t.Completed, &t.AuthorID, &t.CreatedAt, &t.UpdatedAt)

		if err != nil {
			return nil, err
		}

		output = append(output, t)
	}

	err = rows.Err()

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *TasksRepo) Update(ctx context.Context, authorID, id string, req task.UpdateTaskRequest) (task.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return task.Task{}, task.ErrNotFound
	}

	var sets []string
	var args []interface{}

	argsPosition := 1

	if req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argsPosition))
		args = append(args, *req.Description)
		argsPosition++
	}

	if req.Completed != nil {
		sets = append(sets, fmt.Sprintf("completed = $%d", argsPosition))
		args = append(args, *req.Completed)
		argsPosition++
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, authorID, id)
	}

	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(
		`UPDATE tasks SET %s WHERE id = $%d AND author_id = $%d RETURNING `+taskColumns,
		strings.Join(sets, ", "),
		argsPosition,
		argsPosition+1,
	)
	args = append(args, id, authorID)

	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

func (r *TasksRepo) Delete(ctx context.Context, authorID, id string) (task.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return task.Task{}, task.ErrNotFound
	}

	return scanTask(r.pool.QueryRow(
		ctx,
		`DELETE FROM tasks WHERE id = $1 AND author_id = $2 RETURNING `+taskColumns,
		id, authorID,
	))
}
