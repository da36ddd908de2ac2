package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskflow/internal/models"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrEmptyTaskTitle
	}

	now := time.Now()
	task := &models.Task{
		UserID:    params.UserID,
		Title:     params.Title,
		Completed: false,
		DueDate:   params.DueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if task.DueDate.IsZero() {
		task.DueDate = models.DefaultDueDate(now)
	}

	const insertTaskQuery = `
INSERT INTO tasks (user_id,
                   title,
                   completed,
                   due_date,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`
	var taskID int64
	err := s.pgPool.QueryRow(
		ctx,
		insertTaskQuery,
		task.UserID,
		task.Title,
		task.Completed,
		task.DueDate,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&taskID)
	if err != nil {
		if isPgError(err, pgerrcode.ForeignKeyViolation) {
			s.logger.Error().
				Str("user_id", task.UserID).
				Msg("profile not found for task")
			return nil, ErrProfileNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	task.ID = strconv.FormatInt(taskID, 10)

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Time("due_date", task.DueDate).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTasksByUserID(ctx context.Context, userID string) ([]*models.Task, error) {
	const selectTasksByUserIDQuery = `
SELECT id,
       title,
       completed,
       due_date,
       created_at,
       updated_at
FROM tasks
WHERE user_id = $1
ORDER BY id
`
	rows, err := s.pgPool.Query(
		ctx,
		selectTasksByUserIDQuery,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks by user id")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		var taskID int64
		task := &models.Task{UserID: userID}
		err = rows.Scan(
			&taskID,
			&task.Title,
			&task.Completed,
			&task.DueDate,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		task.ID = strconv.FormatInt(taskID, 10)
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", userID).
		Msg("selected tasks by user id")
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	if params.Title != nil && strings.TrimSpace(*params.Title) == "" {
		return nil, ErrEmptyTaskTitle
	}

	taskID, err := strconv.ParseInt(params.ID, 10, 64)
	if err != nil {
		s.logger.Error().
			Str("task_id", params.ID).
			Msg("malformed task id")
		return nil, ErrTaskNotFound
	}

	task := &models.Task{
		ID:        params.ID,
		UserID:    params.UserID,
		UpdatedAt: time.Now(),
	}

	const updateTaskQuery = `
UPDATE tasks
SET title = COALESCE($1, title),
    due_date = COALESCE($2, due_date),
    completed = COALESCE($3, completed),
    updated_at = $4
WHERE id = $5 AND user_id = $6
RETURNING title, completed, due_date, created_at
`
	err = s.pgPool.QueryRow(
		ctx,
		updateTaskQuery,
		params.Title,
		params.DueDate,
		params.Completed,
		task.UpdatedAt,
		taskID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Completed,
		&task.DueDate,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("task_id", task.ID).
				Str("user_id", task.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Bool("completed", task.Completed).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, params DeleteTaskParams) error {
	taskID, err := strconv.ParseInt(params.ID, 10, 64)
	if err != nil {
		s.logger.Error().
			Str("task_id", params.ID).
			Msg("malformed task id")
		return ErrTaskNotFound
	}

	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND user_id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		taskID,
		params.UserID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", params.ID).
			Msg("failed to delete task")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Error().
			Str("task_id", params.ID).
			Str("user_id", params.UserID).
			Msg("task not found")
		return ErrTaskNotFound
	}

	s.logger.Info().
		Str("task_id", params.ID).
		Str("user_id", params.UserID).
		Msg("deleted task")
	return nil
}
