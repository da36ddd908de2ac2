package remote

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/adanyl0v/taskflow/internal/models"
)

// SelectTasks returns the user's tasks in insertion order.
func (c *Client) SelectTasks(ctx context.Context, userID string) ([]models.Task, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var rows []taskRow
	err = c.do(ctx, http.MethodGet, "/tasks", url.Values{"user_id": {userID}}, token, nil, &rows)
	if err != nil {
		return nil, err
	}

	tasks := make([]models.Task, len(rows))
	for i, row := range rows {
		tasks[i] = taskFromRow(row)
	}
	return tasks, nil
}

// InsertTask returns the row as stored, with the id and defaults assigned
// by the service.
func (c *Client) InsertTask(ctx context.Context, task models.Task) (models.Task, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return models.Task{}, err
	}

	var row taskRow
	err = c.do(ctx, http.MethodPost, "/tasks", nil, token, insertRowFromTask(task), &row)
	if err != nil {
		return models.Task{}, err
	}
	return taskFromRow(row), nil
}

func (c *Client) UpdateTaskCompleted(ctx context.Context, id string, completed bool) (models.Task, error) {
	return c.updateTask(ctx, id, updateTaskRow{Completed: &completed})
}

func (c *Client) UpdateTask(ctx context.Context, id, title string, dueDate time.Time) (models.Task, error) {
	return c.updateTask(ctx, id, updateTaskRow{Title: &title, DueDate: &dueDate})
}

func (c *Client) updateTask(ctx context.Context, id string, patch updateTaskRow) (models.Task, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return models.Task{}, err
	}

	var row taskRow
	err = c.do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), nil, token, patch, &row)
	if err != nil {
		return models.Task{}, err
	}
	return taskFromRow(row), nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, token, nil, nil)
}

// SelectProfile fails with a not_found Error when the user has no profile
// row yet.
func (c *Client) SelectProfile(ctx context.Context, userID string) (models.User, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return models.User{}, err
	}

	var row profileRow
	err = c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, token, nil, &row)
	if err != nil {
		return models.User{}, err
	}
	return profileFromRow(row), nil
}

func (c *Client) InsertProfile(ctx context.Context, user models.User) (models.User, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return models.User{}, err
	}

	var row profileRow
	err = c.do(ctx, http.MethodPost, "/users", nil, token, rowFromProfile(user), &row)
	if err != nil {
		return models.User{}, err
	}
	return profileFromRow(row), nil
}
