package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/taskflow/internal/models"
	"github.com/adanyl0v/taskflow/internal/services"
)

type getTaskResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	DueDate   time.Time `json:"due_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	return getTaskResponse{
		ID:        task.ID,
		UserID:    task.UserID,
		Title:     task.Title,
		Completed: task.Completed,
		DueDate:   task.DueDate,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

type createTaskRequest struct {
	Title   string     `json:"title" binding:"required,max=255"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, ok := h.mustUserID(c)
	if !ok {
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	params := services.CreateTaskParams{
		UserID: userID,
		Title:  req.Title,
	}
	if req.DueDate != nil {
		params.DueDate = *req.DueDate
	}

	task, err := h.tasks.CreateTask(c, params)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	userID, ok := h.mustUserID(c)
	if !ok {
		return
	}

	if requested := c.Query("user_id"); requested != "" && requested != userID {
		h.logger.Error().
			Str("user_id", userID).
			Str("requested_user_id", requested).
			Msg("tasks of another user requested")
		abort(c, newForbiddenError(errForeignUser.Error()))
		return
	}

	tasks, err := h.tasks.GetTasksByUserID(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get tasks")
		abort(c, newInternalError())
		return
	}

	response := make([]getTaskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newGetTaskResponse(task)
	}

	h.logger.Debug().
		Int("count", len(response)).
		Msg("fetched tasks")
	c.JSON(http.StatusOK, response)
}

type updateTaskRequest struct {
	Title     *string    `json:"title,omitempty" binding:"omitempty,max=255"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Completed *bool      `json:"completed,omitempty"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	userID, ok := h.mustUserID(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	if req.Title == nil && req.DueDate == nil && req.Completed == nil {
		h.logger.Warn().Msg("no fields to update")
		abort(c, newBadRequestError(errNoFieldsToUpdate.Error()))
		return
	}

	task, err := h.tasks.UpdateTask(c, services.UpdateTaskParams{
		ID:        c.Param("id"),
		UserID:    userID,
		Title:     req.Title,
		DueDate:   req.DueDate,
		Completed: req.Completed,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update task")
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, ok := h.mustUserID(c)
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, services.DeleteTaskParams{
		ID:     c.Param("id"),
		UserID: userID,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete task")
		h.abortTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) abortTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyTaskTitle):
		abort(c, newBadRequestError(services.ErrEmptyTaskTitle.Error()))
	case errors.Is(err, services.ErrTaskNotFound):
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
	case errors.Is(err, services.ErrProfileNotFound):
		abort(c, newNotFoundError(services.ErrProfileNotFound.Error()))
	default:
		abort(c, newInternalError())
	}
}
