package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/mini-trello-api/internal/dto"
	apierrors "github.com/yukikurage/mini-trello-api/internal/errors"
	"github.com/yukikurage/mini-trello-api/internal/middleware"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"github.com/yukikurage/mini-trello-api/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// taskFromContext returns the task loaded by RequireTaskEditor.
func taskFromContext(c *gin.Context) (*models.Task, bool) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return nil, false
	}
	return task, true
}

// ListTasks returns the unarchived tasks of the card in :cardId
func (h *TaskHandler) ListTasks(c *gin.Context) {
	card, ok := cardFromContext(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListTasks(card)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": dto.ToTaskDTOs(tasks)})
}

// GetTask returns a specific task by ID
// Task is already loaded with relations by RequireTaskEditor middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := taskFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task in the card
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	card, ok := cardFromContext(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title          string                 `json:"title" binding:"required"`
		Description    string                 `json:"description"`
		Status         *models.WorkflowStatus `json:"status"`
		Priority       *models.Priority       `json:"priority"`
		DueDate        *time.Time             `json:"due_date"`
		EstimatedHours *float64               `json:"estimated_hours"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(card, services.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		OwnerID:        userID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask updates an existing task. A status change is announced as
// task-moved.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := taskFromContext(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title          *string                `json:"title"`
		Description    *string                `json:"description"`
		Status         *models.WorkflowStatus `json:"status"`
		Priority       *models.Priority       `json:"priority"`
		DueDate        *time.Time             `json:"due_date"`
		ClearDueDate   bool                   `json:"clear_due_date"`
		EstimatedHours *float64               `json:"estimated_hours"`
		ActualHours    *float64               `json:"actual_hours"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.UpdateTask(c.Request.Context(), task, services.UpdateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		DueDate:        req.DueDate,
		ClearDueDate:   req.ClearDueDate,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		SenderID:       senderID(c),
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

func (h *TaskHandler) CompleteTask(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	task, ok := taskFromContext(c)
	if !ok {
		return
	}

	updated, err := h.taskService.CompleteTask(c.Request.Context(), task, userID, senderID(c))
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

func (h *TaskHandler) ReopenTask(c *gin.Context) {
	task, ok := taskFromContext(c)
	if !ok {
		return
	}

	updated, err := h.taskService.ReopenTask(c.Request.Context(), task, senderID(c))
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := taskFromContext(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(task); err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// AssignTask assigns a user to a task
func (h *TaskHandler) AssignTask(c *gin.Context) {
	task, ok := taskFromContext(c)
	if !ok {
		return
	}

	type AssignRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.AssignUser(task, req.UserID)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// UnassignTask removes a user assignment from a task
func (h *TaskHandler) UnassignTask(c *gin.Context) {
	task, ok := taskFromContext(c)
	if !ok {
		return
	}
	userID, ok := uintParam(c, "userId", "user ID")
	if !ok {
		return
	}

	updated, err := h.taskService.UnassignUser(task, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

func (h *TaskHandler) AddComment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	task, ok := taskFromContext(c)
	if !ok {
		return
	}

	type CommentRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.taskService.AddComment(task, userID, req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// GenerateTasks drafts tasks for the card from text using AI. With create
// set the drafts are stored as well.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	card, ok := cardFromContext(c)
	if !ok {
		return
	}

	type GenerateTasksRequest struct {
		Text   string `json:"text" binding:"required"`
		Create bool   `json:"create"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, created, err := h.taskService.GenerateTasks(c.Request.Context(), card, services.GenerateTasksInput{
		Text:    req.Text,
		Create:  req.Create,
		OwnerID: userID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	if !req.Create {
		c.JSON(http.StatusOK, gin.H{"tasks": drafts})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"tasks":   drafts,
		"created": dto.ToTaskDTOPtrs(created),
	})
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidTaskTitle),
		errors.Is(err, services.ErrTaskDescTooLong),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrNegativeHours),
		errors.Is(err, services.ErrInvalidComment),
		errors.Is(err, services.ErrGenerateTextRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks),
		errors.Is(err, services.ErrAITooManyTasks):
		apierrors.RespondWithError(c, http.StatusUnprocessableEntity, apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, err.Error()))
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
