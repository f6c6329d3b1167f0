package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/mini-trello-api/internal/constants"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"github.com/yukikurage/mini-trello-api/internal/repository"
	"github.com/yukikurage/mini-trello-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrInvalidTaskTitle       = errors.New("title must be between 1 and 200 characters")
	ErrTaskDescTooLong        = errors.New("task description must be at most 1000 characters")
	ErrNegativeHours          = errors.New("hours must not be negative")
	ErrInvalidComment         = errors.New("comment must be between 1 and 1000 characters")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
	ErrAITooManyTasks         = errors.New("AI generated too many tasks")
	ErrGenerateTextRequired   = errors.New("text is required")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	generator TaskGenerator
	notifier  notifier
	now       func() time.Time
}

// NewTaskService creates a new TaskService. generator may be nil when no AI
// backend is configured.
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, generator TaskGenerator, publisher EventPublisher, log logrus.FieldLogger) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		generator: generator,
		notifier:  notifier{publisher: publisher, log: log},
		now:       time.Now,
	}
}

// TaskMovedPayload is the data of a task-moved event.
type TaskMovedPayload struct {
	TaskID      uint64                `json:"taskId"`
	CardID      uint64                `json:"cardId"`
	Status      models.WorkflowStatus `json:"status"`
	IsCompleted bool                  `json:"isCompleted"`
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title          string
	Description    string
	Status         *models.WorkflowStatus
	Priority       *models.Priority
	DueDate        *time.Time
	EstimatedHours *float64
	OwnerID        uint64
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	Status         *models.WorkflowStatus
	Priority       *models.Priority
	DueDate        *time.Time
	ClearDueDate   bool
	EstimatedHours *float64
	ActualHours    *float64
	SenderID       string
}

func validateTaskText(title, description *string) error {
	if title != nil {
		*title = utils.SanitizeText(*title)
		if !utils.LengthBetween(*title, 1, constants.MaxTaskTitleLength) {
			return ErrInvalidTaskTitle
		}
	}
	if description != nil {
		*description = utils.SanitizeText(*description)
		if !utils.LengthBetween(*description, 0, constants.MaxTaskDescriptionLength) {
			return ErrTaskDescTooLong
		}
	}
	return nil
}

func validateHours(hours ...*float64) error {
	for _, h := range hours {
		if h != nil && *h < 0 {
			return ErrNegativeHours
		}
	}
	return nil
}

// CreateTask adds a task to card. The task inherits the card's board.
func (s *TaskService) CreateTask(card *models.Card, input CreateTaskInput) (*models.Task, error) {
	if err := validateTaskText(&input.Title, &input.Description); err != nil {
		return nil, err
	}
	if err := validateHours(input.EstimatedHours); err != nil {
		return nil, err
	}

	status := models.StatusBacklog
	if input.Status != nil {
		status = *input.Status
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	priority := models.PriorityMedium
	if input.Priority != nil {
		priority = *input.Priority
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	task := &models.Task{
		Title:          input.Title,
		Description:    input.Description,
		CardID:         card.ID,
		BoardID:        card.BoardID,
		OwnerID:        input.OwnerID,
		Status:         status,
		Priority:       priority,
		DueDate:        input.DueDate,
		EstimatedHours: input.EstimatedHours,
		LastActivity:   s.now(),
		AssignedTo:     []models.TaskAssignment{},
		Comments:       []models.TaskComment{},
	}
	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

func (s *TaskService) ListTasks(card *models.Card) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByCard(card.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// UpdateTask applies input. A status change is announced as task-moved.
// Setting the status directly leaves IsCompleted as it was; Complete and
// Reopen keep the two in step.
func (s *TaskService) UpdateTask(ctx context.Context, task *models.Task, input UpdateTaskInput) (*models.Task, error) {
	if err := validateTaskText(input.Title, input.Description); err != nil {
		return nil, err
	}
	if err := validateHours(input.EstimatedHours, input.ActualHours); err != nil {
		return nil, err
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	moved := input.Status != nil && *input.Status != task.Status

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.EstimatedHours != nil {
		task.EstimatedHours = input.EstimatedHours
	}
	if input.ActualHours != nil {
		task.ActualHours = input.ActualHours
	}
	task.Touch(s.now())

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if moved {
		s.announceMove(ctx, task, input.SenderID)
	}
	return task, nil
}

// CompleteTask marks the task done on behalf of actorID.
func (s *TaskService) CompleteTask(ctx context.Context, task *models.Task, actorID uint64, senderID string) (*models.Task, error) {
	task.Complete(actorID, s.now())
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	s.announceMove(ctx, task, senderID)
	return task, nil
}

// ReopenTask moves the task back to ongoing.
func (s *TaskService) ReopenTask(ctx context.Context, task *models.Task, senderID string) (*models.Task, error) {
	task.Reopen(s.now())
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to reopen task: %w", err)
	}
	s.announceMove(ctx, task, senderID)
	return task, nil
}

func (s *TaskService) announceMove(ctx context.Context, task *models.Task, senderID string) {
	s.notifier.notify(ctx, constants.EventTaskMoved, task.BoardID, TaskMovedPayload{
		TaskID:      task.ID,
		CardID:      task.CardID,
		Status:      task.Status,
		IsCompleted: task.IsCompleted,
	}, senderID)
}

// DeleteTask removes a task with its assignments and comments
func (s *TaskService) DeleteTask(task *models.Task) error {
	if err := s.taskRepo.Delete(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// AssignUser assigns an existing user. Assigning twice is a no-op.
func (s *TaskService) AssignUser(task *models.Task, userID uint64) (*models.Task, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	task.AssignUser(userID, s.now())
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to assign user: %w", err)
	}
	return task, nil
}

func (s *TaskService) UnassignUser(task *models.Task, userID uint64) (*models.Task, error) {
	task.UnassignUser(userID, s.now())
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to unassign user: %w", err)
	}
	return task, nil
}

// AddComment stores a comment by userID on the task.
func (s *TaskService) AddComment(task *models.Task, userID uint64, text string) (*models.TaskComment, error) {
	text = utils.SanitizeText(text)
	if !utils.LengthBetween(text, 1, constants.MaxCommentLength) {
		return nil, ErrInvalidComment
	}

	comment := task.AddComment(userID, text, s.now())
	if err := s.taskRepo.AddComment(task, &comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	task.Comments[len(task.Comments)-1] = comment
	return &comment, nil
}

// GenerateTasksInput represents input for AI task drafting
type GenerateTasksInput struct {
	Text    string
	Create  bool
	OwnerID uint64
}

// GenerateTasks drafts tasks for card from free text. With Create set the
// drafts are stored as backlog tasks owned by the caller.
func (s *TaskService) GenerateTasks(ctx context.Context, card *models.Card, input GenerateTasksInput) ([]GeneratedTask, []*models.Task, error) {
	if s.generator == nil {
		return nil, nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, nil, ErrGenerateTextRequired
	}

	aiTasks, err := s.generator.GenerateTasks(ctx, card.Name, input.Text)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tasks: %w", err)
	}
	if len(aiTasks) == 0 {
		return nil, nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, nil, fmt.Errorf("%w (max %d)", ErrAITooManyTasks, constants.MaxAIGeneratedTasks)
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = utils.SanitizeText(aiTask.Title)
		if !utils.LengthBetween(aiTask.Title, 1, constants.MaxTaskTitleLength) {
			continue
		}
		aiTask.Description = utils.SanitizeText(aiTask.Description)
		if !utils.LengthBetween(aiTask.Description, 0, constants.MaxTaskDescriptionLength) {
			aiTask.Description = string([]rune(aiTask.Description)[:constants.MaxTaskDescriptionLength])
		}
		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.PriorityMedium
		}
		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}
		validTasks = append(validTasks, aiTask)
	}
	if len(validTasks) == 0 {
		return nil, nil, ErrAINoValidTasks
	}
	if !input.Create {
		return validTasks, nil, nil
	}

	now := s.now()
	created := make([]*models.Task, len(validTasks))
	for i, draft := range validTasks {
		created[i] = &models.Task{
			Title:        draft.Title,
			Description:  draft.Description,
			CardID:       card.ID,
			BoardID:      card.BoardID,
			OwnerID:      input.OwnerID,
			Status:       models.StatusBacklog,
			Priority:     draft.Priority,
			DueDate:      draft.DueDate,
			LastActivity: now,
			AssignedTo:   []models.TaskAssignment{},
			Comments:     []models.TaskComment{},
		}
	}
	if err := s.taskRepo.CreateMany(created); err != nil {
		return nil, nil, fmt.Errorf("failed to store generated tasks: %w", err)
	}
	return validTasks, created, nil
}
