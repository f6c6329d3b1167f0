package dto

import (
	"time"

	"github.com/yukikurage/mini-trello-api/internal/models"
)

// TaskAssignmentDTO represents a task assignment in API responses
type TaskAssignmentDTO struct {
	UserID     uint64    `json:"user_id"`
	User       *UserDTO  `json:"user,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
}

// CommentDTO represents a task comment
type CommentDTO struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	User      *UserDTO  `json:"user,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64                `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	CardID         uint64                `json:"card_id"`
	BoardID        uint64                `json:"board_id"`
	OwnerID        uint64                `json:"owner_id"`
	Owner          *UserDTO              `json:"owner,omitempty"`
	Status         models.WorkflowStatus `json:"status"`
	Priority       models.Priority       `json:"priority"`
	DueDate        *time.Time            `json:"due_date"`
	EstimatedHours *float64              `json:"estimated_hours"`
	ActualHours    *float64              `json:"actual_hours"`
	IsCompleted    bool                  `json:"is_completed"`
	CompletedAt    *time.Time            `json:"completed_at"`
	CompletedBy    *uint64               `json:"completed_by"`
	IsArchived     bool                  `json:"is_archived"`
	LastActivity   time.Time             `json:"last_activity"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	AssignedTo     []TaskAssignmentDTO   `json:"assigned_to"`
	Comments       []CommentDTO          `json:"comments,omitempty"`
}

// ToCommentDTO converts a TaskComment model to CommentDTO
func ToCommentDTO(comment models.TaskComment) CommentDTO {
	return CommentDTO{
		ID:        comment.ID,
		UserID:    comment.UserID,
		User:      toUserRef(comment.User),
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
	}
}

// ToTaskDTO converts a Task model to TaskDTO. Comments are included when
// they were loaded.
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		CardID:         task.CardID,
		BoardID:        task.BoardID,
		OwnerID:        task.OwnerID,
		Owner:          toUserRef(task.Owner),
		Status:         task.Status,
		Priority:       task.Priority,
		DueDate:        task.DueDate,
		EstimatedHours: task.EstimatedHours,
		ActualHours:    task.ActualHours,
		IsCompleted:    task.IsCompleted,
		CompletedAt:    task.CompletedAt,
		CompletedBy:    task.CompletedBy,
		IsArchived:     task.IsArchived,
		LastActivity:   task.LastActivity,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
		AssignedTo:     make([]TaskAssignmentDTO, len(task.AssignedTo)),
	}
	for i, a := range task.AssignedTo {
		dto.AssignedTo[i] = TaskAssignmentDTO{UserID: a.UserID, User: toUserRef(a.User), AssignedAt: a.AssignedAt}
	}

	if len(task.Comments) > 0 {
		dto.Comments = make([]CommentDTO, len(task.Comments))
		for i, comment := range task.Comments {
			dto.Comments[i] = ToCommentDTO(comment)
		}
	}
	return dto
}

func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = ToTaskDTO(t)
	}
	return dtos
}

// ToTaskDTOPtrs converts freshly created tasks
func ToTaskDTOPtrs(tasks []*models.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = ToTaskDTO(*t)
	}
	return dtos
}
