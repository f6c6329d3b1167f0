package models

import (
	"time"

	"gorm.io/gorm"
)

type Task struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Title          string         `gorm:"type:varchar(200);not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	CardID         uint64         `gorm:"not null;index" json:"card_id"`
	BoardID        uint64         `gorm:"not null;index" json:"board_id"`
	OwnerID        uint64         `gorm:"not null;index" json:"owner_id"`
	Status         WorkflowStatus `gorm:"type:varchar(20);not null" json:"status"`
	Priority       Priority       `gorm:"type:varchar(20);not null" json:"priority"`
	DueDate        *time.Time     `json:"due_date"`
	EstimatedHours *float64       `json:"estimated_hours"`
	ActualHours    *float64       `json:"actual_hours"`
	IsCompleted    bool           `gorm:"not null" json:"is_completed"`
	CompletedAt    *time.Time     `json:"completed_at"`
	CompletedBy    *uint64        `json:"completed_by"`
	IsArchived     bool           `gorm:"not null" json:"is_archived"`
	LastActivity   time.Time      `json:"last_activity"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owner      User             `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	AssignedTo []TaskAssignment `gorm:"foreignKey:TaskID" json:"assigned_to"`
	Comments   []TaskComment    `gorm:"foreignKey:TaskID" json:"comments"`
}

type TaskComment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;index" json:"task_id"`
	UserID    uint64    `gorm:"not null" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (t *Task) OwnerUserID() uint64 {
	return t.OwnerID
}

func (t *Task) AssigneeUserIDs() []uint64 {
	ids := make([]uint64, len(t.AssignedTo))
	for i, a := range t.AssignedTo {
		ids[i] = a.UserID
	}
	return ids
}

// Complete marks the task done on behalf of actorID.
func (t *Task) Complete(actorID uint64, now time.Time) {
	t.IsCompleted = true
	t.CompletedAt = &now
	t.CompletedBy = &actorID
	t.Status = StatusDone
	t.LastActivity = now
}

// Reopen moves a completed task back to ongoing.
func (t *Task) Reopen(now time.Time) {
	t.IsCompleted = false
	t.CompletedAt = nil
	t.CompletedBy = nil
	t.Status = StatusOngoing
	t.LastActivity = now
}

// AddComment appends a comment by userID.
func (t *Task) AddComment(userID uint64, text string, now time.Time) TaskComment {
	c := TaskComment{TaskID: t.ID, UserID: userID, Text: text, CreatedAt: now}
	t.Comments = append(t.Comments, c)
	t.LastActivity = now
	return c
}

func (t *Task) Touch(now time.Time) {
	t.LastActivity = now
}
