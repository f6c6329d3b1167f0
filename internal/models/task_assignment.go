package models

import "time"

// TaskAssignment links a user to a task. Like the other member lists it is
// rewritten whole on save.
type TaskAssignment struct {
	ID         uint64    `gorm:"primarykey" json:"-"`
	TaskID     uint64    `gorm:"not null;index:idx_task_assignments_task_user" json:"task_id"`
	UserID     uint64    `gorm:"not null;index:idx_task_assignments_task_user;index" json:"user_id"`
	AssignedAt time.Time `json:"assigned_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
