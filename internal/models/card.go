package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Card struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Name         string         `gorm:"type:varchar(200);not null" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	BoardID      uint64         `gorm:"not null;index" json:"board_id"`
	OwnerID      uint64         `gorm:"not null;index" json:"owner_id"`
	Status       WorkflowStatus `gorm:"type:varchar(20);not null" json:"status"`
	Priority     Priority       `gorm:"type:varchar(20);not null" json:"priority"`
	DueDate      *time.Time     `json:"due_date"`
	IsArchived   bool           `gorm:"not null" json:"is_archived"`
	LastActivity time.Time      `json:"last_activity"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owner   User         `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []CardMember `gorm:"foreignKey:CardID" json:"members"`
	Labels  []CardLabel  `gorm:"foreignKey:CardID" json:"labels"`
}

type CardMember struct {
	ID         uint64    `gorm:"primarykey" json:"-"`
	CardID     uint64    `gorm:"not null;index:idx_card_members_card_user" json:"card_id"`
	UserID     uint64    `gorm:"not null;index:idx_card_members_card_user;index" json:"user_id"`
	AssignedAt time.Time `json:"assigned_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

type CardLabel struct {
	ID     uint64 `gorm:"primarykey" json:"-"`
	CardID uint64 `gorm:"not null;index" json:"card_id"`
	Name   string `gorm:"type:varchar(20);not null" json:"name"`
	Color  string `gorm:"type:varchar(20);not null" json:"color"`
}

func (c *Card) OwnerUserID() uint64 {
	return c.OwnerID
}

func (c *Card) MemberUserIDs() []uint64 {
	ids := make([]uint64, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.UserID
	}
	return ids
}

// AddLabel appends a label unless one with the same name (ignoring case)
// exists. It reports whether the label was added.
func (c *Card) AddLabel(name, color string, now time.Time) bool {
	for _, l := range c.Labels {
		if strings.EqualFold(l.Name, name) {
			return false
		}
	}
	c.Labels = append(c.Labels, CardLabel{CardID: c.ID, Name: name, Color: color})
	c.LastActivity = now
	return true
}

// RemoveLabel drops every label whose name matches, ignoring case. It
// reports whether anything was removed.
func (c *Card) RemoveLabel(name string, now time.Time) bool {
	kept := c.Labels[:0]
	for _, l := range c.Labels {
		if !strings.EqualFold(l.Name, name) {
			kept = append(kept, l)
		}
	}
	removed := len(kept) != len(c.Labels)
	c.Labels = kept
	if removed {
		c.LastActivity = now
	}
	return removed
}

func (c *Card) Touch(now time.Time) {
	c.LastActivity = now
}
