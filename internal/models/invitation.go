package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

var (
	ErrInvitationResponded = errors.New("invitation has already been responded to")
	ErrInvitationExpired   = errors.New("invitation has expired")
)

type Invitation struct {
	ID          uint64           `gorm:"primarykey" json:"id"`
	BoardID     uint64           `gorm:"not null;index:idx_invitations_board_invitee" json:"board_id"`
	InviterID   uint64           `gorm:"not null" json:"inviter_id"`
	InviteeID   uint64           `gorm:"not null;index:idx_invitations_board_invitee;index" json:"invitee_id"`
	Email       string           `gorm:"type:varchar(255);not null" json:"email"`
	Role        BoardRole        `gorm:"type:varchar(20);not null" json:"role"`
	Message     string           `gorm:"type:varchar(500)" json:"message"`
	Status      InvitationStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ExpiresAt   time.Time        `gorm:"not null" json:"expires_at"`
	RespondedAt *time.Time       `json:"responded_at"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relations
	Board   Board `gorm:"foreignKey:BoardID" json:"board,omitempty"`
	Inviter User  `gorm:"foreignKey:InviterID" json:"inviter,omitempty"`
	Invitee User  `gorm:"foreignKey:InviteeID" json:"invitee,omitempty"`
}

// NewInvitation builds a pending invitation that expires after ttl.
func NewInvitation(boardID, inviterID, inviteeID uint64, email string, role BoardRole, message string, ttl time.Duration, now time.Time) *Invitation {
	return &Invitation{
		BoardID:   boardID,
		InviterID: inviterID,
		InviteeID: inviteeID,
		Email:     email,
		Role:      role,
		Message:   message,
		Status:    InvitationPending,
		ExpiresAt: now.Add(ttl),
	}
}

func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// IsValid reports whether the invitation can still be accepted.
func (i *Invitation) IsValid(now time.Time) bool {
	return i.Status == InvitationPending && !i.IsExpired(now)
}

// Accept moves a valid invitation to accepted. Adding the invitee to the
// board is the caller's job and must commit together with this change.
func (i *Invitation) Accept(now time.Time) error {
	if i.Status != InvitationPending {
		return ErrInvitationResponded
	}
	if i.IsExpired(now) {
		return ErrInvitationExpired
	}
	i.Status = InvitationAccepted
	i.RespondedAt = &now
	return nil
}

// Decline moves a pending invitation to declined. Expired invitations may
// still be declined.
func (i *Invitation) Decline(now time.Time) error {
	if i.Status != InvitationPending {
		return ErrInvitationResponded
	}
	i.Status = InvitationDeclined
	i.RespondedAt = &now
	return nil
}
