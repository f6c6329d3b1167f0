package models

import (
	"time"

	"gorm.io/gorm"
)

// BoardRole is the role a member holds on a board. Board owners are not
// represented by a role; ownership is Board.OwnerID.
type BoardRole string

const (
	BoardRoleAdmin  BoardRole = "admin"
	BoardRoleMember BoardRole = "member"
	BoardRoleViewer BoardRole = "viewer"
)

// Valid reports whether r is a known role.
func (r BoardRole) Valid() bool {
	switch r {
	case BoardRoleAdmin, BoardRoleMember, BoardRoleViewer:
		return true
	}
	return false
}

// CanEdit reports whether the role may edit a board that allows member edits.
func (r BoardRole) CanEdit() bool {
	return r == BoardRoleAdmin || r == BoardRoleMember
}

type BoardSettings struct {
	AllowMemberInvite bool           `gorm:"not null" json:"allow_member_invite"`
	AllowMemberEdit   bool           `gorm:"not null" json:"allow_member_edit"`
	DefaultCardStatus WorkflowStatus `gorm:"type:varchar(20);not null" json:"default_card_status"`
}

// DefaultBoardSettings returns the settings a new board starts with.
func DefaultBoardSettings() BoardSettings {
	return BoardSettings{
		AllowMemberInvite: true,
		AllowMemberEdit:   true,
		DefaultCardStatus: StatusBacklog,
	}
}

type Board struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Name         string         `gorm:"type:varchar(100);not null" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	OwnerID      uint64         `gorm:"not null;index" json:"owner_id"`
	Settings     BoardSettings  `gorm:"embedded;embeddedPrefix:setting_" json:"settings"`
	IsPublic     bool           `gorm:"not null" json:"is_public"`
	IsArchived   bool           `gorm:"not null;index" json:"is_archived"`
	LastActivity time.Time      `json:"last_activity"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owner   User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []BoardMember `gorm:"foreignKey:BoardID" json:"members"`
}

// BoardMember is one entry of a board's member list. Rows are replaced as a
// whole when the board is saved, so they carry no soft-delete column.
type BoardMember struct {
	ID       uint64    `gorm:"primarykey" json:"-"`
	BoardID  uint64    `gorm:"not null;index:idx_board_members_board_user" json:"board_id"`
	UserID   uint64    `gorm:"not null;index:idx_board_members_board_user;index" json:"user_id"`
	Role     BoardRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (b *Board) OwnerUserID() uint64 {
	return b.OwnerID
}

func (b *Board) MemberUserIDs() []uint64 {
	ids := make([]uint64, len(b.Members))
	for i, m := range b.Members {
		ids[i] = m.UserID
	}
	return ids
}

// Member returns the membership entry for userID, if any.
func (b *Board) Member(userID uint64) (BoardMember, bool) {
	for _, m := range b.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return BoardMember{}, false
}

// Touch records activity on the board.
func (b *Board) Touch(now time.Time) {
	b.LastActivity = now
}
