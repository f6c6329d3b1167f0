package dto

import (
	"time"

	"github.com/yukikurage/mini-trello-api/internal/models"
)

// BoardSettingsDTO represents board settings in API responses
type BoardSettingsDTO struct {
	AllowMemberInvite bool                  `json:"allow_member_invite"`
	AllowMemberEdit   bool                  `json:"allow_member_edit"`
	DefaultCardStatus models.WorkflowStatus `json:"default_card_status"`
}

// BoardMemberDTO represents a member in a board
type BoardMemberDTO struct {
	UserID   uint64           `json:"user_id"`
	User     *UserDTO         `json:"user,omitempty"`
	Role     models.BoardRole `json:"role"`
	JoinedAt time.Time        `json:"joined_at"`
}

// BoardDTO represents a board in API responses
type BoardDTO struct {
	ID           uint64           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	OwnerID      uint64           `json:"owner_id"`
	Owner        *UserDTO         `json:"owner,omitempty"`
	Settings     BoardSettingsDTO `json:"settings"`
	IsPublic     bool             `json:"is_public"`
	IsArchived   bool             `json:"is_archived"`
	LastActivity time.Time        `json:"last_activity"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Members      []BoardMemberDTO `json:"members"`
	YourRole     string           `json:"your_role,omitempty"`
}

// RoleOwner is reported as your_role for the board owner
const RoleOwner = "owner"

// ToBoardDTO converts a board as seen by viewerID
func ToBoardDTO(board models.Board, viewerID uint64) BoardDTO {
	dto := BoardDTO{
		ID:          board.ID,
		Name:        board.Name,
		Description: board.Description,
		OwnerID:     board.OwnerID,
		Owner:       toUserRef(board.Owner),
		Settings: BoardSettingsDTO{
			AllowMemberInvite: board.Settings.AllowMemberInvite,
			AllowMemberEdit:   board.Settings.AllowMemberEdit,
			DefaultCardStatus: board.Settings.DefaultCardStatus,
		},
		IsPublic:     board.IsPublic,
		IsArchived:   board.IsArchived,
		LastActivity: board.LastActivity,
		CreatedAt:    board.CreatedAt,
		UpdatedAt:    board.UpdatedAt,
		Members:      make([]BoardMemberDTO, len(board.Members)),
	}
	for i, m := range board.Members {
		dto.Members[i] = BoardMemberDTO{
			UserID:   m.UserID,
			User:     toUserRef(m.User),
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
	}

	if board.OwnerID == viewerID {
		dto.YourRole = RoleOwner
	} else if m, ok := board.Member(viewerID); ok {
		dto.YourRole = string(m.Role)
	}
	return dto
}

func ToBoardDTOs(boards []models.Board, viewerID uint64) []BoardDTO {
	dtos := make([]BoardDTO, len(boards))
	for i, b := range boards {
		dtos[i] = ToBoardDTO(b, viewerID)
	}
	return dtos
}
