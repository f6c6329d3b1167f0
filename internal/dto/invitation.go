package dto

import (
	"time"

	"github.com/yukikurage/mini-trello-api/internal/models"
)

// BoardRefDTO names the board an invitation is for
type BoardRefDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// InvitationDTO represents an invitation in API responses
type InvitationDTO struct {
	ID          uint64                  `json:"id"`
	BoardID     uint64                  `json:"board_id"`
	Board       *BoardRefDTO            `json:"board,omitempty"`
	InviterID   uint64                  `json:"inviter_id"`
	Inviter     *UserDTO                `json:"inviter,omitempty"`
	InviteeID   uint64                  `json:"invitee_id"`
	Invitee     *UserDTO                `json:"invitee,omitempty"`
	Email       string                  `json:"email"`
	Role        models.BoardRole        `json:"role"`
	Message     string                  `json:"message,omitempty"`
	Status      models.InvitationStatus `json:"status"`
	ExpiresAt   time.Time               `json:"expires_at"`
	RespondedAt *time.Time              `json:"responded_at"`
	CreatedAt   time.Time               `json:"created_at"`
}

// ToInvitationDTO converts an Invitation model to InvitationDTO
func ToInvitationDTO(inv models.Invitation) InvitationDTO {
	dto := InvitationDTO{
		ID:          inv.ID,
		BoardID:     inv.BoardID,
		InviterID:   inv.InviterID,
		Inviter:     toUserRef(inv.Inviter),
		InviteeID:   inv.InviteeID,
		Invitee:     toUserRef(inv.Invitee),
		Email:       inv.Email,
		Role:        inv.Role,
		Message:     inv.Message,
		Status:      inv.Status,
		ExpiresAt:   inv.ExpiresAt,
		RespondedAt: inv.RespondedAt,
		CreatedAt:   inv.CreatedAt,
	}
	if inv.Board.ID != 0 {
		dto.Board = &BoardRefDTO{ID: inv.Board.ID, Name: inv.Board.Name}
	}
	return dto
}

func ToInvitationDTOs(invitations []models.Invitation) []InvitationDTO {
	dtos := make([]InvitationDTO, len(invitations))
	for i, inv := range invitations {
		dtos[i] = ToInvitationDTO(inv)
	}
	return dtos
}
