package dto

import (
	"time"

	"github.com/yukikurage/mini-trello-api/internal/models"
)

// CardMemberDTO represents a user working on a card
type CardMemberDTO struct {
	UserID     uint64    `json:"user_id"`
	User       *UserDTO  `json:"user,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
}

// LabelDTO represents a card label
type LabelDTO struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CardDTO represents a card in API responses
type CardDTO struct {
	ID           uint64                `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	BoardID      uint64                `json:"board_id"`
	OwnerID      uint64                `json:"owner_id"`
	Owner        *UserDTO              `json:"owner,omitempty"`
	Status       models.WorkflowStatus `json:"status"`
	Priority     models.Priority       `json:"priority"`
	DueDate      *time.Time            `json:"due_date"`
	IsArchived   bool                  `json:"is_archived"`
	LastActivity time.Time             `json:"last_activity"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Members      []CardMemberDTO       `json:"members"`
	Labels       []LabelDTO            `json:"labels"`
}

// ToCardDTO converts a Card model to CardDTO
func ToCardDTO(card models.Card) CardDTO {
	dto := CardDTO{
		ID:           card.ID,
		Name:         card.Name,
		Description:  card.Description,
		BoardID:      card.BoardID,
		OwnerID:      card.OwnerID,
		Owner:        toUserRef(card.Owner),
		Status:       card.Status,
		Priority:     card.Priority,
		DueDate:      card.DueDate,
		IsArchived:   card.IsArchived,
		LastActivity: card.LastActivity,
		CreatedAt:    card.CreatedAt,
		UpdatedAt:    card.UpdatedAt,
		Members:      make([]CardMemberDTO, len(card.Members)),
		Labels:       make([]LabelDTO, len(card.Labels)),
	}
	for i, m := range card.Members {
		dto.Members[i] = CardMemberDTO{UserID: m.UserID, User: toUserRef(m.User), AssignedAt: m.AssignedAt}
	}
	for i, l := range card.Labels {
		dto.Labels[i] = LabelDTO{Name: l.Name, Color: l.Color}
	}
	return dto
}

func ToCardDTOs(cards []models.Card) []CardDTO {
	dtos := make([]CardDTO, len(cards))
	for i, c := range cards {
		dtos[i] = ToCardDTO(c)
	}
	return dtos
}
