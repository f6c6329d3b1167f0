package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/mini-trello-api/internal/dto"
	apierrors "github.com/yukikurage/mini-trello-api/internal/errors"
	"github.com/yukikurage/mini-trello-api/internal/middleware"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"github.com/yukikurage/mini-trello-api/internal/services"
)

type CardHandler struct {
	cardService *services.CardService
}

func NewCardHandler(cardService *services.CardService) *CardHandler {
	return &CardHandler{cardService: cardService}
}

// cardFromContext returns the card loaded by the access middleware.
func cardFromContext(c *gin.Context) (*models.Card, bool) {
	card, exists := middleware.GetCard(c)
	if !exists {
		apierrors.InternalError(c, "Card not found in context")
		return nil, false
	}
	return card, true
}

// ListCards returns the unarchived cards of the board in :boardId.
func (h *CardHandler) ListCards(c *gin.Context) {
	board, ok := boardFromContext(c)
	if !ok {
		return
	}

	cards, err := h.cardService.ListCards(board)
	if err != nil {
		respondCardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": dto.ToCardDTOs(cards)})
}

func (h *CardHandler) CreateCard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	board, ok := boardFromContext(c)
	if !ok {
		return
	}

	type CreateCardRequest struct {
		Name        string                 `json:"name" binding:"required"`
		Description string                 `json:"description"`
		Status      *models.WorkflowStatus `json:"status"`
		Priority    *models.Priority       `json:"priority"`
		DueDate     *time.Time             `json:"due_date"`
	}

	var req CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	card, err := h.cardService.CreateCard(board, services.CreateCardInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		OwnerID:     userID,
	})
	if err != nil {
		respondCardError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCardDTO(*card))
}

// GetCard returns the card loaded by RequireCardEditor.
func (h *CardHandler) GetCard(c *gin.Context) {
	card, ok := cardFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToCardDTO(*card))
}

// UpdateCard changes card fields and announces card-updated to the board.
func (h *CardHandler) UpdateCard(c *gin.Context) {
	card, ok := cardFromContext(c)
	if !ok {
		return
	}

	type UpdateCardRequest struct {
		Name         *string                `json:"name"`
		Description  *string                `json:"description"`
		Status       *models.WorkflowStatus `json:"status"`
		Priority     *models.Priority       `json:"priority"`
		DueDate      *time.Time             `json:"due_date"`
		ClearDueDate bool                   `json:"clear_due_date"`
	}

	var req UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.cardService.UpdateCard(c.Request.Context(), card, services.UpdateCardInput{
		Name:         req.Name,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
		SenderID:     senderID(c),
	})
	if err != nil {
		respondCardError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCardDTO(*updated))
}

func (h *CardHandler) ArchiveCard(c *gin.Context) {
	card, ok := cardFromContext(c)
	if !ok {
		return
	}

	updated, err := h.cardService.ToggleArchive(c.Request.Context(), card, senderID(c))
	if err != nil {
		respondCardError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCardDTO(*updated))
}

// DeleteCard removes the card and its tasks.
func (h *CardHandler) DeleteCard(c *gin.Context) {
	card, ok := cardFromContext(c)
	if !ok {
		return
	}

	if err := h.cardService.DeleteCard(card); err != nil {
		respondCardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Card deleted successfully",
	})
}

func (h *CardHandler) AddMember(c *gin.Context) {
	card, ok := cardFromContext(c)
	if !ok {
		return
	}

	type AddMemberRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.cardService.AddMember(card, req.UserID)
	if err != nil {
		respondCardError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCardDTO(*updated))
}

func (h *CardHandler) RemoveMember(c *gin.Context) {
	card, ok := cardFromContext(c)
	if !ok {
		return
	}
	userID, ok := uintParam(c, "userId", "user ID")
	if !ok {
		return
	}

	updated, err := h.cardService.RemoveMember(card, userID)
	if err != nil {
		respondCardError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCardDTO(*updated))
}

// AddLabel attaches a label. The colour defaults to blue.
func (h *CardHandler) AddLabel(c *gin.Context) {
	card, ok := cardFromContext(c)
	if !ok {
		return
	}

	type AddLabelRequest struct {
		Name  string `json:"name" binding:"required"`
		Color string `json:"color"`
	}

	var req AddLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.cardService.AddLabel(card, req.Name, req.Color)
	if err != nil {
		respondCardError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCardDTO(*updated))
}

func (h *CardHandler) RemoveLabel(c *gin.Context) {
	card, ok := cardFromContext(c)
	if !ok {
		return
	}

	updated, err := h.cardService.RemoveLabel(card, c.Param("name"))
	if err != nil {
		respondCardError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCardDTO(*updated))
}

func respondCardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCardName),
		errors.Is(err, services.ErrCardDescTooLong),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidLabelName),
		errors.Is(err, services.ErrInvalidLabelColor):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	case errors.Is(err, services.ErrCardNotFound):
		apierrors.NotFound(c, "Card not found")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
