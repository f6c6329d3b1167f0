package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/mini-trello-api/internal/dto"
	apierrors "github.com/yukikurage/mini-trello-api/internal/errors"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"github.com/yukikurage/mini-trello-api/internal/services"
)

type InvitationHandler struct {
	invitationService *services.InvitationService
}

func NewInvitationHandler(invitationService *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

// ListInvitations returns the caller's pending, unexpired invitations.
func (h *InvitationHandler) ListInvitations(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListPendingForUser(userID)
	if err != nil {
		respondInvitationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": dto.ToInvitationDTOs(invitations)})
}

// AcceptInvitation joins the caller to the board with the invited role.
func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id", "invitation ID")
	if !ok {
		return
	}

	inv, board, err := h.invitationService.Accept(userID, id)
	if err != nil {
		respondInvitationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"invitation": dto.ToInvitationDTO(*inv),
		"board":      dto.ToBoardDTO(*board, userID),
	})
}

func (h *InvitationHandler) DeclineInvitation(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id", "invitation ID")
	if !ok {
		return
	}

	inv, err := h.invitationService.Decline(userID, id)
	if err != nil {
		respondInvitationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitation": dto.ToInvitationDTO(*inv)})
}

func respondInvitationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrCannotInviteSelf),
		errors.Is(err, services.ErrInvitationMsgTooLong):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInviteeNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrBoardNotFound):
		apierrors.NotFound(c, "Invitation not found")
	case errors.Is(err, services.ErrNotInvitee):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAlreadyBoardMember),
		errors.Is(err, services.ErrInvitationExists),
		errors.Is(err, models.ErrInvitationResponded):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, models.ErrInvitationExpired):
		apierrors.Gone(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
