package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/mini-trello-api/internal/dto"
	apierrors "github.com/yukikurage/mini-trello-api/internal/errors"
	"github.com/yukikurage/mini-trello-api/internal/middleware"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"github.com/yukikurage/mini-trello-api/internal/services"
)

type BoardHandler struct {
	boardService      *services.BoardService
	invitationService *services.InvitationService
}

func NewBoardHandler(boardService *services.BoardService, invitationService *services.InvitationService) *BoardHandler {
	return &BoardHandler{
		boardService:      boardService,
		invitationService: invitationService,
	}
}

// boardFromContext returns the board loaded by the access middleware.
func boardFromContext(c *gin.Context) (*models.Board, bool) {
	board, exists := middleware.GetBoard(c)
	if !exists {
		apierrors.InternalError(c, "Board not found in context")
		return nil, false
	}
	return board, true
}

// ListBoards returns unarchived boards the user owns or belongs to.
func (h *BoardHandler) ListBoards(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	boards, err := h.boardService.ListBoardsForUser(userID)
	if err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boards": dto.ToBoardDTOs(boards, userID)})
}

func (h *BoardHandler) CreateBoard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	type CreateBoardRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		IsPublic    bool   `json:"is_public"`
	}

	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	board, err := h.boardService.CreateBoard(services.CreateBoardInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		OwnerID:     userID,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToBoardDTO(*board, userID))
}

func (h *BoardHandler) GetBoard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	board, ok := boardFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToBoardDTO(*board, userID))
}

// UpdateBoard changes board fields. Settings are merged into the current ones.
func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	board, ok := boardFromContext(c)
	if !ok {
		return
	}

	type SettingsRequest struct {
		AllowMemberInvite *bool                  `json:"allow_member_invite"`
		AllowMemberEdit   *bool                  `json:"allow_member_edit"`
		DefaultCardStatus *models.WorkflowStatus `json:"default_card_status"`
	}
	type UpdateBoardRequest struct {
		Name        *string          `json:"name"`
		Description *string          `json:"description"`
		IsPublic    *bool            `json:"is_public"`
		Settings    *SettingsRequest `json:"settings"`
	}

	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateBoardInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	}
	if req.Settings != nil {
		input.Settings = &services.BoardSettingsInput{
			AllowMemberInvite: req.Settings.AllowMemberInvite,
			AllowMemberEdit:   req.Settings.AllowMemberEdit,
			DefaultCardStatus: req.Settings.DefaultCardStatus,
		}
	}

	updated, err := h.boardService.UpdateBoard(board, input)
	if err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToBoardDTO(*updated, userID))
}

// ArchiveBoard toggles the archived flag.
func (h *BoardHandler) ArchiveBoard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	board, ok := boardFromContext(c)
	if !ok {
		return
	}

	updated, err := h.boardService.ToggleArchive(board)
	if err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToBoardDTO(*updated, userID))
}

// DeleteBoard removes the board with its cards, tasks and invitations.
func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	board, ok := boardFromContext(c)
	if !ok {
		return
	}

	if err := h.boardService.DeleteBoard(c.Request.Context(), board); err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Board deleted successfully",
	})
}

func (h *BoardHandler) UpdateMemberRole(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	board, ok := boardFromContext(c)
	if !ok {
		return
	}
	targetID, ok := uintParam(c, "userId", "user ID")
	if !ok {
		return
	}

	type UpdateRoleRequest struct {
		Role models.BoardRole `json:"role" binding:"required"`
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.boardService.ChangeMemberRole(userID, board, targetID, req.Role)
	if err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToBoardDTO(*updated, userID))
}

func (h *BoardHandler) RemoveMember(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	board, ok := boardFromContext(c)
	if !ok {
		return
	}
	targetID, ok := uintParam(c, "userId", "user ID")
	if !ok {
		return
	}

	updated, err := h.boardService.RemoveMember(c.Request.Context(), userID, board, targetID)
	if err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToBoardDTO(*updated, userID))
}

// InviteMember invites a registered user to the board by email.
func (h *BoardHandler) InviteMember(c *gin.Context) {
	board, ok := boardFromContext(c)
	if !ok {
		return
	}
	inviter, exists := middleware.CurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type InviteRequest struct {
		Email   string           `json:"email" binding:"required"`
		Role    models.BoardRole `json:"role"`
		Message string           `json:"message"`
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	inv, err := h.invitationService.Invite(board, services.InviteInput{
		Inviter: inviter,
		Email:   req.Email,
		Role:    req.Role,
		Message: req.Message,
	})
	if err != nil {
		respondInvitationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToInvitationDTO(*inv))
}

func (h *BoardHandler) ListInvitations(c *gin.Context) {
	board, ok := boardFromContext(c)
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListForBoard(board)
	if err != nil {
		respondInvitationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": dto.ToInvitationDTOs(invitations)})
}

func respondBoardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidBoardName),
		errors.Is(err, services.ErrBoardDescTooLong),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrCannotChangeOwner):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAdminCannotDemote):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrBoardNotFound):
		apierrors.NotFound(c, "Board not found")
	case errors.Is(err, services.ErrBoardMemberNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
