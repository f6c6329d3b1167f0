package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/mini-trello-api/internal/constants"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"github.com/yukikurage/mini-trello-api/internal/permission"
	"github.com/yukikurage/mini-trello-api/internal/realtime"
	"github.com/yukikurage/mini-trello-api/internal/repository"
	"github.com/yukikurage/mini-trello-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrBoardNotFound       = errors.New("board not found")
	ErrInvalidBoardName    = errors.New("board name must be between 1 and 100 characters")
	ErrBoardDescTooLong    = errors.New("board description must be at most 500 characters")
	ErrInvalidRole         = errors.New("role must be admin, member or viewer")
	ErrInvalidStatus       = errors.New("status must be icebox, backlog, ongoing, review or done")
	ErrCannotChangeOwner   = errors.New("the board owner has no member role")
	ErrAdminCannotDemote   = errors.New("only the owner can change or remove an admin")
	ErrBoardMemberNotFound = errors.New("board member not found")
)

// BoardService provides business logic for boards and their members.
type BoardService struct {
	boardRepo repository.BoardRepository
	notifier  notifier
	now       func() time.Time
}

// NewBoardService creates a new BoardService. Membership removals and board
// deletions are published so realtime rooms drop the affected connections.
func NewBoardService(boardRepo repository.BoardRepository, publisher EventPublisher, log logrus.FieldLogger) *BoardService {
	return &BoardService{
		boardRepo: boardRepo,
		notifier:  notifier{publisher: publisher, log: log},
		now:       time.Now,
	}
}

// BoardSettingsInput carries a partial settings update.
type BoardSettingsInput struct {
	AllowMemberInvite *bool
	AllowMemberEdit   *bool
	DefaultCardStatus *models.WorkflowStatus
}

// CreateBoardInput represents parameters to create a new board.
type CreateBoardInput struct {
	Name        string
	Description string
	IsPublic    bool
	OwnerID     uint64
}

func validateBoardText(name *string, description *string) error {
	if name != nil {
		*name = utils.SanitizeText(*name)
		if !utils.LengthBetween(*name, 1, constants.MaxBoardNameLength) {
			return ErrInvalidBoardName
		}
	}
	if description != nil {
		*description = utils.SanitizeText(*description)
		if !utils.LengthBetween(*description, 0, constants.MaxBoardDescriptionLength) {
			return ErrBoardDescTooLong
		}
	}
	return nil
}

// CreateBoard creates a board owned by input.OwnerID with default settings.
func (s *BoardService) CreateBoard(input CreateBoardInput) (*models.Board, error) {
	if err := validateBoardText(&input.Name, &input.Description); err != nil {
		return nil, err
	}

	board := &models.Board{
		Name:         input.Name,
		Description:  input.Description,
		OwnerID:      input.OwnerID,
		Settings:     models.DefaultBoardSettings(),
		IsPublic:     input.IsPublic,
		LastActivity: s.now(),
		Members:      []models.BoardMember{},
	}
	if err := s.boardRepo.Create(board); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	return board, nil
}

// ListBoardsForUser returns unarchived boards the user owns or belongs to.
func (s *BoardService) ListBoardsForUser(userID uint64) ([]models.Board, error) {
	boards, err := s.boardRepo.ListVisibleTo(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return boards, nil
}

// GetBoard loads a board with its members.
func (s *BoardService) GetBoard(id uint64) (*models.Board, error) {
	board, err := s.boardRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to find board: %w", err)
	}
	return board, nil
}

// UpdateBoardInput holds optional board changes. Settings are merged.
type UpdateBoardInput struct {
	Name        *string
	Description *string
	IsPublic    *bool
	Settings    *BoardSettingsInput
}

func (s *BoardService) UpdateBoard(board *models.Board, input UpdateBoardInput) (*models.Board, error) {
	if err := validateBoardText(input.Name, input.Description); err != nil {
		return nil, err
	}
	if st := input.Settings; st != nil && st.DefaultCardStatus != nil && !st.DefaultCardStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	if input.Name != nil {
		board.Name = *input.Name
	}
	if input.Description != nil {
		board.Description = *input.Description
	}
	if input.IsPublic != nil {
		board.IsPublic = *input.IsPublic
	}
	if st := input.Settings; st != nil {
		if st.AllowMemberInvite != nil {
			board.Settings.AllowMemberInvite = *st.AllowMemberInvite
		}
		if st.AllowMemberEdit != nil {
			board.Settings.AllowMemberEdit = *st.AllowMemberEdit
		}
		if st.DefaultCardStatus != nil {
			board.Settings.DefaultCardStatus = *st.DefaultCardStatus
		}
	}
	board.Touch(s.now())

	if err := s.boardRepo.Update(board); err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}
	return board, nil
}

// ToggleArchive flips the archived flag of a board.
func (s *BoardService) ToggleArchive(board *models.Board) (*models.Board, error) {
	board.IsArchived = !board.IsArchived
	board.Touch(s.now())
	if err := s.boardRepo.Update(board); err != nil {
		return nil, fmt.Errorf("failed to archive board: %w", err)
	}
	return board, nil
}

// DeleteBoard removes the board and everything that belongs to it.
func (s *BoardService) DeleteBoard(ctx context.Context, board *models.Board) error {
	if err := s.boardRepo.Delete(board.ID); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	s.notifier.notify(ctx, constants.EventBoardDeleted, board.ID, nil, "")
	return nil
}

// memberChangeAllowed keeps admins from acting on other admins; only the
// owner may do that.
func memberChangeAllowed(actorID uint64, board *models.Board, target models.BoardMember) error {
	if permission.IsOwner(actorID, board) {
		return nil
	}
	if target.Role == models.BoardRoleAdmin && target.UserID != actorID {
		return ErrAdminCannotDemote
	}
	return nil
}

// ChangeMemberRole sets the role of an existing member.
func (s *BoardService) ChangeMemberRole(actorID uint64, board *models.Board, userID uint64, role models.BoardRole) (*models.Board, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if permission.IsOwner(userID, board) {
		return nil, ErrCannotChangeOwner
	}
	member, ok := board.Member(userID)
	if !ok {
		return nil, ErrBoardMemberNotFound
	}
	if err := memberChangeAllowed(actorID, board, member); err != nil {
		return nil, err
	}

	board.AddMember(userID, role, s.now())
	if err := s.boardRepo.Update(board); err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}
	return board, nil
}

// RemoveMember takes userID off the board. Removing a non-member succeeds.
func (s *BoardService) RemoveMember(ctx context.Context, actorID uint64, board *models.Board, userID uint64) (*models.Board, error) {
	if permission.IsOwner(userID, board) {
		return nil, ErrCannotChangeOwner
	}
	member, wasMember := board.Member(userID)
	if wasMember {
		if err := memberChangeAllowed(actorID, board, member); err != nil {
			return nil, err
		}
	}

	board.RemoveMember(userID, s.now())
	if err := s.boardRepo.Update(board); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}
	if wasMember {
		s.notifier.notify(ctx, constants.EventMemberRemoved, board.ID, realtime.MemberRemovedPayload{UserID: userID}, "")
	}
	return board, nil
}
