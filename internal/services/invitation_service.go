package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/mini-trello-api/internal/constants"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"github.com/yukikurage/mini-trello-api/internal/permission"
	"github.com/yukikurage/mini-trello-api/internal/repository"
	"github.com/yukikurage/mini-trello-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrCannotInviteSelf     = errors.New("cannot invite yourself")
	ErrInviteeNotFound      = errors.New("no user with that email")
	ErrAlreadyBoardMember   = errors.New("user is already a member of this board")
	ErrInvitationExists     = errors.New("a pending invitation already exists")
	ErrNotInvitee           = errors.New("invitation belongs to another user")
	ErrInvitationMsgTooLong = errors.New("invitation message must be at most 500 characters")
)

// InvitationMailer notifies invitees.
type InvitationMailer interface {
	SendInvitation(address, inviter, board, role, message string) error
}

// InvitationService runs the invite, accept and decline workflow.
type InvitationService struct {
	invRepo   repository.InvitationRepository
	userRepo  repository.UserRepository
	boardRepo repository.BoardRepository
	mailer    InvitationMailer
	log       logrus.FieldLogger
	ttl       time.Duration
	now       func() time.Time
}

// NewInvitationService creates a new InvitationService.
func NewInvitationService(
	invRepo repository.InvitationRepository,
	userRepo repository.UserRepository,
	boardRepo repository.BoardRepository,
	mailer InvitationMailer,
	log logrus.FieldLogger,
	ttl time.Duration,
) *InvitationService {
	if ttl <= 0 {
		ttl = constants.DefaultInvitationTTL
	}
	return &InvitationService{
		invRepo:   invRepo,
		userRepo:  userRepo,
		boardRepo: boardRepo,
		mailer:    mailer,
		log:       log,
		ttl:       ttl,
		now:       time.Now,
	}
}

// InviteInput represents parameters to invite a user to a board.
type InviteInput struct {
	Inviter *models.User
	Email   string
	Role    models.BoardRole
	Message string
}

// Invite creates a pending invitation for the user registered under
// input.Email. Checks run in order: self invite, unknown user, existing
// member, existing pending invitation.
func (s *InvitationService) Invite(board *models.Board, input InviteInput) (*models.Invitation, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = models.BoardRoleMember
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}
	message := utils.SanitizeText(input.Message)
	if !utils.LengthBetween(message, 0, constants.MaxInvitationMessage) {
		return nil, ErrInvitationMsgTooLong
	}

	if email == utils.NormalizeEmail(input.Inviter.Email) {
		return nil, ErrCannotInviteSelf
	}

	invitee, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteeNotFound
		}
		return nil, fmt.Errorf("failed to find invitee: %w", err)
	}

	if permission.IsBoardMemberOrOwner(invitee.ID, board) {
		return nil, ErrAlreadyBoardMember
	}

	if _, err := s.invRepo.FindPending(board.ID, invitee.ID); err == nil {
		return nil, ErrInvitationExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check invitations: %w", err)
	}

	inv := models.NewInvitation(board.ID, input.Inviter.ID, invitee.ID, email, input.Role, message, s.ttl, s.now())
	if err := s.invRepo.Create(inv); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}
	inv.Board = *board
	inv.Inviter = *input.Inviter
	inv.Invitee = *invitee

	if s.mailer != nil {
		if err := s.mailer.SendInvitation(email, input.Inviter.Name, board.Name, string(input.Role), message); err != nil {
			s.log.WithError(err).WithField("invitation", inv.ID).Warn("invitation email not sent")
		}
	}
	return inv, nil
}

// ListForBoard lists every invitation of the board.
func (s *InvitationService) ListForBoard(board *models.Board) ([]models.Invitation, error) {
	invitations, err := s.invRepo.ListByBoard(board.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// ListPendingForUser lists invitations the user can still accept.
func (s *InvitationService) ListPendingForUser(userID uint64) ([]models.Invitation, error) {
	invitations, err := s.invRepo.ListPendingForUser(userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

func (s *InvitationService) findForInvitee(actorID, id uint64) (*models.Invitation, error) {
	inv, err := s.invRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}
	if inv.InviteeID != actorID {
		return nil, ErrNotInvitee
	}
	return inv, nil
}

// Accept adds the invitee to the board with the invited role. The status
// change and the membership are stored together.
func (s *InvitationService) Accept(actorID, id uint64) (*models.Invitation, *models.Board, error) {
	inv, err := s.findForInvitee(actorID, id)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	if err := inv.Accept(now); err != nil {
		return nil, nil, err
	}

	board, err := s.boardRepo.FindByID(inv.BoardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrBoardNotFound
		}
		return nil, nil, fmt.Errorf("failed to find board: %w", err)
	}
	board.AddMember(inv.InviteeID, inv.Role, now)

	if err := s.invRepo.SaveAccepted(inv, board); err != nil {
		return nil, nil, fmt.Errorf("failed to accept invitation: %w", err)
	}
	return inv, board, nil
}

// Decline marks the invitation declined.
func (s *InvitationService) Decline(actorID, id uint64) (*models.Invitation, error) {
	inv, err := s.findForInvitee(actorID, id)
	if err != nil {
		return nil, err
	}
	if err := inv.Decline(s.now()); err != nil {
		return nil, err
	}
	if err := s.invRepo.Update(inv); err != nil {
		return nil, fmt.Errorf("failed to decline invitation: %w", err)
	}
	return inv, nil
}
