package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/mini-trello-api/internal/constants"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"github.com/yukikurage/mini-trello-api/internal/repository"
	"github.com/yukikurage/mini-trello-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrCardNotFound      = errors.New("card not found")
	ErrInvalidCardName   = errors.New("card name must be between 1 and 200 characters")
	ErrCardDescTooLong   = errors.New("card description must be at most 1000 characters")
	ErrInvalidPriority   = errors.New("priority must be low, medium, high or urgent")
	ErrInvalidLabelName  = errors.New("label name must be between 1 and 20 characters")
	ErrInvalidLabelColor = errors.New("label color must be a hex color")
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// CardService provides business logic for cards.
type CardService struct {
	cardRepo repository.CardRepository
	userRepo repository.UserRepository
	notifier notifier
	now      func() time.Time
}

// NewCardService creates a new CardService.
func NewCardService(cardRepo repository.CardRepository, userRepo repository.UserRepository, publisher EventPublisher, log logrus.FieldLogger) *CardService {
	return &CardService{
		cardRepo: cardRepo,
		userRepo: userRepo,
		notifier: notifier{publisher: publisher, log: log},
		now:      time.Now,
	}
}

// CardUpdatedPayload is the data of a card-updated event.
type CardUpdatedPayload struct {
	CardID uint64       `json:"cardId"`
	Card   *models.Card `json:"card"`
}

func validateCardText(name, description *string) error {
	if name != nil {
		*name = utils.SanitizeText(*name)
		if !utils.LengthBetween(*name, 1, constants.MaxCardNameLength) {
			return ErrInvalidCardName
		}
	}
	if description != nil {
		*description = utils.SanitizeText(*description)
		if !utils.LengthBetween(*description, 0, constants.MaxCardDescriptionLength) {
			return ErrCardDescTooLong
		}
	}
	return nil
}

// CreateCardInput represents parameters to create a new card.
type CreateCardInput struct {
	Name        string
	Description string
	Status      *models.WorkflowStatus
	Priority    *models.Priority
	DueDate     *time.Time
	OwnerID     uint64
}

// CreateCard adds a card to board. Status defaults to the board's default
// card status and priority to medium.
func (s *CardService) CreateCard(board *models.Board, input CreateCardInput) (*models.Card, error) {
	if err := validateCardText(&input.Name, &input.Description); err != nil {
		return nil, err
	}

	status := board.Settings.DefaultCardStatus
	if input.Status != nil {
		status = *input.Status
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	priority := models.PriorityMedium
	if input.Priority != nil {
		priority = *input.Priority
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	card := &models.Card{
		Name:         input.Name,
		Description:  input.Description,
		BoardID:      board.ID,
		OwnerID:      input.OwnerID,
		Status:       status,
		Priority:     priority,
		DueDate:      input.DueDate,
		LastActivity: s.now(),
		Members:      []models.CardMember{},
		Labels:       []models.CardLabel{},
	}
	if err := s.cardRepo.Create(card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	return card, nil
}

func (s *CardService) ListCards(board *models.Board) ([]models.Card, error) {
	cards, err := s.cardRepo.ListByBoard(board.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

func (s *CardService) GetCard(id uint64) (*models.Card, error) {
	card, err := s.cardRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// UpdateCardInput holds optional card changes.
type UpdateCardInput struct {
	Name         *string
	Description  *string
	Status       *models.WorkflowStatus
	Priority     *models.Priority
	DueDate      *time.Time
	ClearDueDate bool
	// SenderID is the realtime connection that made the change, if any.
	SenderID string
}

// UpdateCard applies input and announces the change to the board room.
func (s *CardService) UpdateCard(ctx context.Context, card *models.Card, input UpdateCardInput) (*models.Card, error) {
	if err := validateCardText(input.Name, input.Description); err != nil {
		return nil, err
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	if input.Name != nil {
		card.Name = *input.Name
	}
	if input.Description != nil {
		card.Description = *input.Description
	}
	if input.Status != nil {
		card.Status = *input.Status
	}
	if input.Priority != nil {
		card.Priority = *input.Priority
	}
	if input.ClearDueDate {
		card.DueDate = nil
	} else if input.DueDate != nil {
		card.DueDate = input.DueDate
	}
	card.Touch(s.now())

	if err := s.cardRepo.Update(card); err != nil {
		return nil, fmt.Errorf("failed to update card: %w", err)
	}
	s.announce(ctx, card, input.SenderID)
	return card, nil
}

// ToggleArchive flips the archived flag and announces the change.
func (s *CardService) ToggleArchive(ctx context.Context, card *models.Card, senderID string) (*models.Card, error) {
	card.IsArchived = !card.IsArchived
	card.Touch(s.now())
	if err := s.cardRepo.Update(card); err != nil {
		return nil, fmt.Errorf("failed to archive card: %w", err)
	}
	s.announce(ctx, card, senderID)
	return card, nil
}

func (s *CardService) announce(ctx context.Context, card *models.Card, senderID string) {
	s.notifier.notify(ctx, constants.EventCardUpdated, card.BoardID, CardUpdatedPayload{CardID: card.ID, Card: card}, senderID)
}

func (s *CardService) DeleteCard(card *models.Card) error {
	if err := s.cardRepo.Delete(card.ID); err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	return nil
}

func (s *CardService) ensureUser(userID uint64) error {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	return nil
}

// AddMember puts an existing user on the card. Adding a member twice is a no-op.
func (s *CardService) AddMember(card *models.Card, userID uint64) (*models.Card, error) {
	if err := s.ensureUser(userID); err != nil {
		return nil, err
	}
	card.AddMember(userID, s.now())
	if err := s.cardRepo.Update(card); err != nil {
		return nil, fmt.Errorf("failed to add card member: %w", err)
	}
	return card, nil
}

func (s *CardService) RemoveMember(card *models.Card, userID uint64) (*models.Card, error) {
	card.RemoveMember(userID, s.now())
	if err := s.cardRepo.Update(card); err != nil {
		return nil, fmt.Errorf("failed to remove card member: %w", err)
	}
	return card, nil
}

// AddLabel attaches a label. An existing label with the same name is kept.
func (s *CardService) AddLabel(card *models.Card, name, color string) (*models.Card, error) {
	name = utils.SanitizeText(name)
	if !utils.LengthBetween(name, 1, constants.MaxLabelNameLength) {
		return nil, ErrInvalidLabelName
	}
	if color == "" {
		color = constants.DefaultLabelColor
	}
	if !hexColor.MatchString(color) {
		return nil, ErrInvalidLabelColor
	}

	if !card.AddLabel(name, color, s.now()) {
		return card, nil
	}
	if err := s.cardRepo.Update(card); err != nil {
		return nil, fmt.Errorf("failed to add label: %w", err)
	}
	return card, nil
}

func (s *CardService) RemoveLabel(card *models.Card, name string) (*models.Card, error) {
	if !card.RemoveLabel(name, s.now()) {
		return card, nil
	}
	if err := s.cardRepo.Update(card); err != nil {
		return nil, fmt.Errorf("failed to remove label: %w", err)
	}
	return card, nil
}
