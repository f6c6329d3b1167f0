package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/mini-trello-api/internal/constants"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"github.com/yukikurage/mini-trello-api/internal/repository"
	"github.com/yukikurage/mini-trello-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrSearchQueryTooShort = errors.New("search query must be at least 2 characters")
	ErrInvalidUserName     = errors.New("name must be between 2 and 50 characters")
	ErrNotProfileOwner     = errors.New("users can only update their own profile")
)

// UserService provides user directory operations.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) List() ([]models.User, error) {
	users, err := s.userRepo.ListActive(constants.UserListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Search(query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < constants.MinSearchQueryLen {
		return nil, ErrSearchQueryTooShort
	}
	users, err := s.userRepo.Search(query, constants.UserSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateProfileInput holds optional profile changes.
type UpdateProfileInput struct {
	Name   *string
	Avatar *string
}

// UpdateProfile changes the profile of targetID, which must be the actor.
func (s *UserService) UpdateProfile(actorID, targetID uint64, input UpdateProfileInput) (*models.User, error) {
	user, err := s.Get(targetID)
	if err != nil {
		return nil, err
	}
	if actorID != targetID {
		return nil, ErrNotProfileOwner
	}

	if input.Name != nil {
		name := utils.SanitizeText(*input.Name)
		if !utils.LengthBetween(name, constants.MinUserNameLength, constants.MaxUserNameLength) {
			return nil, ErrInvalidUserName
		}
		user.Name = name
	}
	if input.Avatar != nil {
		user.Avatar = strings.TrimSpace(*input.Avatar)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}
