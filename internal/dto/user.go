package dto

import (
	"time"

	"github.com/yukikurage/mini-trello-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID     uint64 `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// ProfileDTO is the caller's own account
type ProfileDTO struct {
	UserDTO
	IsVerified bool       `json:"is_verified"`
	LastLogin  *time.Time `json:"last_login"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AuthResponse is returned by a successful sign-in
type AuthResponse struct {
	User  ProfileDTO `json:"user"`
	Token string     `json:"token"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:     user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Avatar: user.Avatar,
	}
}

// toUserRef returns nil when the relation was not preloaded
func toUserRef(user models.User) *UserDTO {
	if user.ID == 0 {
		return nil
	}
	dto := ToUserDTO(user)
	return &dto
}

func ToProfileDTO(user models.User) ProfileDTO {
	return ProfileDTO{
		UserDTO:    ToUserDTO(user),
		IsVerified: user.IsVerified,
		LastLogin:  user.LastLogin,
		CreatedAt:  user.CreatedAt,
	}
}

func ToUserDTOs(users []models.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = ToUserDTO(u)
	}
	return dtos
}
