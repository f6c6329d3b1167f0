package repository

import (
	"time"

	"github.com/yukikurage/mini-trello-api/internal/models"
)

// Lookups return gorm.ErrRecordNotFound when nothing matches.

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(email string) (*models.User, error)

	// Update saves every field of the user
	Update(user *models.User) error

	// ListActive lists active users, most recently created first
	ListActive(limit int) ([]models.User, error)

	// Search matches active users by name or email
	Search(query string, limit int) ([]models.User, error)
}

// BoardRepository defines the interface for board data access.
// Boards are loaded and saved together with their member list.
type BoardRepository interface {
	// Create creates a board and its members
	Create(board *models.Board) error

	// FindByID finds a board with members and owner
	FindByID(id uint64) (*models.Board, error)

	// ListVisibleTo lists unarchived boards the user owns or is a member of
	ListVisibleTo(userID uint64) ([]models.Board, error)

	// Update saves the board and replaces its member rows
	Update(board *models.Board) error

	// Delete removes the board with its cards, tasks and invitations
	Delete(id uint64) error
}

// CardRepository defines the interface for card data access
type CardRepository interface {
	// Create creates a card with its members and labels
	Create(card *models.Card) error

	// FindByID finds a card with members, labels and owner
	FindByID(id uint64) (*models.Card, error)

	// ListByBoard lists the unarchived cards of a board
	ListByBoard(boardID uint64) ([]models.Card, error)

	// Update saves the card and replaces its member and label rows
	Update(card *models.Card) error

	// Delete removes the card and its tasks
	Delete(id uint64) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a task with its assignments
	Create(task *models.Task) error

	// CreateMany creates several tasks in one transaction
	CreateMany(tasks []*models.Task) error

	// FindByID finds a task with assignments, comments and owner
	FindByID(id uint64) (*models.Task, error)

	// ListByCard lists the unarchived tasks of a card
	ListByCard(cardID uint64) ([]models.Task, error)

	// Update saves the task and replaces its assignment rows
	Update(task *models.Task) error

	// AddComment stores a new comment and touches the task
	AddComment(task *models.Task, comment *models.TaskComment) error

	// Delete removes the task with its assignments and comments
	Delete(id uint64) error
}

// InvitationRepository defines the interface for invitation data access
type InvitationRepository interface {
	// Create creates a new invitation
	Create(inv *models.Invitation) error

	// FindByID finds an invitation with board, inviter and invitee
	FindByID(id uint64) (*models.Invitation, error)

	// FindPending finds the pending invitation for a board and invitee
	FindPending(boardID, inviteeID uint64) (*models.Invitation, error)

	// ListByBoard lists every invitation of a board, newest first
	ListByBoard(boardID uint64) ([]models.Invitation, error)

	// ListPendingForUser lists pending invitations that have not expired at now
	ListPendingForUser(userID uint64, now time.Time) ([]models.Invitation, error)

	// Update saves the invitation
	Update(inv *models.Invitation) error

	// SaveAccepted stores an accepted invitation and the board membership it
	// grants in a single transaction
	SaveAccepted(inv *models.Invitation, board *models.Board) error
}
