package repository

import (
	"time"

	"github.com/yukikurage/mini-trello-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvitationRepository is a GORM implementation of InvitationRepository
type GormInvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &GormInvitationRepository{db: db}
}

func (r *GormInvitationRepository) Create(inv *models.Invitation) error {
	return r.db.Omit(clause.Associations).Create(inv).Error
}

func (r *GormInvitationRepository) FindByID(id uint64) (*models.Invitation, error) {
	var inv models.Invitation
	err := r.db.Preload("Board").
		Preload("Inviter").
		Preload("Invitee").
		First(&inv, id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *GormInvitationRepository) FindPending(boardID, inviteeID uint64) (*models.Invitation, error) {
	var inv models.Invitation
	err := r.db.Where("board_id = ? AND invitee_id = ? AND status = ?", boardID, inviteeID, models.InvitationPending).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *GormInvitationRepository) ListByBoard(boardID uint64) ([]models.Invitation, error) {
	var invitations []models.Invitation
	err := r.db.Where("board_id = ?", boardID).
		Preload("Inviter").
		Preload("Invitee").
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *GormInvitationRepository) ListPendingForUser(userID uint64, now time.Time) ([]models.Invitation, error) {
	var invitations []models.Invitation
	err := r.db.Where("invitee_id = ? AND status = ? AND expires_at >= ?", userID, models.InvitationPending, now).
		Preload("Board").
		Preload("Inviter").
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *GormInvitationRepository) Update(inv *models.Invitation) error {
	return r.db.Omit(clause.Associations).Save(inv).Error
}

func (r *GormInvitationRepository) SaveAccepted(inv *models.Invitation, board *models.Board) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(inv).Error; err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(board).Error; err != nil {
			return err
		}
		return saveBoardMembers(tx, board)
	})
}
