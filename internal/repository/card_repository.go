package repository

import (
	"github.com/yukikurage/mini-trello-api/internal/database"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCardRepository is a GORM implementation of CardRepository
type GormCardRepository struct {
	db *gorm.DB
}

// NewCardRepository creates a new CardRepository
func NewCardRepository(db *gorm.DB) CardRepository {
	return &GormCardRepository{db: db}
}

func (r *GormCardRepository) Create(card *models.Card) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(card).Error; err != nil {
			return err
		}
		return saveCardChildren(tx, card)
	})
}

func (r *GormCardRepository) FindByID(id uint64) (*models.Card, error) {
	var card models.Card
	err := r.db.Preload("Owner").
		Preload("Members.User").
		Preload("Labels").
		First(&card, id).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *GormCardRepository) ListByBoard(boardID uint64) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.Scopes(database.NotArchived).
		Where("board_id = ?", boardID).
		Preload("Owner").
		Preload("Members.User").
		Preload("Labels").
		Order("created_at ASC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *GormCardRepository) Update(card *models.Card) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(card).Error; err != nil {
			return err
		}
		return saveCardChildren(tx, card)
	})
}

// Delete removes a card and its tasks in a transaction
func (r *GormCardRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Model(&models.Task{}).Select("id").Where("card_id = ?", id)
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("card_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("card_id = ?", id).Delete(&models.CardMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("card_id = ?", id).Delete(&models.CardLabel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Card{}, id).Error
	})
}

func saveCardChildren(tx *gorm.DB, card *models.Card) error {
	err := replaceChildren(tx, "card_id", card.ID, card.Members, func(m *models.CardMember) {
		m.ID = 0
		m.CardID = card.ID
	})
	if err != nil {
		return err
	}
	return replaceChildren(tx, "card_id", card.ID, card.Labels, func(l *models.CardLabel) {
		l.ID = 0
		l.CardID = card.ID
	})
}
