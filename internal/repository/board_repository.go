package repository

import (
	"github.com/yukikurage/mini-trello-api/internal/database"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBoardRepository is a GORM implementation of BoardRepository
type GormBoardRepository struct {
	db *gorm.DB
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &GormBoardRepository{db: db}
}

func (r *GormBoardRepository) Create(board *models.Board) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(board).Error; err != nil {
			return err
		}
		return saveBoardMembers(tx, board)
	})
}

func (r *GormBoardRepository) FindByID(id uint64) (*models.Board, error) {
	var board models.Board
	if err := r.db.Preload("Owner").Preload("Members.User").First(&board, id).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *GormBoardRepository) ListVisibleTo(userID uint64) ([]models.Board, error) {
	var boards []models.Board
	err := r.db.Scopes(database.NotArchived, database.BoardsVisibleTo(userID)).
		Preload("Owner").
		Preload("Members").
		Order("last_activity DESC").
		Find(&boards).Error
	if err != nil {
		return nil, err
	}
	return boards, nil
}

func (r *GormBoardRepository) Update(board *models.Board) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(board).Error; err != nil {
			return err
		}
		return saveBoardMembers(tx, board)
	})
}

// Delete removes a board and everything hanging off it in a transaction
func (r *GormBoardRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Model(&models.Task{}).Select("id").Where("board_id = ?", id)
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		cardIDs := tx.Model(&models.Card{}).Select("id").Where("board_id = ?", id)
		if err := tx.Where("card_id IN (?)", cardIDs).Delete(&models.CardMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("card_id IN (?)", cardIDs).Delete(&models.CardLabel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", id).Delete(&models.Card{}).Error; err != nil {
			return err
		}

		if err := tx.Where("board_id = ?", id).Delete(&models.Invitation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", id).Delete(&models.BoardMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Board{}, id).Error
	})
}

func saveBoardMembers(tx *gorm.DB, board *models.Board) error {
	return replaceChildren(tx, "board_id", board.ID, board.Members, func(m *models.BoardMember) {
		m.ID = 0
		m.BoardID = board.ID
	})
}
