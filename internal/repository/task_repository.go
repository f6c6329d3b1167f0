package repository

import (
	"github.com/yukikurage/mini-trello-api/internal/database"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return createTask(tx, task)
	})
}

func (r *GormTaskRepository) CreateMany(tasks []*models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, task := range tasks {
			if err := createTask(tx, task); err != nil {
				return err
			}
		}
		return nil
	})
}

func createTask(tx *gorm.DB, task *models.Task) error {
	if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
		return err
	}
	return saveAssignments(tx, task)
}

// FindByID finds a task with assignees and comments
func (r *GormTaskRepository) FindByID(id uint64) (*models.Task, error) {
	var task models.Task
	err := r.db.Preload("Owner").
		Preload("AssignedTo.User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Comments.User").
		First(&task, id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *GormTaskRepository) ListByCard(cardID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.Scopes(database.NotArchived).
		Where("card_id = ?", cardID).
		Preload("Owner").
		Preload("AssignedTo.User").
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update saves task fields and assignees. Comments are written through AddComment.
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(task).Error; err != nil {
			return err
		}
		return saveAssignments(tx, task)
	})
}

func (r *GormTaskRepository) AddComment(task *models.Task, comment *models.TaskComment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		comment.TaskID = task.ID
		if err := tx.Omit(clause.Associations).Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Task{}).Where("id = ?", task.ID).
			Update("last_activity", task.LastActivity).Error
	})
}

// Delete removes a task with its assignments and comments
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, id).Error
	})
}

func saveAssignments(tx *gorm.DB, task *models.Task) error {
	return replaceChildren(tx, "task_id", task.ID, task.AssignedTo, func(a *models.TaskAssignment) {
		a.ID = 0
		a.TaskID = task.ID
	})
}
