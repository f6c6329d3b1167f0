package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// replaceChildren rewrites the child rows owned by parentID. reset clears
// the surrogate key and stamps the parent id on each row before insert.
func replaceChildren[T any](tx *gorm.DB, foreignKey string, parentID uint64, rows []T, reset func(*T)) error {
	var zero T
	if err := tx.Where(foreignKey+" = ?", parentID).Delete(&zero).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		reset(&rows[i])
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}
