package database

import "gorm.io/gorm"

// NotArchived excludes archived rows.
func NotArchived(db *gorm.DB) *gorm.DB {
	return db.Where("is_archived = ?", false)
}

// BoardsVisibleTo limits a board query to boards owned by userID or listing
// userID as a member.
func BoardsVisibleTo(userID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(owner_id = ? OR id IN (?))", userID,
			db.Session(&gorm.Session{NewDB: true}).
				Table("board_members").Select("board_id").Where("user_id = ?", userID))
	}
}
