package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes creates the composite indexes used by the list queries.
// Single column indexes come from struct tags.
func AddIndexes(db *gorm.DB, log logrus.FieldLogger) error {
	indexes := []struct {
		model   interface{}
		name    string
		columns string
	}{
		{&models.Card{}, "idx_cards_board_archived", "cards (board_id, is_archived)"},
		{&models.Task{}, "idx_tasks_card_archived", "tasks (card_id, is_archived)"},
		{&models.Invitation{}, "idx_invitations_invitee_status", "invitations (invitee_id, status)"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.WithField("index", idx.name).Debug("Index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s", idx.name, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		log.WithField("index", idx.name).Info("Created index")
	}

	return nil
}
