package db

import (
	"fmt"

	types "github.com/pckassistant/graph-engine/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Entity{},
		&types.EntityContribution{},
		&types.Trajectory{},
		&types.Event{},
		&types.Edge{},
		&types.Cooccurrence{},
		&types.Conversation{},
		&types.Message{},
	)
}

// EnsureGraphIndexes creates the unique and composite indexes named in the
// graph engine's storage layout with explicit CREATE INDEX IF NOT EXISTS
// statements, alongside whatever gorm's struct tags already created.
func EnsureGraphIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_entity_normalized_name_unique
		ON entity (normalized_name);
	`).Error; err != nil {
		return fmt.Errorf("create idx_entity_normalized_name_unique: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_entity_type_touch
		ON entity (entity_type, touch_count DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_entity_type_touch: %w", err)
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_edge_source_target_unique
		ON edge (source_id, target_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_edge_source_target_unique: %w", err)
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_cooccurrence_pair_unique
		ON cooccurrence (id_a, id_b);
	`).Error; err != nil {
		return fmt.Errorf("create idx_cooccurrence_pair_unique: %w", err)
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_contribution_entity_account_unique
		ON entity_contribution (entity_id, account_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_contribution_entity_account_unique: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_event_trajectory_seq
		ON event (trajectory_id, sequence_num);
	`).Error; err != nil {
		return fmt.Errorf("create idx_event_trajectory_seq: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_message_conversation_created
		ON message (conversation_id, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_message_conversation_created: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_conversation_account_created
		ON conversation (account_id, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_conversation_account_created: %w", err)
	}

	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("auto migrating postgres tables")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("auto migration failed", "error", err)
		return err
	}
	if err := EnsureGraphIndexes(s.db); err != nil {
		s.log.Error("graph index migration failed", "error", err)
		return err
	}
	return nil
}
