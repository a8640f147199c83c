package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds the compound indexes the task list and analytics queries
// lean on. AutoMigrate only creates the single-column indexes declared on the
// models.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Task indexes for filtering, sorting and analytics grouping
		{"tasks", "idx_tasks_assigned_status_priority", "assigned_to_id, status, priority"},
		{"tasks", "idx_tasks_created_by_created_at", "created_by_id, created_at"},
		{"tasks", "idx_tasks_status", "status"},
		{"tasks", "idx_tasks_priority", "priority"},
		{"tasks", "idx_tasks_due_date", "due_date"},
		{"tasks", "idx_tasks_created_at", "created_at"},

		// Comment listing is always task-scoped, newest first
		{"comments", "idx_comments_task_created_at", "task_id, created_at"},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM information_schema.statistics
			WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?
		`, idx.table, idx.name).Count(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
