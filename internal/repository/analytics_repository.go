package repository

import (
	"time"

	"github.com/taskhub/taskhub-api/internal/models"
	"gorm.io/gorm"
)

// GormAnalyticsRepository is a GORM implementation of AnalyticsRepository.
// Grouped counts and per-user aggregates run as SQL GROUP BY; only trend
// time-bucketing happens in Go, over the narrow TimePoints projection.
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new AnalyticsRepository
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

// scoped qualifies every predicate with the tasks table; UserPerformance
// joins users, which carries created_at too.
func (r *GormAnalyticsRepository) scoped(filter AnalyticsFilter) *gorm.DB {
	query := r.db.Model(&models.Task{})
	if filter.AssignedToID != nil {
		query = query.Where("tasks.assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("tasks.created_at >= ?", *filter.CreatedFrom)
	}
	return query
}

// CountTasks counts non-deleted tasks matching the filter
func (r *GormAnalyticsRepository) CountTasks(filter AnalyticsFilter) (int64, error) {
	var count int64
	err := r.scoped(filter).Count(&count).Error
	return count, err
}

// CountByStatus counts tasks matching the filter and the status
func (r *GormAnalyticsRepository) CountByStatus(filter AnalyticsFilter, status models.TaskStatus) (int64, error) {
	var count int64
	err := r.scoped(filter).Where("status = ?", status).Count(&count).Error
	return count, err
}

// CountOverdue counts tasks past due at now and not completed
func (r *GormAnalyticsRepository) CountOverdue(filter AnalyticsFilter, now time.Time) (int64, error) {
	var count int64
	err := r.scoped(filter).
		Where("due_date < ? AND status <> ?", now, models.TaskStatusCompleted).
		Count(&count).Error
	return count, err
}

// GroupByStatus returns task counts grouped by status
func (r *GormAnalyticsRepository) GroupByStatus(filter AnalyticsFilter) ([]FieldCount, error) {
	var rows []FieldCount
	err := r.scoped(filter).
		Select("status AS value, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

// GroupByPriority returns task counts grouped by priority
func (r *GormAnalyticsRepository) GroupByPriority(filter AnalyticsFilter) ([]FieldCount, error) {
	var rows []FieldCount
	err := r.scoped(filter).
		Select("priority AS value, COUNT(*) AS count").
		Group("priority").
		Scan(&rows).Error
	return rows, err
}

// UserPerformance aggregates per-assignee metrics, joined with user name and
// email, sorted by completion rate descending.
func (r *GormAnalyticsRepository) UserPerformance(filter AnalyticsFilter, now time.Time) ([]UserPerformanceRow, error) {
	var rows []UserPerformanceRow
	err := r.scoped(filter).
		Select(`
			tasks.assigned_to_id AS user_id,
			users.name AS user_name,
			users.email AS user_email,
			COUNT(*) AS total_tasks,
			SUM(CASE WHEN tasks.status = ? THEN 1 ELSE 0 END) AS completed_tasks,
			SUM(CASE WHEN tasks.due_date < ? AND tasks.status <> ? THEN 1 ELSE 0 END) AS overdue_tasks,
			SUM(CASE WHEN tasks.status = ? THEN 1 ELSE 0 END) * 100.0 / COUNT(*) AS completion_rate,
			AVG(tasks.estimated_hours) AS avg_estimated_hours,
			AVG(tasks.actual_hours) AS avg_actual_hours`,
			models.TaskStatusCompleted, now, models.TaskStatusCompleted, models.TaskStatusCompleted).
		Joins("JOIN users ON users.id = tasks.assigned_to_id").
		Group("tasks.assigned_to_id, users.name, users.email").
		Order("completion_rate DESC").
		Scan(&rows).Error
	return rows, err
}

// TimePoints returns the created/completed projection for trend bucketing
func (r *GormAnalyticsRepository) TimePoints(from time.Time) ([]TaskTimePoint, error) {
	var rows []TaskTimePoint
	err := r.db.Model(&models.Task{}).
		Select("created_at, completed_at, status").
		Where("created_at >= ?", from).
		Order("created_at ASC").
		Scan(&rows).Error
	return rows, err
}

// CompletedSince returns completion timestamps at or after from
func (r *GormAnalyticsRepository) CompletedSince(from time.Time) ([]time.Time, error) {
	var stamps []time.Time
	err := r.db.Model(&models.Task{}).
		Where("completed_at IS NOT NULL AND completed_at >= ?", from).
		Order("completed_at ASC").
		Pluck("completed_at", &stamps).Error
	return stamps, err
}

// FindForExport returns expanded tasks matching the filter, newest first
func (r *GormAnalyticsRepository) FindForExport(filter ExportFilter) ([]models.Task, error) {
	query := r.db.Model(&models.Task{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.AssignedToID != nil {
		query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}

	var tasks []models.Task
	err := query.
		Preload("AssignedTo").
		Preload("CreatedBy").
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}
