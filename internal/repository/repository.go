package repository

import (
	"time"

	"github.com/taskhub/taskhub-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// CreateBatch inserts all tasks in a single statement, all-or-nothing
	CreateBatch(tasks []*models.Task) error

	// FindByID finds a non-deleted task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// FindByIDs finds non-deleted tasks by ID with optional preloading
	FindByIDs(ids []uint64, preload ...string) ([]models.Task, error)

	// List retrieves tasks with filtering, sorting and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update persists the full task record
	Update(task *models.Task) error

	// Delete soft deletes a task
	Delete(id uint64) error

	// AppendAttachment adds an attachment row owned by a task
	AppendAttachment(attachment *models.Attachment) error

	// RemoveAttachment removes an attachment row
	RemoveAttachment(id uint64) error
}

// TaskFilter holds filtering options for listing tasks. All set filters are
// ANDed; soft-deleted tasks are always excluded.
type TaskFilter struct {
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	AssignedToID *uint64
	// Tags matches tasks carrying any of the given tags
	Tags []string
	// Search is a case-insensitive substring match across title, description
	// and tags
	Search string
	// DueOn matches tasks due on that calendar day
	DueOn *time.Time
	// OverdueAt, when set, restricts to tasks past due and not completed
	OverdueAt *time.Time

	SortBy   string
	SortDesc bool
	Page     int
	PageSize int
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a new comment
	Create(comment *models.Comment) error

	// FindByID finds a non-deleted comment by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Comment, error)

	// ListByTask retrieves non-deleted comments for a task, newest first
	ListByTask(taskID uint64, page, pageSize int) ([]models.Comment, int64, error)

	// Update persists the full comment record
	Update(comment *models.Comment) error

	// Delete soft deletes a comment
	Delete(id uint64) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// CountByIDs counts how many of the given user IDs exist
	CountByIDs(ids []uint64) (int64, error)
}

// AnalyticsFilter narrows analytics queries. Soft-deleted tasks are always
// excluded.
type AnalyticsFilter struct {
	AssignedToID *uint64
	CreatedFrom  *time.Time
}

// FieldCount is one bucket of a grouped count.
type FieldCount struct {
	Value string `gorm:"column:value"`
	Count int64  `gorm:"column:count"`
}

// UserPerformanceRow is one assignee's aggregate over the period.
type UserPerformanceRow struct {
	UserID         uint64  `gorm:"column:user_id" json:"userId"`
	UserName       string  `gorm:"column:user_name" json:"userName"`
	UserEmail      string  `gorm:"column:user_email" json:"userEmail"`
	TotalTasks     int64   `gorm:"column:total_tasks" json:"totalTasks"`
	CompletedTasks int64   `gorm:"column:completed_tasks" json:"completedTasks"`
	OverdueTasks   int64   `gorm:"column:overdue_tasks" json:"overdueTasks"`
	CompletionRate float64 `gorm:"column:completion_rate" json:"completionRate"`
	AvgEstimated   float64 `gorm:"column:avg_estimated_hours" json:"avgEstimatedHours"`
	AvgActual      float64 `gorm:"column:avg_actual_hours" json:"avgActualHours"`
}

// TaskTimePoint is the narrow projection trend bucketing runs over.
type TaskTimePoint struct {
	CreatedAt   time.Time         `gorm:"column:created_at"`
	CompletedAt *time.Time        `gorm:"column:completed_at"`
	Status      models.TaskStatus `gorm:"column:status"`
}

// ExportFilter narrows the export query.
type ExportFilter struct {
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	AssignedToID *uint64
	StartDate    *time.Time
	EndDate      *time.Time
}

// AnalyticsRepository defines the read-only aggregate queries the analytics
// engine composes.
type AnalyticsRepository interface {
	// CountTasks counts non-deleted tasks matching the filter
	CountTasks(filter AnalyticsFilter) (int64, error)

	// CountByStatus counts tasks matching the filter and the status
	CountByStatus(filter AnalyticsFilter, status models.TaskStatus) (int64, error)

	// CountOverdue counts tasks past due at now and not completed
	CountOverdue(filter AnalyticsFilter, now time.Time) (int64, error)

	// GroupByStatus returns task counts grouped by status
	GroupByStatus(filter AnalyticsFilter) ([]FieldCount, error)

	// GroupByPriority returns task counts grouped by priority
	GroupByPriority(filter AnalyticsFilter) ([]FieldCount, error)

	// UserPerformance aggregates per-assignee metrics, joined with user
	// name/email, sorted by completion rate descending
	UserPerformance(filter AnalyticsFilter, now time.Time) ([]UserPerformanceRow, error)

	// TimePoints returns the created/completed projection for trend bucketing
	TimePoints(from time.Time) ([]TaskTimePoint, error)

	// CompletedSince returns completion timestamps at or after from
	CompletedSince(from time.Time) ([]time.Time, error)

	// FindForExport returns expanded tasks matching the filter, newest first
	FindForExport(filter ExportFilter) ([]models.Task, error)
}
