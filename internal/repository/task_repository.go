package repository

import (
	"strings"
	"time"

	"github.com/taskhub/taskhub-api/internal/database"
	"github.com/taskhub/taskhub-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// sortableColumns whitelists the fields a list request may sort on.
var sortableColumns = map[string]string{
	"createdAt":      "created_at",
	"updatedAt":      "updated_at",
	"dueDate":        "due_date",
	"title":          "title",
	"status":         "status",
	"priority":       "priority",
	"estimatedHours": "estimated_hours",
	"actualHours":    "actual_hours",
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// CreateBatch inserts all tasks in a single statement, all-or-nothing
func (r *GormTaskRepository) CreateBatch(tasks []*models.Task) error {
	return r.db.Create(tasks).Error
}

// FindByID finds a non-deleted task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// FindByIDs finds non-deleted tasks by ID with optional preloading
func (r *GormTaskRepository) FindByIDs(ids []uint64, preload ...string) ([]models.Task, error) {
	var tasks []models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.Where("id IN ?", ids).Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

// List retrieves tasks with filtering, sorting and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

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
	if len(filter.Tags) > 0 {
		// Tags are stored JSON-serialized; an any-of match is an OR of LIKEs
		// against the quoted tag.
		tagQuery := r.db
		for _, tag := range filter.Tags {
			tagQuery = tagQuery.Or(`tags LIKE ?`, `%"`+tag+`"%`)
		}
		query = query.Where(tagQuery)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.DueOn != nil {
		d := *filter.DueOn
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		query = query.Where("due_date >= ? AND due_date < ?", day, day.Add(24*time.Hour))
	}
	if filter.OverdueAt != nil {
		query = query.Where("due_date < ? AND status <> ?", *filter.OverdueAt, models.TaskStatusCompleted)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortableColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	listQuery := query.Order(column + " " + direction).
		Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Preload("AssignedTo").Preload("CreatedBy").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update persists the full task record
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Task{}, id).Error
}

// AppendAttachment adds an attachment row owned by a task
func (r *GormTaskRepository) AppendAttachment(attachment *models.Attachment) error {
	return r.db.Create(attachment).Error
}

// RemoveAttachment removes an attachment row. Attachments are value objects,
// so removal is a hard delete.
func (r *GormTaskRepository) RemoveAttachment(id uint64) error {
	return r.db.Unscoped().Delete(&models.Attachment{}, id).Error
}
