package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/taskhub/taskhub-api/internal/models"
	"github.com/taskhub/taskhub-api/internal/repository"
	"github.com/taskhub/taskhub-api/internal/validation"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrAssignedUserNotFound = errors.New("assigned user not found")
	ErrNoTasksProvided      = errors.New("tasks array is required")
)

// taskPreloads expand user references to summary records on every read.
var taskPreloads = []string{"AssignedTo", "CreatedBy", "Attachments"}

// TaskService owns the task lifecycle: create, list, read, partial update,
// soft delete and bulk create, including completed-at bookkeeping.
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title          string
	Description    string
	Status         models.TaskStatus
	Priority       models.TaskPriority
	DueDate        time.Time
	Tags           []string
	AssignedToID   uint64
	EstimatedHours *float64
}

// UpdateTaskInput represents a partial update; nil fields are untouched
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	DueDate        *time.Time
	Tags           []string
	AssignedToID   *uint64
	EstimatedHours *float64
	ActualHours    *float64
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	AssignedToID *uint64
	Tags         []string
	Search       string
	DueOn        *time.Time
	Overdue      bool
	SortBy       string
	SortDesc     bool
	Page         int
	PageSize     int
}

// CreateTask validates input, resolves the assignee and persists the task
// with the creator stamped on it.
func (s *TaskService) CreateTask(input CreateTaskInput, creatorID uint64) (*models.Task, error) {
	now := time.Now()

	fields := validation.TaskFields{
		Title:          &input.Title,
		Description:    &input.Description,
		DueDate:        dueDatePtr(input.DueDate),
		Tags:           input.Tags,
		AssignedToID:   assigneePtr(input.AssignedToID),
		EstimatedHours: input.EstimatedHours,
	}
	if input.Status != "" {
		fields.Status = &input.Status
	}
	if input.Priority != "" {
		fields.Priority = &input.Priority
	}
	if errs := validation.ValidateTaskCreate(fields, now); len(errs) > 0 {
		return nil, errs
	}

	if err := s.resolveAssignee(input.AssignedToID); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:        input.Title,
		Description:  input.Description,
		Status:       input.Status,
		Priority:     input.Priority,
		DueDate:      input.DueDate,
		Tags:         input.Tags,
		AssignedToID: input.AssignedToID,
		CreatedByID:  creatorID,
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if input.EstimatedHours != nil {
		task.EstimatedHours = *input.EstimatedHours
	}
	task.SyncCompletedAt(now)

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// ListTasks returns tasks matching the ANDed filters, soft-deleted excluded.
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		Status:       input.Status,
		Priority:     input.Priority,
		AssignedToID: input.AssignedToID,
		Tags:         input.Tags,
		Search:       input.Search,
		DueOn:        input.DueOn,
		SortBy:       input.SortBy,
		SortDesc:     input.SortDesc,
		Page:         input.Page,
		PageSize:     input.PageSize,
	}
	if input.Overdue {
		now := time.Now()
		filter.OverdueAt = &now
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with expanded user references
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// UpdateTask applies a partial update. Omitted fields stay untouched; the
// completed-at invariant is re-applied after any status change.
func (s *TaskService) UpdateTask(taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	now := time.Now()

	fields := validation.TaskFields{
		Title:          input.Title,
		Description:    input.Description,
		Status:         input.Status,
		Priority:       input.Priority,
		DueDate:        input.DueDate,
		Tags:           input.Tags,
		AssignedToID:   input.AssignedToID,
		EstimatedHours: input.EstimatedHours,
		ActualHours:    input.ActualHours,
	}
	if errs := validation.ValidateTaskUpdate(fields, now); len(errs) > 0 {
		return nil, errs
	}

	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if input.AssignedToID != nil && *input.AssignedToID != task.AssignedToID {
		if err := s.resolveAssignee(*input.AssignedToID); err != nil {
			return nil, err
		}
		task.AssignedToID = *input.AssignedToID
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = *input.DueDate
	}
	if input.Tags != nil {
		task.Tags = input.Tags
	}
	if input.EstimatedHours != nil {
		task.EstimatedHours = *input.EstimatedHours
	}
	if input.ActualHours != nil {
		task.ActualHours = *input.ActualHours
	}

	task.SyncCompletedAt(now)

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// DeleteTask soft deletes a task. An already-deleted task is invisible to the
// lookup and reports not found.
func (s *TaskService) DeleteTask(taskID uint64) error {
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// BulkCreateTasks validates every item and every distinct assignee before a
// single all-or-nothing insert. A missing assignee rejects the whole batch.
func (s *TaskService) BulkCreateTasks(items []CreateTaskInput, creatorID uint64) ([]models.Task, error) {
	if len(items) == 0 {
		return nil, ErrNoTasksProvided
	}

	now := time.Now()

	var allErrs validation.Errors
	for i, item := range items {
		fields := validation.TaskFields{
			Title:          &items[i].Title,
			Description:    &items[i].Description,
			DueDate:        dueDatePtr(item.DueDate),
			Tags:           item.Tags,
			AssignedToID:   assigneePtr(item.AssignedToID),
			EstimatedHours: item.EstimatedHours,
		}
		if item.Status != "" {
			fields.Status = &items[i].Status
		}
		if item.Priority != "" {
			fields.Priority = &items[i].Priority
		}
		for _, fe := range validation.ValidateTaskCreate(fields, now) {
			fe.Param = fmt.Sprintf("tasks[%d].%s", i, fe.Param)
			allErrs = append(allErrs, fe)
		}
	}
	if len(allErrs) > 0 {
		return nil, allErrs
	}

	assigneeIDs := uniqueUint64(collectAssignees(items))
	count, err := s.userRepo.CountByIDs(assigneeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to verify assigned users: %w", err)
	}
	if int(count) != len(assigneeIDs) {
		return nil, ErrAssignedUserNotFound
	}

	tasks := make([]*models.Task, len(items))
	for i, item := range items {
		task := &models.Task{
			Title:        item.Title,
			Description:  item.Description,
			Status:       item.Status,
			Priority:     item.Priority,
			DueDate:      item.DueDate,
			Tags:         item.Tags,
			AssignedToID: item.AssignedToID,
			CreatedByID:  creatorID,
		}
		if task.Status == "" {
			task.Status = models.TaskStatusTodo
		}
		if task.Priority == "" {
			task.Priority = models.PriorityMedium
		}
		if item.EstimatedHours != nil {
			task.EstimatedHours = *item.EstimatedHours
		}
		task.SyncCompletedAt(now)
		tasks[i] = task
	}

	if err := s.taskRepo.CreateBatch(tasks); err != nil {
		return nil, fmt.Errorf("failed to create tasks: %w", err)
	}

	ids := make([]uint64, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}

	created, err := s.taskRepo.FindByIDs(ids, taskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to load created tasks: %w", err)
	}

	return created, nil
}

// resolveAssignee verifies the assignee references an existing user.
func (s *TaskService) resolveAssignee(userID uint64) error {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignedUserNotFound
		}
		return fmt.Errorf("failed to verify assigned user: %w", err)
	}
	return nil
}

func collectAssignees(items []CreateTaskInput) []uint64 {
	ids := make([]uint64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.AssignedToID)
	}
	return ids
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}

func dueDatePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func assigneePtr(id uint64) *uint64 {
	if id == 0 {
		return nil
	}
	return &id
}
