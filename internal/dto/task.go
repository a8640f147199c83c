package dto

import (
	"time"

	"github.com/taskhub/taskhub-api/internal/models"
)

// UserSummaryDTO is the expanded form of a user reference on tasks and
// comments.
type UserSummaryDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	DueDate        time.Time           `json:"due_date"`
	Tags           []string            `json:"tags"`
	EstimatedHours float64             `json:"estimated_hours"`
	ActualHours    float64             `json:"actual_hours"`
	CompletedAt    *time.Time          `json:"completed_at"`
	IsOverdue      bool                `json:"is_overdue"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	AssignedTo     *UserSummaryDTO     `json:"assigned_to,omitempty"`
	CreatedBy      *UserSummaryDTO     `json:"created_by,omitempty"`
	Attachments    []models.Attachment `json:"attachments,omitempty"`
}

// Conversion functions

// ToUserSummaryDTO converts a User model to UserSummaryDTO
func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task, now time.Time) TaskDTO {
	dto := TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Priority:       task.Priority,
		DueDate:        task.DueDate,
		Tags:           task.Tags,
		EstimatedHours: task.EstimatedHours,
		ActualHours:    task.ActualHours,
		CompletedAt:    task.CompletedAt,
		IsOverdue:      task.IsOverdue(now),
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
		Attachments:    task.Attachments,
	}

	// Include user expansions if preloaded
	if task.AssignedTo.ID != 0 {
		assigned := ToUserSummaryDTO(task.AssignedTo)
		dto.AssignedTo = &assigned
	}
	if task.CreatedBy.ID != 0 {
		creator := ToUserSummaryDTO(task.CreatedBy)
		dto.CreatedBy = &creator
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task, now time.Time) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task, now)
	}
	return items
}
