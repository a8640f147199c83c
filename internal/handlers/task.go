package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/taskhub-api/internal/dto"
	apierrors "github.com/taskhub/taskhub-api/internal/errors"
	"github.com/taskhub/taskhub-api/internal/middleware"
	"github.com/taskhub/taskhub-api/internal/models"
	"github.com/taskhub/taskhub-api/internal/services"
	"github.com/taskhub/taskhub-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// CreateTaskRequest is the JSON payload for create and the element type of
// bulk create.
type CreateTaskRequest struct {
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	DueDate        time.Time           `json:"due_date"`
	Tags           []string            `json:"tags"`
	AssignedTo     uint64              `json:"assigned_to"`
	EstimatedHours *float64            `json:"estimated_hours"`
}

func (r CreateTaskRequest) toInput() services.CreateTaskInput {
	return services.CreateTaskInput{
		Title:          r.Title,
		Description:    r.Description,
		Status:         r.Status,
		Priority:       r.Priority,
		DueDate:        r.DueDate,
		Tags:           r.Tags,
		AssignedToID:   r.AssignedTo,
		EstimatedHours: r.EstimatedHours,
	}
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(req.toInput(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Task created successfully", gin.H{
		"task": dto.ToTaskDTO(*task, time.Now()),
	})
}

// ListTasks returns tasks matching the query filters, paginated
func (h *TaskHandler) ListTasks(c *gin.Context) {
	if _, exists := middleware.GetUserID(c); !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)

	input := services.ListTasksInput{
		Search:   c.Query("search"),
		SortBy:   c.DefaultQuery("sort_by", "createdAt"),
		SortDesc: c.DefaultQuery("sort_order", "desc") == "desc",
		Page:     params.Page,
		PageSize: params.Limit,
	}

	if status := c.Query("status"); status != "" {
		s := models.TaskStatus(status)
		if !s.Valid() {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		input.Status = &s
	}
	if priority := c.Query("priority"); priority != "" {
		p := models.TaskPriority(priority)
		if !p.Valid() {
			apierrors.BadRequest(c, "Invalid priority")
			return
		}
		input.Priority = &p
	}
	if assignedTo := c.Query("assigned_to"); assignedTo != "" {
		id, err := strconv.ParseUint(assignedTo, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assigned_to")
			return
		}
		input.AssignedToID = &id
	}
	if tags := c.Query("tags"); tags != "" {
		input.Tags = strings.Split(tags, ",")
	}
	if dueDate := c.Query("due_date"); dueDate != "" {
		day, err := time.ParseInLocation("2006-01-02", dueDate, time.Local)
		if err != nil {
			apierrors.BadRequest(c, "Invalid due_date, expected YYYY-MM-DD")
			return
		}
		input.DueOn = &day
	}
	if c.Query("overdue") == "true" {
		input.Overdue = true
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"tasks":      dto.ToTaskDTOs(tasks, time.Now()),
		"pagination": dto.NewPagination(params.Page, params.Limit, total),
	})
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(taskID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"task": dto.ToTaskDTO(*task, time.Now()),
	})
}

// UpdateTask applies a partial update to a task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title          *string              `json:"title"`
		Description    *string              `json:"description"`
		Status         *models.TaskStatus   `json:"status"`
		Priority       *models.TaskPriority `json:"priority"`
		DueDate        *time.Time           `json:"due_date"`
		Tags           []string             `json:"tags"`
		AssignedTo     *uint64              `json:"assigned_to"`
		EstimatedHours *float64             `json:"estimated_hours"`
		ActualHours    *float64             `json:"actual_hours"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(taskID, services.UpdateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		DueDate:        req.DueDate,
		Tags:           req.Tags,
		AssignedToID:   req.AssignedTo,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Task updated successfully", gin.H{
		"task": dto.ToTaskDTO(*task, time.Now()),
	})
}

// DeleteTask soft deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(taskID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Task deleted successfully", nil)
}

// BulkCreateTasks creates a batch of tasks, all-or-nothing
func (h *TaskHandler) BulkCreateTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type BulkCreateRequest struct {
		Tasks []CreateTaskRequest `json:"tasks"`
	}

	var req BulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	items := make([]services.CreateTaskInput, len(req.Tasks))
	for i, t := range req.Tasks {
		items[i] = t.toInput()
	}

	tasks, err := h.taskService.BulkCreateTasks(items, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated,
		strconv.Itoa(len(tasks))+" tasks created successfully", gin.H{
			"tasks": dto.ToTaskDTOs(tasks, time.Now()),
		})
}

// parseIDParam parses a numeric URL parameter, responding 400 on failure.
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}
