package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/taskhub-api/internal/dto"
	apierrors "github.com/taskhub/taskhub-api/internal/errors"
	"github.com/taskhub/taskhub-api/internal/models"
	"github.com/taskhub/taskhub-api/internal/services"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// GetOverview returns total/status/priority/overdue counts and the completion
// rate for the filtered task set
func (h *AnalyticsHandler) GetOverview(c *gin.Context) {
	input := services.OverviewInput{
		DateRange: c.Query("date_range"),
	}

	userID, ok := parseOptionalUserID(c)
	if !ok {
		return
	}
	input.AssignedToID = userID

	overview, err := h.analyticsService.GetOverview(input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"totalTasks":     overview.TotalTasks,
		"completedTasks": overview.CompletedTasks,
		"completionRate": overview.CompletionRate,
		"overdueCount":   overview.OverdueCount,
		"statusStats":    overview.StatusStats,
		"priorityStats":  overview.PriorityStats,
	})
}

// GetUserPerformance returns per-assignee metrics over the period
func (h *AnalyticsHandler) GetUserPerformance(c *gin.Context) {
	period := c.DefaultQuery("period", "month")

	userID, ok := parseOptionalUserID(c)
	if !ok {
		return
	}

	rows, err := h.analyticsService.GetUserPerformance(period, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"period":          period,
		"userPerformance": rows,
	})
}

// GetTrends returns the creation and completion trend series
func (h *AnalyticsHandler) GetTrends(c *gin.Context) {
	period := c.DefaultQuery("period", "month")
	groupBy := c.DefaultQuery("group_by", "day")

	trends, err := h.analyticsService.GetTrends(period, groupBy)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"period":           trends.Period,
		"groupBy":          trends.GroupBy,
		"creationTrends":   trends.CreationTrends,
		"completionTrends": trends.CompletionTrends,
	})
}

// ExportTasks returns the filtered task set as JSON or CSV
func (h *AnalyticsHandler) ExportTasks(c *gin.Context) {
	input := services.ExportInput{}

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
	userID, ok := parseOptionalUserID(c, "assigned_to")
	if !ok {
		return
	}
	input.AssignedToID = userID

	if start := c.Query("start_date"); start != "" {
		t, err := time.ParseInLocation("2006-01-02", start, time.Local)
		if err != nil {
			apierrors.BadRequest(c, "Invalid start_date, expected YYYY-MM-DD")
			return
		}
		input.StartDate = &t
	}
	if end := c.Query("end_date"); end != "" {
		t, err := time.ParseInLocation("2006-01-02", end, time.Local)
		if err != nil {
			apierrors.BadRequest(c, "Invalid end_date, expected YYYY-MM-DD")
			return
		}
		input.EndDate = &t
	}

	tasks, err := h.analyticsService.Export(input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if c.DefaultQuery("format", "json") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="tasks-export.csv"`)
		c.Status(http.StatusOK)
		if err := h.analyticsService.WriteCSV(c.Writer, tasks); err != nil {
			// Headers are already out; nothing left to do but log via the
			// default gin error collection.
			_ = c.Error(err)
		}
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"exportedAt":   time.Now(),
		"totalRecords": len(tasks),
		"tasks":        dto.ToTaskDTOs(tasks, time.Now()),
	})
}

// parseOptionalUserID reads an optional numeric user filter from the query,
// responding 400 when malformed. The param name defaults to "user_id".
func parseOptionalUserID(c *gin.Context, name ...string) (*uint64, bool) {
	param := "user_id"
	if len(name) > 0 {
		param = name[0]
	}

	raw := c.Query(param)
	if raw == "" {
		return nil, true
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+param)
		return nil, false
	}
	return &id, true
}
