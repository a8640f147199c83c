package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/taskhub/taskhub-api/internal/models"
	"github.com/taskhub/taskhub-api/internal/repository"
)

// AnalyticsService is the read-only engine deriving overview counts, per-user
// performance and time-bucketed trends from the task data, plus JSON/CSV
// export.
type AnalyticsService struct {
	analyticsRepo repository.AnalyticsRepository
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(analyticsRepo repository.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{analyticsRepo: analyticsRepo}
}

// OverviewInput narrows the overview computation
type OverviewInput struct {
	AssignedToID *uint64
	DateRange    string
}

// Overview is the aggregate snapshot returned by the overview endpoint
type Overview struct {
	TotalTasks     int64            `json:"totalTasks"`
	CompletedTasks int64            `json:"completedTasks"`
	CompletionRate float64          `json:"completionRate"`
	OverdueCount   int64            `json:"overdueCount"`
	StatusStats    map[string]int64 `json:"statusStats"`
	PriorityStats  map[string]int64 `json:"priorityStats"`
}

// TrendBucket is one time bucket of the creation trend series
type TrendBucket struct {
	Period         string `json:"period"`
	TasksCreated   int64  `json:"tasksCreated"`
	TasksCompleted int64  `json:"tasksCompleted"`
}

// CompletionBucket is one day of the completion trend series
type CompletionBucket struct {
	Period         string `json:"period"`
	CompletedTasks int64  `json:"completedTasks"`
}

// Trends bundles both trend series. The creation series buckets by createdAt
// and counts tasks currently completed regardless of completion date; the
// completion series buckets by completedAt. Both are reported side by side.
type Trends struct {
	Period           string             `json:"period"`
	GroupBy          string             `json:"groupBy"`
	CreationTrends   []TrendBucket      `json:"creationTrends"`
	CompletionTrends []CompletionBucket `json:"completionTrends"`
}

// ExportInput narrows the export query
type ExportInput struct {
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	AssignedToID *uint64
	StartDate    *time.Time
	EndDate      *time.Time
}

// GetOverview computes total, per-status, per-priority and overdue counts and
// the completion rate for the filtered task set.
func (s *AnalyticsService) GetOverview(input OverviewInput) (*Overview, error) {
	now := time.Now()

	filter := repository.AnalyticsFilter{AssignedToID: input.AssignedToID}
	if start := periodStart(now, input.DateRange); start != nil {
		filter.CreatedFrom = start
	}

	total, err := s.analyticsRepo.CountTasks(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	completed, err := s.analyticsRepo.CountByStatus(filter, models.TaskStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed tasks: %w", err)
	}

	overdue, err := s.analyticsRepo.CountOverdue(filter, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue tasks: %w", err)
	}

	statusRows, err := s.analyticsRepo.GroupByStatus(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to group by status: %w", err)
	}

	priorityRows, err := s.analyticsRepo.GroupByPriority(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to group by priority: %w", err)
	}

	completionRate := 0.0
	if total > 0 {
		completionRate = round2(float64(completed) / float64(total) * 100)
	}

	return &Overview{
		TotalTasks:     total,
		CompletedTasks: completed,
		CompletionRate: completionRate,
		OverdueCount:   overdue,
		StatusStats:    countsToMap(statusRows),
		PriorityStats:  countsToMap(priorityRows),
	}, nil
}

// GetUserPerformance aggregates per-assignee metrics over the period, sorted
// by completion rate descending. Averages and rates are rounded to 2 decimals.
func (s *AnalyticsService) GetUserPerformance(period string, userID *uint64) ([]repository.UserPerformanceRow, error) {
	now := time.Now()

	start := periodStart(now, period)
	if start == nil {
		start = periodStart(now, "month")
	}

	filter := repository.AnalyticsFilter{
		AssignedToID: userID,
		CreatedFrom:  start,
	}

	rows, err := s.analyticsRepo.UserPerformance(filter, now)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user performance: %w", err)
	}

	for i := range rows {
		rows[i].CompletionRate = round2(rows[i].CompletionRate)
		rows[i].AvgEstimated = round2(rows[i].AvgEstimated)
		rows[i].AvgActual = round2(rows[i].AvgActual)
	}

	return rows, nil
}

// GetTrends produces ordered creation buckets at the requested granularity
// and a day-granularity completion series.
func (s *AnalyticsService) GetTrends(period, groupBy string) (*Trends, error) {
	now := time.Now()

	start := periodStart(now, period)
	if start == nil {
		start = periodStart(now, "month")
	}
	if !validGroupBy(groupBy) {
		groupBy = "day"
	}

	points, err := s.analyticsRepo.TimePoints(*start)
	if err != nil {
		return nil, fmt.Errorf("failed to load trend points: %w", err)
	}

	created := make(map[string]*TrendBucket)
	for _, p := range points {
		key := bucketKey(p.CreatedAt, groupBy)
		bucket, ok := created[key]
		if !ok {
			bucket = &TrendBucket{Period: key}
			created[key] = bucket
		}
		bucket.TasksCreated++
		if p.Status == models.TaskStatusCompleted {
			bucket.TasksCompleted++
		}
	}

	stamps, err := s.analyticsRepo.CompletedSince(*start)
	if err != nil {
		return nil, fmt.Errorf("failed to load completion stamps: %w", err)
	}

	completed := make(map[string]*CompletionBucket)
	for _, stamp := range stamps {
		key := bucketKey(stamp, "day")
		bucket, ok := completed[key]
		if !ok {
			bucket = &CompletionBucket{Period: key}
			completed[key] = bucket
		}
		bucket.CompletedTasks++
	}

	return &Trends{
		Period:           period,
		GroupBy:          groupBy,
		CreationTrends:   sortedTrendBuckets(created),
		CompletionTrends: sortedCompletionBuckets(completed),
	}, nil
}

// Export returns expanded tasks matching the filter in descending createdAt
// order.
func (s *AnalyticsService) Export(input ExportInput) ([]models.Task, error) {
	tasks, err := s.analyticsRepo.FindForExport(repository.ExportFilter{
		Status:       input.Status,
		Priority:     input.Priority,
		AssignedToID: input.AssignedToID,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export tasks: %w", err)
	}
	return tasks, nil
}

// exportColumns is the fixed CSV column order.
var exportColumns = []string{
	"ID", "Title", "Description", "Status", "Priority",
	"Due Date", "Assigned To", "Created By", "Created At", "Completed At",
}

// WriteCSV writes one row per task in the fixed column order. encoding/csv
// quotes values containing commas, quotes or newlines.
func (s *AnalyticsService) WriteCSV(w io.Writer, tasks []models.Task) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(exportColumns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, task := range tasks {
		completedAt := ""
		if task.CompletedAt != nil {
			completedAt = task.CompletedAt.Format(time.RFC3339)
		}
		row := []string{
			fmt.Sprintf("%d", task.ID),
			task.Title,
			task.Description,
			string(task.Status),
			string(task.Priority),
			task.DueDate.Format(time.RFC3339),
			task.AssignedTo.Name,
			task.CreatedBy.Name,
			task.CreatedAt.Format(time.RFC3339),
			completedAt,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// periodStart maps a named range onto "now minus N calendar units". Unknown
// or empty ranges return nil (no lower bound).
func periodStart(now time.Time, period string) *time.Time {
	var start time.Time
	switch period {
	case "week":
		start = now.AddDate(0, 0, -7)
	case "month":
		start = now.AddDate(0, -1, 0)
	case "quarter":
		start = now.AddDate(0, -3, 0)
	case "year":
		start = now.AddDate(-1, 0, 0)
	default:
		return nil
	}
	return &start
}

func validGroupBy(groupBy string) bool {
	switch groupBy {
	case "hour", "day", "week", "month":
		return true
	}
	return false
}

// bucketKey formats a timestamp into its bucket label. All formats sort
// lexicographically in chronological order.
func bucketKey(t time.Time, groupBy string) string {
	switch groupBy {
	case "hour":
		return t.Format("2006-01-02 15:00")
	case "week":
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case "month":
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

func sortedTrendBuckets(buckets map[string]*TrendBucket) []TrendBucket {
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]TrendBucket, len(keys))
	for i, key := range keys {
		out[i] = *buckets[key]
	}
	return out
}

func sortedCompletionBuckets(buckets map[string]*CompletionBucket) []CompletionBucket {
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]CompletionBucket, len(keys))
	for i, key := range keys {
		out[i] = *buckets[key]
	}
	return out
}

func countsToMap(rows []repository.FieldCount) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Value] = row.Count
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
