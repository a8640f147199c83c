package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/taskhub/taskhub-api/internal/models"
	"github.com/taskhub/taskhub-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// AnalyticsServiceTestSuite defines the test suite for AnalyticsService
type AnalyticsServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *AnalyticsService
	alice   *models.User
	bob     *models.User
}

// SetupTest runs before each test
func (suite *AnalyticsServiceTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Attachment{},
		&models.Comment{},
	)
	suite.Require().NoError(err)

	suite.service = NewAnalyticsService(repository.NewAnalyticsRepository(suite.db))

	suite.alice = &models.User{
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.RoleUser,
		IsActive:     true,
	}
	suite.db.Create(suite.alice)

	suite.bob = &models.User{
		Name:         "Bob",
		Email:        "bob@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.RoleUser,
		IsActive:     true,
	}
	suite.db.Create(suite.bob)
}

// TearDownTest runs after each test
func (suite *AnalyticsServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// seedTask persists a task directly, bypassing the service layer, so tests
// control status and due date freely.
func (suite *AnalyticsServiceTestSuite) seedTask(title string, assignee *models.User, status models.TaskStatus, priority models.TaskPriority, dueDate time.Time) *models.Task {
	task := &models.Task{
		Title:        title,
		Description:  "seeded for analytics",
		Status:       status,
		Priority:     priority,
		DueDate:      dueDate,
		AssignedToID: assignee.ID,
		CreatedByID:  suite.alice.ID,
	}
	task.SyncCompletedAt(time.Now())
	suite.Require().NoError(suite.db.Create(task).Error)
	return task
}

func (suite *AnalyticsServiceTestSuite) TestGetOverview_Empty() {
	overview, err := suite.service.GetOverview(OverviewInput{})
	suite.Require().NoError(err)

	assert.Equal(suite.T(), int64(0), overview.TotalTasks)
	assert.Equal(suite.T(), int64(0), overview.CompletedTasks)
	assert.Equal(suite.T(), 0.0, overview.CompletionRate)
	assert.Equal(suite.T(), int64(0), overview.OverdueCount)
	assert.Empty(suite.T(), overview.StatusStats)
	assert.Empty(suite.T(), overview.PriorityStats)
}

func (suite *AnalyticsServiceTestSuite) TestGetOverview_CountsAndRate() {
	future := time.Now().Add(48 * time.Hour)
	past := time.Now().Add(-48 * time.Hour)

	suite.seedTask("Done", suite.alice, models.TaskStatusCompleted, models.PriorityHigh, future)
	suite.seedTask("Pending", suite.alice, models.TaskStatusTodo, models.PriorityMedium, future)
	suite.seedTask("Late", suite.bob, models.TaskStatusInProgress, models.PriorityUrgent, past)

	overview, err := suite.service.GetOverview(OverviewInput{})
	suite.Require().NoError(err)

	assert.Equal(suite.T(), int64(3), overview.TotalTasks)
	assert.Equal(suite.T(), int64(1), overview.CompletedTasks)
	assert.Equal(suite.T(), 33.33, overview.CompletionRate)
	assert.Equal(suite.T(), int64(1), overview.OverdueCount)

	assert.Equal(suite.T(), int64(1), overview.StatusStats["completed"])
	assert.Equal(suite.T(), int64(1), overview.StatusStats["todo"])
	assert.Equal(suite.T(), int64(1), overview.StatusStats["in-progress"])
	assert.Equal(suite.T(), int64(1), overview.PriorityStats["high"])
	assert.Equal(suite.T(), int64(1), overview.PriorityStats["medium"])
	assert.Equal(suite.T(), int64(1), overview.PriorityStats["urgent"])
}

func (suite *AnalyticsServiceTestSuite) TestGetOverview_CompletedPastDueIsNotOverdue() {
	past := time.Now().Add(-48 * time.Hour)
	suite.seedTask("Done late", suite.alice, models.TaskStatusCompleted, models.PriorityLow, past)

	overview, err := suite.service.GetOverview(OverviewInput{})
	suite.Require().NoError(err)

	assert.Equal(suite.T(), int64(0), overview.OverdueCount)
	assert.Equal(suite.T(), 100.0, overview.CompletionRate)
}

func (suite *AnalyticsServiceTestSuite) TestGetOverview_FilterByAssignee() {
	future := time.Now().Add(48 * time.Hour)
	suite.seedTask("Alice 1", suite.alice, models.TaskStatusTodo, models.PriorityMedium, future)
	suite.seedTask("Alice 2", suite.alice, models.TaskStatusCompleted, models.PriorityMedium, future)
	suite.seedTask("Bob 1", suite.bob, models.TaskStatusTodo, models.PriorityMedium, future)

	overview, err := suite.service.GetOverview(OverviewInput{AssignedToID: &suite.alice.ID})
	suite.Require().NoError(err)

	assert.Equal(suite.T(), int64(2), overview.TotalTasks)
	assert.Equal(suite.T(), int64(1), overview.CompletedTasks)
	assert.Equal(suite.T(), 50.0, overview.CompletionRate)
}

func (suite *AnalyticsServiceTestSuite) TestGetUserPerformance_SortedByCompletionRate() {
	future := time.Now().Add(48 * time.Hour)

	// Alice: 1 of 2 completed (50%). Bob: 1 of 1 completed (100%).
	suite.seedTask("Alice done", suite.alice, models.TaskStatusCompleted, models.PriorityMedium, future)
	suite.seedTask("Alice open", suite.alice, models.TaskStatusTodo, models.PriorityMedium, future)
	suite.seedTask("Bob done", suite.bob, models.TaskStatusCompleted, models.PriorityMedium, future)

	rows, err := suite.service.GetUserPerformance("month", nil)
	suite.Require().NoError(err)
	suite.Require().Len(rows, 2)

	assert.Equal(suite.T(), "Bob", rows[0].UserName)
	assert.Equal(suite.T(), 100.0, rows[0].CompletionRate)
	assert.Equal(suite.T(), int64(1), rows[0].TotalTasks)

	assert.Equal(suite.T(), "Alice", rows[1].UserName)
	assert.Equal(suite.T(), 50.0, rows[1].CompletionRate)
	assert.Equal(suite.T(), int64(2), rows[1].TotalTasks)
	assert.Equal(suite.T(), int64(1), rows[1].CompletedTasks)
}

func (suite *AnalyticsServiceTestSuite) TestGetUserPerformance_WindowExcludesOldTasks() {
	future := time.Now().Add(48 * time.Hour)
	suite.seedTask("Recent", suite.alice, models.TaskStatusCompleted, models.PriorityMedium, future)
	old := suite.seedTask("Ancient", suite.bob, models.TaskStatusTodo, models.PriorityMedium, future)

	// Push the second task out of the month window
	suite.Require().NoError(suite.db.Model(&models.Task{}).
		Where("id = ?", old.ID).
		Update("created_at", time.Now().AddDate(0, -2, 0)).Error)

	rows, err := suite.service.GetUserPerformance("month", nil)
	suite.Require().NoError(err)
	suite.Require().Len(rows, 1)
	assert.Equal(suite.T(), suite.alice.ID, rows[0].UserID)
}

func (suite *AnalyticsServiceTestSuite) TestGetUserPerformance_SingleUser() {
	future := time.Now().Add(48 * time.Hour)
	suite.seedTask("Alice done", suite.alice, models.TaskStatusCompleted, models.PriorityMedium, future)
	suite.seedTask("Bob done", suite.bob, models.TaskStatusCompleted, models.PriorityMedium, future)

	rows, err := suite.service.GetUserPerformance("month", &suite.bob.ID)
	suite.Require().NoError(err)
	suite.Require().Len(rows, 1)
	assert.Equal(suite.T(), suite.bob.ID, rows[0].UserID)
}

func (suite *AnalyticsServiceTestSuite) TestGetTrends_DayBuckets() {
	future := time.Now().Add(48 * time.Hour)
	today := time.Now().Format("2006-01-02")

	suite.seedTask("One", suite.alice, models.TaskStatusTodo, models.PriorityMedium, future)
	suite.seedTask("Two", suite.alice, models.TaskStatusCompleted, models.PriorityMedium, future)

	trends, err := suite.service.GetTrends("week", "day")
	suite.Require().NoError(err)

	assert.Equal(suite.T(), "week", trends.Period)
	assert.Equal(suite.T(), "day", trends.GroupBy)

	suite.Require().Len(trends.CreationTrends, 1)
	assert.Equal(suite.T(), today, trends.CreationTrends[0].Period)
	assert.Equal(suite.T(), int64(2), trends.CreationTrends[0].TasksCreated)
	assert.Equal(suite.T(), int64(1), trends.CreationTrends[0].TasksCompleted)

	suite.Require().Len(trends.CompletionTrends, 1)
	assert.Equal(suite.T(), today, trends.CompletionTrends[0].Period)
	assert.Equal(suite.T(), int64(1), trends.CompletionTrends[0].CompletedTasks)
}

func (suite *AnalyticsServiceTestSuite) TestGetTrends_BucketGranularities() {
	future := time.Now().Add(48 * time.Hour)
	suite.seedTask("One", suite.alice, models.TaskStatusTodo, models.PriorityMedium, future)

	now := time.Now()
	year, week := now.ISOWeek()
	expected := map[string]string{
		"hour":  now.Format("2006-01-02 15:00"),
		"week":  fmt.Sprintf("%04d-W%02d", year, week),
		"month": now.Format("2006-01"),
	}

	for groupBy, key := range expected {
		trends, err := suite.service.GetTrends("week", groupBy)
		suite.Require().NoError(err)

		assert.Equal(suite.T(), groupBy, trends.GroupBy)
		suite.Require().Len(trends.CreationTrends, 1, "groupBy=%s", groupBy)
		assert.Equal(suite.T(), key, trends.CreationTrends[0].Period, "groupBy=%s", groupBy)
		assert.Equal(suite.T(), int64(1), trends.CreationTrends[0].TasksCreated)
	}
}

func (suite *AnalyticsServiceTestSuite) TestGetTrends_InvalidGroupByFallsBackToDay() {
	trends, err := suite.service.GetTrends("week", "decade")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "day", trends.GroupBy)
}

func (suite *AnalyticsServiceTestSuite) TestExport_FiltersAndOrder() {
	future := time.Now().Add(48 * time.Hour)
	first := suite.seedTask("First", suite.alice, models.TaskStatusCompleted, models.PriorityMedium, future)
	second := suite.seedTask("Second", suite.bob, models.TaskStatusTodo, models.PriorityHigh, future)

	// Backdate the first so createdAt DESC ordering is observable
	suite.Require().NoError(suite.db.Model(&models.Task{}).
		Where("id = ?", first.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)

	tasks, err := suite.service.Export(ExportInput{})
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 2)
	assert.Equal(suite.T(), second.ID, tasks[0].ID)
	assert.Equal(suite.T(), first.ID, tasks[1].ID)
	assert.Equal(suite.T(), "Bob", tasks[0].AssignedTo.Name)

	status := models.TaskStatusCompleted
	tasks, err = suite.service.Export(ExportInput{Status: &status})
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 1)
	assert.Equal(suite.T(), first.ID, tasks[0].ID)
}

func (suite *AnalyticsServiceTestSuite) TestWriteCSV() {
	future := time.Now().Add(48 * time.Hour)
	suite.seedTask("Quarterly report, final", suite.alice, models.TaskStatusCompleted, models.PriorityHigh, future)

	tasks, err := suite.service.Export(ExportInput{})
	suite.Require().NoError(err)

	var buf bytes.Buffer
	suite.Require().NoError(suite.service.WriteCSV(&buf, tasks))

	records, err := csv.NewReader(&buf).ReadAll()
	suite.Require().NoError(err)
	suite.Require().Len(records, 2)

	assert.Equal(suite.T(), exportColumns, records[0])

	row := records[1]
	assert.Equal(suite.T(), "Quarterly report, final", row[1])
	assert.Equal(suite.T(), "completed", row[3])
	assert.Equal(suite.T(), "high", row[4])
	assert.Equal(suite.T(), "Alice", row[6])
	assert.NotEmpty(suite.T(), row[9], "completed task must carry a Completed At stamp")
}

func TestAnalyticsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceTestSuite))
}
