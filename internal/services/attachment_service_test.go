package services

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/taskhub/taskhub-api/internal/models"
	"github.com/taskhub/taskhub-api/internal/repository"
	"github.com/taskhub/taskhub-api/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// AttachmentServiceTestSuite defines the test suite for AttachmentService
type AttachmentServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	blobs   *storage.LocalStore
	service *AttachmentService
	task    *models.Task
}

// SetupTest runs before each test
func (suite *AttachmentServiceTestSuite) SetupTest() {
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

	suite.blobs, err = storage.NewLocalStore(suite.T().TempDir())
	suite.Require().NoError(err)

	// 1 KiB size limit, 5 files per upload
	suite.service = NewAttachmentService(
		repository.NewTaskRepository(suite.db),
		suite.blobs,
		1024,
		5,
	)

	user := &models.User{
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.RoleUser,
		IsActive:     true,
	}
	suite.db.Create(user)

	suite.task = &models.Task{
		Title:        "Collect receipts",
		Description:  "Scan everything from the offsite",
		Status:       models.TaskStatusTodo,
		Priority:     models.PriorityMedium,
		DueDate:      time.Now().Add(24 * time.Hour),
		AssignedToID: user.ID,
		CreatedByID:  user.ID,
	}
	suite.db.Create(suite.task)
}

// TearDownTest runs after each test
func (suite *AttachmentServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func textFile(name, content string) UploadFile {
	return UploadFile{
		OriginalName: name,
		Mimetype:     "text/plain",
		Size:         int64(len(content)),
		Reader:       strings.NewReader(content),
	}
}

func (suite *AttachmentServiceTestSuite) TestUpload_Success() {
	attachments, err := suite.service.Upload(suite.task.ID, []UploadFile{
		textFile("notes.txt", "receipt one"),
	})
	suite.Require().NoError(err)
	suite.Require().Len(attachments, 1)

	att := attachments[0]
	assert.Equal(suite.T(), "notes.txt", att.OriginalName)
	assert.Equal(suite.T(), "text/plain", att.Mimetype)
	assert.Equal(suite.T(), int64(len("receipt one")), att.Size)
	assert.True(suite.T(), strings.HasSuffix(att.Filename, ".txt"))
	assert.NotEqual(suite.T(), att.OriginalName, att.Filename)

	// Blob is readable back under the generated name
	reader, size, err := suite.blobs.Open(att.Filename)
	suite.Require().NoError(err)
	defer reader.Close()
	content, err := io.ReadAll(reader)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "receipt one", string(content))
	assert.Equal(suite.T(), att.Size, size)
}

func (suite *AttachmentServiceTestSuite) TestUpload_GeneratedNamesAreUnique() {
	attachments, err := suite.service.Upload(suite.task.ID, []UploadFile{
		textFile("a.txt", "one"),
		textFile("a.txt", "two"),
	})
	suite.Require().NoError(err)
	suite.Require().Len(attachments, 2)
	assert.NotEqual(suite.T(), attachments[0].Filename, attachments[1].Filename)
}

func (suite *AttachmentServiceTestSuite) TestUpload_MissingTask() {
	_, err := suite.service.Upload(9999, []UploadFile{textFile("a.txt", "x")})
	assert.ErrorIs(suite.T(), err, ErrTaskNotFound)
}

func (suite *AttachmentServiceTestSuite) TestUpload_NoFiles() {
	_, err := suite.service.Upload(suite.task.ID, nil)
	assert.ErrorIs(suite.T(), err, ErrNoFileUploaded)
}

func (suite *AttachmentServiceTestSuite) TestUpload_TooManyFiles() {
	files := make([]UploadFile, 6)
	for i := range files {
		files[i] = textFile("a.txt", "x")
	}

	_, err := suite.service.Upload(suite.task.ID, files)
	assert.ErrorIs(suite.T(), err, ErrTooManyFiles)

	// Nothing persisted beyond the limit
	var count int64
	suite.db.Model(&models.Attachment{}).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

func (suite *AttachmentServiceTestSuite) TestUpload_FileTooLarge() {
	big := textFile("big.txt", strings.Repeat("x", 2048))

	_, err := suite.service.Upload(suite.task.ID, []UploadFile{big})
	assert.ErrorIs(suite.T(), err, ErrFileTooLarge)
}

func (suite *AttachmentServiceTestSuite) TestUpload_MimetypeRejected() {
	exe := UploadFile{
		OriginalName: "payload.exe",
		Mimetype:     "application/x-msdownload",
		Size:         8,
		Reader:       bytes.NewReader([]byte("MZ......")),
	}

	_, err := suite.service.Upload(suite.task.ID, []UploadFile{exe})
	assert.ErrorIs(suite.T(), err, ErrFileTypeNotAllowed)
}

func (suite *AttachmentServiceTestSuite) TestList() {
	_, err := suite.service.Upload(suite.task.ID, []UploadFile{
		textFile("a.txt", "one"),
		textFile("b.txt", "two"),
	})
	suite.Require().NoError(err)

	attachments, err := suite.service.List(suite.task.ID)
	suite.Require().NoError(err)
	assert.Len(suite.T(), attachments, 2)
}

func (suite *AttachmentServiceTestSuite) TestDownload_MissingAttachment() {
	_, _, _, err := suite.service.Download(suite.task.ID, "nope.txt")
	assert.ErrorIs(suite.T(), err, ErrFileNotFound)
}

func (suite *AttachmentServiceTestSuite) TestDownload_MissingBlob() {
	attachments, err := suite.service.Upload(suite.task.ID, []UploadFile{
		textFile("a.txt", "one"),
	})
	suite.Require().NoError(err)

	// Record exists but the blob has vanished
	suite.Require().NoError(suite.blobs.Delete(attachments[0].Filename))

	_, _, _, err = suite.service.Download(suite.task.ID, attachments[0].Filename)
	assert.ErrorIs(suite.T(), err, ErrFileNotFound)
}

func (suite *AttachmentServiceTestSuite) TestDelete_RecordRemovalIsAuthoritative() {
	attachments, err := suite.service.Upload(suite.task.ID, []UploadFile{
		textFile("a.txt", "one"),
	})
	suite.Require().NoError(err)
	filename := attachments[0].Filename

	// Blob already gone; delete must still succeed and remove the record
	suite.Require().NoError(suite.blobs.Delete(filename))

	deleted, err := suite.service.Delete(suite.task.ID, filename)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), filename, deleted.Filename)

	remaining, err := suite.service.List(suite.task.ID)
	suite.Require().NoError(err)
	assert.Empty(suite.T(), remaining)

	_, err = suite.service.Delete(suite.task.ID, filename)
	assert.ErrorIs(suite.T(), err, ErrFileNotFound)
}

func TestAttachmentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AttachmentServiceTestSuite))
}
