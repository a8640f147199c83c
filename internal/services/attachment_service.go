package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/models"
	"github.com/taskhub/taskhub-api/internal/repository"
	"github.com/taskhub/taskhub-api/internal/storage"
	"gorm.io/gorm"
)

var (
	ErrFileNotFound       = errors.New("file not found")
	ErrNoFileUploaded     = errors.New("no file uploaded")
	ErrTooManyFiles       = errors.New("too many files in one upload")
	ErrFileTooLarge       = errors.New("file exceeds the maximum allowed size")
	ErrFileTypeNotAllowed = errors.New("invalid file type. Only images, PDFs, Word docs, Excel files, and text files are allowed")
)

// allowedMimetypes is the upload allow-list.
var allowedMimetypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"application/pdf": true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/plain": true,
	"text/csv":   true,
}

// UploadFile carries one inbound blob, decoupled from the multipart layer.
type UploadFile struct {
	OriginalName string
	Mimetype     string
	Size         int64
	Reader       io.Reader
}

// AttachmentService owns upload, listing, download and removal of file blobs
// attached to a task. The attachment list on the task is authoritative; blob
// deletion is best effort.
type AttachmentService struct {
	taskRepo     repository.TaskRepository
	blobs        storage.BlobStore
	maxFileSize  int64
	maxFileCount int
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(taskRepo repository.TaskRepository, blobs storage.BlobStore, maxFileSize int64, maxFileCount int) *AttachmentService {
	return &AttachmentService{
		taskRepo:     taskRepo,
		blobs:        blobs,
		maxFileSize:  maxFileSize,
		maxFileCount: maxFileCount,
	}
}

// Upload validates the batch, persists each blob under a collision-resistant
// generated name and appends attachment records to the task.
func (s *AttachmentService) Upload(taskID uint64, files []UploadFile) ([]models.Attachment, error) {
	if _, err := s.findTask(taskID); err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, ErrNoFileUploaded
	}
	if len(files) > s.maxFileCount {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyFiles, s.maxFileCount)
	}
	for _, f := range files {
		if f.Size > s.maxFileSize {
			return nil, fmt.Errorf("%w: %q", ErrFileTooLarge, f.OriginalName)
		}
		if !allowedMimetypes[f.Mimetype] {
			return nil, fmt.Errorf("%w: %q", ErrFileTypeNotAllowed, f.Mimetype)
		}
	}

	now := time.Now()
	attachments := make([]models.Attachment, 0, len(files))
	for _, f := range files {
		name := generateFilename(f.OriginalName, now)

		written, err := s.blobs.Save(name, f.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to store file %q: %w", f.OriginalName, err)
		}

		attachment := models.Attachment{
			TaskID:       taskID,
			Filename:     name,
			OriginalName: f.OriginalName,
			Mimetype:     f.Mimetype,
			Size:         written,
			UploadedAt:   now,
		}
		if err := s.taskRepo.AppendAttachment(&attachment); err != nil {
			return nil, fmt.Errorf("failed to record attachment %q: %w", f.OriginalName, err)
		}

		attachments = append(attachments, attachment)
	}

	return attachments, nil
}

// List returns the task's attachment list.
func (s *AttachmentService) List(taskID uint64) ([]models.Attachment, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}
	return task.Attachments, nil
}

// Download returns the attachment record, a reader over its blob and the blob
// size.
func (s *AttachmentService) Download(taskID uint64, filename string) (*models.Attachment, io.ReadCloser, int64, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, nil, 0, err
	}

	attachment := findAttachment(task.Attachments, filename)
	if attachment == nil {
		return nil, nil, 0, ErrFileNotFound
	}

	reader, size, err := s.blobs.Open(filename)
	if err != nil {
		return nil, nil, 0, ErrFileNotFound
	}

	return attachment, reader, size, nil
}

// Delete removes the attachment record from the task, then best-effort
// deletes the blob. A blob-deletion failure is logged, never surfaced.
func (s *AttachmentService) Delete(taskID uint64, filename string) (*models.Attachment, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	attachment := findAttachment(task.Attachments, filename)
	if attachment == nil {
		return nil, ErrFileNotFound
	}

	if err := s.taskRepo.RemoveAttachment(attachment.ID); err != nil {
		return nil, fmt.Errorf("failed to remove attachment: %w", err)
	}

	if err := s.blobs.Delete(filename); err != nil {
		log.Printf("failed to delete blob %s: %v", filename, err)
	}

	return attachment, nil
}

func (s *AttachmentService) findTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Attachments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func findAttachment(attachments []models.Attachment, filename string) *models.Attachment {
	for i := range attachments {
		if attachments[i].Filename == filename {
			return &attachments[i]
		}
	}
	return nil
}

// generateFilename builds a collision-resistant server name: upload timestamp
// plus a random suffix, keeping the original extension.
func generateFilename(originalName string, now time.Time) string {
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), uuid.NewString(), filepath.Ext(originalName))
}
