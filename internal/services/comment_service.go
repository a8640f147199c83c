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
	ErrCommentNotFound  = errors.New("comment not found")
	ErrNotCommentAuthor = errors.New("not authorized to modify this comment")
)

// CommentService owns the comment lifecycle, scoped to a parent task,
// including edit tracking.
type CommentService struct {
	commentRepo repository.CommentRepository
	taskRepo    repository.TaskRepository
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repository.CommentRepository, taskRepo repository.TaskRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		taskRepo:    taskRepo,
	}
}

// AddComment persists a comment against a live parent task.
func (s *CommentService) AddComment(taskID uint64, content string, authorID uint64) (*models.Comment, error) {
	if err := s.ensureTaskExists(taskID); err != nil {
		return nil, err
	}

	if errs := validation.ValidateComment(content); len(errs) > 0 {
		return nil, errs
	}

	comment := &models.Comment{
		Content:  content,
		TaskID:   taskID,
		AuthorID: authorID,
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return s.commentRepo.FindByID(comment.ID, "Author", "Task")
}

// ListTaskComments returns non-deleted comments for the task, newest first.
func (s *CommentService) ListTaskComments(taskID uint64, page, pageSize int) ([]models.Comment, int64, error) {
	if err := s.ensureTaskExists(taskID); err != nil {
		return nil, 0, err
	}

	comments, total, err := s.commentRepo.ListByTask(taskID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, total, nil
}

// UpdateComment changes the content. Only the author may edit; the first
// post-creation content change flips IsEdited and stamps EditedAt.
func (s *CommentService) UpdateComment(commentID uint64, content string, requesterID uint64) (*models.Comment, error) {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	if comment.AuthorID != requesterID {
		return nil, ErrNotCommentAuthor
	}

	if errs := validation.ValidateComment(content); len(errs) > 0 {
		return nil, errs
	}

	comment.Content = content
	comment.MarkEdited(time.Now())

	if err := s.commentRepo.Update(comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return s.commentRepo.FindByID(comment.ID, "Author", "Task")
}

// DeleteComment soft deletes a comment. Allowed for the author or an admin.
func (s *CommentService) DeleteComment(commentID, requesterID uint64, requesterRole models.UserRole) error {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to find comment: %w", err)
	}

	if comment.AuthorID != requesterID && requesterRole != models.RoleAdmin {
		return ErrNotCommentAuthor
	}

	if err := s.commentRepo.Delete(commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

func (s *CommentService) ensureTaskExists(taskID uint64) error {
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}
	return nil
}
