package dto

import (
	"time"

	"github.com/taskhub/taskhub-api/internal/models"
)

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID        uint64          `json:"id"`
	Content   string          `json:"content"`
	TaskID    uint64          `json:"task_id"`
	TaskTitle string          `json:"task_title,omitempty"`
	IsEdited  bool            `json:"is_edited"`
	EditedAt  *time.Time      `json:"edited_at"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Author    *UserSummaryDTO `json:"author,omitempty"`
}

// ToCommentDTO converts a Comment model to CommentDTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	dto := CommentDTO{
		ID:        comment.ID,
		Content:   comment.Content,
		TaskID:    comment.TaskID,
		IsEdited:  comment.IsEdited,
		EditedAt:  comment.EditedAt,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}

	if comment.Author.ID != 0 {
		author := ToUserSummaryDTO(comment.Author)
		dto.Author = &author
	}
	if comment.Task.ID != 0 {
		dto.TaskTitle = comment.Task.Title
	}

	return dto
}

// ToCommentDTOs converts a slice of comments
func ToCommentDTOs(comments []models.Comment) []CommentDTO {
	items := make([]CommentDTO, len(comments))
	for i, comment := range comments {
		items[i] = ToCommentDTO(comment)
	}
	return items
}
