package handlers

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"
	apierrors "github.com/taskhub/taskhub-api/internal/errors"
	"github.com/taskhub/taskhub-api/internal/services"
	"github.com/taskhub/taskhub-api/internal/validation"
)

// respondSuccess sends the uniform success envelope.
func respondSuccess(c *gin.Context, status int, message string, data gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// respondServiceError maps service errors onto the error envelope. Unknown
// errors are logged and surfaced as a generic 500.
func respondServiceError(c *gin.Context, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		apierrors.ValidationFailed(c, verrs)
		return
	}

	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrCommentNotFound):
		apierrors.NotFound(c, "Comment not found")
	case errors.Is(err, services.ErrFileNotFound):
		apierrors.NotFound(c, "File not found")
	case errors.Is(err, services.ErrAssignedUserNotFound):
		apierrors.BadRequest(c, "Assigned user not found")
	case errors.Is(err, services.ErrNotCommentAuthor):
		apierrors.Forbidden(c, "Not authorized to modify this comment")
	case errors.Is(err, services.ErrNoTasksProvided),
		errors.Is(err, services.ErrNoFileUploaded),
		errors.Is(err, services.ErrTooManyFiles),
		errors.Is(err, services.ErrFileTooLarge),
		errors.Is(err, services.ErrFileTypeNotAllowed):
		apierrors.BadRequest(c, err.Error())
	default:
		log.Printf("unexpected error: %v", err)
		apierrors.InternalError(c, "")
	}
}
