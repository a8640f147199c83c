// Package validation re-expresses the store's implicit schema rules as
// explicit per-entity checks run before any write. Every rule reports a
// field-level error so handlers can surface the full list in one response.
package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taskhub/taskhub-api/internal/models"
)

const (
	TitleMinLength       = 3
	TitleMaxLength       = 200
	DescriptionMaxLength = 2000
	TagMaxLength         = 30
	ContentMinLength     = 1
	ContentMaxLength     = 1000
	HoursMax             = 999
)

// FieldError mirrors the {msg, param, location} error items of the response
// envelope.
type FieldError struct {
	Msg      string `json:"msg"`
	Param    string `json:"param"`
	Location string `json:"location"`
}

// Errors is a collection of field errors. It implements error so services can
// return it through their normal error path.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fmt.Sprintf("%s: %s", fe.Param, fe.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *Errors) add(param, msg string) {
	*e = append(*e, FieldError{Msg: msg, Param: param, Location: "body"})
}

// TaskFields carries the user-settable task fields of a create or update
// request. Nil pointers mean the field was not supplied.
type TaskFields struct {
	Title          *string
	Description    *string
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	DueDate        *time.Time
	Tags           []string
	AssignedToID   *uint64
	EstimatedHours *float64
	ActualHours    *float64
}

// ValidateTaskCreate checks a full create payload: required fields must be
// present and every supplied field must be in range.
func ValidateTaskCreate(f TaskFields, now time.Time) Errors {
	var errs Errors

	if f.Title == nil || strings.TrimSpace(*f.Title) == "" {
		errs.add("title", "Title is required")
	}
	if f.Description == nil || strings.TrimSpace(*f.Description) == "" {
		errs.add("description", "Description is required")
	}
	if f.DueDate == nil {
		errs.add("dueDate", "Due date is required")
	}
	if f.AssignedToID == nil || *f.AssignedToID == 0 {
		errs.add("assignedTo", "Task must be assigned to a user")
	}

	errs = append(errs, validateTaskFields(f, now)...)
	return errs
}

// ValidateTaskUpdate checks a partial update payload: only supplied fields are
// validated, absence is never an error.
func ValidateTaskUpdate(f TaskFields, now time.Time) Errors {
	var errs Errors

	if f.Title != nil && strings.TrimSpace(*f.Title) == "" {
		errs.add("title", "Title cannot be empty")
	}
	if f.Description != nil && strings.TrimSpace(*f.Description) == "" {
		errs.add("description", "Description cannot be empty")
	}

	errs = append(errs, validateTaskFields(f, now)...)
	return errs
}

func validateTaskFields(f TaskFields, now time.Time) Errors {
	var errs Errors

	if f.Title != nil {
		// Bounds count characters, not bytes.
		title := strings.TrimSpace(*f.Title)
		if title != "" && utf8.RuneCountInString(title) < TitleMinLength {
			errs.add("title", fmt.Sprintf("Title must be at least %d characters", TitleMinLength))
		}
		if utf8.RuneCountInString(title) > TitleMaxLength {
			errs.add("title", fmt.Sprintf("Title cannot exceed %d characters", TitleMaxLength))
		}
	}
	if f.Description != nil && utf8.RuneCountInString(strings.TrimSpace(*f.Description)) > DescriptionMaxLength {
		errs.add("description", fmt.Sprintf("Description cannot exceed %d characters", DescriptionMaxLength))
	}
	if f.Status != nil && !f.Status.Valid() {
		errs.add("status", "Invalid status")
	}
	if f.Priority != nil && !f.Priority.Valid() {
		errs.add("priority", "Invalid priority")
	}
	if f.DueDate != nil && !f.DueDate.After(now) {
		errs.add("dueDate", "Due date must be in the future")
	}
	for _, tag := range f.Tags {
		if utf8.RuneCountInString(strings.TrimSpace(tag)) > TagMaxLength {
			errs.add("tags", fmt.Sprintf("Tag cannot exceed %d characters", TagMaxLength))
			break
		}
	}
	if f.EstimatedHours != nil {
		if *f.EstimatedHours < 0 {
			errs.add("estimatedHours", "Estimated hours cannot be negative")
		} else if *f.EstimatedHours > HoursMax {
			errs.add("estimatedHours", fmt.Sprintf("Estimated hours cannot exceed %d", HoursMax))
		}
	}
	if f.ActualHours != nil {
		if *f.ActualHours < 0 {
			errs.add("actualHours", "Actual hours cannot be negative")
		} else if *f.ActualHours > HoursMax {
			errs.add("actualHours", fmt.Sprintf("Actual hours cannot exceed %d", HoursMax))
		}
	}

	return errs
}

// ValidateComment checks comment content bounds.
func ValidateComment(content string) Errors {
	var errs Errors

	trimmed := strings.TrimSpace(content)
	if utf8.RuneCountInString(trimmed) < ContentMinLength {
		errs.add("content", "Comment content is required")
	}
	if utf8.RuneCountInString(trimmed) > ContentMaxLength {
		errs.add("content", fmt.Sprintf("Comment cannot exceed %d characters", ContentMaxLength))
	}

	return errs
}
