package models

import "time"

// Attachment is a value object owned by a Task. Rows are only ever appended or
// removed through the attachment service; they are never updated in place.
type Attachment struct {
	ID           uint64    `gorm:"primarykey" json:"-"`
	TaskID       uint64    `gorm:"not null;index" json:"-"`
	Filename     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"filename"`
	OriginalName string    `gorm:"type:varchar(255);not null" json:"original_name"`
	Mimetype     string    `gorm:"type:varchar(100);not null" json:"mimetype"`
	Size         int64     `gorm:"not null" json:"size"`
	UploadedAt   time.Time `gorm:"not null" json:"uploaded_at"`
}
