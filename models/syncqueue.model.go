package models

import (
	"time"

	"gorm.io/datatypes"
)

// Mutation type tags carried by queue items.
const (
	MutationUpdateProgress = "update-progress"
	MutationSaveCourse     = "save-course"
	MutationDeleteCourse   = "delete-course"
	MutationSaveLesson     = "save-lesson"
	MutationDeleteLesson   = "delete-lesson"
)

// SyncQueueItem is one pending local mutation awaiting remote confirmation.
// Items are replayed oldest-first and deleted only after the remote write
// succeeds; a failed item stays in place with Attempts and LastError updated
// so it can be inspected or discarded manually.
type SyncQueueItem struct {
	ID        uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Type      string         `json:"type" gorm:"index;not null"`
	Payload   datatypes.JSON `json:"payload"`
	Attempts  int            `json:"attempts" gorm:"default:0"`
	LastError string         `json:"last_error"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
}

// TableName returns the table name for SyncQueueItem.
func (SyncQueueItem) TableName() string {
	return "sync_queue"
}
