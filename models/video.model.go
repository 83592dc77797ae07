package models

import "time"

// VideoBlob holds a lesson's offline video payload, keyed by lesson id.
// Blobs are client-authored and never pushed to the remote store.
type VideoBlob struct {
	LessonID  string    `json:"lesson_id" gorm:"primaryKey"`
	Data      []byte    `json:"-"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
