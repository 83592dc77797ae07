package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"coursesync/models"
	"coursesync/remote"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Queue payloads are a tagged union over the five mutation kinds. Each
// carries the remote wire shape it will be replayed as, so local-only fields
// can never leak into an upsert. Payloads are decoded at dequeue time.

// SaveCoursePayload replays as a course upsert followed by lesson upserts.
type SaveCoursePayload struct {
	Course  remote.CourseRow   `json:"course"`
	Lessons []remote.LessonRow `json:"lessons"`
}

// DeleteCoursePayload replays as a course-row delete. Lesson deletions for
// the course are queued as separate items ahead of it.
type DeleteCoursePayload struct {
	CourseID string `json:"courseId"`
}

// SaveLessonPayload replays as a single lesson upsert.
type SaveLessonPayload struct {
	Lesson remote.LessonRow `json:"lesson"`
}

// DeleteLessonPayload replays as a lesson-row delete.
type DeleteLessonPayload struct {
	LessonID string `json:"lessonId"`
	CourseID string `json:"courseId"`
}

// UpdateProgressPayload replays as a student_progress upsert of the full row.
type UpdateProgressPayload struct {
	Progress remote.StudentProgressRow `json:"progress"`
}

// enqueue appends one mutation to the durable queue inside the caller's
// transaction, so a local write and its queue entry commit atomically.
func enqueue(tx *gorm.DB, mutationType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", mutationType, err)
	}
	item := models.SyncQueueItem{
		Type:      mutationType,
		Payload:   datatypes.JSON(raw),
		CreatedAt: time.Now(),
	}
	return tx.Create(&item).Error
}

// pendingCourseCreations collects course ids of queued save-course items.
// Downlink reconciliation must never purge these: the server simply has not
// seen them yet.
func pendingCourseCreations(items []models.SyncQueueItem) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, item := range items {
		if item.Type != models.MutationSaveCourse {
			continue
		}
		var payload SaveCoursePayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			continue
		}
		if payload.Course.ID != "" {
			ids[payload.Course.ID] = struct{}{}
		}
	}
	return ids
}
