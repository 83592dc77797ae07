package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"coursesync/models"
	"coursesync/remote"
)

// ProcessSyncQueue replays the mutation queue against the remote store,
// oldest first. Ordering is strict and replay is sequential: a later
// mutation may depend on a row an earlier one creates.
//
// Each item is deleted only after its remote write is confirmed. A failed
// item stays in the queue with its failure recorded and does not block the
// items behind it; it will be retried on the next connectivity or login
// trigger.
func (e *Engine) ProcessSyncQueue(ctx context.Context) error {
	items, err := e.store.PendingQueue()
	if err != nil {
		return fmt.Errorf("process sync queue: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	log.Printf("[SYNC-QUEUE] Replaying %d pending mutation(s)", len(items))

	for _, item := range items {
		if err := e.replayItem(ctx, item); err != nil {
			log.Printf("[SYNC-QUEUE] Item %d (%s) failed, keeping for retry: %v", item.ID, item.Type, err)
			if rerr := e.store.RecordQueueFailure(item.ID, err.Error()); rerr != nil {
				return fmt.Errorf("process sync queue: record failure: %w", rerr)
			}
			continue
		}
		if err := e.store.DeleteQueueItem(item.ID); err != nil {
			return fmt.Errorf("process sync queue: confirm item %d: %w", item.ID, err)
		}
	}
	return nil
}

// replayItem decodes one queued mutation and dispatches it to the remote
// client. All remote writes are upserts or filtered deletes keyed by primary
// id, so replaying an already-applied item is harmless.
func (e *Engine) replayItem(ctx context.Context, item models.SyncQueueItem) error {
	switch item.Type {
	case models.MutationSaveCourse:
		var payload SaveCoursePayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("decode save-course payload: %w", err)
		}
		if err := e.remote.UpsertCourse(ctx, payload.Course); err != nil {
			return err
		}
		return e.remote.UpsertLessons(ctx, payload.Lessons)

	case models.MutationDeleteCourse:
		var payload DeleteCoursePayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("decode delete-course payload: %w", err)
		}
		// Lesson deletions are queued ahead of this item; the filtered
		// delete below catches lessons another writer attached meanwhile.
		if err := e.remote.DeleteLessonsForCourse(ctx, payload.CourseID); err != nil {
			return err
		}
		return e.remote.DeleteCourse(ctx, payload.CourseID)

	case models.MutationSaveLesson:
		var payload SaveLessonPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("decode save-lesson payload: %w", err)
		}
		return e.remote.UpsertLessons(ctx, []remote.LessonRow{payload.Lesson})

	case models.MutationDeleteLesson:
		var payload DeleteLessonPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("decode delete-lesson payload: %w", err)
		}
		return e.remote.DeleteLesson(ctx, payload.LessonID)

	case models.MutationUpdateProgress:
		var payload UpdateProgressPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("decode update-progress payload: %w", err)
		}
		return e.remote.UpsertProgress(ctx, payload.Progress)

	default:
		return fmt.Errorf("unknown mutation type %q", item.Type)
	}
}
