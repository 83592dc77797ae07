package engine

import (
	"errors"
	"time"

	"coursesync/models"
	"coursesync/remote"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// SaveCourse creates or updates a course document, embedded lessons
// included. The write lands locally first so the UI sees it with no latency;
// a save-course mutation is queued for the remote in the same transaction.
// The embedded list is authoritative: lessons an update omits are real
// deletions and cascade like DeleteLesson, so the remote cannot hand the
// orphan rows back on the next downlink.
func (e *Engine) SaveCourse(course models.Course) (*models.Course, error) {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	for i := range course.Lessons {
		if course.Lessons[i].ID == "" {
			course.Lessons[i].ID = uuid.NewString()
		}
	}

	err := e.store.Transaction(func(tx *gorm.DB) error {
		removed, err := removedLessonIDs(tx, course)
		if err != nil {
			return err
		}
		if err := upsertRow(tx, &course); err != nil {
			return err
		}
		for _, lessonID := range removed {
			if err := e.store.DeleteVideo(tx, lessonID); err != nil {
				return err
			}
			if err := enqueue(tx, models.MutationDeleteLesson, DeleteLessonPayload{
				LessonID: lessonID,
				CourseID: course.ID,
			}); err != nil {
				return err
			}
		}
		if err := syncCourseTotals(tx, course.ID, len(course.Lessons), removed); err != nil {
			return err
		}
		return enqueue(tx, models.MutationSaveCourse, SaveCoursePayload{
			Course:  remote.CourseRowFromModel(course),
			Lessons: remote.LessonRowsFromModel(course),
		})
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// removedLessonIDs diffs an update's embedded lesson list against the stored
// one. Returns nil for a new course.
func removedLessonIDs(tx *gorm.DB, course models.Course) ([]string, error) {
	var prior models.Course
	if err := tx.First(&prior, "id = ?", course.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	keep := make(map[string]struct{}, len(course.Lessons))
	for _, lesson := range course.Lessons {
		keep[lesson.ID] = struct{}{}
	}
	var removed []string
	for _, lesson := range prior.Lessons {
		if _, ok := keep[lesson.ID]; !ok {
			removed = append(removed, lesson.ID)
		}
	}
	return removed, nil
}

// DeleteCourse removes a course and cascades: one delete-lesson mutation per
// embedded lesson is queued ahead of the delete-course mutation, offline
// videos are dropped, and every student's CourseProgress entry for the
// course is stripped and re-queued, so no remote progress row can end up
// referencing a deleted course.
func (e *Engine) DeleteCourse(courseID string) error {
	return e.store.Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.First(&course, "id = ?", courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return err
		}

		for _, lesson := range course.Lessons {
			if err := enqueue(tx, models.MutationDeleteLesson, DeleteLessonPayload{
				LessonID: lesson.ID,
				CourseID: courseID,
			}); err != nil {
				return err
			}
			if err := e.store.DeleteVideo(tx, lesson.ID); err != nil {
				return err
			}
		}
		if err := enqueue(tx, models.MutationDeleteCourse, DeleteCoursePayload{CourseID: courseID}); err != nil {
			return err
		}

		today := time.Now().Format(dateLayout)
		var rows []models.StudentProgress
		if err := tx.Find(&rows).Error; err != nil {
			return err
		}
		for _, sp := range rows {
			idx := sp.CourseIndex(courseID)
			if idx < 0 {
				continue
			}
			sp.CourseProgress = append(sp.CourseProgress[:idx], sp.CourseProgress[idx+1:]...)
			sp.RecordHistory(today)
			if err := tx.Save(&sp).Error; err != nil {
				return err
			}
			if err := enqueue(tx, models.MutationUpdateProgress, UpdateProgressPayload{
				Progress: remote.ProgressRowFromModel(sp),
			}); err != nil {
				return err
			}
		}

		return tx.Delete(&models.Course{}, "id = ?", courseID).Error
	})
}

// SaveLesson creates or updates one lesson inside a course. New lessons
// append at the end of the embedded list; existing lessons keep their
// position. A lesson that gains a remote video URL gives up its offline
// blob.
func (e *Engine) SaveLesson(courseID string, lesson models.Lesson) (*models.Lesson, error) {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}

	err := e.store.Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.First(&course, "id = ?", courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return err
		}

		if idx := course.LessonIndex(lesson.ID); idx >= 0 {
			if lesson.VideoURL != "" && course.Lessons[idx].HasOfflineVideo {
				if err := e.store.DeleteVideo(tx, lesson.ID); err != nil {
					return err
				}
				lesson.HasOfflineVideo = false
			} else {
				lesson.HasOfflineVideo = course.Lessons[idx].HasOfflineVideo
			}
			course.Lessons[idx] = lesson
		} else {
			course.Lessons = append(course.Lessons, lesson)
		}

		if err := upsertRow(tx, &course); err != nil {
			return err
		}
		if err := syncCourseTotals(tx, courseID, len(course.Lessons), nil); err != nil {
			return err
		}
		return enqueue(tx, models.MutationSaveLesson, SaveLessonPayload{
			Lesson: remote.LessonRowFromModel(courseID, lesson),
		})
	})
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// DeleteLesson removes one lesson from a course, drops its offline video and
// every student's LessonStatus for it, and refreshes the per-course
// aggregates.
func (e *Engine) DeleteLesson(courseID, lessonID string) error {
	return e.store.Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.First(&course, "id = ?", courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return err
		}
		idx := course.LessonIndex(lessonID)
		if idx < 0 {
			return ErrLessonNotFound
		}
		course.Lessons = append(course.Lessons[:idx], course.Lessons[idx+1:]...)

		if err := upsertRow(tx, &course); err != nil {
			return err
		}
		if err := e.store.DeleteVideo(tx, lessonID); err != nil {
			return err
		}
		if err := enqueue(tx, models.MutationDeleteLesson, DeleteLessonPayload{
			LessonID: lessonID,
			CourseID: courseID,
		}); err != nil {
			return err
		}
		return syncCourseTotals(tx, courseID, len(course.Lessons), []string{lessonID})
	})
}

// RecordQuizAttempt records a student's quiz score for one lesson. Attempts
// always increment; FinalScore only ever goes up (best-score semantics).
// CompletedLessons, Score and today's ScoreHistory entry are recomputed in
// the same transaction.
func (e *Engine) RecordQuizAttempt(studentID, courseID, lessonID string, score int) (*models.StudentProgress, error) {
	if score < 0 || score > 100 {
		return nil, ErrInvalidScore
	}

	var result models.StudentProgress
	err := e.store.Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.First(&course, "id = ?", courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return err
		}
		if course.LessonIndex(lessonID) < 0 {
			return ErrLessonNotFound
		}

		var sp models.StudentProgress
		err := tx.First(&sp, "student_id = ?", studentID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			name := studentID
			var profile models.Profile
			if perr := tx.First(&profile, "id = ?", studentID).Error; perr == nil {
				name = profile.Username
			}
			sp = models.StudentProgress{StudentID: studentID, StudentName: name}
		} else if err != nil {
			return err
		}

		ci := sp.CourseIndex(courseID)
		if ci < 0 {
			sp.CourseProgress = append(sp.CourseProgress, models.CourseProgress{CourseID: courseID})
			ci = len(sp.CourseProgress) - 1
		}
		cp := &sp.CourseProgress[ci]
		cp.TotalLessons = len(course.Lessons)

		found := false
		for i := range cp.LessonStatuses {
			if cp.LessonStatuses[i].LessonID == lessonID {
				cp.LessonStatuses[i].Attempts++
				if score > cp.LessonStatuses[i].FinalScore {
					cp.LessonStatuses[i].FinalScore = score
				}
				found = true
				break
			}
		}
		if !found {
			cp.LessonStatuses = append(cp.LessonStatuses, models.LessonStatus{
				LessonID:   lessonID,
				Attempts:   1,
				FinalScore: score,
			})
		}

		cp.Recalculate()
		sp.RecordHistory(time.Now().Format(dateLayout))

		if err := upsertRow(tx, &sp); err != nil {
			return err
		}
		if err := enqueue(tx, models.MutationUpdateProgress, UpdateProgressPayload{
			Progress: remote.ProgressRowFromModel(sp),
		}); err != nil {
			return err
		}
		result = sp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveVideo stores a lesson's offline video payload and flips the lesson's
// local-only flag. Videos are client-authored and never queued for uplink.
func (e *Engine) SaveVideo(courseID, lessonID string, data []byte) error {
	return e.store.Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.First(&course, "id = ?", courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return err
		}
		idx := course.LessonIndex(lessonID)
		if idx < 0 {
			return ErrLessonNotFound
		}
		if err := e.store.PutVideo(tx, lessonID, data); err != nil {
			return err
		}
		course.Lessons[idx].HasOfflineVideo = true
		return upsertRow(tx, &course)
	})
}

// DeleteVideo removes a lesson's offline video payload and clears the flag.
func (e *Engine) DeleteVideo(courseID, lessonID string) error {
	return e.store.Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.First(&course, "id = ?", courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return err
		}
		idx := course.LessonIndex(lessonID)
		if idx < 0 {
			return ErrLessonNotFound
		}
		if err := e.store.DeleteVideo(tx, lessonID); err != nil {
			return err
		}
		course.Lessons[idx].HasOfflineVideo = false
		return upsertRow(tx, &course)
	})
}

// Video fetches a lesson's offline video payload, or nil if none is stored.
func (e *Engine) Video(lessonID string) ([]byte, error) {
	return e.store.GetVideo(lessonID)
}

// syncCourseTotals refreshes TotalLessons on every student tracking the
// course, strips LessonStatus entries for removed lessons, and queues the
// refreshed rows, keeping remote aggregates honest when the lesson list
// changes.
func syncCourseTotals(tx *gorm.DB, courseID string, total int, removed []string) error {
	removedSet := make(map[string]struct{}, len(removed))
	for _, id := range removed {
		removedSet[id] = struct{}{}
	}
	today := time.Now().Format(dateLayout)

	var rows []models.StudentProgress
	if err := tx.Find(&rows).Error; err != nil {
		return err
	}
	for _, sp := range rows {
		ci := sp.CourseIndex(courseID)
		if ci < 0 {
			continue
		}
		cp := &sp.CourseProgress[ci]
		changed := cp.TotalLessons != total
		cp.TotalLessons = total

		if len(removedSet) > 0 {
			kept := make([]models.LessonStatus, 0, len(cp.LessonStatuses))
			for _, status := range cp.LessonStatuses {
				if _, gone := removedSet[status.LessonID]; !gone {
					kept = append(kept, status)
				}
			}
			if len(kept) != len(cp.LessonStatuses) {
				cp.LessonStatuses = kept
				cp.Recalculate()
				sp.RecordHistory(today)
				changed = true
			}
		}

		if !changed {
			continue
		}
		if err := tx.Save(&sp).Error; err != nil {
			return err
		}
		if err := enqueue(tx, models.MutationUpdateProgress, UpdateProgressPayload{
			Progress: remote.ProgressRowFromModel(sp),
		}); err != nil {
			return err
		}
	}
	return nil
}
