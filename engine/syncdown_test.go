package engine_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"coursesync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncDownAssemblesNestedCourses(t *testing.T) {
	eng, store, fake := newTestEngine(t)

	fake.put("courses", map[string]interface{}{
		"id": "c1", "title": "Fractions", "description": "d", "icon": "math", "author_id": "t1", "for_class": 5,
	})
	fake.put("lessons", map[string]interface{}{
		"id": "l1", "course_id": "c1", "title": "Halves", "content": "<p>1/2</p>",
		"quiz": []map[string]interface{}{{"question": "?", "options": []string{"a", "b"}, "correctIndex": 1}},
	})
	fake.put("lessons", map[string]interface{}{
		"id": "l2", "course_id": "c1", "title": "Quarters", "content": "<p>1/4</p>",
	})
	fake.put("profiles", map[string]interface{}{
		"id": "s1", "username": "ada", "role": "student", "class": 5,
	})

	require.NoError(t, eng.SyncDown(context.Background()))

	course, err := store.Course("c1")
	require.NoError(t, err)
	require.Len(t, course.Lessons, 2)
	assert.Equal(t, 5, course.ForClass)
	for _, lesson := range course.Lessons {
		assert.False(t, lesson.HasOfflineVideo)
	}

	// The remote lessons table has no ordering guarantee; look up by id.
	idx := course.LessonIndex("l1")
	require.GreaterOrEqual(t, idx, 0)
	require.Len(t, course.Lessons[idx].Quiz, 1)
	assert.Equal(t, 1, course.Lessons[idx].Quiz[0].CorrectIndex)
	assert.Len(t, course.Lessons[idx].Quiz[0].Options, 2)

	profile, err := store.Profile("s1")
	require.NoError(t, err)
	assert.Equal(t, "ada", profile.Username)
}

func TestSyncDownIsNonDestructiveForPendingCreations(t *testing.T) {
	eng, store, fake := newTestEngine(t)

	// Created offline: present in the queue, unknown to the remote.
	local := seedCourse(t, eng, "L1")
	require.NoError(t, eng.SaveVideo(local.ID, local.Lessons[0].ID, []byte("bytes")))

	// Present locally but neither remote nor pending: stale, must go.
	stale := models.Course{ID: "stale-1", Title: "Old", ForClass: 5}
	require.NoError(t, store.Db.Create(&stale).Error)

	fake.put("courses", map[string]interface{}{
		"id": "c-remote", "title": "Remote", "description": "", "icon": "", "author_id": "t1", "for_class": 5,
	})

	require.NoError(t, eng.SyncDown(context.Background()))

	_, err := store.Course(local.ID)
	assert.NoError(t, err, "pending local creation must survive the downlink")
	has, err := store.HasVideo(local.Lessons[0].ID)
	require.NoError(t, err)
	assert.True(t, has, "a pending course keeps its offline videos")

	_, err = store.Course("c-remote")
	assert.NoError(t, err)

	_, err = store.Course("stale-1")
	assert.Error(t, err, "stale course must be purged")
}

func TestRemovedLessonStaysRemovedAfterDownlink(t *testing.T) {
	eng, store, fake := newTestEngine(t)
	ctx := context.Background()

	course := seedCourse(t, eng, "L1", "L2")
	require.NoError(t, eng.ProcessSyncQueue(ctx))
	require.Equal(t, 2, fake.count("lessons"))

	keptID := course.Lessons[0].ID
	course.Lessons = course.Lessons[:1]
	_, err := eng.SaveCourse(course)
	require.NoError(t, err)
	require.NoError(t, eng.ProcessSyncQueue(ctx))

	// The replay must have deleted the orphan lesson row, so the next
	// downlink cannot regroup it back under the course.
	assert.Equal(t, 1, fake.count("lessons"))

	require.NoError(t, eng.SyncDown(ctx))

	after, err := store.Course(course.ID)
	require.NoError(t, err)
	require.Len(t, after.Lessons, 1)
	assert.Equal(t, keptID, after.Lessons[0].ID)
}

func TestCourseSavedMidFetchSurvivesDownlink(t *testing.T) {
	eng, store, fake := newTestEngine(t)

	fake.put("courses", map[string]interface{}{
		"id": "c-remote", "title": "Remote", "description": "", "icon": "", "author_id": "t1", "for_class": 5,
	})

	// A save landing while the snapshot is in flight commits its course and
	// queue item together; reconciliation must see both or neither.
	var (
		once    sync.Once
		saved   *models.Course
		saveErr error
	)
	fake.setOnRequest(func(method, table string) {
		if method == http.MethodGet && table == "courses" {
			once.Do(func() {
				saved, saveErr = eng.SaveCourse(models.Course{Title: "Mid-sync", ForClass: 5})
			})
		}
	})

	require.NoError(t, eng.SyncDown(context.Background()))
	require.NoError(t, saveErr)
	require.NotNil(t, saved)

	_, err := store.Course(saved.ID)
	assert.NoError(t, err, "course saved during the fetch must survive the purge")
	_, err = store.Course("c-remote")
	assert.NoError(t, err)
}

func TestSyncDownDropsOrphanVideoBlobs(t *testing.T) {
	eng, store, fake := newTestEngine(t)

	course := seedCourse(t, eng, "L1")
	lessonID := course.Lessons[0].ID
	require.NoError(t, eng.SaveVideo(course.ID, lessonID, []byte("bytes")))
	clearQueue(t, store) // no longer pending; the remote never saw the course

	fake.put("courses", map[string]interface{}{
		"id": "c-remote", "title": "Remote", "description": "", "icon": "", "author_id": "t1", "for_class": 5,
	})

	require.NoError(t, eng.SyncDown(context.Background()))

	_, err := store.Course(course.ID)
	assert.Error(t, err)
	has, err := store.HasVideo(lessonID)
	require.NoError(t, err)
	assert.False(t, has, "blobs of purged lessons must go with them")
}

func TestSyncDownFiltersOrphanedProgress(t *testing.T) {
	eng, store, fake := newTestEngine(t)

	fake.put("courses", map[string]interface{}{
		"id": "c1", "title": "Live", "description": "", "icon": "", "author_id": "t1", "for_class": 5,
	})
	fake.put("student_progress", map[string]interface{}{
		"student_id":   "s1",
		"student_name": "ada",
		"course_progress": []map[string]interface{}{
			{"courseId": "c1", "completedLessons": 1, "totalLessons": 2, "score": 80.0},
			{"courseId": "c-deleted", "completedLessons": 3, "totalLessons": 3, "score": 90.0},
		},
		"score_history": []map[string]interface{}{{"date": "2026-08-20", "score": 85.0}},
	})

	require.NoError(t, eng.SyncDown(context.Background()))

	progress, err := store.Progress("s1")
	require.NoError(t, err)
	require.NotNil(t, progress)
	require.Len(t, progress.CourseProgress, 1)
	assert.Equal(t, "c1", progress.CourseProgress[0].CourseID)
	require.Len(t, progress.ScoreHistory, 1)
}

func TestSyncDownAbortsWholeOnFetchError(t *testing.T) {
	eng, store, fake := newTestEngine(t)

	before := seedCourse(t, eng, "L1")
	clearQueue(t, store) // not pending anymore; only the abort protects it

	fake.put("courses", map[string]interface{}{
		"id": "c-remote", "title": "Remote", "description": "", "icon": "", "author_id": "t1", "for_class": 5,
	})
	fake.setFail("lessons", true)

	err := eng.SyncDown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected failure")

	// All-or-nothing: the prior local state is untouched.
	_, err = store.Course(before.ID)
	assert.NoError(t, err)
	_, err = store.Course("c-remote")
	assert.Error(t, err)
}

func TestSyncDownPurgesStaleProgressAndProfiles(t *testing.T) {
	eng, store, fake := newTestEngine(t)

	require.NoError(t, store.Db.Create(&models.StudentProgress{StudentID: "gone", StudentName: "Ghost"}).Error)
	require.NoError(t, store.Db.Create(&models.Profile{ID: "gone", Username: "ghost", Role: "student", Class: 5}).Error)

	fake.put("profiles", map[string]interface{}{"id": "kept", "username": "ada", "role": "student", "class": 5})

	require.NoError(t, eng.SyncDown(context.Background()))

	progress, err := store.Progress("gone")
	require.NoError(t, err)
	assert.Nil(t, progress)

	_, err = store.Profile("gone")
	assert.Error(t, err)
	_, err = store.Profile("kept")
	assert.NoError(t, err)
}
