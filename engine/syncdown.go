package engine

import (
	"context"
	"fmt"
	"log"

	"coursesync/models"
	"coursesync/remote"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// SyncDown pulls a full snapshot of every remote table and reconciles it
// into the local replica. Reconciliation is all-or-nothing: any fetch error
// aborts before the replica is touched, and the delete+upsert pass runs in
// one transaction.
//
// The merge is non-destructive: a course that exists only locally because
// its save-course mutation has not been replayed yet is exempt from the
// stale-id purge.
func (e *Engine) SyncDown(ctx context.Context) error {
	log.Println("[SYNC-DOWN] Pulling remote snapshot...")

	var (
		courseRows   []remote.CourseRow
		lessonRows   []remote.LessonRow
		profileRows  []remote.ProfileRow
		progressRows []remote.StudentProgressRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		courseRows, err = e.remote.SelectCourses(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		lessonRows, err = e.remote.SelectLessons(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		profileRows, err = e.remote.SelectProfiles(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		progressRows, err = e.remote.SelectProgress(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf("[SYNC-DOWN] Aborted, replica left untouched: %v", err)
		return fmt.Errorf("sync down: %w", err)
	}

	courses := remote.AssembleCourses(courseRows, lessonRows)
	courseIDs := make(map[string]struct{}, len(courses))
	keepLessons := make(map[string]struct{})
	for _, c := range courses {
		courseIDs[c.ID] = struct{}{}
		for _, l := range c.Lessons {
			keepLessons[l.ID] = struct{}{}
		}
	}

	// Progress rows may still reference courses another client deleted
	// server-side; those entries must never surface locally.
	progress := make([]models.StudentProgress, 0, len(progressRows))
	progressIDs := make(map[string]struct{}, len(progressRows))
	for _, row := range progressRows {
		sp := row.Model()
		filtered := make([]models.CourseProgress, 0, len(sp.CourseProgress))
		for _, cp := range sp.CourseProgress {
			if _, ok := courseIDs[cp.CourseID]; ok {
				filtered = append(filtered, cp)
			}
		}
		sp.CourseProgress = filtered
		progress = append(progress, sp)
		progressIDs[sp.StudentID] = struct{}{}
	}

	profiles := make([]models.Profile, 0, len(profileRows))
	profileIDs := make(map[string]struct{}, len(profileRows))
	for _, row := range profileRows {
		profiles = append(profiles, row.Model())
		profileIDs[row.ID] = struct{}{}
	}

	err := e.store.Transaction(func(tx *gorm.DB) error {
		// The queue snapshot and the local-id reads must share one
		// transaction: a save committing between them would show up as a
		// local course with no visible queue item and be purged as stale.
		var queue []models.SyncQueueItem
		if err := tx.Find(&queue).Error; err != nil {
			return err
		}
		pending := pendingCourseCreations(queue)

		var localCourses []models.Course
		if err := tx.Find(&localCourses).Error; err != nil {
			return err
		}
		staleCourses := make([]string, 0)
		for _, c := range localCourses {
			if _, ok := courseIDs[c.ID]; ok {
				continue
			}
			if _, ok := pending[c.ID]; ok {
				continue
			}
			staleCourses = append(staleCourses, c.ID)
		}
		if len(staleCourses) > 0 {
			if err := tx.Delete(&models.Course{}, "id IN ?", staleCourses).Error; err != nil {
				return err
			}
		}

		// Offline videos for lessons the snapshot no longer carries are
		// orphans. Pending local creations keep theirs.
		for _, c := range localCourses {
			if _, ok := pending[c.ID]; ok {
				continue
			}
			for _, l := range c.Lessons {
				if _, ok := keepLessons[l.ID]; ok {
					continue
				}
				if err := e.store.DeleteVideo(tx, l.ID); err != nil {
					return err
				}
			}
		}

		var localStudentIDs []string
		if err := tx.Model(&models.StudentProgress{}).Pluck("student_id", &localStudentIDs).Error; err != nil {
			return err
		}
		staleProgress := make([]string, 0)
		for _, id := range localStudentIDs {
			if _, ok := progressIDs[id]; !ok {
				staleProgress = append(staleProgress, id)
			}
		}
		if len(staleProgress) > 0 {
			if err := tx.Delete(&models.StudentProgress{}, "student_id IN ?", staleProgress).Error; err != nil {
				return err
			}
		}

		var localProfileIDs []string
		if err := tx.Model(&models.Profile{}).Pluck("id", &localProfileIDs).Error; err != nil {
			return err
		}
		staleProfiles := make([]string, 0)
		for _, id := range localProfileIDs {
			if _, ok := profileIDs[id]; !ok {
				staleProfiles = append(staleProfiles, id)
			}
		}
		if len(staleProfiles) > 0 {
			if err := tx.Delete(&models.Profile{}, "id IN ?", staleProfiles).Error; err != nil {
				return err
			}
		}

		for i := range courses {
			if err := upsertRow(tx, &courses[i]); err != nil {
				return err
			}
		}
		for i := range progress {
			if err := upsertRow(tx, &progress[i]); err != nil {
				return err
			}
		}
		for i := range profiles {
			if err := upsertRow(tx, &profiles[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sync down: apply snapshot: %w", err)
	}

	log.Printf("[SYNC-DOWN] Applied snapshot: %d course(s), %d progress row(s), %d profile(s)",
		len(courses), len(progress), len(profiles))
	return nil
}
