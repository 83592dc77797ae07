package database

import (
	"fmt"
	"log"

	"coursesync/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps the local replica database. It owns all five collections
// (courses, student_progress, profiles, sync_queue, video_blobs) and is
// passed explicitly into the sync engine and the HTTP controllers.
type Store struct {
	Db *gorm.DB
}

// Open connects to the sqlite replica at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open replica database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &Store{Db: db}, nil
}

// Close releases the underlying sqlite connection.
func (s *Store) Close() error {
	sqlDB, err := s.Db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction runs fn atomically across all collections.
func (s *Store) Transaction(fn func(tx *gorm.DB) error) error {
	return s.Db.Transaction(fn)
}

// runMigrations performs database migrations
func runMigrations(db *gorm.DB) error {
	log.Println("Running Migrations...")

	err := db.AutoMigrate(
		&models.Course{},
		&models.Profile{},
		&models.StudentProgress{},
		&models.SyncQueueItem{},
		&models.VideoBlob{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Course fetches one course by id.
func (s *Store) Course(id string) (*models.Course, error) {
	var course models.Course
	if err := s.Db.First(&course, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// CoursesForClass lists all courses targeted at a class, newest first.
func (s *Store) CoursesForClass(class int) ([]models.Course, error) {
	var courses []models.Course
	err := s.Db.Where("for_class = ?", class).Order("updated_at desc").Find(&courses).Error
	return courses, err
}

// AllCourses lists every course in the replica.
func (s *Store) AllCourses() ([]models.Course, error) {
	var courses []models.Course
	err := s.Db.Find(&courses).Error
	return courses, err
}

// Profile fetches one profile by id.
func (s *Store) Profile(id string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.Db.First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfilesForClass lists all profiles in a class.
func (s *Store) ProfilesForClass(class int) ([]models.Profile, error) {
	var profiles []models.Profile
	err := s.Db.Where("class = ?", class).Find(&profiles).Error
	return profiles, err
}

// Progress fetches one student's progress row, or nil if absent.
func (s *Store) Progress(studentID string) (*models.StudentProgress, error) {
	var progress models.StudentProgress
	err := s.Db.First(&progress, "student_id = ?", studentID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// ProgressForStudents lists progress rows for a set of student ids.
func (s *Store) ProgressForStudents(studentIDs []string) ([]models.StudentProgress, error) {
	var progress []models.StudentProgress
	err := s.Db.Where("student_id IN ?", studentIDs).Find(&progress).Error
	return progress, err
}

// PendingQueue returns the full mutation queue, oldest first. The ordering
// is load-bearing: later mutations may depend on rows created by earlier
// ones (a lesson save referencing a just-saved course).
func (s *Store) PendingQueue() ([]models.SyncQueueItem, error) {
	var items []models.SyncQueueItem
	err := s.Db.Order("created_at asc, id asc").Find(&items).Error
	return items, err
}

// QueueLength returns the number of pending mutations.
func (s *Store) QueueLength() (int64, error) {
	var count int64
	err := s.Db.Model(&models.SyncQueueItem{}).Count(&count).Error
	return count, err
}

// DeleteQueueItem removes a confirmed (or manually discarded) queue item.
func (s *Store) DeleteQueueItem(id uint) error {
	return s.Db.Delete(&models.SyncQueueItem{}, "id = ?", id).Error
}

// RecordQueueFailure bumps the attempt counter and stores the last error so
// a permanently failing item can be found and discarded by hand.
func (s *Store) RecordQueueFailure(id uint, cause string) error {
	return s.Db.Model(&models.SyncQueueItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": cause,
		}).Error
}

// PutVideo stores (or replaces) a lesson's offline video payload.
func (s *Store) PutVideo(tx *gorm.DB, lessonID string, data []byte) error {
	blob := models.VideoBlob{LessonID: lessonID, Data: data, Size: int64(len(data))}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lesson_id"}},
		UpdateAll: true,
	}).Create(&blob).Error
}

// GetVideo fetches a lesson's offline video payload, or nil if absent.
func (s *Store) GetVideo(lessonID string) ([]byte, error) {
	var blob models.VideoBlob
	err := s.Db.First(&blob, "lesson_id = ?", lessonID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}

// HasVideo reports whether a lesson has an offline video payload.
func (s *Store) HasVideo(lessonID string) (bool, error) {
	var count int64
	err := s.Db.Model(&models.VideoBlob{}).Where("lesson_id = ?", lessonID).Count(&count).Error
	return count > 0, err
}

// DeleteVideo removes a lesson's offline video payload.
func (s *Store) DeleteVideo(tx *gorm.DB, lessonID string) error {
	return tx.Delete(&models.VideoBlob{}, "lesson_id = ?", lessonID).Error
}
