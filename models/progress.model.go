package models

import "gorm.io/datatypes"

// LessonStatus tracks a student's standing on one lesson. FinalScore keeps
// the best score across attempts, never the latest.
type LessonStatus struct {
	LessonID   string `json:"lessonId"`
	Attempts   int    `json:"attempts"`
	FinalScore int    `json:"finalScore"`
}

// CourseProgress is the per-course aggregate inside a student's progress row.
// CompletedLessons and Score are recomputed on every write from the
// LessonStatuses list; TotalLessons tracks the owning course's lesson count.
type CourseProgress struct {
	CourseID         string         `json:"courseId"`
	CompletedLessons int            `json:"completedLessons"`
	TotalLessons     int            `json:"totalLessons"`
	Score            float64        `json:"score"`
	LessonStatuses   []LessonStatus `json:"lessonStatuses"`
}

// ScoreHistoryEntry is one calendar day's overall average score across all
// courses. At most one entry per date; today's entry is overwritten in place.
type ScoreHistoryEntry struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Score float64 `json:"score"`
}

// StudentProgress is one row per student, keyed by the student's profile id.
type StudentProgress struct {
	StudentID      string                                 `json:"student_id" gorm:"primaryKey"`
	StudentName    string                                 `json:"student_name"`
	CourseProgress datatypes.JSONSlice[CourseProgress]    `json:"course_progress"`
	ScoreHistory   datatypes.JSONSlice[ScoreHistoryEntry] `json:"score_history"`
}

// TableName keeps the local table name aligned with the remote one.
func (StudentProgress) TableName() string {
	return "student_progress"
}

// CourseIndex returns the position of courseID in CourseProgress, or -1.
func (sp *StudentProgress) CourseIndex(courseID string) int {
	for i, cp := range sp.CourseProgress {
		if cp.CourseID == courseID {
			return i
		}
	}
	return -1
}

// Recalculate refreshes CompletedLessons and Score from LessonStatuses.
func (cp *CourseProgress) Recalculate() {
	completed := 0
	sum := 0
	for _, ls := range cp.LessonStatuses {
		if ls.FinalScore > 0 {
			completed++
			sum += ls.FinalScore
		}
	}
	cp.CompletedLessons = completed
	if completed > 0 {
		cp.Score = float64(sum) / float64(completed)
	} else {
		cp.Score = 0
	}
}

// RecordHistory upserts the score-history entry for the given date with the
// overall average score across all course aggregates.
func (sp *StudentProgress) RecordHistory(date string) {
	if len(sp.CourseProgress) == 0 {
		return
	}
	sum := 0.0
	for _, cp := range sp.CourseProgress {
		sum += cp.Score
	}
	avg := sum / float64(len(sp.CourseProgress))

	for i, entry := range sp.ScoreHistory {
		if entry.Date == date {
			sp.ScoreHistory[i].Score = avg
			return
		}
	}
	sp.ScoreHistory = append(sp.ScoreHistory, ScoreHistoryEntry{Date: date, Score: avg})
}
