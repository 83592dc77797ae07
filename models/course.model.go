package models

import (
	"time"

	"gorm.io/datatypes"
)

// TranscriptEntry is a single timed caption line of a lesson video.
type TranscriptEntry struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// QuizQuestion is one multiple-choice question of a lesson quiz.
// Options always has at least two entries; CorrectIndex points into it.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Lesson is embedded inside its course as JSON. The embedded list is the
// authoritative ordering; the remote lessons table carries no order.
type Lesson struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Content         string            `json:"content"` // HTML body
	Summary         string            `json:"summary,omitempty"`
	VideoURL        string            `json:"videoUrl,omitempty"`
	HasOfflineVideo bool              `json:"hasOfflineVideo"` // local-only, derived from video_blobs
	Transcript      []TranscriptEntry `json:"transcript,omitempty"`
	Quiz            []QuizQuestion    `json:"quiz,omitempty"`
	Difficulty      string            `json:"difficulty,omitempty"`
}

// Course is the local nested course document. Remotely, lessons live in a
// separate flat table keyed by course_id.
type Course struct {
	ID          string                      `json:"id" gorm:"primaryKey"`
	Title       string                      `json:"title"`
	Description string                      `json:"description"`
	Icon        string                      `json:"icon"`
	AuthorID    string                      `json:"author_id"`
	ForClass    int                         `json:"for_class" gorm:"index"`
	Lessons     datatypes.JSONSlice[Lesson] `json:"lessons"`
	UpdatedAt   time.Time                   `json:"-"`
}

// LessonIndex returns the position of lessonID in the embedded list, or -1.
func (c *Course) LessonIndex(lessonID string) int {
	for i, l := range c.Lessons {
		if l.ID == lessonID {
			return i
		}
	}
	return -1
}
