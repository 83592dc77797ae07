package remote

import "coursesync/models"

// Wire shapes of the remote tables. Locally a course embeds its lessons;
// remotely lessons are a flat table keyed by id with a course_id foreign key.
// Local-only fields (a lesson's hasOfflineVideo flag) have no column here and
// are stripped by the conversions below.

// ProfileRow is one row of the remote profiles table.
type ProfileRow struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Class    int    `json:"class"`
}

// CourseRow is one row of the remote courses table.
type CourseRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	AuthorID    string `json:"author_id"`
	ForClass    int    `json:"for_class"`
}

// LessonRow is one row of the remote lessons table.
type LessonRow struct {
	ID         string                   `json:"id"`
	CourseID   string                   `json:"course_id"`
	Title      string                   `json:"title"`
	Content    string                   `json:"content"`
	Summary    string                   `json:"summary,omitempty"`
	VideoURL   string                   `json:"video_url,omitempty"`
	Difficulty string                   `json:"difficulty,omitempty"`
	Quiz       []models.QuizQuestion    `json:"quiz"`
	Transcript []models.TranscriptEntry `json:"transcript,omitempty"`
}

// StudentProgressRow is one row of the remote student_progress table. The
// aggregate lists travel as json columns.
type StudentProgressRow struct {
	StudentID      string                     `json:"student_id"`
	StudentName    string                     `json:"student_name"`
	CourseProgress []models.CourseProgress    `json:"course_progress"`
	ScoreHistory   []models.ScoreHistoryEntry `json:"score_history"`
}

// Model converts a wire profile row to the local shape.
func (r ProfileRow) Model() models.Profile {
	return models.Profile{ID: r.ID, Username: r.Username, Role: r.Role, Class: r.Class}
}

// CourseRowFromModel converts a local course document to its flat wire row.
// The embedded lessons are carried separately by LessonRowsFromModel.
func CourseRowFromModel(c models.Course) CourseRow {
	return CourseRow{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Icon:        c.Icon,
		AuthorID:    c.AuthorID,
		ForClass:    c.ForClass,
	}
}

// LessonRowFromModel flattens one embedded lesson into its wire row,
// dropping the local-only offline-video flag.
func LessonRowFromModel(courseID string, l models.Lesson) LessonRow {
	return LessonRow{
		ID:         l.ID,
		CourseID:   courseID,
		Title:      l.Title,
		Content:    l.Content,
		Summary:    l.Summary,
		VideoURL:   l.VideoURL,
		Difficulty: l.Difficulty,
		Quiz:       l.Quiz,
		Transcript: l.Transcript,
	}
}

// LessonRowsFromModel flattens all embedded lessons of a course.
func LessonRowsFromModel(c models.Course) []LessonRow {
	rows := make([]LessonRow, 0, len(c.Lessons))
	for _, l := range c.Lessons {
		rows = append(rows, LessonRowFromModel(c.ID, l))
	}
	return rows
}

// Model converts a wire lesson row back to the embedded local shape. The
// offline-video flag always starts false; it is re-derived from the local
// blob table when the lesson is displayed.
func (r LessonRow) Model() models.Lesson {
	return models.Lesson{
		ID:         r.ID,
		Title:      r.Title,
		Content:    r.Content,
		Summary:    r.Summary,
		VideoURL:   r.VideoURL,
		Difficulty: r.Difficulty,
		Quiz:       r.Quiz,
		Transcript: r.Transcript,
	}
}

// ProgressRowFromModel converts a local progress aggregate to its wire row.
func ProgressRowFromModel(sp models.StudentProgress) StudentProgressRow {
	return StudentProgressRow{
		StudentID:      sp.StudentID,
		StudentName:    sp.StudentName,
		CourseProgress: sp.CourseProgress,
		ScoreHistory:   sp.ScoreHistory,
	}
}

// Model converts a wire progress row to the local shape.
func (r StudentProgressRow) Model() models.StudentProgress {
	return models.StudentProgress{
		StudentID:      r.StudentID,
		StudentName:    r.StudentName,
		CourseProgress: r.CourseProgress,
		ScoreHistory:   r.ScoreHistory,
	}
}

// AssembleCourses regroups a flat lesson snapshot under its courses. The
// remote table has no ordering guarantee, so lessons keep the order the
// snapshot delivered them in.
func AssembleCourses(courses []CourseRow, lessons []LessonRow) []models.Course {
	byCourse := make(map[string][]models.Lesson)
	for _, row := range lessons {
		byCourse[row.CourseID] = append(byCourse[row.CourseID], row.Model())
	}

	out := make([]models.Course, 0, len(courses))
	for _, row := range courses {
		out = append(out, models.Course{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			Icon:        row.Icon,
			AuthorID:    row.AuthorID,
			ForClass:    row.ForClass,
			Lessons:     byCourse[row.ID],
		})
	}
	return out
}
