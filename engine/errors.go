package engine

import "errors"

// Domain errors surfaced to the presentation layer. Data-integrity problems
// are never auto-corrected; the caller decides what to do.
var (
	ErrCourseNotFound = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrInvalidScore   = errors.New("score must be between 0 and 100")
	ErrOffline        = errors.New("client is offline")
)
