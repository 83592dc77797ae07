package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is a thin typed gateway to the remote table store. It holds no
// state beyond the HTTP client; every call hits the backend directly. The
// backend speaks a PostgREST-style API: select via query string, upsert via
// POST with merge-duplicates resolution, delete via column filters.
type Client struct {
	http *resty.Client
}

// NewClient builds a client for the remote table store at baseURL.
func NewClient(baseURL, apiKey string) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/") + "/rest/v1").
		SetHeader("apikey", apiKey).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	return &Client{http: client}
}

// APIError is a remote-side rejection (4xx/5xx) with whatever detail the
// backend provided. Transport failures are returned as plain errors instead.
type APIError struct {
	Table      string
	StatusCode int
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("remote %s: status %d", e.Table, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	if e.Hint != "" {
		msg += " hint: " + e.Hint
	}
	return msg
}

func apiError(table string, resp *resty.Response) error {
	apiErr := &APIError{Table: table, StatusCode: resp.StatusCode()}
	// Body may not be the structured error shape; keep whatever parses.
	_ = json.Unmarshal(resp.Body(), apiErr)
	return apiErr
}

// selectRows fetches all rows of a table into out, which must be a pointer
// to a slice of the table's row type.
func (c *Client) selectRows(ctx context.Context, table string, out interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetResult(out).
		Get("/" + table)
	if err != nil {
		return fmt.Errorf("select %s: %w", table, err)
	}
	if resp.IsError() {
		return apiError(table, resp)
	}
	return nil
}

// upsert writes one or more rows keyed by primary id: existing ids update in
// place, new ids insert. Last write wins; the remote holds no versions.
func (c *Client) upsert(ctx context.Context, table string, rows interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "resolution=merge-duplicates").
		SetBody(rows).
		Post("/" + table)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	if resp.IsError() {
		return apiError(table, resp)
	}
	return nil
}

// deleteRows removes every row where column equals value.
func (c *Client) deleteRows(ctx context.Context, table, column, value string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam(column, "eq."+value).
		Delete("/" + table)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if resp.IsError() {
		return apiError(table, resp)
	}
	return nil
}

func (c *Client) SelectCourses(ctx context.Context) ([]CourseRow, error) {
	var rows []CourseRow
	err := c.selectRows(ctx, "courses", &rows)
	return rows, err
}

func (c *Client) SelectLessons(ctx context.Context) ([]LessonRow, error) {
	var rows []LessonRow
	err := c.selectRows(ctx, "lessons", &rows)
	return rows, err
}

func (c *Client) SelectProfiles(ctx context.Context) ([]ProfileRow, error) {
	var rows []ProfileRow
	err := c.selectRows(ctx, "profiles", &rows)
	return rows, err
}

func (c *Client) SelectProgress(ctx context.Context) ([]StudentProgressRow, error) {
	var rows []StudentProgressRow
	err := c.selectRows(ctx, "student_progress", &rows)
	return rows, err
}

func (c *Client) UpsertCourse(ctx context.Context, row CourseRow) error {
	return c.upsert(ctx, "courses", []CourseRow{row})
}

func (c *Client) UpsertLessons(ctx context.Context, rows []LessonRow) error {
	if len(rows) == 0 {
		return nil
	}
	return c.upsert(ctx, "lessons", rows)
}

func (c *Client) UpsertProgress(ctx context.Context, row StudentProgressRow) error {
	return c.upsert(ctx, "student_progress", []StudentProgressRow{row})
}

func (c *Client) DeleteCourse(ctx context.Context, courseID string) error {
	return c.deleteRows(ctx, "courses", "id", courseID)
}

func (c *Client) DeleteLesson(ctx context.Context, lessonID string) error {
	return c.deleteRows(ctx, "lessons", "id", lessonID)
}

// DeleteLessonsForCourse removes every lesson row referencing courseID.
// Used as a safety net for cascades; individual lesson deletions are queued
// ahead of the course deletion anyway.
func (c *Client) DeleteLessonsForCourse(ctx context.Context, courseID string) error {
	return c.deleteRows(ctx, "lessons", "course_id", courseID)
}

// Ping probes reachability of the remote store. Any HTTP response counts as
// online; only transport failures report offline.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.http.R().SetContext(ctx).Get("/")
	if err != nil {
		return fmt.Errorf("remote unreachable: %w", err)
	}
	return nil
}
