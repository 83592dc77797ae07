package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"coursesync/config"
	"coursesync/database"
	"coursesync/engine"
	"coursesync/middleware"
	"coursesync/remote"
	"coursesync/routers"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, *database.Store) {
	t.Helper()

	config.AppConfig = &config.Config{
		JWTKey:         "test-secret",
		MaxVideoSizeMB: 10,
	}

	store, err := database.Open(filepath.Join(t.TempDir(), "replica.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// Writes only touch the replica and the queue; the remote is never
	// dialed in these tests.
	eng := engine.New(store, remote.NewClient("http://127.0.0.1:1", "unused"))

	app := fiber.New()
	routers.SetupRoutes(app, store, eng)
	return app, store
}

func authToken(t *testing.T, userID, role string, class int) string {
	t.Helper()
	token, err := middleware.GenerateJWT(userID, userID, role, class)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)

	resp, err := app.Test(req)
	require.NoError(t, err)

	var result map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func TestCourseLifecycleOverHTTP(t *testing.T) {
	app, store := newTestApp(t)
	teacher := authToken(t, "teacher-1", "teacher", 5)
	student := authToken(t, "student-1", "student", 5)

	// Students may not author courses.
	status, _ := doJSON(t, app, "POST", "/course/", student, map[string]interface{}{
		"title": "Fractions", "for_class": 5,
	})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, result := doJSON(t, app, "POST", "/course/", teacher, map[string]interface{}{
		"title":       "Fractions",
		"description": "Intro to fractions",
		"for_class":   5,
		"lessons": []map[string]interface{}{
			{"title": "Halves", "content": "<p>1/2</p>"},
		},
	})
	require.Equal(t, fiber.StatusOK, status)
	course := result["data"].(map[string]interface{})
	courseID := course["id"].(string)
	require.NotEmpty(t, courseID)
	lessonID := course["lessons"].([]interface{})[0].(map[string]interface{})["id"].(string)

	// The write landed locally with no remote round-trip.
	status, result = doJSON(t, app, "GET", "/course/list", student, nil)
	require.Equal(t, fiber.StatusOK, status)
	courses := result["data"].(map[string]interface{})["courses"].([]interface{})
	require.Len(t, courses, 1)

	status, result = doJSON(t, app, "POST", "/progress/attempt", student, map[string]interface{}{
		"courseId": courseID, "lessonId": lessonID, "score": 80,
	})
	require.Equal(t, fiber.StatusOK, status)
	progress := result["data"].(map[string]interface{})
	cps := progress["course_progress"].([]interface{})
	require.Len(t, cps, 1)
	assert.Equal(t, float64(1), cps[0].(map[string]interface{})["completedLessons"])

	// Both mutations are queued for uplink.
	status, result = doJSON(t, app, "GET", "/sync/status", teacher, nil)
	require.Equal(t, fiber.StatusOK, status)
	syncData := result["data"].(map[string]interface{})
	assert.Equal(t, float64(2), syncData["queue_length"])
	assert.Equal(t, false, syncData["online"])

	length, err := store.QueueLength()
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)
}

func TestTeacherCatalogSpansClasses(t *testing.T) {
	app, _ := newTestApp(t)
	teacher := authToken(t, "teacher-1", "teacher", 5)
	student := authToken(t, "student-1", "student", 5)

	for _, body := range []map[string]interface{}{
		{"title": "Class five", "for_class": 5},
		{"title": "Class six", "for_class": 6},
	} {
		status, _ := doJSON(t, app, "POST", "/course/", teacher, body)
		require.Equal(t, fiber.StatusOK, status)
	}

	// Teachers see the whole catalog, students only their class.
	status, result := doJSON(t, app, "GET", "/course/list", teacher, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, result["data"].(map[string]interface{})["courses"].([]interface{}), 2)

	status, result = doJSON(t, app, "GET", "/course/list", student, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, result["data"].(map[string]interface{})["courses"].([]interface{}), 1)
}

func TestCourseValidation(t *testing.T) {
	app, _ := newTestApp(t)
	teacher := authToken(t, "teacher-1", "teacher", 5)

	status, _ := doJSON(t, app, "POST", "/course/", teacher, map[string]interface{}{
		"title": "ab", "for_class": 0,
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = doJSON(t, app, "POST", "/course/", teacher, map[string]interface{}{
		"title":     "Valid title",
		"for_class": 5,
		"lessons": []map[string]interface{}{
			{"title": "L", "content": "c", "quiz": []map[string]interface{}{
				{"question": "?", "options": []string{"only-one"}, "correctIndex": 0},
			}},
		},
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestMissingTokenRejected(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/course/list", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
