package engine_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"coursesync/remote"
)

// fakeRemote is an in-memory stand-in for the remote table store, speaking
// just enough of the REST dialect the client uses: select all, upsert by
// primary key, delete by column filter.
type fakeRemote struct {
	mu        sync.Mutex
	tables    map[string]map[string]map[string]interface{} // table -> pk -> row
	fail      map[string]bool                              // tables forced to 500
	requests  []string                                     // "METHOD /table" in arrival order
	onRequest func(method, table string)                   // fired before serving, for interleaving tests
}

var primaryKeys = map[string]string{
	"courses":          "id",
	"lessons":          "id",
	"profiles":         "id",
	"student_progress": "student_id",
}

func newFakeRemote(t *testing.T) (*fakeRemote, *remote.Client) {
	t.Helper()

	f := &fakeRemote{
		tables: map[string]map[string]map[string]interface{}{
			"courses":          {},
			"lessons":          {},
			"profiles":         {},
			"student_progress": {},
		},
		fail: map[string]bool{},
	}

	server := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(server.Close)

	return f, remote.NewClient(server.URL, "test-key")
}

func (f *fakeRemote) handle(w http.ResponseWriter, r *http.Request) {
	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	table = strings.Trim(table, "/")
	w.Header().Set("Content-Type", "application/json")

	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" /"+table)
	hook := f.onRequest
	f.mu.Unlock()

	if hook != nil {
		hook(r.Method, table)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	rows, ok := f.tables[table]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "relation does not exist"})
		return
	}
	if f.fail[table] {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"message": "injected failure",
			"details": "table " + table + " is down",
			"hint":    "retry later",
		})
		return
	}

	pk := primaryKeys[table]
	switch r.Method {
	case http.MethodGet:
		out := make([]map[string]interface{}, 0, len(rows))
		for _, row := range rows {
			out = append(out, row)
		}
		json.NewEncoder(w).Encode(out)

	case http.MethodPost:
		var incoming []map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"message": "malformed payload"})
			return
		}
		for _, row := range incoming {
			id, _ := row[pk].(string)
			if id == "" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"message": "missing primary key"})
				return
			}
			rows[id] = row
		}
		w.WriteHeader(http.StatusCreated)

	case http.MethodDelete:
		for column, values := range r.URL.Query() {
			if column == "select" || len(values) == 0 {
				continue
			}
			value := strings.TrimPrefix(values[0], "eq.")
			for id, row := range rows {
				if cell, _ := row[column].(string); cell == value {
					delete(rows, id)
				}
			}
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeRemote) count(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}

func (f *fakeRemote) row(table, id string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tables[table][id]
}

func (f *fakeRemote) put(table string, row map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, _ := row[primaryKeys[table]].(string)
	f.tables[table][id] = row
}

func (f *fakeRemote) setOnRequest(fn func(method, table string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onRequest = fn
}

func (f *fakeRemote) setFail(table string, down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[table] = down
}

func (f *fakeRemote) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	copy(out, f.requests)
	return out
}
