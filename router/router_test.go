// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/campus-tally/directory"
	"github.com/danielhkuo/campus-tally/metrics"
	"github.com/danielhkuo/campus-tally/notify"
	"github.com/danielhkuo/campus-tally/storage"
	"github.com/danielhkuo/campus-tally/tally"
	"github.com/danielhkuo/campus-tally/testutil"
)

func newTestRouter(t *testing.T) (*http.ServeMux, *directory.SQLDirectory) {
	t.Helper()

	cfg := testutil.GetTestConfig()
	dir := directory.NewSQLDirectory(testutil.SetupTestDB(t))
	hub := notify.NewHub(cfg.SubscriberBuffer)
	m := metrics.NewTallyMetrics("campus_tally")
	store := tally.New(dir, storage.NewMemoryStore(), hub, cfg.VoterIDSalt, tally.WithMetrics(m))

	return NewRouter(Deps{Elections: dir, Tally: store, Hub: hub, Metrics: m}), dir
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	expected := "campus-tally API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mux, dir := newTestRouter(t)
	e := testutil.CreateTestElection(t, dir)

	// One accepted ballot so the vectors have a sample
	body := map[string]any{
		"voterId": "21CS1042",
		"votes":   map[string][]string{e.Positions[0].ID: {e.Positions[0].Candidates[0].ID}},
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("POST", "/elections/"+e.ID+"/votes", body, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	for _, name := range []string{"campus_tally_votes_recorded_total", "campus_tally_record_duration_seconds", "campus_tally_subscribers"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("Expected %s in metrics output", name)
		}
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _ := newTestRouter(t)

	// Every route reaches a handler; missing data gives the handler's own
	// 4xx rather than the mux's 404/405 text
	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/elections"},
		{"GET", "/elections"},
		{"GET", "/elections/test-id"},
		{"PUT", "/elections/test-id"},
		{"DELETE", "/elections/test-id"},
		{"POST", "/elections/test-id/positions/pos-id/candidates"},
		{"DELETE", "/elections/test-id/positions/pos-id/candidates/cand-id"},
		{"PUT", "/elections/test-id/eligible-voters"},
		{"POST", "/elections/test-id/votes"},
		{"GET", "/elections/test-id/voters/voter-id"},
		{"GET", "/elections/test-id/results"},
		{"GET", "/elections/test-id/updates"},
		{"GET", "/elections/test-id/updates/ws"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}"))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s not registered for method", tc.method, tc.path)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("Expected a JSON handler response, got Content-Type %q (status %d)", ct, w.Code)
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	mux, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/polls/abc", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("PATCH", "/elections/test-id", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}
}
