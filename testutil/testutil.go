// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/campus-tally/cliparse"
	"github.com/danielhkuo/campus-tally/db"
	"github.com/danielhkuo/campus-tally/directory"
	"github.com/danielhkuo/campus-tally/models"
)

// SetupTestDB creates a fresh SQLite database with the full schema in a
// per-test temp dir
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "campus-tally.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      "file::memory:",
		DatabaseType:     "sqlite",
		StorageBackend:   cliparse.BackendMemory,
		VoterIDSalt:      "test-voter-salt",
		StorageTimeout:   2 * time.Second,
		LockTimeout:      2 * time.Second,
		SubscriberBuffer: 16,
	}
}

// CouncilRequest is a two-position election: President (pick 1 of 2) and
// Class Representatives (pick 2 of 3)
func CouncilRequest() models.CreateElectionRequest {
	return models.CreateElectionRequest{
		Title:       "Student Council",
		Description: "A test election",
		Timeline:    models.Timeline{StartDate: "2025-03-01T09:00", EndDate: "2025-03-01T17:00"},
		Positions: []models.PositionInput{
			{
				Title:         "President",
				MaxSelections: 1,
				Candidates: []models.CandidateInput{
					{Name: "Asha", RollNumber: "21CS001"},
					{Name: "Ravi", RollNumber: "21CS002"},
				},
			},
			{
				Title:         "Class Representatives",
				MaxSelections: 2,
				Candidates: []models.CandidateInput{
					{Name: "Meera", RollNumber: "22EE010"},
					{Name: "John", RollNumber: "22EE011"},
					{Name: "Fatima", RollNumber: "22EE012"},
				},
			},
		},
	}
}

// CreateTestElection stores CouncilRequest and returns the created election
func CreateTestElection(t *testing.T, dir directory.Manager) *models.Election {
	t.Helper()

	e, err := dir.Create(context.Background(), CouncilRequest())
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}
	return e
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
