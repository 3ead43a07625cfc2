package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"civicpulse/internal/config"
	"civicpulse/internal/db"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var testPhoneSeq int

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.JWTSecret = "test-secret"
	cfg.BcryptCost = 4
	cfg.AuthRequestsPerMinute = 1000
	cfg.VoteRequestsPerMinute = 1000
	cfg.GeneralRequestsPerMinute = 10000
	return cfg
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "civicpulse.db")
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	srv := New(conn, testConfig(), nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func nextPhone() string {
	testPhoneSeq++
	return fmt.Sprintf("07%08d", testPhoneSeq)
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func decodeList(t *testing.T, resp *http.Response) []any {
	t.Helper()
	var body []any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

// registerVoter registers a fresh voter account and returns its id, phone
// number and token.
func registerVoter(t *testing.T, ts *httptest.Server) (uint, string, string) {
	t.Helper()
	phone := nextPhone()
	resp := doRequest(t, ts, http.MethodPost, "/api/auth/register", "", map[string]any{
		"phone_number": phone,
		"password":     "correct-horse",
		"full_name":    "Test Voter",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	token := body["token"].(string)
	user := body["user"].(map[string]any)
	return uint(user["id"].(float64)), phone, token
}

// registerAdmin registers a voter, promotes it directly in the store and logs
// in again so the token carries the admin role.
func registerAdmin(t *testing.T, srv *Server, ts *httptest.Server) (uint, string) {
	t.Helper()
	id, phone, _ := registerVoter(t, ts)
	if err := srv.db.Model(&db.User{}).Where("id = ?", id).Update("role", db.RoleAdmin).Error; err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	resp := doRequest(t, ts, http.MethodPost, "/api/auth/login", "", map[string]any{
		"phone_number": phone,
		"password":     "correct-horse",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return id, body["token"].(string)
}

func seedPosition(t *testing.T, srv *Server, name string) uint {
	t.Helper()
	position := db.Position{Name: name}
	if err := srv.db.Create(&position).Error; err != nil {
		t.Fatalf("seed position: %v", err)
	}
	return position.ID
}

func seedCategory(t *testing.T, srv *Server, name string) uint {
	t.Helper()
	category := db.IssueCategory{Name: name}
	if err := srv.db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return category.ID
}

// createPoll creates a two-candidate draft poll through the API and returns
// the poll id.
func createPoll(t *testing.T, ts *httptest.Server, adminToken string, positionID uint) uint {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/polls", adminToken, map[string]any{
		"title":       "Governor Race",
		"position_id": positionID,
		"start_date":  time.Now().Add(-time.Hour).Format(time.RFC3339),
		"end_date":    time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"candidates": []map[string]any{
			{"name": "Alice Wanjiku"},
			{"name": "Bob Otieno"},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	poll := body["poll"].(map[string]any)
	return uint(poll["id"].(float64))
}

// activatePoll moves a draft poll to active through the status endpoint.
func activatePoll(t *testing.T, ts *httptest.Server, adminToken string, pollID uint) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPatch, fmt.Sprintf("/api/polls/%d/status", pollID), adminToken,
		map[string]any{"status": "active"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

// pollCandidateIDs returns the candidate ids linked to a poll in display
// order.
func pollCandidateIDs(t *testing.T, srv *Server, pollID uint) []uint {
	t.Helper()
	var ids []uint
	err := srv.db.Model(&db.PollCandidate{}).
		Where("poll_id = ?", pollID).
		Order("display_order").
		Pluck("candidate_id", &ids).Error
	if err != nil {
		t.Fatalf("load poll candidates: %v", err)
	}
	return ids
}

func castVote(t *testing.T, ts *httptest.Server, token string, pollID, candidateID uint) *http.Response {
	t.Helper()
	return doRequest(t, ts, http.MethodPost, "/api/polls/vote", token, map[string]any{
		"pollId":      pollID,
		"candidateId": candidateID,
	})
}
