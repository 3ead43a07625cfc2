package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"civicpulse/internal/db"
)

func createIssue(t *testing.T, ts *httptest.Server, token string, categoryID uint) uint {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/issues", token, map[string]any{
		"title":       "Broken streetlight",
		"description": "The light at the market junction has been dark for weeks.",
		"category_id": categoryID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return uint(body["id"].(float64))
}

func TestCreateIssue(t *testing.T) {
	srv, ts := newTestServer(t)
	categoryID := seedCategory(t, srv, "Infrastructure")
	userID, _, token := registerVoter(t, ts)

	resp := doRequest(t, ts, http.MethodPost, "/api/issues", token, map[string]any{
		"title":        "Broken streetlight",
		"description":  "The light at the market junction has been dark for weeks.",
		"category_id":  categoryID,
		"constituency": "Westlands",
		"ward":         "Parklands",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	issue := body["issue"].(map[string]any)
	if issue["status"] != db.IssueStatusSubmitted {
		t.Fatalf("expected submitted status, got %v", issue["status"])
	}
	if issue["location_description"] != "Parklands, Westlands" {
		t.Fatalf("unexpected location: %v", issue["location_description"])
	}

	var stored db.Issue
	if err := srv.db.First(&stored, uint(body["id"].(float64))).Error; err != nil {
		t.Fatalf("load issue: %v", err)
	}
	if stored.UserID == nil || *stored.UserID != userID {
		t.Fatalf("expected reporter id %d, got %v", userID, stored.UserID)
	}
}

func TestCreateIssueAnonymous(t *testing.T) {
	srv, ts := newTestServer(t)
	categoryID := seedCategory(t, srv, "Water")
	_, _, token := registerVoter(t, ts)

	resp := doRequest(t, ts, http.MethodPost, "/api/issues", token, map[string]any{
		"title":        "Dry taps",
		"description":  "No water supply for three days.",
		"category_id":  categoryID,
		"is_anonymous": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)

	var stored db.Issue
	if err := srv.db.First(&stored, uint(body["id"].(float64))).Error; err != nil {
		t.Fatalf("load issue: %v", err)
	}
	if stored.UserID != nil {
		t.Fatalf("anonymous issue must not keep a reporter id, got %v", *stored.UserID)
	}
}

func TestCreateIssueUnknownCategory(t *testing.T) {
	_, ts := newTestServer(t)
	_, _, token := registerVoter(t, ts)

	resp := doRequest(t, ts, http.MethodPost, "/api/issues", token, map[string]any{
		"title":       "Something",
		"description": "Something else",
		"category_id": 4242,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "Unknown category" {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestListIssuesFilters(t *testing.T) {
	srv, ts := newTestServer(t)
	roadsID := seedCategory(t, srv, "Roads")
	waterID := seedCategory(t, srv, "Water")
	_, _, token := registerVoter(t, ts)

	createIssue(t, ts, token, roadsID)
	waterIssue := createIssue(t, ts, token, waterID)

	resp := doRequest(t, ts, http.MethodGet, fmt.Sprintf("/api/issues?category_id=%d", waterID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	issues := body["issues"].([]any)
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue after category filter, got %d", len(issues))
	}
	if got := uint(issues[0].(map[string]any)["id"].(float64)); got != waterIssue {
		t.Fatalf("expected issue %d, got %d", waterIssue, got)
	}

	pagination := body["pagination"].(map[string]any)
	if pagination["total"].(float64) != 1 {
		t.Fatalf("expected pagination total 1, got %v", pagination["total"])
	}
}

func TestToggleUpvote(t *testing.T) {
	srv, ts := newTestServer(t)
	categoryID := seedCategory(t, srv, "Roads")
	_, _, token := registerVoter(t, ts)
	issueID := createIssue(t, ts, token, categoryID)
	path := fmt.Sprintf("/api/issues/%d/upvote", issueID)

	resp := doRequest(t, ts, http.MethodPost, path, token, nil)
	body := decodeBody(t, resp)
	if body["upvoted"] != true || body["upvotes_count"].(float64) != 1 {
		t.Fatalf("expected upvote on, got %v", body)
	}

	resp = doRequest(t, ts, http.MethodPost, path, token, nil)
	body = decodeBody(t, resp)
	if body["upvoted"] != false || body["upvotes_count"].(float64) != 0 {
		t.Fatalf("expected upvote off, got %v", body)
	}

	var issue db.Issue
	if err := srv.db.First(&issue, issueID).Error; err != nil {
		t.Fatalf("load issue: %v", err)
	}
	if issue.UpvotesCount != 0 {
		t.Fatalf("counter must match, got %d", issue.UpvotesCount)
	}
}

func TestCommentsFlow(t *testing.T) {
	srv, ts := newTestServer(t)
	categoryID := seedCategory(t, srv, "Roads")
	_, _, token := registerVoter(t, ts)
	issueID := createIssue(t, ts, token, categoryID)

	resp := doRequest(t, ts, http.MethodPost, fmt.Sprintf("/api/issues/%d/comments", issueID), token,
		map[string]any{"comment_text": "Same here, it floods every evening."})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, fmt.Sprintf("/api/issues/%d/comments", issueID), token,
		map[string]any{"comment_text": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank comment must be rejected, got %d", resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodGet, fmt.Sprintf("/api/issues/%d/comments", issueID), token, nil)
	comments := decodeBody(t, resp)["comments"].([]any)
	if len(comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(comments))
	}
	comment := comments[0].(map[string]any)
	if comment["comment_text"] != "Same here, it floods every evening." {
		t.Fatalf("unexpected comment text: %v", comment["comment_text"])
	}
	if _, ok := comment["user"].(map[string]any); !ok {
		t.Fatalf("expected embedded author, got %v", comment["user"])
	}

	var issue db.Issue
	if err := srv.db.First(&issue, issueID).Error; err != nil {
		t.Fatalf("load issue: %v", err)
	}
	if issue.CommentsCount != 1 {
		t.Fatalf("expected comments_count 1, got %d", issue.CommentsCount)
	}
}

func TestIncrementView(t *testing.T) {
	srv, ts := newTestServer(t)
	categoryID := seedCategory(t, srv, "Roads")
	_, _, token := registerVoter(t, ts)
	issueID := createIssue(t, ts, token, categoryID)

	for i := 0; i < 3; i++ {
		resp := doRequest(t, ts, http.MethodPost, fmt.Sprintf("/api/issues/%d/view", issueID), token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
		}
	}

	var issue db.Issue
	if err := srv.db.First(&issue, issueID).Error; err != nil {
		t.Fatalf("load issue: %v", err)
	}
	if issue.ViewsCount != 3 {
		t.Fatalf("expected views_count 3, got %d", issue.ViewsCount)
	}

	resp := doRequest(t, ts, http.MethodPost, "/api/issues/4242/view", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestListCategoriesIsPublic(t *testing.T) {
	srv, ts := newTestServer(t)
	seedCategory(t, srv, "Roads")
	seedCategory(t, srv, "Water")

	resp := doRequest(t, ts, http.MethodGet, "/api/issues/categories", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	categories := decodeBody(t, resp)["categories"].([]any)
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}
}
