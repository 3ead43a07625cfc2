package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func createStandaloneCandidate(t *testing.T, ts *httptest.Server, adminToken string, positionID uint, name string) uint {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/candidates", adminToken, map[string]any{
		"name":        name,
		"position_id": positionID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	candidate := body["candidate"].(map[string]any)
	return uint(candidate["id"].(float64))
}

func TestCandidateCRUD(t *testing.T) {
	srv, ts := newTestServer(t)
	positionID := seedPosition(t, srv, "Senator")
	_, adminToken := registerAdmin(t, srv, ts)

	candidateID := createStandaloneCandidate(t, ts, adminToken, positionID, "Grace Njeri")

	resp := doRequest(t, ts, http.MethodGet, fmt.Sprintf("/api/candidates/%d", candidateID), "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPut, fmt.Sprintf("/api/candidates/%d", candidateID), adminToken,
		map[string]any{"campaign_slogan": "Maji safi kwa wote"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	candidate := decodeBody(t, resp)["candidate"].(map[string]any)
	if candidate["campaign_slogan"] != "Maji safi kwa wote" {
		t.Fatalf("slogan not applied: %v", candidate["campaign_slogan"])
	}

	resp = doRequest(t, ts, http.MethodDelete, fmt.Sprintf("/api/candidates/%d", candidateID), adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	resp = doRequest(t, ts, http.MethodGet, fmt.Sprintf("/api/candidates/%d", candidateID), "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d after delete, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestCandidateListFilters(t *testing.T) {
	srv, ts := newTestServer(t)
	senatorID := seedPosition(t, srv, "Senator")
	governorID := seedPosition(t, srv, "Governor")
	_, adminToken := registerAdmin(t, srv, ts)

	createStandaloneCandidate(t, ts, adminToken, senatorID, "Grace Njeri")
	createStandaloneCandidate(t, ts, adminToken, governorID, "John Mwangi")

	resp := doRequest(t, ts, http.MethodGet, fmt.Sprintf("/api/candidates?position_id=%d", senatorID), "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["count"].(float64) != 1 {
		t.Fatalf("expected 1 filtered candidate, got %v", body["count"])
	}
}

func TestDeleteLinkedCandidateRefused(t *testing.T) {
	srv, ts := newTestServer(t)
	positionID := seedPosition(t, srv, "Governor")
	_, adminToken := registerAdmin(t, srv, ts)

	pollID := createPoll(t, ts, adminToken, positionID)
	candidateID := pollCandidateIDs(t, srv, pollID)[0]

	resp := doRequest(t, ts, http.MethodDelete, fmt.Sprintf("/api/candidates/%d", candidateID), adminToken, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "Cannot delete a candidate linked to a poll" {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}
