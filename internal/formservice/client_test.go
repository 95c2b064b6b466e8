package formservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestIssueSession(t *testing.T) {
	itemID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/sessions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req IssueSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ItemID != itemID {
			t.Errorf("expected item id %s, got %s", itemID, req.ItemID)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Session{ID: "sess-42", URL: "http://forms/sess-42"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	session, err := client.IssueSession(context.Background(), IssueSessionRequest{
		ItemID: itemID,
		RunID:  uuid.New(),
		FormID: uuid.New(),
		Actor:  uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.ID != "sess-42" {
		t.Errorf("expected session id sess-42, got %s", session.ID)
	}
	if session.URL != "http://forms/sess-42" {
		t.Errorf("unexpected session url: %s", session.URL)
	}
}

func TestIssueSession_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.IssueSession(context.Background(), IssueSessionRequest{ItemID: uuid.New()})
	if err == nil {
		t.Fatal("expected error on HTTP 500")
	}
}

func TestIssueSession_EmptySessionID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Session{URL: "http://forms/x"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.IssueSession(context.Background(), IssueSessionRequest{ItemID: uuid.New()})
	if err == nil {
		t.Fatal("expected error for session without id")
	}
}
