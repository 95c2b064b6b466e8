package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestLookupNames(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users" {
			t.Errorf("expected path /api/v1/users, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("ids") == "" {
			t.Error("expected ids query parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"` + alice.String() + `","display_name":"Alice"},{"id":"` + bob.String() + `","display_name":"Bob"}]`))
	}))
	defer srv.Close()

	dir := NewDirectory(srv.URL)

	names, err := dir.LookupNames(context.Background(), []uuid.UUID{alice, bob})
	if err != nil {
		t.Fatalf("LookupNames failed: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %d", len(names))
	}
	if names[alice] != "Alice" {
		t.Errorf("expected Alice, got %q", names[alice])
	}
	if names[bob] != "Bob" {
		t.Errorf("expected Bob, got %q", names[bob])
	}
}

func TestLookupNamesEmptyInput(t *testing.T) {
	dir := NewDirectory("http://unreachable.invalid")

	names, err := dir.LookupNames(context.Background(), nil)
	if err != nil {
		t.Fatalf("LookupNames failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected empty map, got %d entries", len(names))
	}
}

func TestLookupNamesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := NewDirectory(srv.URL)

	_, err := dir.LookupNames(context.Background(), []uuid.UUID{uuid.New()})
	if err == nil {
		t.Fatal("expected error on HTTP 500")
	}
}
