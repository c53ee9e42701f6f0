package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"canvasd/internal/domain"
	"canvasd/internal/http/handlers"
	"canvasd/internal/http/httpapi"
	"canvasd/internal/infra"
	"canvasd/internal/session"
)

type memStore struct {
	mu    sync.Mutex
	snaps map[string]domain.Snapshot
}

func (m *memStore) Save(ctx context.Context, doc domain.Document, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.UpdatedAt = time.Now()
	if prev, ok := m.snaps[doc.ID]; ok {
		doc.CreatedAt = prev.Document.CreatedAt
	}
	m.snaps[doc.ID] = domain.Snapshot{Document: doc, Blob: append([]byte(nil), blob...)}
	return nil
}

func (m *memStore) Load(ctx context.Context, documentID string) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &snap, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := session.NewRegistry(session.Config{
		Store:            &memStore{snaps: make(map[string]domain.Snapshot)},
		HistoryLimit:     10,
		AutosaveInterval: time.Hour,
		Logger:           zerolog.Nop(),
	})
	app := handlers.NewApp(reg, zerolog.Nop())
	cfg := &infra.Config{RateLimitPerMin: 1000}
	return httpapi.NewRouter(app, cfg, zerolog.Nop())
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "198.51.100.10:1234"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	payload := map[string]any{}
	if rr.Body.Len() > 0 {
		if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
			t.Fatalf("decode response (%d): %v", rr.Code, err)
		}
	}
	return rr, payload
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	rr, created := doJSON(t, router, "POST", "/v1/sessions", nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create session: got %d, want 201", rr.Code)
	}
	sessionID, _ := created["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("missing session_id in %#v", created)
	}
	if created["title"] != "Untitled" {
		t.Fatalf("fresh session title: got %#v, want Untitled", created["title"])
	}
	if created["document_id"] == "" || created["created_at"] == nil {
		t.Fatalf("missing document metadata in %#v", created)
	}

	base := "/v1/sessions/" + sessionID

	rr, obj := doJSON(t, router, "POST", base+"/objects", map[string]any{
		"kind":       "rect",
		"properties": map[string]any{"left": 10.0, "top": 20.0},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("add object: got %d, want 201", rr.Code)
	}
	objectID, _ := obj["id"].(string)
	if objectID == "" {
		t.Fatalf("missing object id in %#v", obj)
	}

	rr, step := doJSON(t, router, "POST", base+"/undo", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("undo: got %d, want 200", rr.Code)
	}
	if step["applied"] != true || step["can_redo"] != true {
		t.Fatalf("undo step mismatch: %#v", step)
	}

	rr, state := doJSON(t, router, "GET", base, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get state: got %d, want 200", rr.Code)
	}
	if objs, ok := state["objects"].([]any); !ok || len(objs) != 0 {
		t.Fatalf("expected empty canvas after undo, got %#v", state["objects"])
	}

	rr, step = doJSON(t, router, "POST", base+"/redo", nil)
	if rr.Code != http.StatusOK || step["applied"] != true {
		t.Fatalf("redo mismatch: code=%d payload=%#v", rr.Code, step)
	}

	rr, _ = doJSON(t, router, "POST", base+"/save", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("save: got %d, want 200", rr.Code)
	}

	rr, _ = doJSON(t, router, "DELETE", base, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("close: got %d, want 204", rr.Code)
	}

	rr, _ = doJSON(t, router, "GET", base, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("closed session should be gone: got %d", rr.Code)
	}
}

func TestSessionCreateCarriesTitle(t *testing.T) {
	router := newTestRouter(t)

	rr, created := doJSON(t, router, "POST", "/v1/sessions", map[string]any{
		"document_id": "doc-9",
		"title":       "Pricing page",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create session: got %d, want 201", rr.Code)
	}
	if created["title"] != "Pricing page" || created["document_id"] != "doc-9" {
		t.Fatalf("document metadata mismatch: %#v", created)
	}
}

func TestUndoPastStartReportsNotApplied(t *testing.T) {
	router := newTestRouter(t)

	_, created := doJSON(t, router, "POST", "/v1/sessions", nil)
	sessionID := created["session_id"].(string)

	rr, step := doJSON(t, router, "POST", "/v1/sessions/"+sessionID+"/undo", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("undo: got %d, want 200", rr.Code)
	}
	if step["applied"] != false {
		t.Fatalf("undo on a fresh session must not apply: %#v", step)
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	router := newTestRouter(t)

	rr, _ := doJSON(t, router, "POST", "/v1/sessions/nope/undo", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
}

func TestAddObjectValidation(t *testing.T) {
	router := newTestRouter(t)

	_, created := doJSON(t, router, "POST", "/v1/sessions", nil)
	sessionID := created["session_id"].(string)
	base := "/v1/sessions/" + sessionID

	rr, _ := doJSON(t, router, "POST", base+"/objects", map[string]any{"kind": "hexagon"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind: got %d, want 400", rr.Code)
	}

	rr, _ = doJSON(t, router, "PATCH", base+"/objects/missing", map[string]any{
		"properties": map[string]any{"left": 1.0},
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing object: got %d, want 404", rr.Code)
	}
}
