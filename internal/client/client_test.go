package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/db"
	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/generate"
	"github.com/hpungsan/muse/internal/ops"
	"github.com/hpungsan/muse/internal/web"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", srv.Client())
}

func TestQuote(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/quote" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("category"); got != "life" {
			t.Errorf("category = %q, want life", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"quote": "**Live.**", "category": "life"})
	})

	got, err := c.Quote(context.Background(), "life")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	// The client hands back the server's text untouched.
	if got != "**Live.**" {
		t.Errorf("Quote = %q", got)
	}
}

func TestList(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"01A","text":"One","category":"life","author":"Anonymous","is_ai_generated":false,"created_at":10}]`)
	})

	items, err := c.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].ID != "01A" || items[0].CreatedAt != 10 {
		t.Errorf("List = %+v", items)
	}
}

func TestList_NullBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `null`)
	})

	items, err := c.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("List = %#v, want empty slice", items)
	}
}

func TestList_FollowsPages(t *testing.T) {
	var (
		mu      sync.Mutex
		offsets []string
	)
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		mu.Lock()
		offsets = append(offsets, r.URL.Query().Get("offset"))
		mu.Unlock()
		if got := r.URL.Query().Get("limit"); got != "100" {
			t.Errorf("limit = %q, want 100", got)
		}
		n := min(100, 130-offset)
		page := make([]map[string]string, n)
		for i := range page {
			page[i] = map[string]string{"id": fmt.Sprintf("%03d", offset+i)}
		}
		w.Header().Set("X-Total-Count", "130")
		_ = json.NewEncoder(w).Encode(page)
	})

	items, err := c.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 130 || items[129].ID != "129" {
		t.Errorf("List returned %d items", len(items))
	}
	mu.Lock()
	defer mu.Unlock()
	if len(offsets) != 2 || offsets[0] != "0" || offsets[1] != "100" {
		t.Errorf("offsets = %v, want [0 100]", offsets)
	}
}

func TestList_AgainstServerBeyondOnePage(t *testing.T) {
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	cfg := config.DefaultConfig()

	for i := range 105 {
		if _, err := ops.Save(context.Background(), database, cfg, ops.SaveInput{
			Text:     fmt.Sprintf("Saved quote %d", i),
			Category: "life",
		}); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	svc, err := generate.NewService(generate.NewStatic("Hi."), 0, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	srv, err := web.NewServer(web.Deps{DB: database, Config: cfg, Quotes: svc, Version: "test"}, "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	items, err := New(ts.URL, ts.Client()).List(context.Background(), "life")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 105 {
		t.Fatalf("List returned %d items, want 105", len(items))
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if seen[it.ID] {
			t.Errorf("duplicate id %s", it.ID)
		}
		seen[it.ID] = true
	}
}

func TestCreateAndUpdate(t *testing.T) {
	var gotBodies []map[string]any
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotBodies = append(gotBodies, body)

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/quotes":
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":"01B","text":"Mine","author":"Anonymous"}`)
		case r.Method == http.MethodPut && r.URL.Path == "/quotes/01B":
			_, _ = io.WriteString(w, `{"id":"01B","text":"Mine","author":"Me"}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	created, err := c.Create(context.Background(), NewQuote{Text: "Mine"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "01B" {
		t.Errorf("created = %+v", created)
	}

	author := "Me"
	updated, err := c.Update(context.Background(), "01B", QuoteEdit{Author: &author})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Author != "Me" {
		t.Errorf("updated = %+v", updated)
	}

	if len(gotBodies) != 2 {
		t.Fatalf("got %d bodies", len(gotBodies))
	}
	if _, ok := gotBodies[1]["text"]; ok {
		t.Error("Update should omit unset fields")
	}
}

func TestDelete(t *testing.T) {
	called := false
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = r.Method == http.MethodDelete && r.URL.Path == "/quotes/01C"
		_, _ = io.WriteString(w, `{"deleted":true,"id":"01C"}`)
	})

	if err := c.Delete(context.Background(), "01C"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !called {
		t.Error("DELETE /quotes/01C was not called")
	}
}

func TestHealth(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"healthy","model_ready":true,"model_name":"gemini-2.0-flash"}`)
	})

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !h.ModelReady || h.ModelName != "gemini-2.0-flash" {
		t.Errorf("Health = %+v", h)
	}
}

func TestErrorEnvelope(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":"NOT_FOUND","message":"quote not found: 01X","status":404}}`)
	})

	err := c.Delete(context.Background(), "01X")
	qErr, ok := errors.As(err)
	if !ok {
		t.Fatalf("expected QuoteError, got %T: %v", err, err)
	}
	if qErr.Code != errors.ErrNotFound || qErr.Status != 404 || qErr.Message != "quote not found: 01X" {
		t.Errorf("error = %+v", qErr)
	}
}

func TestErrorWithoutEnvelope(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.Quote(context.Background(), "")
	qErr, ok := errors.As(err)
	if !ok {
		t.Fatalf("expected QuoteError, got %T", err)
	}
	if qErr.Status != http.StatusBadGateway || qErr.Message != "bad gateway" {
		t.Errorf("error = %+v", qErr)
	}
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).Health(context.Background())
	if !errors.Is(err, errors.ErrGeneratorUnavailable) {
		t.Errorf("expected GENERATOR_UNAVAILABLE, got %v", err)
	}
}

func TestCancelled(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Quote(ctx, "")
	if !errors.Is(err, errors.ErrCancelled) {
		t.Errorf("expected CANCELLED, got %v", err)
	}
}
