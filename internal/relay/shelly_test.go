package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeShelly struct {
	output   bool
	failWith int // non-zero: respond with this HTTP status

	setHits  int
	lastBody map[string]any
}

func (f *fakeShelly) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rpc/Switch.Set", func(w http.ResponseWriter, r *http.Request) {
		if f.failWith != 0 {
			w.WriteHeader(f.failWith)
			return
		}
		f.setHits++
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
		f.output, _ = f.lastBody["on"].(bool)
		_ = json.NewEncoder(w).Encode(map[string]any{"was_on": !f.output})
	})
	mux.HandleFunc("/rpc/Switch.GetStatus", func(w http.ResponseWriter, r *http.Request) {
		if f.failWith != 0 {
			w.WriteHeader(f.failWith)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 0, "output": f.output})
	})
	return mux
}

func newTestClient(url string) *ShellyClient {
	return NewShellyClient(url, 2*time.Second, nil)
}

func TestShelly_SetState(t *testing.T) {
	t.Parallel()

	fake := &fakeShelly{}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	c := newTestClient(ts.URL)
	if err := c.SetState(context.Background(), true); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if fake.setHits != 1 {
		t.Fatalf("Switch.Set hits: %d", fake.setHits)
	}
	if on, _ := fake.lastBody["on"].(bool); !on {
		t.Fatalf("payload on: want true, got %+v", fake.lastBody)
	}
	if id, _ := fake.lastBody["id"].(float64); id != 0 {
		t.Fatalf("payload id: want 0, got %+v", fake.lastBody)
	}

	// Commanding the held state again still succeeds (idempotent).
	if err := c.SetState(context.Background(), true); err != nil {
		t.Fatalf("repeat SetState: %v", err)
	}
}

func TestShelly_Status(t *testing.T) {
	t.Parallel()

	fake := &fakeShelly{output: true}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	c := newTestClient(ts.URL)
	on, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !on {
		t.Fatalf("Status: want on")
	}
}

func TestShelly_ErrorsSurfaceToCaller(t *testing.T) {
	t.Parallel()

	t.Run("http error status", func(t *testing.T) {
		t.Parallel()

		fake := &fakeShelly{failWith: http.StatusBadGateway}
		ts := httptest.NewServer(fake.handler())
		defer ts.Close()

		c := newTestClient(ts.URL)
		if err := c.SetState(context.Background(), false); err == nil {
			t.Fatalf("expected error on 502")
		}
		if _, err := c.Status(context.Background()); err == nil {
			t.Fatalf("expected error on 502")
		}
	})

	t.Run("unreachable device", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer((&fakeShelly{}).handler())
		ts.Close()

		c := newTestClient(ts.URL)
		if err := c.SetState(context.Background(), true); err == nil {
			t.Fatalf("expected transport error")
		}
	})
}
