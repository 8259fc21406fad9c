package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"wan_failover/internal/models"
)

func tempStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	return NewFileStore(path, nil), path
}

func TestFileStore_LoadMissingReturnsDefault(t *testing.T) {
	t.Parallel()

	s, _ := tempStore(t)
	st, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st != models.DefaultState() {
		t.Fatalf("expected default state, got %+v", st)
	}
}

func TestFileStore_RoundTripPreservesAllFields(t *testing.T) {
	t.Parallel()

	s, _ := tempStore(t)
	anchor := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	_, err := s.Mutate(func(st *models.MonitorState) {
		st.ConsecutiveFailures = 7
		st.PlugOn = true
		st.LastOnlineAt = &anchor
		st.Mode = models.ModeOn
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ConsecutiveFailures != 7 {
		t.Errorf("ConsecutiveFailures: want 7, got %d", got.ConsecutiveFailures)
	}
	if !got.PlugOn {
		t.Errorf("PlugOn: want true")
	}
	if got.Mode != models.ModeOn {
		t.Errorf("Mode: want %q, got %q", models.ModeOn, got.Mode)
	}
	if got.LastOnlineAt == nil || !got.LastOnlineAt.Equal(anchor) {
		t.Errorf("LastOnlineAt: want %v, got %v", anchor, got.LastOnlineAt)
	}
}

func TestFileStore_RoundTripNilTimestamp(t *testing.T) {
	t.Parallel()

	s, _ := tempStore(t)
	_, err := s.Mutate(func(st *models.MonitorState) {
		st.PlugOn = true
		st.LastOnlineAt = nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	got, _ := s.Load()
	if got.LastOnlineAt != nil {
		t.Fatalf("LastOnlineAt: want nil, got %v", got.LastOnlineAt)
	}
}

func TestFileStore_CorruptFileResetsToDefault(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
	}{
		{"truncated json", `{"consecutive_failures": 3, "plug`},
		{"not json", "hello world"},
		{"unknown mode", `{"consecutive_failures":0,"plug_on":false,"last_wan1_online_time":null,"mode":"banana"}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, path := tempStore(t)
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("seed file: %v", err)
			}

			st, err := s.Load()
			if err != nil {
				t.Fatalf("Load must not fail on corruption: %v", err)
			}
			if st != models.DefaultState() {
				t.Fatalf("expected default state, got %+v", st)
			}
		})
	}
}

func TestFileStore_MutateLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	s, path := tempStore(t)
	for i := 0; i < 5; i++ {
		if _, err := s.Mutate(func(st *models.MonitorState) {
			st.ConsecutiveFailures++
		}); err != nil {
			t.Fatalf("Mutate: %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".state-") {
			t.Fatalf("leftover temp file: %s", e.Name())
		}
	}
}

func TestFileStore_ConcurrentMutatesLoseNoUpdates(t *testing.T) {
	t.Parallel()

	s, _ := tempStore(t)
	const writers = 20
	const perWriter = 5

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_, _ = s.Mutate(func(st *models.MonitorState) {
					st.ConsecutiveFailures++
				})
			}
		}()
	}
	wg.Wait()

	st, _ := s.Load()
	if st.ConsecutiveFailures != writers*perWriter {
		t.Fatalf("lost updates: want %d, got %d", writers*perWriter, st.ConsecutiveFailures)
	}
}
