package service

import (
	"context"
	"sync"
	"time"

	"wan_failover/internal/models"
)

// ---- Shared test stubs for the service layer ----

// memStore is an in-memory store.Store with the same locking contract.
type memStore struct {
	mu sync.Mutex
	st models.MonitorState

	loadErr   error
	mutateErr error
}

func newMemStore() *memStore {
	return &memStore{st: models.DefaultState()}
}

func (m *memStore) Load() (models.MonitorState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st, m.loadErr
}

func (m *memStore) Mutate(fn func(*models.MonitorState)) (models.MonitorState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mutateErr != nil {
		return m.st, m.mutateErr
	}
	fn(&m.st)
	return m.st, nil
}

// modeFlipStore commits a concurrent mode override between a reader's Load
// and its Mutate, once.
type modeFlipStore struct {
	memStore
	flipTo  string
	flipped bool
}

func (m *modeFlipStore) Mutate(fn func(*models.MonitorState)) (models.MonitorState, error) {
	if !m.flipped {
		m.flipped = true
		m.mu.Lock()
		m.st.Mode = m.flipTo
		m.mu.Unlock()
	}
	return m.memStore.Mutate(fn)
}

// proberStub replays a fixed online/offline answer.
type proberStub struct {
	online bool
	calls  int
}

func (p *proberStub) Check(ctx context.Context) bool {
	p.calls++
	return p.online
}

// relayStub records commands and can fail on demand.
type relayStub struct {
	setErr    error
	statusOn  bool
	statusErr error

	setCalls []bool
}

func (r *relayStub) SetState(ctx context.Context, on bool) error {
	if r.setErr != nil {
		return r.setErr
	}
	r.setCalls = append(r.setCalls, on)
	return nil
}

func (r *relayStub) Status(ctx context.Context) (bool, error) {
	return r.statusOn, r.statusErr
}

// eventRepoStub collects appended events.
type eventRepoStub struct {
	appended  []models.RelayEvent
	appendErr error

	listResp []models.RelayEvent
	listErr  error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (e *eventRepoStub) Append(ctx context.Context, ev models.RelayEvent) error {
	if e.appendErr != nil {
		return e.appendErr
	}
	e.appended = append(e.appended, ev)
	return nil
}

func (e *eventRepoStub) List(ctx context.Context, from, to time.Time, typ string) ([]models.RelayEvent, error) {
	e.lastFrom, e.lastTo, e.lastType = from, to, typ
	return e.listResp, e.listErr
}
