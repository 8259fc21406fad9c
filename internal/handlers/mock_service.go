package handlers

import (
	"context"
	"time"

	"wan_failover/internal/config"
	"wan_failover/internal/models"
	"wan_failover/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service mocks shared by handler tests ----

type mockControl struct {
	resp  models.MonitorState
	err   error
	calls int
	last  string
}

func (m *mockControl) SetMode(ctx context.Context, mode string) (models.MonitorState, error) {
	m.calls++
	m.last = mode
	if m.err != nil {
		return models.MonitorState{}, m.err
	}
	st := m.resp
	st.Mode = mode
	return st, nil
}

type mockStatus struct {
	resp  models.MonitorState
	err   error
	calls int
}

func (m *mockStatus) GetStatus(ctx context.Context) (models.MonitorState, error) {
	m.calls++
	return m.resp, m.err
}

type mockEventLog struct {
	resp     []models.RelayEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.RelayEvent, error) {
	m.lastFrom, m.lastTo, m.lastType = f.From, f.To, f.Type
	return m.resp, m.err
}

type mockMonitor struct{}

func (m *mockMonitor) Run(ctx context.Context, tick time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

const testToken = "test-secret"

// newTestRouter builds a router around the given mocks with the default
// rate ceilings.
func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		APIToken:           testToken,
		ControlRatePerHour: 10,
		StatusRatePerHour:  30,
	}
	h := NewHandler(s, cfg, nil)
	return h.InitRoutes()
}
