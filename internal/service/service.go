package service

import (
	"context"
	"time"

	"wan_failover/internal/config"
	"wan_failover/internal/logger"
	"wan_failover/internal/models"
	"wan_failover/internal/relay"
	"wan_failover/internal/repository"
	"wan_failover/internal/store"
	"wan_failover/internal/uplink"
)

// Monitor runs the debounce/recovery control loop until ctx is cancelled.
type Monitor interface {
	Run(ctx context.Context, tick time.Duration) error
}

// Control applies operator mode overrides. It never commands the relay
// itself; the monitor loop reconciles on its next tick.
type Control interface {
	SetMode(ctx context.Context, mode string) (models.MonitorState, error)
}

// Status exposes the current snapshot: mode, plug state, failure streak,
// and the recovery timer anchor.
type Status interface {
	GetStatus(ctx context.Context) (models.MonitorState, error)
}

// EventLog exposes the append-only history with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.RelayEvent, error)
}

// Service aggregates all sub-services behind one value handed to the
// HTTP layer and the supervisor.
type Service struct {
	Monitor
	Control
	Status
	EventLog
}

// Deps carries everything the services need; main builds it once.
type Deps struct {
	Store  store.Store
	Prober uplink.Prober
	Relay  relay.Controller
	Events repository.EventRepo
	Cfg    *config.Config
	Log    *logger.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		Monitor:  NewMonitorService(d.Store, d.Prober, d.Relay, d.Events, d.Cfg, d.Log),
		Control:  NewControlService(d.Store, d.Events, d.Log),
		Status:   NewStatusService(d.Store, d.Relay),
		EventLog: NewEventLogService(d.Events),
	}
}
