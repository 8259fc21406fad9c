package service

import (
	"context"

	"wan_failover/internal/models"
	"wan_failover/internal/relay"
	"wan_failover/internal/store"
)

// StatusService reads the current snapshot for the gateway. The persisted
// plug state is overlaid with the live device state when the plug answers,
// so an out-of-band toggle shows up immediately.
type StatusService struct {
	store store.Store
	relay relay.Controller
}

func NewStatusService(st store.Store, rc relay.Controller) *StatusService {
	return &StatusService{store: st, relay: rc}
}

func (s *StatusService) GetStatus(ctx context.Context) (models.MonitorState, error) {
	st, err := s.store.Load()
	if err != nil {
		return models.MonitorState{}, err
	}
	if on, rerr := s.relay.Status(ctx); rerr == nil {
		st.PlugOn = on
	}
	return st, nil
}
