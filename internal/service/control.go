package service

import (
	"context"
	"errors"

	"wan_failover/internal/logger"
	"wan_failover/internal/models"
	"wan_failover/internal/repository"
	"wan_failover/internal/store"
)

// ErrInvalidMode is returned for mode values outside auto/on/off; the
// handler layer maps it to a client error.
var ErrInvalidMode = errors.New("invalid mode: must be auto, on, or off")

// ControlService applies operator overrides to the shared state. It only
// mutates the record; the monitor loop reconciles the relay on its next
// tick, so override latency is bounded by one check interval.
type ControlService struct {
	store     store.Store
	eventRepo repository.EventRepo
	log       *logger.Logger
}

func NewControlService(st store.Store, events repository.EventRepo, log *logger.Logger) *ControlService {
	return &ControlService{store: st, eventRepo: events, log: log}
}

// SetMode validates and persists the requested mode, returning the
// resulting state. Setting the mode already in effect is a no-op.
func (s *ControlService) SetMode(ctx context.Context, mode string) (models.MonitorState, error) {
	if !models.ValidMode(mode) {
		return models.MonitorState{}, ErrInvalidMode
	}

	var prev string
	st, err := s.store.Mutate(func(st *models.MonitorState) {
		prev = st.Mode
		if st.Mode == mode {
			return
		}
		st.Mode = mode
		// A fresh policy starts with a clean streak and recovery timer.
		st.ConsecutiveFailures = 0
		st.LastOnlineAt = nil
	})
	if err != nil {
		return models.MonitorState{}, err
	}

	if prev != mode {
		s.log.Infow("mode changed", "from", prev, "to", mode)
		if aerr := s.eventRepo.Append(ctx, models.RelayEvent{
			Type:        models.EventModeChange,
			Description: "Mode changed to " + mode,
			Metadata:    map[string]any{"from": prev, "to": mode},
		}); aerr != nil {
			s.log.Warnw("event log append failed", "type", models.EventModeChange, "err", aerr)
		}
	}
	return st, nil
}
