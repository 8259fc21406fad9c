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

// MonitorService is the decision engine: it observes the uplink once per
// tick and drives the relay through the debounce/recovery rules.
type MonitorService struct {
	store     store.Store
	prober    uplink.Prober
	relay     relay.Controller
	eventRepo repository.EventRepo
	log       *logger.Logger

	threshold int
	recovery  time.Duration

	// now is swappable so tests can steer the recovery clock.
	now func() time.Time
}

func NewMonitorService(st store.Store, prober uplink.Prober, rc relay.Controller, events repository.EventRepo, cfg *config.Config, log *logger.Logger) *MonitorService {
	return &MonitorService{
		store:     st,
		prober:    prober,
		relay:     rc,
		eventRepo: events,
		log:       log,
		threshold: cfg.FailureThreshold,
		recovery:  cfg.RecoveryDelay,
		now:       time.Now,
	}
}

// Run executes one tick per interval until ctx is cancelled. A slow probe or
// relay call delays only its own tick; ticks never overlap. The returned
// error is always ctx.Err(): no individual tick is fatal.
func (s *MonitorService) Run(ctx context.Context, tick time.Duration) error {
	s.log.Infow("monitor loop starting",
		"interval", tick, "failure_threshold", s.threshold, "recovery_delay", s.recovery)

	s.syncPlugState(ctx)

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("monitor loop stopped")
			return ctx.Err()
		case <-t.C:
			s.Tick(ctx)
		}
	}
}

// syncPlugState seeds plug_on from the live device at startup, so a relay
// toggled while the service was down is not misremembered.
func (s *MonitorService) syncPlugState(ctx context.Context) {
	on, err := s.relay.Status(ctx)
	if err != nil {
		s.log.Warnw("could not read initial relay state, keeping persisted value", "err", err)
		return
	}
	_, err = s.store.Mutate(func(st *models.MonitorState) {
		st.PlugOn = on
	})
	if err != nil {
		s.log.Errorw("failed to persist initial relay state", "err", err)
	}
}

// Tick performs one observe-decide-act cycle. The probe happens outside the
// store lock (it reads no shared state); the decision and any relay command
// run inside a single Mutate so the gateway can never interleave a mode
// change mid-decision.
func (s *MonitorService) Tick(ctx context.Context) {
	st, err := s.store.Load()
	if err != nil {
		s.log.Errorw("tick: load state", "err", err)
		return
	}

	probed := st.Mode == models.ModeAuto
	var online bool
	if probed {
		online = s.prober.Check(ctx)
		if online {
			s.log.Infow("uplink status", "online", true)
		} else {
			s.log.Warnw("uplink status", "online", false)
		}
	}

	_, err = s.store.Mutate(func(st *models.MonitorState) {
		if st.Mode != models.ModeAuto {
			s.reconcileForced(ctx, st)
			return
		}
		if !probed {
			// The mode switched to auto after this tick's load, so no
			// uplink observation exists to act on. The streak must only
			// move on a real observation; the next tick probes.
			return
		}
		if online {
			s.observeOnline(ctx, st)
		} else {
			s.observeOffline(ctx, st)
		}
	})
	if err != nil {
		s.log.Errorw("tick: persist state", "err", err)
	}
}

// reconcileForced drives the plug toward the overridden mode. Failure
// streak bookkeeping is frozen while overridden.
func (s *MonitorService) reconcileForced(ctx context.Context, st *models.MonitorState) {
	target := st.Mode == models.ModeOn
	if st.PlugOn == target {
		return
	}
	if err := s.relay.SetState(ctx, target); err != nil {
		// plug_on stays unchanged; the next tick retries the same transition.
		s.appendCommandError(ctx, target, err)
		return
	}
	st.PlugOn = target
	s.appendTransition(ctx, target, "forced by mode "+st.Mode)
}

// observeOnline resets the failure streak and, once the uplink has stayed up
// for the full recovery delay, powers the plug back off.
func (s *MonitorService) observeOnline(ctx context.Context, st *models.MonitorState) {
	st.ConsecutiveFailures = 0

	if !st.PlugOn {
		return
	}

	if st.LastOnlineAt == nil {
		anchor := s.now().UTC()
		st.LastOnlineAt = &anchor
		s.log.Infow("uplink back online, recovery timer started", "recovery_delay", s.recovery)
		return
	}

	onlineFor := s.now().Sub(*st.LastOnlineAt)
	if onlineFor < s.recovery {
		s.log.Infow("uplink online, waiting out recovery delay",
			"online_for", onlineFor.Round(time.Second), "remaining", (s.recovery - onlineFor).Round(time.Second))
		return
	}

	if err := s.relay.SetState(ctx, false); err != nil {
		s.appendCommandError(ctx, false, err)
		return
	}
	st.PlugOn = false
	st.LastOnlineAt = nil
	s.appendTransition(ctx, false, "uplink stable through recovery delay")
}

// observeOffline advances the failure streak and powers the plug on once the
// streak reaches the threshold. Any offline observation restarts a pending
// recovery wait.
func (s *MonitorService) observeOffline(ctx context.Context, st *models.MonitorState) {
	st.ConsecutiveFailures++
	st.LastOnlineAt = nil
	s.log.Warnw("uplink offline", "consecutive_failures", st.ConsecutiveFailures, "threshold", s.threshold)

	if st.ConsecutiveFailures < s.threshold || st.PlugOn {
		return
	}

	if err := s.relay.SetState(ctx, true); err != nil {
		s.appendCommandError(ctx, true, err)
		return
	}
	st.PlugOn = true
	s.appendTransition(ctx, true, "failure threshold reached")
}

// appendCommandError logs a failed relay command and records it as an ERROR
// event, best-effort.
func (s *MonitorService) appendCommandError(ctx context.Context, targetOn bool, cmdErr error) {
	s.log.Errorw("relay command failed", "target_on", targetOn, "err", cmdErr)

	target := "OFF"
	if targetOn {
		target = "ON"
	}
	if err := s.eventRepo.Append(ctx, models.RelayEvent{
		OccurredAt:  s.now().UTC(),
		Type:        models.EventError,
		Description: "Relay command failed: target " + target,
		Metadata:    map[string]any{"error": cmdErr.Error()},
	}); err != nil {
		s.log.Warnw("event log append failed", "type", models.EventError, "err", err)
	}
}

// appendTransition records a relay transition in the event log, best-effort.
func (s *MonitorService) appendTransition(ctx context.Context, on bool, reason string) {
	typ := models.EventRelayOff
	desc := "Relay turned OFF: " + reason
	if on {
		typ = models.EventRelayOn
		desc = "Relay turned ON: " + reason
	}
	if err := s.eventRepo.Append(ctx, models.RelayEvent{
		OccurredAt:  s.now().UTC(),
		Type:        typ,
		Description: desc,
	}); err != nil {
		s.log.Warnw("event log append failed", "type", typ, "err", err)
	}
	s.log.Infow("relay transition", "on", on, "reason", reason)
}
