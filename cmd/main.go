package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"wan_failover/internal/config"
	"wan_failover/internal/handlers"
	"wan_failover/internal/logger"
	"wan_failover/internal/relay"
	"wan_failover/internal/repository"
	"wan_failover/internal/server"
	"wan_failover/internal/service"
	"wan_failover/internal/store"
	"wan_failover/internal/supervisor"
	"wan_failover/internal/uplink"
)

const shutdownGrace = 10 * time.Second

func main() {
	// load config from the environment
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.LogLevel)

	// open the event database
	db, err := repository.InitDB(cfg.EventsDBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(db)
	stateStore := store.NewFileStore(cfg.StateFile, log)
	prober := uplink.NewOmadaProber(cfg.Omada, log)
	relayCtl := relay.NewShellyClient(cfg.ShellyBaseURL, cfg.ShellyTimeout, log)

	services := service.NewService(service.Deps{
		Store:  stateStore,
		Prober: prober,
		Relay:  relayCtl,
		Events: repos.Events,
		Cfg:    cfg,
		Log:    log,
	})
	apiHandler := handlers.NewHandler(services, cfg, log)

	// stop on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("starting WAN failover plug controller", "port", cfg.Port)

	// run the monitor loop and the control gateway as supervised units
	sup := supervisor.New(log)
	sup.Run(ctx,
		supervisor.Unit{
			Name: "monitor",
			Run: func(ctx context.Context) error {
				return services.Monitor.Run(ctx, cfg.CheckInterval)
			},
		},
		gatewayUnit(cfg.Port, apiHandler, log),
	)

	log.Infow("shutdown complete")
}

// gatewayUnit runs the HTTP server as a supervised unit: the listener error
// surfaces as a unit failure, and context cancellation triggers a graceful
// shutdown bounded by shutdownGrace.
func gatewayUnit(port string, h *handlers.Handler, log *logger.Logger) supervisor.Unit {
	return supervisor.Unit{
		Name: "gateway",
		Run: func(ctx context.Context) error {
			srv := &server.Server{}
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Run(port, h.InitRoutes())
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Errorw("gateway forced to shutdown", "err", err)
				}
				return ctx.Err()
			}
		},
	}
}
