// Package main is the entry point for the BabyTurt server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/babyturt/internal/engine"
	"github.com/MRamiBalles/babyturt/internal/events"
	"github.com/MRamiBalles/babyturt/internal/infra/cache"
	"github.com/MRamiBalles/babyturt/internal/infra/storage"
	"github.com/MRamiBalles/babyturt/internal/network"
	"github.com/MRamiBalles/babyturt/internal/platform/config"
	"github.com/MRamiBalles/babyturt/internal/platform/logger"
	"github.com/MRamiBalles/babyturt/internal/platform/metrics"
	"github.com/MRamiBalles/babyturt/internal/platform/otel"
	"github.com/MRamiBalles/babyturt/internal/world"
)

// PersisterAdapter translates audit events to storage records.
type PersisterAdapter struct {
	repo storage.EventRepository
}

func (a *PersisterAdapter) Append(event events.GameEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	var payloadMap map[string]interface{}
	if err := json.Unmarshal(payloadBytes, &payloadMap); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.repo.Append(ctx, storage.EventRecord{
		ID:        event.ID,
		Timestamp: event.Timestamp.UnixMilli(),
		EventType: string(event.Type),
		ActorID:   event.ActorID,
		TargetID:  event.TargetID,
		Payload:   payloadMap,
		Tick:      event.Tick,
	})
}

func main() {
	repair := flag.Bool("repair", false, "rebuild tag flags from the audit log before starting")
	flag.Parse()

	if err := run(*repair); err != nil {
		fmt.Fprintln(os.Stderr, "babyturt-server:", err)
		os.Exit(1)
	}
}

func run(repair bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appLogger := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	appLogger.Info("initializing BabyTurt server", "store", cfg.StoreDriver, "tick_rate", cfg.TickRate.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, "babyturt-server", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			appLogger.Warn("tracing shutdown failed", "err", err)
		}
	}()

	store, err := storage.Open(ctx, cfg.StoreDriver, cfg.SQLitePath, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if repair {
		n, err := storage.NewReconstructor(store).Repair(ctx, store, engine.TaggedKey)
		if err != nil {
			return fmt.Errorf("repair tag flags: %w", err)
		}
		appLogger.Info("tag flags rebuilt from audit log", "entities", n)
	}

	collector := metrics.New()
	props := cache.NewPropertyCache(store, collector)

	eventLog := events.NewEventLog(&PersisterAdapter{repo: store}, cfg.EventLogSize)
	eventLog.OnPersistError(func(e events.GameEvent, err error) {
		collector.StoreErrors.Inc()
		appLogger.Warn("audit event not persisted", "event", e.ID, "type", string(e.Type), "err", err)
	})

	sched := engine.NewScheduler(cfg.TickRate, appLogger, collector)
	w := world.New(appLogger)
	gameEngine := engine.NewEngine(engine.Deps{
		Context:   ctx,
		Sim:       w,
		Props:     props,
		Scheduler: sched,
		EventLog:  eventLog,
		Logger:    appLogger,
		Metrics:   collector,
		AimUntag:  cfg.AimUntag,
	})
	hub := network.NewHub(w, sched, network.HubOptions{
		BroadcastBuffer:     cfg.BroadcastBuffer,
		ClientSendBuffer:    cfg.ClientSendBuffer,
		MaxActionsPerSecond: cfg.MaxActionsPerSecond,
	}, appLogger, collector)

	w.SetListener(gameEngine)
	w.SetSink(hub)
	sched.AddHook(w.Tick)

	// Loading runs before the scheduler starts, so it is still the only thread.
	loaded, err := w.Load(ctx, store)
	if err != nil {
		return err
	}
	appLogger.Info("world loaded", "entities", loaded, "tagged", gameEngine.Cache().Len())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.Handle("/metrics", collector.Handler())
	network.NewAdminAPI(gameEngine, w, store, hub, appLogger).RegisterRoutes(mux)
	network.NewAuditHandler(eventLog, appLogger).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Start(gctx)
		return nil
	})
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		saveTicker := time.NewTicker(cfg.SaveInterval)
		defer saveTicker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-saveTicker.C:
				n, err := world.Save(gctx, sched, w, store)
				if err != nil && !errors.Is(err, context.Canceled) {
					appLogger.Warn("periodic save failed", "err", err)
					continue
				}
				appLogger.Debug("world saved", "entities", n)
			}
		}
	})
	g.Go(func() error {
		appLogger.Info("HTTP API & WS server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()
	appLogger.Info("shutting down")

	// The scheduler has stopped: the world is ours again for the final save.
	gameEngine.Shutdown()
	snap := w.Snapshot()
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := store.SaveEntities(sctx, snap); serr != nil {
		appLogger.Error("final save failed", "err", serr)
	} else {
		appLogger.Info("world saved", "entities", len(snap))
	}
	eventLog.Flush()
	return err
}
