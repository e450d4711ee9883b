// Command server runs the authoritative rolling-ball game simulation and
// streams per-tick world snapshots to WebSocket clients.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"rollaway/server/internal/config"
	"rollaway/server/internal/game"
	"rollaway/server/internal/httpapi"
	"rollaway/server/internal/logging"
	"rollaway/server/internal/replay"
	"rollaway/server/internal/simulation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", logging.Error(err))
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed := cfg.Seed
	if seed == 0 {
		//1.- An unset seed derives from the clock so every boot is a fresh run.
		seed = time.Now().UnixNano()
	}
	g := game.New(seed, logger.Named("game"))
	server := NewServer(cfg, g, logger.Named("hub"))

	var (
		recorder *replay.Recorder
		writer   *replay.Writer
		cleaner  *replay.Cleaner
	)
	if cfg.ReplayEnabled {
		var err error
		recorder, err = replay.NewRecorder(cfg.ReplayDir, 0, nil)
		if err != nil {
			return fmt.Errorf("replay recorder: %w", err)
		}
		writer, _, err = replay.NewWriter(cfg.ReplayDir, strconv.FormatInt(seed, 10), nil)
		if err != nil {
			return fmt.Errorf("replay writer: %w", err)
		}
		writer.SetHeaderMetadata(strconv.FormatInt(seed, 10), g.TerrainParameters())
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Warn("replay writer close failed", logging.Error(err))
			}
		}()

		cleaner = replay.NewCleaner(cfg.ReplayDir, replay.RetentionPolicy{MaxRuns: cfg.ReplayKeep}, logger.Named("replay"))
		go cleaner.Run(ctx, time.Hour)
	}

	//2.- The fixed-step loop drives the game and fans the snapshot out. The
	// budget and the simulated-time accounting share the loop's exact step.
	step := simulation.StepForRate(cfg.TickRate)
	monitor := simulation.NewTickMonitor(step)
	var tick atomic.Uint64
	loop := simulation.NewLoop(cfg.TickRate, func(dt time.Duration) {
		n := tick.Add(1)
		g.Update(dt.Seconds())
		events := g.DrainEvents()
		simulatedMs := int64(n) * step.Milliseconds()

		frame, err := encodeSnapshot(buildSnapshot(g, n, simulatedMs, events))
		if err != nil {
			logger.Error("snapshot encode failed", logging.Error(err))
			return
		}
		server.Broadcast(frame)

		if recorder != nil {
			recorder.RecordTick(n, frame)
		}
		if writer != nil {
			if err := writer.AppendFrame(n, simulatedMs, frame); err != nil {
				logger.Warn("replay frame append failed", logging.Error(err))
			}
			for _, event := range events {
				payload, err := json.Marshal(event)
				if err != nil {
					continue
				}
				if err := writer.AppendEvent(n, simulatedMs, string(event.Kind), payload); err != nil {
					logger.Warn("replay event append failed", logging.Error(err))
				}
			}
		}
	}, monitor)
	loop.Start(ctx)
	defer loop.Stop()

	//3.- Operational HTTP surface next to the WebSocket endpoint.
	handlers := httpapi.NewHandlerSet(httpapi.Options{
		Logger:     logger.Named("http"),
		Readiness:  server,
		HUD:        g.HUD,
		Ticks:      monitor.Snapshot,
		InputDrops: server.InputDrops,
		Replay: httpapi.ReplayDumperFunc(func(ctx context.Context) (string, error) {
			if recorder == nil {
				return "", errors.New("replay recording disabled")
			}
			return recorder.Dump(strconv.FormatInt(g.Seed(), 10))
		}),
		AdminToken:  cfg.AdminToken,
		RateLimiter: httpapi.NewDumpThrottle(cfg.ReplayDumpWindow, cfg.ReplayDumpBurst, nil),
		ReplayStats: func() replay.Stats {
			if recorder == nil {
				return replay.Stats{}
			}
			return recorder.Snapshot()
		},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.ServeWS)
	registerControlDocEndpoints(mux)
	handlers.Register(mux)

	httpServer := &http.Server{Addr: cfg.Address, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			logging.String("addr", cfg.Address),
			logging.String("stream_url", streamURL(cfg.Address)),
			logging.Float64("tick_rate", cfg.TickRate),
			logging.Int64("seed", seed),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		server.startupErr = err
		return err
	}

	//4.- Drain clients and stop the loop before the process exits.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", logging.Error(err))
	}
	if err := server.Close(); err != nil {
		logger.Warn("client shutdown failed", logging.Error(err))
	}
	return nil
}
