package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/seed/internal/config"
	"github.com/udisondev/seed/internal/db"
	"github.com/udisondev/seed/internal/defs"
	"github.com/udisondev/seed/internal/imagemap"
	"github.com/udisondev/seed/internal/seed"
	"github.com/udisondev/seed/internal/spawn"
	"github.com/udisondev/seed/internal/world"
)

const ConfigPath = "config/seedd.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("SEEDD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadSeedd(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("seedd starting", "log_level", cfg.LogLevel, "volumes", len(cfg.Volumes))

	table, err := defs.Load(cfg.Definitions)
	if err != nil {
		return fmt.Errorf("loading definitions: %w", err)
	}

	w := world.New(cfg.World, cfg.SpawnLimit)
	w.SetObserver(vec(cfg.Observer))
	w.SetLODBias(cfg.LODBias)

	images := imagemap.NewStore(cfg.ImageDir)

	vols, err := buildVolumes(cfg.Volumes, seed.Host{
		Runtime:     w,
		Geometry:    w,
		Tracer:      w,
		Visibility:  w,
		Observer:    w,
		Quality:     w,
		Images:      images,
		Definitions: table,
		Random:      rand.Float64,
		Now:         time.Now,
	})
	if err != nil {
		return err
	}

	var store layoutStore
	if cfg.Database.Enabled {
		dsn := cfg.Database.DSN()
		if p := os.Getenv("SEED_DB_DSN"); p != "" {
			dsn = p
		}
		if err := db.RunMigrations(ctx, dsn); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		database, err := db.New(ctx, dsn, cfg.Database.MaxConns)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		store = db.NewLayoutRepository(database.Pool())
		restored := restoreVolumes(ctx, store, vols)
		slog.Info("layouts restored", "restored", restored, "volumes", len(vols))
	}

	ticks := spawn.NewTickManager(cfg.TickInterval)
	for _, v := range vols {
		ticks.Register(v.Name(), v)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ticks.Start(gctx); err != nil && gctx.Err() == nil {
			return fmt.Errorf("tick manager: %w", err)
		}
		return nil
	})

	if store != nil {
		g.Go(func() error {
			return saveLoop(gctx, store, vols, cfg.SaveInterval)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		ticks.Stop()
		return nil
	})

	err = g.Wait()

	if store != nil {
		// gctx is done; the final save gets its own deadline.
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		written, serr := saveVolumes(saveCtx, store, vols)
		if serr != nil {
			slog.Error("final save failed", "error", serr)
		} else {
			slog.Info("layouts saved", "written", written)
		}
	}

	for _, v := range vols {
		v.Release()
	}
	slog.Info("seedd stopped", "ticks", ticks.Ticks(), "objects", w.ObjectCount())
	return err
}

func saveLoop(ctx context.Context, store layoutStore, vols []*seed.Volume, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			written, err := saveVolumes(ctx, store, vols)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.Error("periodic save failed", "error", err)
				continue
			}
			slog.Debug("layouts saved", "written", written)
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
