// Command meshtile splits a glTF model into a 3D Tiles tileset with voxel LODs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	meshtile "github.com/flywave/go-meshtile"
	"github.com/flywave/go-meshtile/internal/config"
	"github.com/flywave/go-meshtile/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags, err := config.ParseFlags("meshtile", args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 1
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	if cfg.Output.Input == "" {
		logger.Log.Error("no input model, pass -input or a positional path")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tile(ctx, cfg); err != nil {
		logger.Log.Error("tiling failed", zap.Error(err))
		return 1
	}
	return 0
}

func tile(ctx context.Context, cfg *config.Config) error {
	log := logger.Named("meshtile")
	start := time.Now()

	model, err := meshtile.LoadGltf(cfg.Output.Input)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.Output.Input, err)
	}
	defer model.Free()
	log.Info("model loaded",
		zap.String("input", cfg.Output.Input),
		zap.Int("meshes", model.MeshCount()),
		zap.Int("polygons", model.PolygonCount()))

	p := meshtile.NewPipeline(cfg.Options(), meshtile.NewGltfExporter(cfg.Output.Dir), log)
	root, err := p.Run(ctx, model)
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.Output.Dir, cfg.Output.Tileset)
	if err := meshtile.WriteTileset(path, root); err != nil {
		return fmt.Errorf("write tileset: %w", err)
	}
	if err := cfg.SaveTo(filepath.Join(cfg.Output.Dir, config.CONFIG_FILE_NAME)); err != nil {
		log.Warn("could not save effective config", zap.Error(err))
	}

	st := p.Stats()
	log.Info("tileset written",
		zap.String("path", path),
		zap.Int("tiles", st.Tiles),
		zap.Int("lod_tasks", st.Tasks),
		zap.Int("peak_tasks", st.PeakTasks),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
