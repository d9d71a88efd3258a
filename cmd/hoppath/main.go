package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	astar "github.com/pdrpinto/teleport-astar"
	"github.com/pdrpinto/teleport-astar/config"
	"github.com/pdrpinto/teleport-astar/geom"
	"github.com/pdrpinto/teleport-astar/voxel"
)

type output struct {
	RunID         string       `json:"run_id"`
	Outcome       string       `json:"outcome"`
	NodesExplored int          `json:"nodes_explored"`
	Expansions    int          `json:"expansions"`
	ElapsedMillis int64        `json:"elapsed_ms"`
	Path          [][3]float64 `json:"path"`
}

func parsePosition(text string) (geom.Position, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 3 {
		return geom.Position{}, fmt.Errorf("want x,y,z, got %q", text)
	}
	var v [3]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return geom.Position{}, fmt.Errorf("coordinate %d of %q: %w", i, text, err)
		}
		v[i] = f
	}
	return geom.Position{X: v[0], Y: v[1], Z: v[2]}, nil
}

func run() error {
	configPath := flag.String("config", "", "Path to the YAML config file")
	worldPath := flag.String("world", "", "Path to the YAML world file (overrides config)")
	from := flag.String("from", "0,0,0", "Start block as x,y,z")
	to := flag.String("to", "", "Goal block as x,y,z")
	tolerance := flag.Float64("tolerance", -1, "Squared goal tolerance (overrides config when >= 0)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := cfg.Log.Logger(os.Stderr)
	slog.SetDefault(logger)

	if *worldPath != "" {
		cfg.World = *worldPath
	}
	if cfg.World == "" {
		return fmt.Errorf("no world file given")
	}
	if *tolerance >= 0 {
		cfg.Search.GoalToleranceSquared = *tolerance
	}
	start, err := parsePosition(*from)
	if err != nil {
		return fmt.Errorf("-from: %w", err)
	}
	goal, err := parsePosition(*to)
	if err != nil {
		return fmt.Errorf("-to: %w", err)
	}

	world, err := voxel.LoadWorld(cfg.World)
	if err != nil {
		return err
	}
	logger.Info("world loaded", "path", cfg.World, "blocks", world.Len())
	if !world.IsPositionValid(start) {
		logger.Warn("start block is not a valid landing", "start", start)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	oracle := voxel.LineOfSight{World: world, MaxCandidates: cfg.Search.MaxCandidates}
	options := append(cfg.Search.Options(),
		astar.WithLogger(logger),
		astar.WithSink(astar.LogSink{Logger: logger}),
	)
	finder := astar.NewPathfinder(start, goal, cfg.Search.GoalToleranceSquared, oracle, options...)
	result := finder.Compute(ctx)

	out := output{
		RunID:         result.RunID,
		Outcome:       result.Outcome.String(),
		NodesExplored: result.NodesExplored,
		Expansions:    result.Expansions,
		ElapsedMillis: result.ElapsedMillis(),
		Path:          make([][3]float64, 0, len(result.Path)),
	}
	for _, p := range result.Path {
		out.Path = append(out.Path, [3]float64{p.X, p.Y, p.Z})
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "hoppath:", err)
		os.Exit(1)
	}
}
