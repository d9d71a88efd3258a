// Package config loads the YAML configuration shared by the command line
// tool and the web visualiser.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	astar "github.com/pdrpinto/teleport-astar"
	"github.com/pdrpinto/teleport-astar/geom"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Duration is a time.Duration that decodes from "750ms" style strings or
// from integer milliseconds.
type Duration time.Duration

// UnmarshalYAML implements custom decoding logic.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var millis int64
	if err := value.Decode(&millis); err == nil {
		*d = Duration(time.Duration(millis) * time.Millisecond)
		return nil
	}
	var text string
	if err := value.Decode(&text); err != nil {
		return fmt.Errorf("line %d: invalid duration", value.Line)
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML serializes the duration back to a readable string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Search holds the tunables of the pathfinder.
type Search struct {
	// Wall-clock budget per search. Default: 1s.
	Budget Duration `yaml:"budget"`
	// Reach of a single hop in blocks. Default: 16.
	Radius float64 `yaml:"radius"`
	// Offset added to the ceiled hub cell before querying the oracle.
	EyeOffset [3]float64 `yaml:"eye_offset"`
	// Squared goal tolerance; 0 requires the exact goal cell.
	GoalToleranceSquared float64 `yaml:"goal_tolerance_squared"`
	// "heap" (default) or "btree".
	Frontier string `yaml:"frontier"`
	// Stricter variant: never re-expand or re-promote a settled hub.
	ClosedSet bool `yaml:"closed_set"`
	// Recompute the heuristic when a hub is re-promoted.
	RefreshHeuristic bool `yaml:"refresh_heuristic"`
	// Caps oracle results per expansion when positive.
	MaxCandidates int `yaml:"max_candidates"`
}

// Log configures slog.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Config is the whole file.
type Config struct {
	World       string `yaml:"world"`
	MetricsAddr string `yaml:"metrics_addr"`
	Search      Search `yaml:"search"`
	Log         Log    `yaml:"log"`
}

// DefaultConfig returns the reference search settings.
func DefaultConfig() Config {
	offset := astar.DefaultEyeOffset
	return Config{
		Search: Search{
			Budget:    Duration(astar.DefaultBudget),
			Radius:    astar.DefaultRadius,
			EyeOffset: [3]float64{offset.X, offset.Y, offset.Z},
			Frontier:  "heap",
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Decode overlays YAML from r onto the defaults using strict parsing.
func Decode(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("YAML syntax error in config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Load reads the configuration file. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()
	return Decode(file)
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.Search.Budget < 0 {
		return fmt.Errorf("%w: search.budget must not be negative", ErrInvalid)
	}
	if c.Search.Radius <= 0 {
		return fmt.Errorf("%w: search.radius must be positive", ErrInvalid)
	}
	if c.Search.GoalToleranceSquared < 0 {
		return fmt.Errorf("%w: search.goal_tolerance_squared must not be negative", ErrInvalid)
	}
	if c.Search.MaxCandidates < 0 {
		return fmt.Errorf("%w: search.max_candidates must not be negative", ErrInvalid)
	}
	if _, err := c.Search.FrontierKind(); err != nil {
		return err
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// FrontierKind parses the frontier name.
func (s Search) FrontierKind() (astar.FrontierKind, error) {
	switch strings.ToLower(s.Frontier) {
	case "", "heap":
		return astar.FrontierHeap, nil
	case "btree":
		return astar.FrontierBTree, nil
	default:
		return astar.FrontierHeap, fmt.Errorf("%w: search.frontier %q", ErrInvalid, s.Frontier)
	}
}

// Options converts the settings into pathfinder options.
func (s Search) Options() []astar.Option {
	kind, _ := s.FrontierKind()
	return []astar.Option{
		astar.WithBudget(time.Duration(s.Budget)),
		astar.WithRadius(s.Radius),
		astar.WithEyeOffset(geom.Position{X: s.EyeOffset[0], Y: s.EyeOffset[1], Z: s.EyeOffset[2]}),
		astar.WithFrontier(kind),
		astar.WithClosedSet(s.ClosedSet),
		astar.WithHeuristicRefresh(s.RefreshHeuristic),
	}
}

// SlogLevel parses the log level name.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log.level %q", ErrInvalid, l.Level)
	}
	return level, nil
}

// Logger builds a slog logger writing to w.
func (l Log) Logger(w io.Writer) *slog.Logger {
	level, _ := l.SlogLevel()
	handlerOptions := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOptions))
	}
	return slog.New(slog.NewTextHandler(w, handlerOptions))
}
