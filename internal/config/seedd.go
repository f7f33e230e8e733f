package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Seedd holds all configuration for the seed daemon.
type Seedd struct {
	LogLevel string `yaml:"log_level"`

	// Scheduler
	TickInterval time.Duration `yaml:"tick_interval"` // how often every volume thinks (default: 50ms)
	SaveInterval time.Duration `yaml:"save_interval"` // layout persistence period, 0 disables (default: 30s)

	// SpawnLimit is the global live-object ceiling of the headless world.
	SpawnLimit int `yaml:"spawn_limit"`

	// Definitions is the YAML entity-definition table.
	Definitions string `yaml:"definitions"`
	// ImageDir is searched for density images named by classes.
	ImageDir string `yaml:"image_dir"`

	LODBias  float64    `yaml:"lod_bias"`
	Observer [3]float64 `yaml:"observer"`

	Database DatabaseConfig `yaml:"database"`
	World    World          `yaml:"world"`
	Volumes  []Volume       `yaml:"volumes"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// World configures the headless host the volumes run in.
type World struct {
	RegionSize     float64        `yaml:"region_size"` // visibility region edge (default: 2048)
	FloorZ         float64        `yaml:"floor_z"`
	DefaultSurface string         `yaml:"default_surface"`
	Materials      []MaterialZone `yaml:"materials"`
	Models         []Model        `yaml:"models"`
}

// MaterialZone gives the floor a surface type inside an XY rectangle.
type MaterialZone struct {
	Surface string     `yaml:"surface"`
	Min     [2]float64 `yaml:"min"`
	Max     [2]float64 `yaml:"max"`
}

// Model is one entry of the model catalogue.
type Model struct {
	Name string     `yaml:"name"`
	Size [3]float64 `yaml:"size"`
	// Capacity is how many copies fit into one combined model.
	Capacity int `yaml:"capacity"`
}

// Volume describes one seed volume.
type Volume struct {
	Name       string            `yaml:"name"`
	Origin     [3]float64        `yaml:"origin"`
	Size       [3]float64        `yaml:"size"`
	Yaw        float64           `yaml:"yaw"`
	Args       map[string]string `yaml:"spawnargs"`
	Classes    []Class           `yaml:"classes"`
	Watch      []Class           `yaml:"watch"`
	Inhibitors []Inhibitor       `yaml:"inhibitors"`
}

// Class is a template a placement class is built from.
type Class struct {
	Name   string            `yaml:"name"`
	Def    string            `yaml:"def"`
	Origin [3]float64        `yaml:"origin"`
	Args   map[string]string `yaml:"spawnargs"`
	// Inline classes carry their own geometry, named by Model.
	Inline bool   `yaml:"inline"`
	Model  string `yaml:"model"`
}

// Inhibitor is a box suppressing placement.
type Inhibitor struct {
	Name   string            `yaml:"name"`
	Origin [3]float64        `yaml:"origin"`
	Size   [3]float64        `yaml:"size"`
	Yaw    float64           `yaml:"yaw"`
	Args   map[string]string `yaml:"spawnargs"`
}

// DefaultSeedd returns Seedd config with sensible defaults.
func DefaultSeedd() Seedd {
	return Seedd{
		LogLevel:     "info",
		TickInterval: 50 * time.Millisecond,
		SaveInterval: 30 * time.Second,
		SpawnLimit:   4096,
		Definitions:  "data/defs.yaml",
		ImageDir:     "data/images",
		LODBias:      1.0,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "seed",
			Password: "seed",
			DBName:   "seed",
			SSLMode:  "disable",
			MaxConns: 4,
		},
		World: World{
			RegionSize:     2048,
			DefaultSurface: "stone",
		},
	}
}

// LoadSeedd loads daemon config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadSeedd(path string) (Seedd, error) {
	cfg := DefaultSeedd()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.TickInterval <= 0 {
		return cfg, fmt.Errorf("config %s: tick_interval must be positive, got %s", path, cfg.TickInterval)
	}
	if cfg.World.RegionSize <= 0 {
		return cfg, fmt.Errorf("config %s: world.region_size must be positive, got %g", path, cfg.World.RegionSize)
	}
	return cfg, nil
}
