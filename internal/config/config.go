package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Worlds    WorldsConfig    `toml:"worlds"`
	Snapshot  SnapshotConfig  `toml:"snapshot"`
	Scripting ScriptingConfig `toml:"scripting"`
	Database  DatabaseConfig  `toml:"database"`
	Logging   LoggingConfig   `toml:"logging"`
}

type EngineConfig struct {
	Name     string        `toml:"name"`
	TickRate time.Duration `toml:"tick_rate"`
	Ticks    uint64        `toml:"ticks"` // 0 = run until interrupted
}

type WorldsConfig struct {
	Seeds string `toml:"seeds"` // YAML seed file
}

type SnapshotConfig struct {
	Interval     uint64 `toml:"interval"` // in ticks, 0 disables periodic snapshots
	Dir          string `toml:"dir"`      // empty disables file snapshots
	TextEncoding string `toml:"text_encoding"`
	Keep         int    `toml:"keep"` // per world in the database, 0 keeps all
}

type ScriptingConfig struct {
	Dir string `toml:"dir"` // empty disables scripting
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables the database
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

func (c *Config) validate() error {
	if c.Engine.TickRate <= 0 {
		return fmt.Errorf("engine.tick_rate must be positive, got %v", c.Engine.TickRate)
	}
	if c.Snapshot.Keep < 0 {
		return fmt.Errorf("snapshot.keep must not be negative, got %d", c.Snapshot.Keep)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			Name:     "ecscore",
			TickRate: 50 * time.Millisecond,
		},
		Worlds: WorldsConfig{
			Seeds: "config/worlds.yaml",
		},
		Snapshot: SnapshotConfig{
			Interval: 200,
			Dir:      "snapshots",
			Keep:     10,
		},
		Scripting: ScriptingConfig{
			Dir: "scripts",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    8,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
