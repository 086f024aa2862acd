// Package config loads the datacheck runner configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/EbiArnie/ensembl-datacheck/internal/infrastructure/db"
	httpiface "github.com/EbiArnie/ensembl-datacheck/internal/interfaces/http"
)

// Duration wraps time.Duration with YAML string parsing ("30s", "5m").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// DatabaseConfig is the YAML shape of a database target.
type DatabaseConfig struct {
	DSN             string   `yaml:"dsn"`
	SpeciesID       int64    `yaml:"species_id"`
	DBType          string   `yaml:"db_type"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime Duration `yaml:"conn_max_idle_time"`
	QueryTimeout    Duration `yaml:"query_timeout"`
}

// ServerConfig is the YAML shape of the metrics server settings.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// Config is the full runner configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	LogLevel string         `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	dbDefaults := db.DefaultConfig()
	serverDefaults := httpiface.DefaultServerConfig()
	return Config{
		Database: DatabaseConfig{
			SpeciesID:       dbDefaults.SpeciesID,
			DBType:          dbDefaults.DBType,
			MaxOpenConns:    dbDefaults.MaxOpenConns,
			MaxIdleConns:    dbDefaults.MaxIdleConns,
			ConnMaxLifetime: Duration(dbDefaults.ConnMaxLifetime),
			ConnMaxIdleTime: Duration(dbDefaults.ConnMaxIdleTime),
			QueryTimeout:    Duration(dbDefaults.QueryTimeout),
		},
		Server: ServerConfig{
			Addr:         serverDefaults.Addr,
			ReadTimeout:  Duration(serverDefaults.ReadTimeout),
			WriteTimeout: Duration(serverDefaults.WriteTimeout),
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return cfg, nil
}

// DBConfig converts the YAML shape to the connection manager's config.
func (c Config) DBConfig() db.Config {
	return db.Config{
		DSN:             c.Database.DSN,
		SpeciesID:       c.Database.SpeciesID,
		DBType:          c.Database.DBType,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(c.Database.ConnMaxLifetime),
		ConnMaxIdleTime: time.Duration(c.Database.ConnMaxIdleTime),
		QueryTimeout:    time.Duration(c.Database.QueryTimeout),
	}
}

// ServerConfigHTTP converts the YAML shape to the metrics server config.
func (c Config) ServerConfigHTTP() httpiface.ServerConfig {
	return httpiface.ServerConfig{
		Addr:         c.Server.Addr,
		ReadTimeout:  time.Duration(c.Server.ReadTimeout),
		WriteTimeout: time.Duration(c.Server.WriteTimeout),
	}
}
