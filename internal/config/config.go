package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gruppe-adler/demcache/internal/cache"
	"github.com/gruppe-adler/demcache/internal/geo"
	"github.com/gruppe-adler/demcache/internal/tiles"
)

// Config holds all application configuration.
type Config struct {
	Cache      CacheConfig   `mapstructure:"cache"`
	BufferSize float64       `mapstructure:"buffer_size"`
	Catalog    CatalogConfig `mapstructure:"catalog"`
	Fetch      FetchConfig   `mapstructure:"fetch"`
	Server     ServerConfig  `mapstructure:"server"`
	Log        LogConfig     `mapstructure:"log"`
}

type CacheConfig struct {
	Root               string `mapstructure:"root"`
	EstimatedTileBytes uint64 `mapstructure:"estimated_tile_bytes"`
}

type CatalogConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Pattern string `mapstructure:"pattern"`
	// Index is an optional URL or path of a tile list.
	Index string `mapstructure:"index"`
}

type FetchConfig struct {
	Workers   int           `mapstructure:"workers"`
	Timeout   time.Duration `mapstructure:"timeout"`
	ChunkSize int           `mapstructure:"chunk_size"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultEstimatedTileBytes is the disk budget per tile for the pre-flight
// check: download, decoded copy and share of the mosaic.
const DefaultEstimatedTileBytes = 100 << 20

// Load reads configuration from defaults, an optional config file and
// environment variables. An empty file searches demcache.yaml in ., ./configs
// and ~/.config/demcache.
func Load(file string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("cache.root", cache.DefaultRoot())
	v.SetDefault("cache.estimated_tile_bytes", DefaultEstimatedTileBytes)
	v.SetDefault("buffer_size", geo.DefaultBuffer)
	v.SetDefault("catalog.base_url", tiles.DefaultBaseURL)
	v.SetDefault("catalog.pattern", tiles.DefaultPattern)
	v.SetDefault("catalog.index", "")
	v.SetDefault("fetch.workers", tiles.DefaultWorkers)
	v.SetDefault("fetch.timeout", tiles.DefaultTimeout)
	v.SetDefault("fetch.chunk_size", tiles.DefaultChunkSize)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("demcache")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "demcache"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// Environment variables: DEMCACHE_FETCH_WORKERS → fetch.workers
	v.SetEnvPrefix("DEMCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// legacy names, the prefixed ones win
	if err := v.BindEnv("cache.root", "DEMCACHE_CACHE_ROOT", "TERRAIN_CACHE_ROOT"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("buffer_size", "DEMCACHE_BUFFER_SIZE", "DEM_BUFFER_SIZE"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Cache.Root == "" {
		errs = append(errs, "cache.root is required")
	}
	if c.Cache.EstimatedTileBytes == 0 {
		errs = append(errs, "cache.estimated_tile_bytes must be positive")
	}
	if math.IsNaN(c.BufferSize) || math.IsInf(c.BufferSize, 0) || c.BufferSize < 0 {
		errs = append(errs, fmt.Sprintf("buffer_size must be a finite number >= 0, got %v", c.BufferSize))
	}
	if u, err := url.Parse(c.Catalog.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Sprintf("catalog.base_url must be an http(s) URL, got %q", c.Catalog.BaseURL))
	}
	if !strings.Contains(c.Catalog.Pattern, "{") {
		errs = append(errs, fmt.Sprintf("catalog.pattern has no placeholders: %q", c.Catalog.Pattern))
	}
	if c.Fetch.Workers < 1 {
		errs = append(errs, fmt.Sprintf("fetch.workers must be >= 1, got %d", c.Fetch.Workers))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, "fetch.timeout must be positive")
	}
	if c.Fetch.ChunkSize <= 0 {
		errs = append(errs, "fetch.chunk_size must be positive")
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Buffer returns the configured buffer, falling back to the default for 0.
func (c *Config) Buffer() float64 {
	if c.BufferSize <= 0 {
		return geo.DefaultBuffer
	}
	return c.BufferSize
}
