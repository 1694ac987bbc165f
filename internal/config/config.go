// Package config loads the optional wmt configuration file.
//
// The file is TOML and every key is optional:
//
//	[run]
//	ecosystem = "cargo"
//	package_concurrency = 4
//	fetch_timeout = "30s"
//	max_retries = 3
//	backoff_base = "500ms"
//	backoff_max = "30s"
//
//	[sources.registry]
//	max_in_flight = 4
//	calls = 10
//	window = "10s"
//
//	[http]
//	cache = "file"        # none, file or redis
//	cache_ttl = "24h"
//	redis_url = "redis://localhost:6379/0"
//
//	[github]
//	token = "ghp_..."     # GITHUB_TOKEN overrides
//
//	[store]
//	mongo_uri = "mongodb://localhost:27017"
//
// The check engine never reads the file or the environment; the CLI turns
// a Config into a [check.Config] with [Config.CheckConfig].
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/olamyy/wmt/pkg/cache"
	"github.com/olamyy/wmt/pkg/check"
	"github.com/olamyy/wmt/pkg/errors"
	"github.com/olamyy/wmt/pkg/fetch"
	"github.com/olamyy/wmt/pkg/source"
)

// HTTP cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// DefaultCacheTTL is how long cached HTTP responses stay fresh.
const DefaultCacheTTL = 24 * time.Hour

// Config is the decoded configuration file.
type Config struct {
	Run     Run               `toml:"run"`
	Sources map[string]Source `toml:"sources"`
	HTTP    HTTP              `toml:"http"`
	GitHub  GitHub            `toml:"github"`
	Store   Store             `toml:"store"`
}

// Run holds engine settings. Zero values keep the engine defaults.
type Run struct {
	Ecosystem          string        `toml:"ecosystem"`
	PackageConcurrency int           `toml:"package_concurrency"`
	FetchTimeout       time.Duration `toml:"fetch_timeout"`
	MaxRetries         *int          `toml:"max_retries"`
	BackoffBase        time.Duration `toml:"backoff_base"`
	BackoffMax         time.Duration `toml:"backoff_max"`
}

// Source overrides the limits of one source kind.
type Source struct {
	MaxInFlight int           `toml:"max_in_flight"`
	Calls       int           `toml:"calls"`
	Window      time.Duration `toml:"window"`
}

// HTTP selects the response cache of the API clients.
type HTTP struct {
	Cache    string        `toml:"cache"`
	CacheDir string        `toml:"cache_dir"`
	CacheTTL time.Duration `toml:"cache_ttl"`
	RedisURL string        `toml:"redis_url"`
}

type GitHub struct {
	Token string `toml:"token"`
}

type Store struct {
	MongoURI string `toml:"mongo_uri"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Run:  Run{Ecosystem: string(source.Cargo)},
		HTTP: HTTP{Cache: CacheNone, CacheTTL: DefaultCacheTTL},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/wmt/config.toml or the platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "wmt", "config.toml"), nil
}

// Load reads the file at path on top of [Default]. An empty path loads the
// default location, where a missing file is not an error; an explicitly
// named file must exist. The environment is applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg.withEnv(os.Getenv), nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	switch {
	case os.IsNotExist(err) && !explicit:
		return cfg.withEnv(os.Getenv), nil
	case os.IsNotExist(err):
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}

	cfg.withEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode parses TOML text on top of [Default]. The environment is not
// consulted.
func Decode(text string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) withEnv(getenv func(string) string) *Config {
	if tok := strings.TrimSpace(getenv("GITHUB_TOKEN")); tok != "" {
		c.GitHub.Token = tok
	}
	return c
}

// Validate checks values the file can get wrong.
func (c *Config) Validate() error {
	if _, err := c.Ecosystem(); err != nil {
		return err
	}
	for name := range c.Sources {
		if !source.Kind(name).Valid() {
			return errors.New(errors.ErrCodeInvalidConfig, "unknown source %q (want registry or repository)", name)
		}
	}
	switch c.HTTP.Cache {
	case "", CacheNone, CacheFile:
	case CacheRedis:
		if c.HTTP.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "http.cache is redis but http.redis_url is empty")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown http.cache %q (want none, file or redis)", c.HTTP.Cache)
	}
	return c.CheckConfig().Validate()
}

// Ecosystem returns the ecosystem bare package names belong to.
func (c *Config) Ecosystem() (source.Ecosystem, error) {
	if c.Run.Ecosystem == "" {
		return source.Cargo, nil
	}
	eco, err := source.ParseEcosystem(c.Run.Ecosystem)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "run.ecosystem")
	}
	return eco, nil
}

// CheckConfig converts the file settings into engine configuration,
// starting from [check.DefaultConfig].
func (c *Config) CheckConfig() check.Config {
	cfg := check.DefaultConfig()
	if c.Run.PackageConcurrency > 0 {
		cfg.PackageConcurrency = c.Run.PackageConcurrency
	}
	if c.Run.FetchTimeout != 0 {
		cfg.FetchTimeout = c.Run.FetchTimeout
	}
	if c.Run.MaxRetries != nil {
		cfg.MaxRetries = *c.Run.MaxRetries
	}
	if c.Run.BackoffBase != 0 {
		cfg.BackoffBase = c.Run.BackoffBase
	}
	if c.Run.BackoffMax != 0 {
		cfg.BackoffMax = c.Run.BackoffMax
	}

	sources := make(map[source.Kind]fetch.Limits, len(cfg.Sources))
	for k, l := range cfg.Sources {
		sources[k] = l
	}
	for name, s := range c.Sources {
		l := sources[source.Kind(name)]
		if s.MaxInFlight != 0 {
			l.MaxInFlight = s.MaxInFlight
		}
		if s.Calls != 0 {
			l.Calls = s.Calls
		}
		if s.Window != 0 {
			l.Window = s.Window
		}
		sources[source.Kind(name)] = l
	}
	cfg.Sources = sources
	return cfg
}

// CacheTTL returns the HTTP cache TTL, defaulting to [DefaultCacheTTL].
func (c *Config) CacheTTL() time.Duration {
	if c.HTTP.CacheTTL > 0 {
		return c.HTTP.CacheTTL
	}
	return DefaultCacheTTL
}

// CacheDir returns the directory of the file cache.
func (c *Config) CacheDir() (string, error) {
	if c.HTTP.CacheDir != "" {
		return c.HTTP.CacheDir, nil
	}
	return cache.DefaultDir()
}

// OpenCache builds the HTTP response cache backend. The default
// configuration gets a [cache.NullCache].
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.HTTP.Cache {
	case CacheFile:
		dir, err := c.CacheDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache directory")
		}
		return cache.NewFileCache(dir)
	case CacheRedis:
		return cache.DialRedis(ctx, c.HTTP.RedisURL)
	}
	return cache.NewNullCache(), nil
}
