package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olamyy/wmt/pkg/cache"
	"github.com/olamyy/wmt/pkg/check"
	"github.com/olamyy/wmt/pkg/errors"
	"github.com/olamyy/wmt/pkg/source"
)

func TestDecode(t *testing.T) {
	cfg, err := Decode(`
[run]
ecosystem = "python"
package_concurrency = 8
fetch_timeout = "10s"
max_retries = 0

[sources.repository]
calls = 5000
window = "1h"

[http]
cache = "file"
cache_dir = "/tmp/wmt-cache"
`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	eco, _ := cfg.Ecosystem()
	if eco != source.PyPI {
		t.Errorf("Ecosystem = %s", eco)
	}

	cc := cfg.CheckConfig()
	if cc.PackageConcurrency != 8 || cc.FetchTimeout != 10*time.Second {
		t.Errorf("run settings not applied: %+v", cc)
	}
	if cc.MaxRetries != 0 {
		t.Errorf("explicit max_retries = 0 should disable retries, got %d", cc.MaxRetries)
	}

	repo := cc.Sources[source.KindRepository]
	def := check.DefaultConfig().Sources[source.KindRepository]
	if repo.Calls != 5000 || repo.Window != time.Hour || repo.MaxInFlight != def.MaxInFlight {
		t.Errorf("repository limits = %+v", repo)
	}
	if cc.Sources[source.KindRegistry] != check.DefaultConfig().Sources[source.KindRegistry] {
		t.Error("registry limits should keep their defaults")
	}
	if dir, _ := cfg.CacheDir(); dir != "/tmp/wmt-cache" {
		t.Errorf("CacheDir = %s", dir)
	}
}

func TestDecode_Defaults(t *testing.T) {
	cfg, err := Decode("")
	if err != nil {
		t.Fatal(err)
	}
	if eco, _ := cfg.Ecosystem(); eco != source.Cargo {
		t.Errorf("default ecosystem = %s", eco)
	}
	if cfg.CacheTTL() != DefaultCacheTTL {
		t.Errorf("CacheTTL = %s", cfg.CacheTTL())
	}
	cc := cfg.CheckConfig()
	if cc.MaxRetries != check.DefaultMaxRetries {
		t.Errorf("MaxRetries = %d", cc.MaxRetries)
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"syntax", `[run`},
		{"unknown key", "[run]\nthreads = 3\n"},
		{"ecosystem", "[run]\necosystem = \"maven\"\n"},
		{"source", "[sources.vcs]\ncalls = 1\n"},
		{"cache backend", "[http]\ncache = \"memcached\"\n"},
		{"redis without url", "[http]\ncache = \"redis\"\n"},
		{"negative retries", "[run]\nmax_retries = -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.text)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("err = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[github]\ntoken = \"from-file\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GITHUB_TOKEN", "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GitHub.Token != "from-file" {
		t.Errorf("Token = %q", cfg.GitHub.Token)
	}

	t.Setenv("GITHUB_TOKEN", "from-env")
	cfg, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GitHub.Token != "from-env" {
		t.Errorf("GITHUB_TOKEN should override the file, got %q", cfg.GitHub.Token)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file: err = %v", err)
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("missing default file should load defaults: %v", err)
	}
	if cfg.HTTP.Cache != CacheNone {
		t.Errorf("Cache = %q", cfg.HTTP.Cache)
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()

	cfg := Default()
	c, err := cfg.OpenCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.NullCache); !ok {
		t.Errorf("default cache = %T, want *cache.NullCache", c)
	}

	cfg.HTTP.Cache = CacheFile
	cfg.HTTP.CacheDir = t.TempDir()
	c, err = cfg.OpenCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	fc, ok := c.(*cache.FileCache)
	if !ok || fc.Dir() != cfg.HTTP.CacheDir {
		t.Errorf("file cache = %T %v", c, c)
	}
}
