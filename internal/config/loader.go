// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from four layers (highest
precedence last):

  0. Built-in defaults (`defaults()` in model.go).
  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/central.yaml`.
  3. Environment variables prefixed `CENTRAL_`, where `__` maps to “.”
     (e.g., `CENTRAL_SITEINFO__HOST → siteinfo.host`).

Every string value that starts with `vault:` is then handed to the
SecretResolver, so `database.central_password: vault:secret/central#password`
becomes the plain secret before unmarshal.  The result is validated and
cached in an `atomic.Pointer`.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, env overlay.
  • ERROR spans: YAML parse, env overlay, secret resolution, unmarshal,
    and validation failures.
  • Logs use the global *sugared* logger (`zap.S()`).
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	envPrefix   = "CENTRAL_"
	vaultPrefix = "vault:"
	fileName    = "central.yaml"
)

var current atomic.Pointer[Config]

// SecretResolver turns a `vault:` reference into its plain value.  The
// concrete *vault.Client satisfies it directly.
type SecretResolver interface {
	GetSecret(ctx context.Context, ref string) (string, error)
}

// ErrNoResolver is returned when the config references Vault but no
// resolver was supplied.
var ErrNoResolver = errors.New("config: vault reference found but no resolver configured")

/*──────────────────────────── root discovery ───────────────────────────────*/

// RootDir resolves CENTRAL_ROOT or climbs directories until
// conf/central.yaml is found.
func RootDir() string {
	if r := os.Getenv("CENTRAL_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", fileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads defaults, .env, YAML, and env overrides, resolves vault
// references, validates, and caches Config.  res may be nil when no value
// uses the `vault:` prefix.
func Load(ctx context.Context, res SecretResolver) (*Config, error) {
	root := RootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")
	for key, val := range defaults() {
		if err := k.Set(key, val); err != nil {
			return nil, err
		}
	}

	yamlPath := filepath.Join(root, "conf", fileName)
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, k, res); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"siteinfo_host", cfg.Siteinfo.Host,
		"isolate_sources", cfg.Siteinfo.IsolateSources,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// envKey maps CENTRAL_SITEINFO__HOST → siteinfo.host.
func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}

// resolveSecrets replaces every `vault:` string in k with its secret.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, res SecretResolver) error {
	for key, val := range k.All() {
		s, ok := val.(string)
		if !ok || !strings.HasPrefix(s, vaultPrefix) {
			continue
		}
		if res == nil {
			return fmt.Errorf("%w: %s", ErrNoResolver, key)
		}
		plain, err := res.GetSecret(ctx, strings.TrimPrefix(s, vaultPrefix))
		if err != nil {
			return fmt.Errorf("resolve %s: %w", key, err)
		}
		if err := k.Set(key, plain); err != nil {
			return err
		}
	}
	return nil
}

// UsesVault reports whether VAULT_ADDR is set.  cmd/ uses it to decide
// whether to dial Vault at all.
func UsesVault() bool { return os.Getenv("VAULT_ADDR") != "" }

func Get() *Config { return current.Load() }
