// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file — `<root>/conf/.env`, then a repo-root `.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `APIKIT_`, where `__` maps to “.”
     (e.g., `APIKIT_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, the tree is unmarshalled into strongly-typed structs,
validated, enriched with the runtime root path, and cached in an
`atomic.Pointer` for lock-free reads.  `Reload()` simply calls `Load()`
again and swaps the pointer.

Values prefixed `vault:` (database password, session auth key) are
resolved through `internal/secrets` after unmarshalling, so the rest of
the app only ever sees plain strings.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/api` work from any sub-directory.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.
*/
package config

import (
	"context"
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

	"github.com/rigazamy/apikit/internal/secrets"
)

var current atomic.Pointer[Config]

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves APIKIT_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to the executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv("APIKIT_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
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

// Load builds, validates, and caches the configuration.  Safe to call more
// than once; the last successful result wins.
func Load() (*Config, error) {
	root := rootDir()

	// Dotenv layering: conf/.env first, repo-root .env as fallback.
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))
	_ = godotenv.Load(filepath.Join(root, ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}

	// Env overrides: APIKIT_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider("APIKIT_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(
			strings.TrimPrefix(s, "APIKIT_"), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root

	if err := resolveSecrets(&cfg); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"origins", len(cfg.CORS.AllowedOrigins),
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// resolveSecrets swaps any `vault:` value for the plain secret.  The Vault
// client is only constructed when at least one field needs it, so local
// setups without Vault never touch the network.
func resolveSecrets(cfg *Config) error {
	fields := []*string{&cfg.Database.Password, &cfg.Session.AuthKey}

	needed := false
	for _, f := range fields {
		if secrets.IsRef(*f) {
			needed = true
		}
	}
	if !needed {
		return nil
	}

	ctx := context.Background()
	cli, err := secrets.New(ctx)
	if err != nil {
		return err
	}

	for _, f := range fields {
		if !secrets.IsRef(*f) {
			continue
		}
		plain, err := cli.Resolve(ctx, *f)
		if err != nil {
			return err
		}
		*f = plain
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
