package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadConfig.
const (
	EnvTileCache = "TIMP_TILE_CACHE"
	EnvSwapDir   = "TIMP_SWAP_DIR"
	EnvKind      = "TIMP_KIND"
	EnvDebug     = "TIMP_DEBUG"
	EnvFile      = "TIMP_ENV_FILE"
)

// Config holds defaults for command flags. Flags given on the command line
// take precedence.
type Config struct {
	TileCache int
	SwapDir   string
	Kind      string
	Debug     bool
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{TileCache: 256, Kind: "lanczos"}
}

// LoadConfig loads path (usually ".env") into the process environment if it
// exists, then reads the TIMP_* variables on top of DefaultConfig. Variables
// already set in the environment win over the file.
func LoadConfig(path string) (Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	return configFromEnv(os.LookupEnv)
}

func configFromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()
	if v, ok := lookup(EnvTileCache); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("%s: invalid tile count %q", EnvTileCache, v)
		}
		cfg.TileCache = n
	}
	if v, ok := lookup(EnvSwapDir); ok {
		cfg.SwapDir = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvKind); ok && strings.TrimSpace(v) != "" {
		cfg.Kind = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvDebug); ok && strings.TrimSpace(v) != "" {
		b, err := parseBoolLike(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvDebug, err)
		}
		cfg.Debug = b
	}
	return cfg, nil
}

// parseBoolLike accepts common truthy/falsy forms.
func parseBoolLike(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean: %q", s)
	}
}

// vars exposes the config to kong's ${name} interpolation.
func (c Config) vars() map[string]string {
	return map[string]string{
		"tile_cache": strconv.Itoa(c.TileCache),
		"swap_dir":   c.SwapDir,
		"kind":       c.Kind,
	}
}
