package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"
	"github.com/tailscale/hujson"
)

const (
	ConfigFileName  = "config.hujson"
	DefaultTimezone = "Asia/Kuala_Lumpur"
	DefaultAppURL   = "http://localhost:5500/"
	DefaultListen   = "127.0.0.1:8787"
)

var errConfigInvalid = errors.New("invalid config")

// Config is the client configuration. Precedence: defaults, then the config
// file, then command line flags.
type Config struct {
	// AppURL is the origin serving the app shell. It is the background worker scope.
	AppURL string `json:"app_url"`

	// BackendBase overrides the backend URL derived from AppURL.
	BackendBase string `json:"backend_base,omitempty"`

	Timezone string `json:"timezone"`
	DBPath   string `json:"db_path"`

	// Listen is the address `serve` binds to.
	Listen string `json:"listen"`

	// PushReceiver is the public base URL push services deliver to. Defaults to
	// http://<Listen>.
	PushReceiver string `json:"push_receiver,omitempty"`
}

// DefaultConfigDir is where the config file and database live unless overridden.
func DefaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".fasting-tracker"
	}
	return filepath.Join(dir, "fasting-tracker")
}

func DefaultConfig(dir string) Config {
	return Config{
		AppURL:   DefaultAppURL,
		Timezone: DefaultTimezone,
		DBPath:   filepath.Join(dir, "fasting.db"),
		Listen:   DefaultListen,
	}
}

// LoadConfig overlays the file at path on the defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	fileCfg, err := parseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	return mergeConfig(cfg, fileCfg), nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.AppURL != "" {
		base.AppURL = overlay.AppURL
	}
	if overlay.BackendBase != "" {
		base.BackendBase = overlay.BackendBase
	}
	if overlay.Timezone != "" {
		base.Timezone = overlay.Timezone
	}
	if overlay.DBPath != "" {
		base.DBPath = overlay.DBPath
	}
	if overlay.Listen != "" {
		base.Listen = overlay.Listen
	}
	if overlay.PushReceiver != "" {
		base.PushReceiver = overlay.PushReceiver
	}
	return base
}

// BindConfigFlags registers the overriding flags on fs and returns the overlay
// they fill. Pass it to ApplyFlags after parsing.
func BindConfigFlags(fs *flag.FlagSet) *Config {
	overlay := &Config{}
	fs.StringVar(&overlay.AppURL, "app-url", "", "origin serving the app shell (worker scope)")
	fs.StringVar(&overlay.BackendBase, "backend", "", "backend base URL override")
	fs.StringVar(&overlay.Timezone, "timezone", "", "IANA timezone for \"today\"")
	fs.StringVar(&overlay.DBPath, "db", "", "path of the local SQLite database")
	fs.StringVar(&overlay.Listen, "listen", "", "address for serve")
	fs.StringVar(&overlay.PushReceiver, "push-receiver", "", "public base URL for incoming pushes")
	return overlay
}

func (c *Config) ApplyFlags(overlay *Config) {
	*c = mergeConfig(*c, *overlay)
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", errConfigInvalid, c.Timezone, err)
	}
	return loc, nil
}

// Receiver is the base URL handed out in local push subscriptions.
func (c Config) Receiver() string {
	if c.PushReceiver != "" {
		return c.PushReceiver
	}
	if c.Listen == "" {
		return ""
	}
	return "http://" + c.Listen
}

func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}
	return string(data), nil
}

// SaveConfig writes cfg to path atomically, creating the directory if needed.
func SaveConfig(path string, cfg Config) error {
	formatted, err := FormatConfig(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	header := "// Fasting Tracker client configuration (JSON with comments).\n"
	if err := atomic.WriteFile(path, bytes.NewReader([]byte(header+formatted+"\n"))); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
