package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"voxtray/transcriber"
)

const (
	UITray = "tray"
	UITUI  = "tui"
	UINone = "none"

	DefaultSuccessDelay = 3 * time.Second
	DefaultErrorDelay   = 2 * time.Second
)

var ErrNoAPIKey = errors.New("GROQ_API_KEY not set")

type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	Language     string
	Device       string
	DataDir      string
	UI           string
	Hotkey       bool
	SuccessDelay time.Duration
	ErrorDelay   time.Duration

	// Path is the config file that was read, empty if none.
	Path string
}

type fileConfig struct {
	APIKey       string `toml:"api_key"`
	BaseURL      string `toml:"base_url"`
	Model        string `toml:"model"`
	Language     string `toml:"language"`
	Device       string `toml:"device"`
	DataDir      string `toml:"data_dir"`
	UI           string `toml:"ui"`
	Hotkey       *bool  `toml:"hotkey"`
	SuccessDelay string `toml:"success_delay"`
	ErrorDelay   string `toml:"error_delay"`
}

func Default() *Config {
	return &Config{
		BaseURL:      transcriber.DefaultBaseURL,
		Model:        transcriber.DefaultModel,
		Language:     transcriber.DefaultLanguage,
		DataDir:      defaultDataDir(),
		UI:           UITray,
		SuccessDelay: DefaultSuccessDelay,
		ErrorDelay:   DefaultErrorDelay,
	}
}

// Load builds the configuration from defaults, the TOML file, .env files and
// the environment, each overriding the one before. An empty path means the
// default location, which may be absent. An explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(Dir(), "config.toml")
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	} else {
		cfg.Path = path
	}

	loadDotEnv(filepath.Join(Dir(), ".env"), ".env")
	applyEnvOverrides(cfg)

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	setIf(&c.APIKey, fc.APIKey)
	setIf(&c.BaseURL, fc.BaseURL)
	setIf(&c.Model, fc.Model)
	setIf(&c.Language, fc.Language)
	setIf(&c.Device, fc.Device)
	setIf(&c.UI, fc.UI)
	if fc.DataDir != "" {
		c.DataDir = expandTilde(fc.DataDir)
	}
	if fc.Hotkey != nil {
		c.Hotkey = *fc.Hotkey
	}

	var err error
	if c.SuccessDelay, err = parseDelay(fc.SuccessDelay, c.SuccessDelay); err != nil {
		return fmt.Errorf("success_delay: %w", err)
	}
	if c.ErrorDelay, err = parseDelay(fc.ErrorDelay, c.ErrorDelay); err != nil {
		return fmt.Errorf("error_delay: %w", err)
	}
	return nil
}

// loadDotEnv reads the given .env files in order. Variables already in the
// environment are never replaced, so earlier files win over later ones.
func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

func applyEnvOverrides(cfg *Config) {
	setIf(&cfg.APIKey, os.Getenv("GROQ_API_KEY"))
	setIf(&cfg.BaseURL, os.Getenv("VOXTRAY_BASE_URL"))
	setIf(&cfg.Model, os.Getenv("VOXTRAY_MODEL"))
	setIf(&cfg.Language, os.Getenv("VOXTRAY_LANGUAGE"))
	setIf(&cfg.Device, os.Getenv("VOXTRAY_DEVICE"))
	if v := os.Getenv("VOXTRAY_DATA_DIR"); v != "" {
		cfg.DataDir = expandTilde(v)
	}
}

// Validate reports the first setting that makes the app unable to run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrNoAPIKey
	}
	switch c.UI {
	case UITray, UITUI, UINone:
	default:
		return fmt.Errorf("unknown ui %q (want tray, tui or none)", c.UI)
	}
	if c.SuccessDelay <= 0 || c.ErrorDelay <= 0 {
		return errors.New("reset delays must be positive")
	}
	if c.DataDir == "" {
		return errors.New("data directory not set")
	}
	return nil
}

// Dir is where config.toml and an optional .env are looked up.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "voxtray")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "voxtray")
	}
	return "."
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".voice_to_text")
	}
	return ".voice_to_text"
}

func parseDelay(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return d, nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
