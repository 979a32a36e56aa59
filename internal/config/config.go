// Package config loads updater settings from defaults, TOML files, AMAX_*
// environment variables and command-line overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/amax-emu/amax-updater/internal/update"
)

const (
	KeyEndpoint       = "endpoint"
	KeyArchiveName    = "archive_name"
	KeyInstallRoot    = "install_root"
	KeyConnectTimeout = "connect_timeout"
	KeyUserAgent      = "user_agent"
	KeyStrictApply    = "strict_apply"
	KeyKeepWorkspace  = "keep_workspace"
	KeyLogLevel       = "log_level"
	KeyGameProcess    = "game_process"
	KeyCloseGame      = "close_game"
)

const (
	// FileName is the config file looked up in the working directory and
	// the user config directory.
	FileName = "amax-updater.toml"

	// DefaultGameProcess is the game executable name.
	DefaultGameProcess = "Blur.exe"

	envPrefix = "AMAX"
)

// ErrInvalid is returned when a loaded setting cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the effective settings.
type Config struct {
	Endpoint       string        `mapstructure:"endpoint"`
	ArchiveName    string        `mapstructure:"archive_name"`
	InstallRoot    string        `mapstructure:"install_root"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	StrictApply    bool          `mapstructure:"strict_apply"`
	KeepWorkspace  bool          `mapstructure:"keep_workspace"`
	LogLevel       string        `mapstructure:"log_level"`
	GameProcess    string        `mapstructure:"game_process"`
	CloseGame      bool          `mapstructure:"close_game"`

	// Files lists the config files that were merged, lowest precedence
	// first.
	Files []string `mapstructure:"-"`
}

type loadSettings struct {
	workingDir    string
	userConfigDir string
	configFile    string
	overrides     map[string]any
}

// Option configures Load.
type Option func(*loadSettings)

// WithWorkingDir overrides the directory searched for FileName.
func WithWorkingDir(dir string) Option {
	return func(s *loadSettings) {
		s.workingDir = dir
	}
}

// WithUserConfigDir overrides ~/.config/amax-updater.
func WithUserConfigDir(dir string) Option {
	return func(s *loadSettings) {
		s.userConfigDir = dir
	}
}

// WithConfigFile loads exactly this file instead of searching. The file
// must exist.
func WithConfigFile(path string) Option {
	return func(s *loadSettings) {
		s.configFile = path
	}
}

// WithOverrides injects values typically coming from CLI flags. They take
// precedence over everything else.
func WithOverrides(overrides map[string]any) Option {
	return func(s *loadSettings) {
		s.overrides = overrides
	}
}

// Load resolves the configuration using the precedence:
// defaults < user config < working directory config < environment < overrides.
func Load(opts ...Option) (*Config, error) {
	s := loadSettings{}
	for _, opt := range opts {
		opt(&s)
	}

	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	files, err := configFiles(&s)
	if err != nil {
		return nil, err
	}
	var merged []string
	for _, f := range files {
		ok, err := mergeConfigFile(v, f.path, f.required)
		if err != nil {
			return nil, err
		}
		if ok {
			merged = append(merged, f.path)
		}
	}

	for k, val := range s.overrides {
		v.Set(k, val)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	cfg.Files = merged

	if cfg.InstallRoot != "" {
		root, err := homedir.Expand(cfg.InstallRoot)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, KeyInstallRoot, err)
		}
		cfg.InstallRoot = root
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: %s must be an https URL, got %q", ErrInvalid, KeyEndpoint, c.Endpoint)
	}
	if strings.TrimSpace(c.ArchiveName) == "" || strings.ContainsAny(c.ArchiveName, `/\`) {
		return fmt.Errorf("%w: %s must be a plain file name, got %q", ErrInvalid, KeyArchiveName, c.ArchiveName)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalid, KeyConnectTimeout)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalid, KeyLogLevel, err)
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Policy returns the apply policy selected by strict_apply.
func (c *Config) Policy() update.Policy {
	if c.StrictApply {
		return update.Strict
	}
	return update.BestEffort
}

type fileView struct {
	Endpoint       string `toml:"endpoint"`
	ArchiveName    string `toml:"archive_name"`
	InstallRoot    string `toml:"install_root"`
	ConnectTimeout string `toml:"connect_timeout"`
	UserAgent      string `toml:"user_agent"`
	StrictApply    bool   `toml:"strict_apply"`
	KeepWorkspace  bool   `toml:"keep_workspace"`
	LogLevel       string `toml:"log_level"`
	GameProcess    string `toml:"game_process"`
	CloseGame      bool   `toml:"close_game"`
}

// TOML renders the effective configuration in config file syntax.
func (c *Config) TOML() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	err := enc.Encode(fileView{
		Endpoint:       c.Endpoint,
		ArchiveName:    c.ArchiveName,
		InstallRoot:    c.InstallRoot,
		ConnectTimeout: c.ConnectTimeout.String(),
		UserAgent:      c.UserAgent,
		StrictApply:    c.StrictApply,
		KeepWorkspace:  c.KeepWorkspace,
		LogLevel:       c.LogLevel,
		GameProcess:    c.GameProcess,
		CloseGame:      c.CloseGame,
	})
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyEndpoint, update.DefaultEndpoint)
	v.SetDefault(KeyArchiveName, update.DefaultArchiveName)
	v.SetDefault(KeyInstallRoot, "")
	v.SetDefault(KeyConnectTimeout, update.DefaultConnectTimeout)
	v.SetDefault(KeyUserAgent, update.DefaultUserAgent)
	v.SetDefault(KeyStrictApply, false)
	v.SetDefault(KeyKeepWorkspace, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyGameProcess, DefaultGameProcess)
	v.SetDefault(KeyCloseGame, false)
}

type candidate struct {
	path     string
	required bool
}

func configFiles(s *loadSettings) ([]candidate, error) {
	if s.configFile != "" {
		path, err := homedir.Expand(s.configFile)
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", s.configFile, err)
		}
		return []candidate{{path: path, required: true}}, nil
	}

	userDir := s.userConfigDir
	if userDir == "" {
		dir, err := DefaultUserConfigDir()
		if err != nil {
			return nil, err
		}
		userDir = dir
	}

	workingDir := s.workingDir
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		workingDir = wd
	}

	return []candidate{
		{path: filepath.Join(userDir, FileName)},
		{path: filepath.Join(workingDir, FileName)},
	}, nil
}

// DefaultUserConfigDir returns ~/.config/amax-updater.
func DefaultUserConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, ".config", "amax-updater"), nil
}

func mergeConfigFile(v *viper.Viper, path string, required bool) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("config path %s is a directory", path)
	}
	//nolint:gosec // G304: reading the user's own config file
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}
