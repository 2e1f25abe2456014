package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/20after4/configdir"
	"github.com/genricoloni/synecord/internal/domain"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

const (
	appName = "synecord"

	defaultDiscordAppID  = "1454403710162698293"
	defaultAppName       = "SPlayer"
	defaultListenBaseURL = "https://music.163.com/"
	defaultSource        = "mpris"
	defaultMPDAddress    = "localhost:6600"
)

// DiscordConfig is the [Discord] table of the config file
type DiscordConfig struct {
	AppID          string
	AppName        string
	ListenBaseURL  string
	Enabled        bool
	ShowWhenPaused bool
	DisplayMode    string
}

// PlayerConfig is the [Player] table of the config file
type PlayerConfig struct {
	Source       string
	MPDAddress   string
	VerifyCovers bool
}

// File mirrors config.toml
type File struct {
	Discord DiscordConfig
	Player  PlayerConfig
}

// Overrides carries command line values; nil fields were not set on the command line.
type Overrides struct {
	ConfigPath     string
	AppID          *string
	Enabled        *bool
	ShowWhenPaused *bool
	DisplayMode    *string
	Source         *string
	MPDAddress     *string
	VerifyCovers   *bool
}

// AppConfig holds application configuration
type AppConfig struct {
	logger      *zap.Logger
	path        string
	file        File
	displayMode domain.DisplayMode
}

// DefaultFile returns the configuration used when no file exists
func DefaultFile() File {
	return File{
		Discord: DiscordConfig{
			AppID:          defaultDiscordAppID,
			AppName:        defaultAppName,
			ListenBaseURL:  defaultListenBaseURL,
			Enabled:        true,
			ShowWhenPaused: false,
			DisplayMode:    domain.DisplayName.String(),
		},
		Player: PlayerConfig{
			Source:       defaultSource,
			MPDAddress:   defaultMPDAddress,
			VerifyCovers: false,
		},
	}
}

// DefaultPath is config.toml in the platform config directory
func DefaultPath() string {
	return filepath.Join(configdir.LocalConfig(appName), "config.toml")
}

// NewAppConfig loads configuration: defaults, then the TOML file, then
// SYNECORD_* environment variables, then command line overrides.
func NewAppConfig(logger *zap.Logger, ov Overrides) (*AppConfig, error) {
	path := ov.ConfigPath
	if path == "" {
		path = os.Getenv("SYNECORD_CONFIG")
	}
	if path == "" {
		path = DefaultPath()
	}

	file, err := ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("No config file found, using defaults", zap.String("path", path))
		file = DefaultFile()
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := applyEnv(&file); err != nil {
		return nil, err
	}
	applyOverrides(&file, ov)

	mode, err := domain.ParseDisplayMode(file.Discord.DisplayMode)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if file.Player.Source != "mpris" && file.Player.Source != "mpd" {
		return nil, fmt.Errorf("invalid config: unknown player source %q", file.Player.Source)
	}

	logger.Info("Configuration loaded",
		zap.String("path", path),
		zap.String("source", file.Player.Source),
		zap.Bool("enabled", file.Discord.Enabled),
		zap.Bool("showWhenPaused", file.Discord.ShowWhenPaused),
		zap.Stringer("displayMode", mode))

	return &AppConfig{
		logger:      logger,
		path:        path,
		file:        file,
		displayMode: mode,
	}, nil
}

// ReadFile decodes a TOML config on top of the defaults
func ReadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()

	c := DefaultFile()
	if err := toml.NewDecoder(f).Decode(&c); err != nil {
		return File{}, err
	}
	return c, nil
}

// WriteDefaultFile creates a config file with default values, making parent directories
func WriteDefaultFile(path string) error {
	if err := configdir.MakePath(filepath.Dir(path)); err != nil {
		return err
	}
	b, err := toml.Marshal(DefaultFile())
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func applyEnv(f *File) error {
	strs := map[string]*string{
		"SYNECORD_DISCORD_APP_ID":  &f.Discord.AppID,
		"SYNECORD_APP_NAME":        &f.Discord.AppName,
		"SYNECORD_LISTEN_BASE_URL": &f.Discord.ListenBaseURL,
		"SYNECORD_DISPLAY_MODE":    &f.Discord.DisplayMode,
		"SYNECORD_SOURCE":          &f.Player.Source,
		"SYNECORD_MPD_ADDRESS":     &f.Player.MPDAddress,
	}
	for env, dst := range strs {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"SYNECORD_ENABLED":          &f.Discord.Enabled,
		"SYNECORD_SHOW_WHEN_PAUSED": &f.Discord.ShowWhenPaused,
		"SYNECORD_VERIFY_COVERS":    &f.Player.VerifyCovers,
	}
	for env, dst := range bools {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
		*dst = b
	}
	return nil
}

func applyOverrides(f *File, ov Overrides) {
	if ov.AppID != nil {
		f.Discord.AppID = *ov.AppID
	}
	if ov.Enabled != nil {
		f.Discord.Enabled = *ov.Enabled
	}
	if ov.ShowWhenPaused != nil {
		f.Discord.ShowWhenPaused = *ov.ShowWhenPaused
	}
	if ov.DisplayMode != nil {
		f.Discord.DisplayMode = *ov.DisplayMode
	}
	if ov.Source != nil {
		f.Player.Source = *ov.Source
	}
	if ov.MPDAddress != nil {
		f.Player.MPDAddress = *ov.MPDAddress
	}
	if ov.VerifyCovers != nil {
		f.Player.VerifyCovers = *ov.VerifyCovers
	}
}

// GetPath returns the config file that was consulted
func (c *AppConfig) GetPath() string {
	return c.path
}

// GetDiscordAppID returns the Discord application id
func (c *AppConfig) GetDiscordAppID() string {
	return c.file.Discord.AppID
}

// GetAppName returns the small icon hover text
func (c *AppConfig) GetAppName() string {
	return c.file.Discord.AppName
}

// GetListenBaseURL returns the base of the "Listen" link
func (c *AppConfig) GetListenBaseURL() string {
	return c.file.Discord.ListenBaseURL
}

// IsEnabled reports whether presence starts enabled
func (c *AppConfig) IsEnabled() bool {
	return c.file.Discord.Enabled
}

// ShowWhenPaused reports whether paused tracks stay visible
func (c *AppConfig) ShowWhenPaused() bool {
	return c.file.Discord.ShowWhenPaused
}

// GetDisplayMode returns the member-list display mode
func (c *AppConfig) GetDisplayMode() domain.DisplayMode {
	return c.displayMode
}

// GetSource returns "mpris" or "mpd"
func (c *AppConfig) GetSource() string {
	return c.file.Player.Source
}

// GetMPDAddress returns the MPD address
func (c *AppConfig) GetMPDAddress() string {
	return c.file.Player.MPDAddress
}

// VerifyCovers reports whether cover URLs are probed before use
func (c *AppConfig) VerifyCovers() bool {
	return c.file.Player.VerifyCovers
}
