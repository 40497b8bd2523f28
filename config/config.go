package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	configName = "config"
	configType = "yaml"
	envPrefix  = "GOCHORDS"

	keyNativeEnabled      = "native.enabled"
	keyNativePollInterval = "native.poll_interval"
	keyNativeScanTimeout  = "native.scan_timeout"
	keyNativeSysEx        = "native.sysex"
	keyNativeExclude      = "native.exclude"
	keyBridgeWebSocketURL = "bridge.websocket_url"
	keyBridgeSerialPort   = "bridge.serial_port"
	keyBridgeSerialBaud   = "bridge.serial_baud"
	keyUIPalette          = "ui.palette"
	keyLogPath            = "log.path"
	keyLogVerbose         = "log.verbose"
)

// NativeConfig controls the platform MIDI driver
type NativeConfig struct {
	Enabled      bool
	PollInterval time.Duration // hot-plug rescan rate
	ScanTimeout  time.Duration // CoreMIDI can hang on enumeration
	SysEx        bool
	Exclude      []string // port name patterns never listed
}

// BridgeConfig describes the host messaging channel used when no native
// driver is available. At most one of WebSocketURL / SerialPort is used,
// websocket first.
type BridgeConfig struct {
	WebSocketURL string
	SerialPort   string
	SerialBaud   int
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette string // optional GIMP .gpl palette
}

type LogConfig struct {
	Path    string
	Verbose bool
}

// Config is the main configuration structure
type Config struct {
	Native NativeConfig
	Bridge BridgeConfig
	UI     UIConfig
	Log    LogConfig

	v *viper.Viper
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-chords"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configName+"."+configType), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType(configType)

	v.SetDefault(keyNativeEnabled, true)
	v.SetDefault(keyNativePollInterval, time.Second)
	v.SetDefault(keyNativeScanTimeout, 3*time.Second)
	v.SetDefault(keyNativeSysEx, false)
	v.SetDefault(keyNativeExclude, []string{})
	v.SetDefault(keyBridgeWebSocketURL, "")
	v.SetDefault(keyBridgeSerialPort, "")
	v.SetDefault(keyBridgeSerialBaud, 31250)
	v.SetDefault(keyUIPalette, "")
	v.SetDefault(keyLogPath, "")
	v.SetDefault(keyLogVerbose, false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	c := &Config{v: newViper()}
	c.populate()
	return c
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment so they
// can override config keys (GOCHORDS_BRIDGE_WEBSOCKET_URL, ...). A missing
// file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads the config from path, or from ConfigPath when path is empty.
// A missing file yields defaults (still subject to environment overrides).
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = p
	}

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	c := &Config{v: v}
	c.populate()
	return c, nil
}

func (c *Config) populate() {
	c.Native = NativeConfig{
		Enabled:      c.v.GetBool(keyNativeEnabled),
		PollInterval: c.v.GetDuration(keyNativePollInterval),
		ScanTimeout:  c.v.GetDuration(keyNativeScanTimeout),
		SysEx:        c.v.GetBool(keyNativeSysEx),
		Exclude:      c.v.GetStringSlice(keyNativeExclude),
	}
	c.Bridge = BridgeConfig{
		WebSocketURL: c.v.GetString(keyBridgeWebSocketURL),
		SerialPort:   c.v.GetString(keyBridgeSerialPort),
		SerialBaud:   c.v.GetInt(keyBridgeSerialBaud),
	}
	c.UI = UIConfig{Palette: c.v.GetString(keyUIPalette)}
	c.Log = LogConfig{
		Path:    c.v.GetString(keyLogPath),
		Verbose: c.v.GetBool(keyLogVerbose),
	}
}

// Watch reloads the config whenever the file changes on disk and calls
// onChange with the refreshed values. Provider choice is made once at
// startup, so most changes only take effect on the next run.
func (c *Config) Watch(logger *zap.SugaredLogger, onChange func(*Config)) {
	logger = logger.Named("config")

	if _, err := os.Stat(c.v.ConfigFileUsed()); err != nil {
		logger.Debugw("Not watching config file", "error", err)
		return
	}

	c.v.OnConfigChange(func(event fsnotify.Event) {
		if event.Op&fsnotify.Write != fsnotify.Write {
			return
		}
		logger.Infow("Config file changed", "path", event.Name)
		c.populate()
		if onChange != nil {
			onChange(c)
		}
	})
	c.v.WatchConfig()
}

// Save writes the config to path (ConfigPath when empty)
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	c.v.Set(keyNativeEnabled, c.Native.Enabled)
	c.v.Set(keyNativePollInterval, c.Native.PollInterval.String())
	c.v.Set(keyNativeScanTimeout, c.Native.ScanTimeout.String())
	c.v.Set(keyNativeSysEx, c.Native.SysEx)
	c.v.Set(keyNativeExclude, c.Native.Exclude)
	c.v.Set(keyBridgeWebSocketURL, c.Bridge.WebSocketURL)
	c.v.Set(keyBridgeSerialPort, c.Bridge.SerialPort)
	c.v.Set(keyBridgeSerialBaud, c.Bridge.SerialBaud)
	c.v.Set(keyUIPalette, c.UI.Palette)
	c.v.Set(keyLogPath, c.Log.Path)
	c.v.Set(keyLogVerbose, c.Log.Verbose)

	return c.v.WriteConfigAs(path)
}
