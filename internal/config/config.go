// Package config loads lprintd's TOML configuration file from a
// platform-appropriate search path, with an explicit environment override,
// and exposes the configured printer list and daemon-wide settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
)

// PrinterConfig describes one statically configured printer: its device
// URI, the vendor driver that should own it, and per-printer overrides of
// the driver's defaults.
type PrinterConfig struct {
	Name              string `toml:"name"`
	DeviceURI         string `toml:"device_uri"`
	Driver            string `toml:"driver"`
	DarknessConfigured int   `toml:"darkness_configured"`
	TearOffset        int    `toml:"tear_offset"`
	MinFirmwareVersion string `toml:"min_firmware_version,omitempty"`
}

// Config is the top-level TOML document.
type Config struct {
	LogLevel  string          `toml:"log_level"`
	LogDir    string          `toml:"log_dir"`
	SpoolDir  string          `toml:"spool_dir"`
	StorePath string          `toml:"store_path"`
	Printers  []PrinterConfig `toml:"printer"`
}

const component = "lprintd"

// Default returns a Config with sensible fallbacks for every field,
// suitable when no config file is found.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogDir:    "logs",
		SpoolDir:  filepath.Join(os.TempDir(), fmt.Sprintf("lprint%d.d", os.Getuid())),
		StorePath: "lprintd.db",
	}
}

// Load finds and parses the config file, falling back to Default() if none
// is found. LPRINTD_CONFIG, if set, is tried first and its absence is an
// error rather than silently falling through to the search path.
func Load() (*Config, string, error) {
	if explicit := os.Getenv("LPRINTD_CONFIG"); explicit != "" {
		cfg := Default()
		if _, err := toml.DecodeFile(explicit, cfg); err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", explicit, err)
		}
		if err := cfg.validate(); err != nil {
			return nil, "", fmt.Errorf("validating %s: %w", explicit, err)
		}
		return cfg, explicit, nil
	}

	for _, path := range SearchPaths("lprintd.toml") {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg := Default()
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", path, err)
		}
		if err := cfg.validate(); err != nil {
			return nil, "", fmt.Errorf("validating %s: %w", path, err)
		}
		return cfg, path, nil
	}

	return Default(), "", nil
}

// validate rejects a configuration whose declared minimum-firmware
// constraints aren't valid semantic versions; with a malformed constraint
// FirmwareSatisfies would report false for every firmware version.
func (c *Config) validate() error {
	for _, p := range c.Printers {
		if p.MinFirmwareVersion == "" {
			continue
		}
		if _, err := semver.NewVersion(p.MinFirmwareVersion); err != nil {
			return fmt.Errorf("printer %q: invalid min_firmware_version %q: %w", p.Name, p.MinFirmwareVersion, err)
		}
	}
	return nil
}

// FirmwareSatisfies reports whether a printer's reported firmware version
// string meets its configured minimum, per Masterminds/semver comparison.
// A printer with no configured minimum always satisfies.
func (p PrinterConfig) FirmwareSatisfies(reported string) bool {
	if p.MinFirmwareVersion == "" {
		return true
	}
	min, err := semver.NewVersion(p.MinFirmwareVersion)
	if err != nil {
		return false
	}
	got, err := semver.NewVersion(reported)
	if err != nil {
		return false
	}
	return !got.LessThan(min)
}

// SearchPaths returns the ordered, platform-appropriate list of places
// lprintd looks for filename: a system directory, a user config directory,
// the directory holding the running executable, then the working
// directory.
func SearchPaths(filename string) []string {
	var paths []string

	switch runtime.GOOS {
	case "windows":
		paths = append(paths, filepath.Join(os.Getenv("ProgramData"), "lprintd", filename))
	case "darwin":
		paths = append(paths, filepath.Join("/Library/Application Support", "lprintd", filename))
	default:
		paths = append(paths, filepath.Join("/etc", component, filename))
	}

	if home, err := os.UserHomeDir(); err == nil {
		switch runtime.GOOS {
		case "windows":
			paths = append(paths, filepath.Join(home, "AppData", "Local", "lprintd", filename))
		case "darwin":
			paths = append(paths, filepath.Join(home, "Library", "Application Support", "lprintd", filename))
		default:
			paths = append(paths, filepath.Join(home, ".config", component, filename))
		}
	}

	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), filename))
	}

	paths = append(paths, filepath.Join(".", filename))

	return paths
}

// DataDirectory returns the directory lprintd should store its SQLite
// store and spool files in when running as a service vs. interactively.
func DataDirectory(isService bool) (string, error) {
	var dir string
	if isService {
		switch runtime.GOOS {
		case "windows":
			dir = filepath.Join(os.Getenv("ProgramData"), "lprintd")
		default:
			dir = filepath.Join("/var/lib", component)
		}
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		switch runtime.GOOS {
		case "windows":
			dir = filepath.Join(home, "AppData", "Local", "lprintd")
		case "darwin":
			dir = filepath.Join(home, "Library", "Application Support", "lprintd")
		default:
			dir = filepath.Join(home, ".local", "share", component)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return dir, nil
}
