// Package config handles configuration for netsettings-runner.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/netsettings-runner/pkg/core"
	"github.com/devicelab-dev/netsettings-runner/pkg/report"
)

// Defaults.
const (
	DefaultAppiumURL   = "http://localhost:4723"
	DefaultReportFile  = "test_results.xlsx"
	DefaultTimeoutMs   = 10000
	DefaultCarrier     = "T-Mobile"
	DefaultLogFileName = "netsettings-runner.log"
	DefaultLogDir      = "." // next to the report, like the screenshots
)

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Appium server and session
	AppiumURL    string                 `yaml:"appiumURL"`
	Capabilities map[string]interface{} `yaml:"capabilities"`

	// Report output
	Report      string   `yaml:"report"`      // Workbook path
	LockHolders []string `yaml:"lockHolders"` // Process names allowed to be killed to unlock the report
	LogDir      string   `yaml:"logDir"`      // Directory of the run log

	// Failure screenshots
	Artifacts core.ArtifactConfig `yaml:",inline"`

	// Flow settings
	TimeoutMs          int    `yaml:"timeoutMs"`          // Per-wait timeout
	Carrier            string `yaml:"carrier"`            // Carrier entry on the Internet page
	WaitForIdleTimeout *int   `yaml:"waitForIdleTimeout"` // UiAutomator2 idle wait in ms
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return empty config
	return &Config{}, nil
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.AppiumURL == "" {
		c.AppiumURL = DefaultAppiumURL
	}
	if c.Report == "" {
		c.Report = DefaultReportFile
	}
	if len(c.LockHolders) == 0 {
		c.LockHolders = append([]string(nil), report.DefaultLockHolders...)
	}
	if c.LogDir == "" {
		c.LogDir = DefaultLogDir
	}
	artifacts := core.DefaultArtifactConfig()
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = artifacts.Dir
	}
	if c.Artifacts.Pattern == "" {
		c.Artifacts.Pattern = artifacts.Pattern
	}
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = DefaultTimeoutMs
	}
	if c.Carrier == "" {
		c.Carrier = DefaultCarrier
	}
	c.Capabilities = MergeCapabilities(DefaultCapabilities(), c.Capabilities)
}

// Validate reports configuration that cannot produce a run.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.AppiumURL, "http://") && !strings.HasPrefix(c.AppiumURL, "https://") {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("appiumURL must be an http(s) URL, got %q", c.AppiumURL))
	}
	if filepath.Ext(c.Report) != ".xlsx" {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("report must be an .xlsx file, got %q", c.Report))
	}
	if _, err := core.ScreenshotName(c.Artifacts.Pattern, "validate", time.Now()); err != nil {
		return err
	}
	if DeviceName(c.Capabilities) == "" {
		return core.ErrMissingRequired.WithMessage("capabilities: deviceName or udid is required")
	}
	return nil
}

// Timeout returns the per-wait timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// LogPath returns the run log file path.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogDir, DefaultLogFileName)
}

// SessionCapabilities returns the capabilities sent to Appium, carrying
// waitForIdleTimeout as a UiAutomator2 setting when configured.
func (c *Config) SessionCapabilities() map[string]interface{} {
	caps := MergeCapabilities(c.Capabilities)
	if c.WaitForIdleTimeout == nil {
		return caps
	}
	settings := map[string]interface{}{}
	if existing, ok := caps["appium:settings"].(map[string]interface{}); ok {
		for k, v := range existing {
			settings[k] = v
		}
	}
	settings["waitForIdleTimeout"] = *c.WaitForIdleTimeout
	caps["appium:settings"] = settings
	return caps
}
