package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/devicelab-dev/netsettings-runner/pkg/core"
)

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
appiumURL: http://10.0.0.5:4723
report: results/run.xlsx
screenshotDir: shots
screenshotPattern: "{step}-{timestamp}.png"
timeoutMs: 5000
carrier: Verizon
lockHolders:
  - EXCEL
  - soffice
waitForIdleTimeout: 0
capabilities:
  platformVersion: "14"
  deviceName: "867400022047199"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AppiumURL != "http://10.0.0.5:4723" {
		t.Errorf("AppiumURL = %q", cfg.AppiumURL)
	}
	if cfg.Report != "results/run.xlsx" {
		t.Errorf("Report = %q", cfg.Report)
	}
	if cfg.Artifacts.Dir != "shots" {
		t.Errorf("Artifacts.Dir = %q, want shots", cfg.Artifacts.Dir)
	}
	if cfg.Artifacts.Pattern != "{step}-{timestamp}.png" {
		t.Errorf("Artifacts.Pattern = %q", cfg.Artifacts.Pattern)
	}
	if cfg.TimeoutMs != 5000 {
		t.Errorf("TimeoutMs = %d, want 5000", cfg.TimeoutMs)
	}
	if cfg.Carrier != "Verizon" {
		t.Errorf("Carrier = %q, want Verizon", cfg.Carrier)
	}
	if diff := cmp.Diff([]string{"EXCEL", "soffice"}, cfg.LockHolders); diff != "" {
		t.Errorf("LockHolders mismatch (-want +got):\n%s", diff)
	}
	if cfg.WaitForIdleTimeout == nil || *cfg.WaitForIdleTimeout != 0 {
		t.Errorf("WaitForIdleTimeout = %v, want 0", cfg.WaitForIdleTimeout)
	}
	if cfg.Capabilities["deviceName"] != "867400022047199" {
		t.Errorf("Capabilities = %v", cfg.Capabilities)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(configPath, []byte(`lockHolders: [invalid yaml`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir_PrefersYamlOverYml(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`carrier: A`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`carrier: B`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Carrier != "A" {
		t.Errorf("expected carrier A (from config.yaml), got %s", cfg.Carrier)
	}
}

func TestLoadFromDir_ConfigYml(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`carrier: B`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Carrier != "B" {
		t.Errorf("expected carrier B, got %s", cfg.Carrier)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AppiumURL != "" || cfg.Report != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Capabilities: map[string]interface{}{"deviceName": "emulator-5554"}}
	cfg.ApplyDefaults()

	if cfg.AppiumURL != DefaultAppiumURL {
		t.Errorf("AppiumURL = %q", cfg.AppiumURL)
	}
	if cfg.Report != DefaultReportFile {
		t.Errorf("Report = %q", cfg.Report)
	}
	if cfg.TimeoutMs != DefaultTimeoutMs {
		t.Errorf("TimeoutMs = %d", cfg.TimeoutMs)
	}
	if cfg.Carrier != DefaultCarrier {
		t.Errorf("Carrier = %q", cfg.Carrier)
	}
	if cfg.LogPath() != DefaultLogFileName {
		t.Errorf("LogPath() = %q, want %q", cfg.LogPath(), DefaultLogFileName)
	}
	if diff := cmp.Diff(core.DefaultArtifactConfig(), cfg.Artifacts); diff != "" {
		t.Errorf("Artifacts mismatch (-want +got):\n%s", diff)
	}

	want := map[string]interface{}{
		"platformName":          "Android",
		"appium:automationName": "UiAutomator2",
		"appium:appPackage":     "com.android.settings",
		"appium:appActivity":    ".Settings",
		"appium:language":       "en",
		"appium:deviceName":     "emulator-5554",
	}
	if diff := cmp.Diff(want, cfg.Capabilities); diff != "" {
		t.Errorf("Capabilities mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestApplyDefaults_KeepsConfiguredPaths(t *testing.T) {
	cfg := &Config{
		LogDir:    "/var/log/qa",
		Artifacts: core.ArtifactConfig{Dir: "shots"},
	}
	cfg.ApplyDefaults()

	if cfg.LogPath() != filepath.Join("/var/log/qa", DefaultLogFileName) {
		t.Errorf("LogPath() = %q", cfg.LogPath())
	}
	if cfg.Artifacts.Dir != "shots" || cfg.Artifacts.Pattern != core.DefaultScreenshotPattern {
		t.Errorf("Artifacts = %+v", cfg.Artifacts)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{Capabilities: map[string]interface{}{"udid": "R58M"}}
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   *core.ExecutionError
	}{
		{"bad url", func(c *Config) { c.AppiumURL = "localhost:4723" }, core.ErrInvalidConfig},
		{"bad report", func(c *Config) { c.Report = "results.csv" }, core.ErrInvalidConfig},
		{"bad pattern", func(c *Config) { c.Artifacts.Pattern = "{step/x" }, core.ErrInvalidConfig},
		{"no device", func(c *Config) { delete(c.Capabilities, "appium:udid") }, core.ErrMissingRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMergeCapabilities_LaterWins(t *testing.T) {
	got := MergeCapabilities(
		map[string]interface{}{"deviceName": "a", "platformName": "Android"},
		map[string]interface{}{"appium:deviceName": "b"},
		map[string]interface{}{"custom:flag": true},
	)
	want := map[string]interface{}{
		"appium:deviceName": "b",
		"platformName":      "Android",
		"custom:flag":       true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeCapabilities mismatch (-want +got):\n%s", diff)
	}
}

func TestDeviceName(t *testing.T) {
	tests := []struct {
		caps map[string]interface{}
		want string
	}{
		{map[string]interface{}{"appium:deviceName": "Pixel"}, "Pixel"},
		{map[string]interface{}{"appium:udid": "R58M"}, "R58M"},
		{map[string]interface{}{"deviceName": "raw"}, "raw"},
		{map[string]interface{}{}, ""},
	}
	for _, tt := range tests {
		if got := DeviceName(tt.caps); got != tt.want {
			t.Errorf("DeviceName(%v) = %q, want %q", tt.caps, got, tt.want)
		}
	}
}

func TestStringCap(t *testing.T) {
	caps := map[string]interface{}{"appium:appPackage": "com.android.settings", "platformName": "Android"}
	if got := StringCap(caps, "appPackage"); got != "com.android.settings" {
		t.Errorf("StringCap(appPackage) = %q", got)
	}
	if got := StringCap(caps, "platformName"); got != "Android" {
		t.Errorf("StringCap(platformName) = %q", got)
	}
}

func TestSessionCapabilities_WaitForIdleTimeout(t *testing.T) {
	idle := 250
	cfg := &Config{
		Capabilities: map[string]interface{}{
			"deviceName": "emulator-5554",
			"settings":   map[string]interface{}{"ignoreUnimportantViews": true},
		},
		WaitForIdleTimeout: &idle,
	}
	cfg.ApplyDefaults()

	caps := cfg.SessionCapabilities()
	want := map[string]interface{}{"ignoreUnimportantViews": true, "waitForIdleTimeout": 250}
	if diff := cmp.Diff(want, caps["appium:settings"]); diff != "" {
		t.Errorf("appium:settings mismatch (-want +got):\n%s", diff)
	}
	if _, ok := cfg.Capabilities["appium:settings"].(map[string]interface{})["waitForIdleTimeout"]; ok {
		t.Error("SessionCapabilities mutated the configured capabilities")
	}
}

func TestSessionCapabilities_Unset(t *testing.T) {
	cfg := &Config{Capabilities: map[string]interface{}{"deviceName": "emulator-5554"}}
	cfg.ApplyDefaults()

	if _, ok := cfg.SessionCapabilities()["appium:settings"]; ok {
		t.Error("appium:settings set without waitForIdleTimeout")
	}
}
