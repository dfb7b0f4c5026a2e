package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/netsettings-runner/pkg/config"
)

// sessionFlags shape the Appium session and the flow.
var sessionFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"udid"},
		Usage:   "Device name / serial written to the report header",
		EnvVars: []string{"NETSETTINGS_DEVICE"},
	},
	&cli.StringFlag{
		Name:    "platform-version",
		Usage:   "Android version capability",
		EnvVars: []string{"NETSETTINGS_PLATFORM_VERSION"},
	},
	&cli.StringFlag{
		Name:    "carrier",
		Usage:   "Carrier entry on the Internet page (default: T-Mobile)",
		EnvVars: []string{"NETSETTINGS_CARRIER"},
	},
	&cli.IntFlag{
		Name:    "timeout-ms",
		Usage:   "Per-wait timeout in ms (default: 10000)",
		EnvVars: []string{"NETSETTINGS_TIMEOUT_MS"},
	},
	&cli.IntFlag{
		Name:    "wait-for-idle-timeout",
		Usage:   "UiAutomator2 wait for device idle in ms (0 = disabled)",
		EnvVars: []string{"NETSETTINGS_WAIT_FOR_IDLE_TIMEOUT"},
	},
}

// artifactFlags control failure screenshots and the run log.
var artifactFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "screenshot-dir",
		Usage:   "Directory for failure screenshots (default: working directory)",
		EnvVars: []string{"NETSETTINGS_SCREENSHOT_DIR"},
	},
	&cli.StringFlag{
		Name:    "screenshot-pattern",
		Usage:   "Screenshot file name pattern with {timestamp} and {step}",
		EnvVars: []string{"NETSETTINGS_SCREENSHOT_PATTERN"},
	},
	&cli.StringFlag{
		Name:    "log-dir",
		Usage:   "Directory of netsettings-runner.log",
		EnvVars: []string{"NETSETTINGS_LOG_DIR"},
	},
}

// loadConfig reads config.yaml and applies flag overrides.
// Flags win over the file; the file wins over defaults.
func loadConfig(c *cli.Context, requireDevice bool) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("appium-url") {
		cfg.AppiumURL = c.String("appium-url")
	}
	if c.IsSet("report") {
		cfg.Report = c.String("report")
	}
	if c.IsSet("lock-holder") {
		cfg.LockHolders = c.StringSlice("lock-holder")
	}
	if c.IsSet("carrier") {
		cfg.Carrier = c.String("carrier")
	}
	if c.IsSet("timeout-ms") {
		cfg.TimeoutMs = c.Int("timeout-ms")
	}
	if c.IsSet("wait-for-idle-timeout") {
		v := c.Int("wait-for-idle-timeout")
		cfg.WaitForIdleTimeout = &v
	}
	if c.IsSet("screenshot-dir") {
		cfg.Artifacts.Dir = c.String("screenshot-dir")
	}
	if c.IsSet("screenshot-pattern") {
		cfg.Artifacts.Pattern = c.String("screenshot-pattern")
	}
	if c.IsSet("log-dir") {
		cfg.LogDir = c.String("log-dir")
	}

	overrides := map[string]interface{}{}
	if c.IsSet("device") {
		overrides["deviceName"] = c.String("device")
	}
	if c.IsSet("platform-version") {
		overrides["platformVersion"] = c.String("platform-version")
	}
	cfg.Capabilities = config.MergeCapabilities(cfg.Capabilities, overrides)

	cfg.ApplyDefaults()
	if !requireDevice {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
