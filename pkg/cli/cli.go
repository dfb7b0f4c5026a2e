// Package cli provides the command-line interface for netsettings-runner.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// Exit codes.
const (
	exitSetupError  = 1 // config, report or session could not be set up
	exitStepsFailed = 2 // the run completed with at least one FAIL row
)

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to config.yaml (default: ./config.yaml if present)",
		EnvVars: []string{"NETSETTINGS_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "appium-url",
		Usage:   "Appium server URL",
		EnvVars: []string{"APPIUM_URL"},
	},
	&cli.StringFlag{
		Name:    "report",
		Aliases: []string{"o"},
		Usage:   "Workbook path (default: test_results.xlsx)",
		EnvVars: []string{"NETSETTINGS_REPORT"},
	},
	&cli.StringSliceFlag{
		Name:    "lock-holder",
		Usage:   "Process name allowed to be closed to unlock the report (repeatable, default: EXCEL)",
		EnvVars: []string{"NETSETTINGS_LOCK_HOLDERS"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Mirror the run log to stderr with debug detail",
		EnvVars: []string{"NETSETTINGS_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "netsettings-runner",
		Usage:   "Android Network & internet settings check over Appium",
		Version: Version,
		Description: `netsettings-runner drives the Android Settings app through Appium
(UiAutomator2), checks the Network & internet pages, reads data usage and
toggles roaming. Every step is written as one row of an xlsx workbook that
accumulates across runs.

Examples:
  netsettings-runner run --device 867400022047199
  netsettings-runner --report out/results.xlsx run --carrier Verizon
  netsettings-runner release-lock
  netsettings-runner caps --device emulator-5554`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			releaseLockCommand,
			capsCommand,
		},
		DefaultCommand: runCommand.Name,
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitSetupError)
	}
}
