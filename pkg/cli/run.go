package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/netsettings-runner/pkg/config"
	"github.com/devicelab-dev/netsettings-runner/pkg/core"
	"github.com/devicelab-dev/netsettings-runner/pkg/driver/appium"
	"github.com/devicelab-dev/netsettings-runner/pkg/executor"
	"github.com/devicelab-dev/netsettings-runner/pkg/logger"
	"github.com/devicelab-dev/netsettings-runner/pkg/netsettings"
	"github.com/devicelab-dev/netsettings-runner/pkg/report"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run the Network & internet checks on a device",
	Description: `Opens an Appium session, runs the five settings checks and appends
one row per check to the report workbook.

Exit status: 0 when every check passed, 2 when any check failed,
1 when the run could not be set up.

Examples:
  netsettings-runner run --device 867400022047199 --platform-version 14
  netsettings-runner run --carrier Verizon --screenshot-dir shots`,
	Flags: append(append([]cli.Flag{
		&cli.BoolFlag{
			Name:  "skip-lock-release",
			Usage: "Do not close processes holding the report open",
		},
	}, sessionFlags...), artifactFlags...),
	Action: runChecks,
}

// sessionDriver is a core.Driver bound to a session that must be closed.
type sessionDriver interface {
	core.Driver
	Close() error
}

// newDriver opens the Appium session. Replaced in tests.
var newDriver = func(ctx context.Context, serverURL string, caps map[string]interface{}, opts appium.Options) (sessionDriver, error) {
	d, err := appium.NewDriver(ctx, serverURL, caps, opts)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// lockReleaser frees the report before it is opened. Replaced in tests.
var lockReleaser = func(ctx context.Context, path string, holders []string) ([]int32, error) {
	return report.ReleaseLock(ctx, path, holders)
}

// RunConfig holds everything one run needs.
type RunConfig struct {
	Config          *config.Config
	RunID           string
	Verbose         bool
	SkipLockRelease bool
}

func runChecks(c *cli.Context) error {
	cfg, err := loadConfig(c, true)
	if err != nil {
		return err
	}

	rc := &RunConfig{
		Config:          cfg,
		RunID:           uuid.NewString(),
		Verbose:         c.Bool("verbose"),
		SkipLockRelease: c.Bool("skip-lock-release"),
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := executeRun(ctx, rc, newConsole(c.App.Writer))
	if err != nil {
		return err
	}
	if !result.Success() {
		return cli.Exit("", exitStepsFailed)
	}
	return nil
}

// executeRun performs one full run: log, lock release, report, session, flow.
func executeRun(ctx context.Context, rc *RunConfig, out *console) (*executor.RunResult, error) {
	cfg := rc.Config

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := logger.Init(cfg.LogPath(), logger.Options{
		Console: rc.Verbose,
		Debug:   rc.Verbose,
		RunID:   rc.RunID,
	}); err != nil {
		return nil, err
	}
	defer logger.Close()

	deviceName := config.DeviceName(cfg.Capabilities)
	logger.Info("=== Run %s started ===", rc.RunID)
	logger.Info("Appium: %s, device: %s, report: %s", cfg.AppiumURL, deviceName, cfg.Report)

	out.header(deviceName, cfg.Report)

	if !rc.SkipLockRelease {
		pids, err := lockReleaser(ctx, cfg.Report, cfg.LockHolders)
		if err != nil {
			logger.Warn("lock release: %v", err)
			out.warn("could not check report lock: %v", err)
		}
		if len(pids) > 0 {
			out.info("closed %d process(es) holding %s", len(pids), cfg.Report)
		}
	}

	if err := os.MkdirAll(cfg.Artifacts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot directory: %w", err)
	}

	wb, err := report.Open(cfg.Report, report.Header{
		DeviceName: deviceName,
		RunID:      rc.RunID,
		StartTime:  time.Now(),
	})
	if err != nil {
		logger.Error("open report: %v", err)
		return nil, err
	}
	defer wb.Close()
	if wb.Created() {
		out.info("created report %s", cfg.Report)
	} else {
		out.info("appending to report %s", cfg.Report)
	}

	out.info("connecting to %s", cfg.AppiumURL)
	drv, err := newDriver(ctx, cfg.AppiumURL, cfg.SessionCapabilities(), appium.Options{FindTimeout: cfg.Timeout()})
	if err != nil {
		logger.Error("session setup failed: %v", err)
		return nil, err
	}
	defer func() {
		if err := drv.Close(); err != nil {
			logger.Warn("close session: %v", err)
		}
	}()

	runner := executor.New(drv, executor.RunnerConfig{
		Artifacts:      cfg.Artifacts,
		Recorder:       wb,
		RunID:          rc.RunID,
		OnStepStart:    out.stepStart,
		OnStepComplete: out.stepComplete,
	})

	f := netsettings.Flow(netsettings.Options{
		Carrier: cfg.Carrier,
		AppID:   config.StringCap(cfg.Capabilities, "appPackage"),
	})
	result, err := runner.Run(ctx, f)
	if err != nil {
		return nil, err
	}

	logger.Info("Run finished: %d passed, %d failed, %d row write failures",
		result.PassedSteps, result.FailedSteps, result.ReportFailures)
	out.summary(result, cfg.Report)
	return result, nil
}
