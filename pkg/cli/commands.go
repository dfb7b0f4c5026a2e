package cli

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/urfave/cli/v2"
)

var releaseLockCommand = &cli.Command{
	Name:  "release-lock",
	Usage: "Close processes holding the report workbook open",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c, false)
		if err != nil {
			return err
		}
		pids, err := lockReleaser(c.Context, cfg.Report, cfg.LockHolders)
		if err != nil {
			return fmt.Errorf("release lock on %s: %w", cfg.Report, err)
		}
		out := newConsole(c.App.Writer)
		if len(pids) == 0 {
			out.info("no process holds %s", cfg.Report)
			return nil
		}
		for _, pid := range pids {
			out.info("closed pid %d", pid)
		}
		return nil
	},
}

var capsCommand = &cli.Command{
	Name:  "caps",
	Usage: "Print the capabilities sent to Appium as JSON",
	Flags: sessionFlags,
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c, false)
		if err != nil {
			return err
		}
		data, err := sonic.ConfigStd.MarshalIndent(cfg.SessionCapabilities(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, string(data))
		return nil
	},
}
