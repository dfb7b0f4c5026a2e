package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/devicelab-dev/netsettings-runner/pkg/core"
	"github.com/devicelab-dev/netsettings-runner/pkg/executor"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Slow step threshold
const slowThreshold = 5 * time.Second

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

// console prints live progress.
type console struct {
	w io.Writer
}

func newConsole(w io.Writer) *console {
	if w == nil {
		w = os.Stdout
	}
	return &console{w: w}
}

func (o *console) header(device, reportPath string) {
	fmt.Fprintf(o.w, "\n  %snetsettings-runner %s%s\n", color(colorBold), Version, color(colorReset))
	fmt.Fprintf(o.w, "  device: %s   report: %s\n", device, reportPath)
	fmt.Fprintln(o.w, strings.Repeat("─", 60))
}

func (o *console) info(format string, v ...interface{}) {
	fmt.Fprintf(o.w, "  %s•%s %s\n", color(colorCyan), color(colorReset), fmt.Sprintf(format, v...))
}

func (o *console) warn(format string, v ...interface{}) {
	fmt.Fprintf(o.w, "  %s⚠%s %s\n", color(colorYellow), color(colorReset), fmt.Sprintf(format, v...))
}

func (o *console) stepStart(idx, total int, name string) {
	fmt.Fprintf(o.w, "  %s[%d/%d]%s %s\n", color(colorCyan), idx+1, total, color(colorReset), name)
}

func (o *console) stepComplete(r core.StepResult) {
	durStr := formatDuration(r.Duration)

	if r.Status == core.StatusPassed {
		symbol := "✓"
		symbolColor := color(colorGreen)
		durColor := ""
		if r.Duration >= slowThreshold {
			durColor = color(colorYellow)
			symbol = "⚠"
			symbolColor = color(colorYellow)
		}
		fmt.Fprintf(o.w, "    %s%s%s %s: %s %s(%s)%s\n",
			symbolColor, symbol, color(colorReset), r.Description, r.Value, durColor, durStr, color(colorReset))
	} else {
		fmt.Fprintf(o.w, "    %s✗%s %s (%s)\n", color(colorRed), color(colorReset), r.Description, durStr)
		if r.Error != "" {
			fmt.Fprintf(o.w, "      %s╰─%s %s\n", color(colorGray), color(colorReset), r.Error)
		}
		if r.Screenshot != "" {
			fmt.Fprintf(o.w, "      %s╰─%s screenshot: %s\n", color(colorGray), color(colorReset), r.Screenshot)
		}
	}
	if r.ReportError != "" {
		fmt.Fprintf(o.w, "      %s⚠%s row not saved: %s\n", color(colorYellow), color(colorReset), r.ReportError)
	}
}

func (o *console) summary(result *executor.RunResult, reportPath string) {
	fmt.Fprintln(o.w)
	if result.PassedSteps > 0 {
		fmt.Fprintf(o.w, "  %s%d steps passing%s (%s)\n", color(colorGreen), result.PassedSteps, color(colorReset), formatDuration(result.Duration))
	}
	if result.FailedSteps > 0 {
		fmt.Fprintf(o.w, "  %s%d steps failing%s\n", color(colorRed), result.FailedSteps, color(colorReset))
	}
	if result.ReportFailures > 0 {
		fmt.Fprintf(o.w, "  %s%d rows not saved%s\n", color(colorYellow), result.ReportFailures, color(colorReset))
	}
	fmt.Fprintf(o.w, "  report: %s\n\n", reportPath)
}

func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
