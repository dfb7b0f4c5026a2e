package report

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/devicelab-dev/netsettings-runner/pkg/logger"
)

// DefaultLockHolders are the process names that keep a workbook locked.
var DefaultLockHolders = []string{"EXCEL"}

// Process is the subset of a running process the releaser needs.
type Process interface {
	Pid() int32
	Name(ctx context.Context) (string, error)
	OpenFiles(ctx context.Context) ([]string, error)
	Terminate(ctx context.Context) error
	IsRunning(ctx context.Context) (bool, error)
}

// ProcessLister enumerates running processes.
type ProcessLister func(ctx context.Context) ([]Process, error)

// LockReleaser terminates processes holding a workbook open.
type LockReleaser struct {
	Holders      []string
	List         ProcessLister
	WaitTimeout  time.Duration
	PollInterval time.Duration
}

// ReleaseLock terminates every holder process that has path open and waits
// for it to exit. Returns the pids that were terminated.
func ReleaseLock(ctx context.Context, path string, holders []string) ([]int32, error) {
	r := &LockReleaser{Holders: holders}
	return r.Release(ctx, path)
}

// Release terminates holders of path. Processes that vanish or deny access
// are skipped.
func (r *LockReleaser) Release(ctx context.Context, path string) ([]int32, error) {
	holders := r.Holders
	if len(holders) == 0 {
		holders = DefaultLockHolders
	}
	list := r.List
	if list == nil {
		list = systemProcesses
	}

	procs, err := list(ctx)
	if err != nil {
		return nil, err
	}

	target := filepath.Base(path)
	var killed []int32
	for _, p := range procs {
		if ctx.Err() != nil {
			return killed, ctx.Err()
		}
		name, err := p.Name(ctx)
		if err != nil || !matchesHolder(name, holders) {
			continue
		}
		files, err := p.OpenFiles(ctx)
		if err != nil || !holdsFile(files, target) {
			continue
		}

		logger.Info("terminating %s (pid %d) holding %s", name, p.Pid(), path)
		if err := p.Terminate(ctx); err != nil {
			logger.Warn("terminate pid %d: %v", p.Pid(), err)
			continue
		}
		if err := r.waitExit(ctx, p); err != nil {
			logger.Warn("pid %d still running: %v", p.Pid(), err)
			continue
		}
		killed = append(killed, p.Pid())
	}
	return killed, nil
}

var errStillRunning = errors.New("process still running")

func (r *LockReleaser) waitExit(ctx context.Context, p Process) error {
	timeout := r.WaitTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	interval := r.PollInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return backoff.Retry(func() error {
		running, err := p.IsRunning(waitCtx)
		if err != nil || !running {
			return nil
		}
		return errStillRunning
	}, backoff.WithContext(backoff.NewConstantBackOff(interval), waitCtx))
}

func matchesHolder(name string, holders []string) bool {
	upper := strings.ToUpper(name)
	for _, h := range holders {
		if h != "" && strings.Contains(upper, strings.ToUpper(h)) {
			return true
		}
	}
	return false
}

func holdsFile(files []string, target string) bool {
	for _, f := range files {
		if strings.Contains(f, target) {
			return true
		}
	}
	return false
}

// systemProcess adapts a gopsutil process.
type systemProcess struct {
	p *process.Process
}

func (s systemProcess) Pid() int32 { return s.p.Pid }

func (s systemProcess) Name(ctx context.Context) (string, error) {
	return s.p.NameWithContext(ctx)
}

func (s systemProcess) OpenFiles(ctx context.Context) ([]string, error) {
	stats, err := s.p.OpenFilesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(stats))
	for _, st := range stats {
		paths = append(paths, st.Path)
	}
	return paths, nil
}

func (s systemProcess) Terminate(ctx context.Context) error {
	return s.p.TerminateWithContext(ctx)
}

func (s systemProcess) IsRunning(ctx context.Context) (bool, error) {
	return s.p.IsRunningWithContext(ctx)
}

func systemProcesses(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		out = append(out, systemProcess{p: p})
	}
	return out, nil
}
