package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
)

// ProcessLauncher runs the monitor as a separate process per region,
// `<executable> monitor --region_name=<region>`, and keeps the handles.
type ProcessLauncher struct {
	// Path is the executable. Defaults to the running binary.
	Path string

	// Args precede the region argument. Defaults to ["monitor"].
	Args []string

	// Env is appended to the inherited environment.
	Env []string

	Logger *slog.Logger

	mu    sync.Mutex
	procs map[string]*process
}

type process struct {
	cmd  *exec.Cmd
	done chan struct{}
}

// Launch spawns a monitor process for region unless one started by this
// launcher is still running. The region argument is omitted when region
// is empty.
func (l *ProcessLauncher) Launch(_ context.Context, region string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.procs[region]; ok {
		select {
		case <-p.done:
		default:
			return nil
		}
	}

	path := l.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolve executable: %w", err)
		}
		path = exe
	}

	// Not tied to the request context: the monitor outlives the task.
	cmd := exec.Command(path, l.args(region)...)
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn monitor: %w", err)
	}

	p := &process{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		close(p.done)
		l.logger().Debug("monitor process exited", "region", region, "pid", cmd.Process.Pid, "error", err)
	}()

	if l.procs == nil {
		l.procs = make(map[string]*process)
	}
	l.procs[region] = p
	l.logger().Info("monitor process started", "region", region, "pid", cmd.Process.Pid)
	return nil
}

func (l *ProcessLauncher) args(region string) []string {
	args := append([]string(nil), l.Args...)
	if len(args) == 0 {
		args = []string{"monitor"}
	}
	if region != "" {
		args = append(args, "--region_name="+region)
	}
	return args
}

// Running reports whether the launcher holds a live process for region.
func (l *ProcessLauncher) Running(region string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.procs[region]
	if !ok {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Stop kills every retained process and waits for them to exit.
func (l *ProcessLauncher) Stop() error {
	l.mu.Lock()
	procs := l.procs
	l.procs = nil
	l.mu.Unlock()

	var errs []error
	for region, p := range procs {
		select {
		case <-p.done:
			continue
		default:
		}
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			errs = append(errs, fmt.Errorf("kill monitor for region %q: %w", region, err))
			continue
		}
		<-p.done
	}
	return errors.Join(errs...)
}

func (l *ProcessLauncher) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.Logger
}
