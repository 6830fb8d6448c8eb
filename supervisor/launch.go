package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pgs62/juliabridge/errors"
	"github.com/pgs62/juliabridge/protocol"
)

// exeName is the expected base name of the worker executable.
const exeName = "julia"

// LaunchOptions tune a single Launch call; zero values defer to Config.
type LaunchOptions struct {
	ExePath   string
	Minimized bool
}

// Launch starts a worker for this host and blocks until its bootstrap
// completes or fails. Launching when a worker is already discoverable is
// a no-op that reports the existing worker's title.
func (s *Supervisor) Launch(ctx context.Context, opts LaunchOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h := s.discoverLocked(); h != nil {
		return "already running: " + h.Title, nil
	}

	exe, err := s.locateExecutableLocked(opts.ExePath)
	if err != nil {
		return "", err
	}

	p := s.paths
	if err := os.WriteFile(p.StartupScript(), []byte(bootstrapScript(p)), 0o644); err != nil {
		return "", errors.IO(errors.PhaseLaunch, "Launch", p.StartupScript(), err)
	}
	// A LoadError from an earlier failed launch must not be mistaken for
	// this one's.
	_ = os.Remove(p.LoadErrorFile())
	if err := p.TouchFlag(); err != nil {
		return "", errors.IO(errors.PhaseLaunch, "Launch", p.FlagFile(), err)
	}

	cmd := exec.Command(exe, "--startup-file=no", p.StartupScript())
	// Detached from the host: the worker outlives this call and is never
	// killed by ctx.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if opts.Minimized || s.cfg.Minimized {
		cmd.Stdout = nil
		cmd.Stderr = nil
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		_ = p.RemoveFlag()
		return "", errors.New(errors.PhaseLaunch, errors.KindIO).
			Op("Launch").
			Detail("start %s", exe).
			Cause(err).
			Build()
	}
	s.log.Info("started worker process",
		zap.String("exe", exe), zap.Int("pid", cmd.Process.Pid))
	_ = cmd.Process.Release()

	if err := s.awaitBootstrap(ctx); err != nil {
		return "", err
	}

	// The serve loop registers its banner around the time the flag
	// clears; allow it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if h := s.discoverLocked(); h != nil {
			return "launched: " + h.Title, nil
		}
		if time.Now().After(deadline) {
			return "launched: worker ready (banner pending)", nil
		}
		time.Sleep(s.cfg.PollInterval / 4)
	}
}

// awaitBootstrap blocks until the startup flag clears, the worker leaves
// a LoadError artifact, or the startup timeout passes. Coarse poll: a
// worker boot takes seconds, not milliseconds.
func (s *Supervisor) awaitBootstrap(ctx context.Context) error {
	p := s.paths
	deadline := time.Now().Add(s.cfg.StartupTimeout)
	for {
		if text, ok := p.ReadLoadError(); ok {
			return errors.StartupFailed(text)
		}
		if !p.FlagPresent() {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New(errors.PhaseLaunch, errors.KindStartupFailed).
				Op("awaitBootstrap").
				Detail("worker did not become ready within %s", s.cfg.StartupTimeout).
				Build()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.PollInterval):
		}
	}
}

func (s *Supervisor) locateExecutableLocked(override string) (string, error) {
	if override == "" {
		override = s.cfg.ExePath
	}
	if override != "" {
		if filepath.Base(override) != exeName {
			return "", errors.New(errors.PhaseLaunch, errors.KindInvalidData).
				Op("locateExecutable").
				Detail("%q does not end in the expected executable name %q", override, exeName).
				Build()
		}
		if _, err := os.Stat(override); err != nil {
			return "", errors.New(errors.PhaseLaunch, errors.KindNotFound).
				Op("locateExecutable").
				Detail("%q does not exist", override).
				Cause(err).
				Build()
		}
		return override, nil
	}

	if s.exePath != "" {
		if _, err := os.Stat(s.exePath); err == nil {
			return s.exePath, nil
		}
		s.exePath = ""
	}

	if path, err := exec.LookPath(exeName); err == nil {
		s.exePath = path
		return path, nil
	}

	path, err := scanInstallDirs(s.cfg.InstallDirs)
	if err != nil {
		return "", err
	}
	s.exePath = path
	s.log.Debug("located worker executable by install-dir scan", zap.String("path", path))
	return path, nil
}

// scanInstallDirs walks conventional installation roots and picks the
// most recently modified julia* entry that yields an executable.
func scanInstallDirs(dirs []string) (string, error) {
	var (
		best     string
		bestTime time.Time
	)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !strings.HasPrefix(e.Name(), exeName) {
				continue
			}
			candidate := filepath.Join(dir, e.Name())
			if e.IsDir() {
				candidate = filepath.Join(candidate, "bin", exeName)
			}
			fi, err := os.Stat(candidate)
			if err != nil || fi.IsDir() {
				continue
			}
			entryInfo, err := e.Info()
			if err != nil {
				continue
			}
			if entryInfo.ModTime().After(bestTime) {
				best = candidate
				bestTime = entryInfo.ModTime()
			}
		}
	}
	if best == "" {
		return "", errors.NotFound(errors.PhaseLaunch, "worker executable", exeName)
	}
	return best, nil
}

// bootstrapScript renders the .jl the worker runs on start. On a clean
// load it removes the startup flag and enters the serve loop; on failure
// it writes the LoadError artifact, removes the flag and exits nonzero.
func bootstrapScript(p protocol.Paths) string {
	return fmt.Sprintf(`# Written by juliabridge on the host side. Executed once at worker startup.
try
    @eval using JuliaBridge
    rm(raw"%s"; force=true)
    JuliaBridge.serve(%d, raw"%s")
catch e
    open(raw"%s", "w") do io
        showerror(io, e, catch_backtrace())
    end
    rm(raw"%s"; force=true)
    exit(1)
end
`, p.FlagFile(), p.HostPID, p.Dir, p.LoadErrorFile(), p.FlagFile())
}
