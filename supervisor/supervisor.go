// Package supervisor owns the worker process: finding one that is
// already serving this host, launching one when there is none, and
// verifying readiness before the first call.
//
// The supervisor is a long-lived object owned by the caller. It caches
// the worker handle and the executable path as fields and invalidates
// the handle explicitly when a liveness probe proves it stale; there is
// no process-wide static state.
package supervisor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pgs62/juliabridge/errors"
	"github.com/pgs62/juliabridge/protocol"
)

// Config tunes discovery and launch.
type Config struct {
	// ExePath overrides executable location entirely. Must point at an
	// existing file whose base name is the expected executable name.
	ExePath string

	// InstallDirs are conventional installation roots scanned when the
	// executable is not on $PATH. The most recently modified julia*
	// entry wins.
	InstallDirs []string

	// StartupTimeout bounds the wait for the bootstrap flag to clear.
	StartupTimeout time.Duration

	// PollInterval is the coarse sleep between startup checks.
	PollInterval time.Duration

	// Minimized silences the worker's stdio instead of inheriting it.
	Minimized bool
}

// Handle identifies a live worker.
type Handle struct {
	Title string
	PID   int
}

type Supervisor struct {
	log   *zap.Logger
	paths protocol.Paths
	cfg   Config

	mu      sync.Mutex
	worker  *Handle
	exePath string
}

func New(paths protocol.Paths, cfg Config, log *zap.Logger) *Supervisor {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	return &Supervisor{log: log, paths: paths, cfg: cfg}
}

// Discover returns a live worker handle or nil. A banner whose process
// has exited is treated identically to no banner at all, and removed.
func (s *Supervisor) Discover() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discoverLocked()
}

func (s *Supervisor) discoverLocked() *Handle {
	if s.worker != nil {
		if protocol.Alive(s.worker.PID) {
			return s.worker
		}
		s.log.Debug("cached worker handle went stale", zap.Int("pid", s.worker.PID))
		s.worker = nil
	}

	b, err := s.paths.ReadBanner()
	if err != nil {
		return nil
	}
	if !protocol.Alive(b.PID) {
		s.log.Debug("removing stale worker banner", zap.Int("pid", b.PID))
		_ = s.paths.RemoveBanner()
		return nil
	}
	s.worker = &Handle{PID: b.PID, Title: b.Title}
	s.log.Debug("discovered worker", zap.Int("pid", b.PID), zap.String("title", b.Title))
	return s.worker
}

// Alive probes a handle without consulting the banner.
func (s *Supervisor) Alive(h *Handle) bool {
	return h != nil && protocol.Alive(h.PID)
}

// Invalidate drops the cached handle so the next Discover re-reads the
// banner.
func (s *Supervisor) Invalidate() {
	s.mu.Lock()
	s.worker = nil
	s.mu.Unlock()
}

// EnsureRunning discovers or launches a worker and returns a live handle.
func (s *Supervisor) EnsureRunning(ctx context.Context) (*Handle, error) {
	if h := s.Discover(); h != nil {
		return h, nil
	}
	if _, err := s.Launch(ctx, LaunchOptions{}); err != nil {
		return nil, err
	}
	if h := s.Discover(); h != nil {
		return h, nil
	}
	return nil, errors.NotFound(errors.PhaseDiscover, "worker banner", s.paths.BannerFile())
}

// Paths exposes the artifact namespace this supervisor manages.
func (s *Supervisor) Paths() protocol.Paths {
	return s.paths
}
