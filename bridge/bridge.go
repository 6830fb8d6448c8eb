package bridge

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pgs62/juliabridge"
	"github.com/pgs62/juliabridge/channel"
	"github.com/pgs62/juliabridge/codec"
	"github.com/pgs62/juliabridge/errors"
	"github.com/pgs62/juliabridge/literal"
	"github.com/pgs62/juliabridge/protocol"
	"github.com/pgs62/juliabridge/supervisor"
)

// Bridge owns one worker relationship: a supervisor for the process and
// a channel for the calls. Safe for sequential use; overlapping calls
// from multiple goroutines are not supported by the underlying protocol.
type Bridge struct {
	log *zap.Logger
	sup *supervisor.Supervisor
	ch  *channel.Channel
	cfg Config
}

func New(cfg Config, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	paths := protocol.DefaultPaths()
	if cfg.TempDir != "" {
		paths.Dir = cfg.TempDir
	}
	sup := supervisor.New(paths, supervisor.Config{
		ExePath:        cfg.ExePath,
		InstallDirs:    cfg.InstallDirs,
		StartupTimeout: time.Duration(cfg.StartupTimeout),
		PollInterval:   time.Duration(cfg.PollInterval),
		Minimized:      cfg.Minimized,
	}, log)
	ch := channel.New(sup, channel.Config{
		PollInterval: time.Duration(cfg.PollInterval),
		Decode: codec.DecodeOptions{
			AllowNesting:      cfg.AllowNesting,
			StringLengthLimit: cfg.StringLengthLimit,
			VectorAsColumn:    cfg.VectorAsColumn,
		},
	}, log)
	return &Bridge{log: log, sup: sup, ch: ch, cfg: cfg}
}

// Paths exposes the exchange-file locations this bridge uses.
func (b *Bridge) Paths() protocol.Paths { return b.sup.Paths() }

// Launch starts the worker if none is serving and returns a
// human-readable description of what happened.
func (b *Bridge) Launch(ctx context.Context) (string, error) {
	return b.sup.Launch(ctx, supervisor.LaunchOptions{
		ExePath:   b.cfg.ExePath,
		Minimized: b.cfg.Minimized,
	})
}

// Eval sends one expression to the worker and decodes its result,
// launching the worker first if necessary.
func (b *Bridge) Eval(ctx context.Context, expr string) (juliabridge.Value, error) {
	return b.ch.Eval(ctx, expr)
}

// Call invokes fn remotely with each argument rendered as a Julia
// literal, so arbitrary worker-side functions are reachable without
// hand-building expression text.
func (b *Bridge) Call(ctx context.Context, fn string, args ...juliabridge.Value) (juliabridge.Value, error) {
	expr, err := literal.CallExpression(fn, args...)
	if err != nil {
		return juliabridge.Value{}, errors.Annotate(err, errors.PhaseCall, "Call")
	}
	return b.ch.Eval(ctx, expr)
}
