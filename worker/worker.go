// Package worker implements the serving side of the call protocol: wait
// for the flag, read the expression, evaluate, write the encoded result,
// lower the flag. The production worker is a Julia process running the
// same loop; this Go rendition powers the in-repo test worker and keeps
// the whole handshake testable in one process.
package worker

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pgs62/juliabridge"
	"github.com/pgs62/juliabridge/codec"
	"github.com/pgs62/juliabridge/errors"
	"github.com/pgs62/juliabridge/protocol"
	"github.com/pgs62/juliabridge/worker/internal/eval"
)

// Evaluator turns expression text into a Value. Evaluation failures are
// ordinary errors; Serve converts them into sentinel-prefixed string
// results because the other side's formula context cannot receive a
// raised failure.
type Evaluator interface {
	Eval(expr string) (juliabridge.Value, error)
}

// DefaultEvaluator evaluates the Julia subset the literal encoder emits:
// scalars, arithmetic, vectors, matrices, and a small set of builtins.
func DefaultEvaluator() Evaluator {
	return eval.New()
}

// Config tunes the serve loop.
type Config struct {
	// PollInterval is the fallback sleep between flag checks when
	// neither a directory event nor a doorbell signal arrives.
	PollInterval time.Duration

	// Encode options applied to every result.
	Encode codec.EncodeOptions
}

type Worker struct {
	log   *zap.Logger
	paths protocol.Paths
	eval  Evaluator
	enc   *codec.Encoder
	poll  time.Duration
}

func New(paths protocol.Paths, ev Evaluator, cfg Config, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	if ev == nil {
		ev = DefaultEvaluator()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 20 * time.Millisecond
	}
	return &Worker{
		log:   log,
		paths: paths,
		eval:  ev,
		enc:   codec.NewEncoderWithOptions(cfg.Encode),
		poll:  cfg.PollInterval,
	}
}

// Serve registers this process as the host's worker and loops until ctx
// is cancelled. Registering clears any pending startup flag, completing
// the launch handshake.
func (w *Worker) Serve(ctx context.Context) error {
	p := w.paths

	// The doorbell handler must be in place before the banner makes this
	// process discoverable; a ring before Notify would hit the signal's
	// default action.
	doorbell := make(chan os.Signal, 1)
	signal.Notify(doorbell, protocol.WakeSignal)
	defer signal.Stop(doorbell)

	if err := p.WriteBanner(os.Getpid()); err != nil {
		return errors.IO(errors.PhaseServe, "Serve", p.BannerFile(), err)
	}
	defer func() { _ = p.RemoveBanner() }()

	w.log.Info("worker serving",
		zap.Int("hostPID", p.HostPID), zap.Int("workerPID", os.Getpid()))

	// The startup flag, when present, was raised by the launcher; it
	// must fall only after the banner exists.
	if err := p.RemoveFlag(); err != nil {
		return errors.IO(errors.PhaseServe, "Serve", p.FlagFile(), err)
	}

	var events chan fsnotify.Event
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		if watcher.Add(p.Dir) == nil {
			events = make(chan fsnotify.Event, 16)
			go forwardCreations(watcher, p.FlagFile(), events)
		}
	} else {
		w.log.Debug("fsnotify unavailable, serving on poll alone", zap.Error(err))
	}

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		if p.FlagPresent() {
			w.handleRequest()
		}
		select {
		case <-ctx.Done():
			w.log.Info("worker stopping", zap.Int("hostPID", p.HostPID))
			return ctx.Err()
		case <-doorbell:
		case <-events:
		case <-ticker.C:
		}
	}
}

// handleRequest services exactly one pending call. The result file must
// be complete before the flag falls; flag deletion is what unblocks the
// caller.
func (w *Worker) handleRequest() {
	p := w.paths
	expr, err := p.ReadExpression()

	var v juliabridge.Value
	if err == nil {
		v, err = w.eval.Eval(expr)
	}
	if err != nil {
		// Failures cross the boundary as data: a string carrying the
		// error sentinel, never a missing result.
		v = juliabridge.String("#" + err.Error() + "!")
	}

	encoded, err := w.enc.Encode(v)
	if err != nil {
		encoded, _ = w.enc.Encode(juliabridge.String("#" + err.Error() + "!"))
	}
	if err := p.WriteResult(encoded); err != nil {
		w.log.Error("write result failed", zap.Error(err))
		return
	}
	if err := p.RemoveFlag(); err != nil {
		w.log.Error("lower flag failed", zap.Error(err))
	}
}

func forwardCreations(w *fsnotify.Watcher, flag string, out chan<- fsnotify.Event) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Name == flag && ev.Op&fsnotify.Create != 0 {
				select {
				case out <- ev:
				default:
				}
			}
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}
