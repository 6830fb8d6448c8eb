// Package channel implements one synchronous call to the worker over
// shared temp files: write the expression, raise the flag, ring the
// doorbell, wait for the flag to vanish, decode the result.
//
// Per call the state machine is
//
//	IDLE -> REQUEST_WRITTEN -> SIGNALED -> WAITING -> (COMPLETED | WORKER_DIED)
//
// and it is fully blocking from the caller's point of view. There is
// exactly one outstanding call at a time per host process; the flag
// file is the mutual exclusion between "request pending" and "request
// consumed". There is deliberately no internal timeout: a worker that
// accepts the signal but never finishes leaves the caller blocked until
// its context is cancelled or the worker process dies, whichever the
// wait notices first.
package channel

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pgs62/juliabridge"
	"github.com/pgs62/juliabridge/codec"
	"github.com/pgs62/juliabridge/errors"
	"github.com/pgs62/juliabridge/protocol"
	"github.com/pgs62/juliabridge/supervisor"
)

// Config tunes the call channel.
type Config struct {
	// PollInterval is the fine-grained fallback sleep while waiting for
	// the flag to clear. Directory events usually end the wait sooner.
	PollInterval time.Duration

	// Decode options applied to every result.
	Decode codec.DecodeOptions
}

type Channel struct {
	log  *zap.Logger
	sup  *supervisor.Supervisor
	dec  *codec.Decoder
	poll time.Duration

	// newDoorbell is a seam for tests; production rings a process signal.
	newDoorbell func(pid int) protocol.Doorbell
}

func New(sup *supervisor.Supervisor, cfg Config, log *zap.Logger) *Channel {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 20 * time.Millisecond
	}
	return &Channel{
		log:  log,
		sup:  sup,
		dec:  codec.NewDecoderWithOptions(cfg.Decode),
		poll: cfg.PollInterval,
		newDoorbell: func(pid int) protocol.Doorbell {
			return protocol.SignalDoorbell{PID: pid}
		},
	}
}

// SetDoorbellFactory overrides doorbell construction. Tests use it to
// ring in-process workers.
func (c *Channel) SetDoorbellFactory(f func(pid int) protocol.Doorbell) {
	c.newDoorbell = f
}

// Eval sends expression text to the worker and blocks until the typed
// result comes back.
func (c *Channel) Eval(ctx context.Context, expr string) (juliabridge.Value, error) {
	h, err := c.sup.EnsureRunning(ctx)
	if err != nil {
		return juliabridge.Value{}, errors.Annotate(err, errors.PhaseCall, "Eval")
	}
	p := c.sup.Paths()

	// REQUEST_WRITTEN
	if err := p.WriteExpression(expr); err != nil {
		return juliabridge.Value{}, errors.IO(errors.PhaseCall, "Eval", p.ExpressionFile(), err)
	}
	if err := p.TouchFlag(); err != nil {
		return juliabridge.Value{}, errors.IO(errors.PhaseCall, "Eval", p.FlagFile(), err)
	}

	// SIGNALED
	if err := c.newDoorbell(h.PID).Ring(); err != nil {
		_ = p.RemoveFlag()
		c.sup.Invalidate()
		return juliabridge.Value{}, errors.New(errors.PhaseCall, errors.KindWorkerDead).
			Op("Eval").
			Detail("doorbell to worker %d failed", h.PID).
			Cause(err).
			Build()
	}
	c.log.Debug("call signaled", zap.Int("worker", h.PID), zap.Int("exprLen", len(expr)))

	// WAITING
	if err := c.awaitCompletion(ctx, h); err != nil {
		return juliabridge.Value{}, err
	}

	// COMPLETED
	text, err := p.ReadResult()
	if err != nil {
		return juliabridge.Value{}, errors.IO(errors.PhaseCall, "Eval", p.ResultFile(), err)
	}
	v, err := c.dec.Decode(text)
	if err != nil {
		return juliabridge.Value{}, errors.Annotate(err, errors.PhaseCall, "Eval")
	}
	return v, nil
}

// awaitCompletion blocks until the worker deletes the flag file. The
// flag's deletion is both necessary and sufficient to unblock; every
// wakeup also re-probes the worker so a death mid-call fails fast
// instead of hanging.
func (c *Channel) awaitCompletion(ctx context.Context, h *supervisor.Handle) error {
	p := c.sup.Paths()

	var events chan fsnotify.Event
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		if watcher.Add(p.Dir) == nil {
			events = make(chan fsnotify.Event, 16)
			go forwardRemovals(watcher, p.FlagFile(), events)
		}
	} else {
		c.log.Debug("fsnotify unavailable, falling back to polling", zap.Error(err))
	}

	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		if !p.FlagPresent() {
			return nil
		}
		if !c.sup.Alive(h) {
			// The flag is still up but no one is left to lower it.
			_ = p.RemoveFlag()
			c.sup.Invalidate()
			return errors.WorkerDead("Eval", h.PID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-events:
		case <-ticker.C:
		}
	}
}

// forwardRemovals filters watcher events down to removals (or renames)
// of the flag file. The receiver treats them purely as wakeups and
// re-checks the filesystem itself.
func forwardRemovals(w *fsnotify.Watcher, flag string, out chan<- fsnotify.Event) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Name == flag && ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
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
