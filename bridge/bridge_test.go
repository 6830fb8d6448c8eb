package bridge

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pgs62/juliabridge"
	"github.com/pgs62/juliabridge/worker"
)

// liveBridge pairs a Bridge with an in-process worker serving the same
// exchange directory, so calls complete without a Julia installation.
func liveBridge(t *testing.T, cfg Config) *Bridge {
	t.Helper()
	cfg.TempDir = t.TempDir()
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(5 * time.Millisecond)
	}
	b := New(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	w := worker.New(b.Paths(), nil, worker.Config{PollInterval: 5 * time.Millisecond}, nil)
	go func() { _ = w.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := b.Paths().ReadBanner(); err == nil {
			return b
		}
		if time.Now().After(deadline) {
			t.Fatal("in-process worker never registered")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBridge_Eval(t *testing.T) {
	b := liveBridge(t, DefaultConfig())
	v, err := b.Eval(context.Background(), "2^10")
	if err != nil {
		t.Fatal(err)
	}
	if !v.Equal(juliabridge.Int64(1024)) {
		t.Fatalf("got %v, want 1024", v)
	}
}

func TestBridge_Call(t *testing.T) {
	b := liveBridge(t, DefaultConfig())
	arg, err := juliabridge.Vector([]juliabridge.Value{
		juliabridge.Int64(1), juliabridge.Int64(2), juliabridge.Int64(3),
	})
	if err != nil {
		t.Fatal(err)
	}
	v, err := b.Call(context.Background(), "sum", arg)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Equal(juliabridge.Int64(6)) {
		t.Fatalf("got %v, want 6", v)
	}
}

func TestBridge_DecodeOptionsFlowThrough(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VectorAsColumn = true
	b := liveBridge(t, cfg)
	v, err := b.Eval(context.Background(), "Int64[1,2,3]")
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Dims) != 2 || v.Dims[0] != 3 || v.Dims[1] != 1 {
		t.Fatalf("dims = %v, want [3 1]", v.Dims)
	}
}

func TestEvalResult_WorkerFailureBecomesSentinel(t *testing.T) {
	b := liveBridge(t, DefaultConfig())
	r := b.EvalResult(context.Background(), "frobnicate(1)")
	if !r.Failed() {
		t.Fatalf("expected a failed result, got %v", r.Value)
	}
	if !strings.HasPrefix(r.ErrText, "#") || !strings.HasSuffix(r.ErrText, "!") {
		t.Fatalf("ErrText %q lacks sentinel framing", r.ErrText)
	}
	if !strings.Contains(r.ErrText, "frobnicate") {
		t.Fatalf("ErrText %q does not name the failing call", r.ErrText)
	}
}

func TestCallResult_BadArgumentBecomesSentinel(t *testing.T) {
	b := liveBridge(t, DefaultConfig())
	// Error codes have no Julia literal form, so the failure is local.
	r := b.CallResult(context.Background(), "identity", juliabridge.ErrorCode(2023))
	if !r.Failed() {
		t.Fatal("expected a failed result")
	}
	if !strings.HasPrefix(r.ErrText, "#Call: ") || !strings.HasSuffix(r.ErrText, "!") {
		t.Fatalf("ErrText %q lacks the #Call frame", r.ErrText)
	}
}

func TestLaunchResult_MissingExecutable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TempDir = t.TempDir()
	cfg.ExePath = filepath.Join(t.TempDir(), "julia")
	cfg.InstallDirs = nil
	b := New(cfg, nil)

	r := b.LaunchResult(context.Background())
	if !r.Failed() {
		t.Fatalf("expected a failed result, got %v", r.Value)
	}
	if !strings.HasPrefix(r.ErrText, "#Launch: ") {
		t.Fatalf("ErrText %q lacks the #Launch frame", r.ErrText)
	}
}

func TestLaunchResult_AlreadyRunning(t *testing.T) {
	b := liveBridge(t, DefaultConfig())
	r := b.LaunchResult(context.Background())
	if r.Failed() {
		t.Fatalf("unexpected failure: %s", r.ErrText)
	}
	if !strings.HasPrefix(r.Value.Str, "already running") {
		t.Fatalf("description = %q, want an already-running notice", r.Value.Str)
	}
}
