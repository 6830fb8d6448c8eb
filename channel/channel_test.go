package channel

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/pgs62/juliabridge"
	"github.com/pgs62/juliabridge/codec"
	"github.com/pgs62/juliabridge/protocol"
	"github.com/pgs62/juliabridge/supervisor"
)

type noopDoorbell struct{}

func (noopDoorbell) Ring() error { return nil }

type failingDoorbell struct{}

func (failingDoorbell) Ring() error { return os.ErrProcessDone }

func testChannel(t *testing.T, cfg Config) (*Channel, protocol.Paths) {
	t.Helper()
	paths := protocol.Paths{Dir: t.TempDir(), HostPID: os.Getpid()}
	sup := supervisor.New(paths, supervisor.Config{}, nil)
	ch := New(sup, cfg, nil)
	ch.SetDoorbellFactory(func(int) protocol.Doorbell { return noopDoorbell{} })
	return ch, paths
}

// serveOnce emulates a worker in-process: wait for the flag, evaluate
// with compute, write the result, lower the flag.
func serveOnce(t *testing.T, p protocol.Paths, compute func(expr string) string) {
	t.Helper()
	go func() {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if p.FlagPresent() {
				expr, err := p.ReadExpression()
				if err != nil {
					return
				}
				_ = p.WriteResult(compute(expr))
				_ = p.RemoveFlag()
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
	}()
}

func TestEval_Completes(t *testing.T) {
	ch, paths := testChannel(t, Config{})
	if err := paths.WriteBanner(os.Getpid()); err != nil {
		t.Fatal(err)
	}
	serveOnce(t, paths, func(expr string) string {
		if expr != "1+41" {
			t.Errorf("worker saw expression %q, want \"1+41\"", expr)
		}
		return "#42"
	})

	v, err := ch.Eval(context.Background(), "1+41")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !v.Equal(juliabridge.Double(42)) {
		t.Errorf("Eval = %s, want double(42)", v)
	}

	// The flag must be gone and the result file left on disk.
	if paths.FlagPresent() {
		t.Error("flag still present after completed call")
	}
	if _, err := os.Stat(paths.ResultFile()); err != nil {
		t.Error("result file should be left on disk")
	}
}

func TestEval_WorkerDiedMidCall(t *testing.T) {
	ch, paths := testChannel(t, Config{PollInterval: 5 * time.Millisecond})

	// A real process that exits shortly after the call starts, with no
	// one serving the flag.
	cmd := exec.Command("sleep", "0.3")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	go func() { _ = cmd.Wait() }() // reap, so liveness probing sees the exit
	if err := paths.WriteBanner(cmd.Process.Pid); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	_, err := ch.Eval(context.Background(), "hang()")
	if err == nil {
		t.Fatal("expected worker-death error")
	}
	if !strings.Contains(err.Error(), "terminated mid-call") {
		t.Errorf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("death detection took %s, should fail fast", elapsed)
	}
	if paths.FlagPresent() {
		t.Error("flag should be cleaned up after worker death")
	}
}

func TestEval_DoorbellFailure(t *testing.T) {
	ch, paths := testChannel(t, Config{})
	ch.SetDoorbellFactory(func(int) protocol.Doorbell { return failingDoorbell{} })
	if err := paths.WriteBanner(os.Getpid()); err != nil {
		t.Fatal(err)
	}

	_, err := ch.Eval(context.Background(), "1")
	if err == nil {
		t.Fatal("expected doorbell error")
	}
	if !strings.Contains(err.Error(), "doorbell") {
		t.Errorf("unexpected error: %v", err)
	}
	if paths.FlagPresent() {
		t.Error("flag should be removed when the doorbell fails")
	}
}

func TestEval_ContextCancelled(t *testing.T) {
	ch, paths := testChannel(t, Config{PollInterval: 5 * time.Millisecond})
	if err := paths.WriteBanner(os.Getpid()); err != nil {
		t.Fatal(err)
	}
	// No worker serves; the flag never clears.

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := ch.Eval(ctx, "hang()")
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if err != context.Canceled && !strings.Contains(err.Error(), "context canceled") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEval_DecodeFailureSurfaces(t *testing.T) {
	ch, paths := testChannel(t, Config{})
	if err := paths.WriteBanner(os.Getpid()); err != nil {
		t.Fatal(err)
	}
	serveOnce(t, paths, func(string) string { return "Zebra" })

	_, err := ch.Eval(context.Background(), "1")
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), "'Z'") {
		t.Errorf("decode error %q does not echo the bad tag", err.Error())
	}
}

func TestEval_AppliesDecodeOptions(t *testing.T) {
	ch, paths := testChannel(t, Config{Decode: codec.DecodeOptions{VectorAsColumn: true}})
	if err := paths.WriteBanner(os.Getpid()); err != nil {
		t.Fatal(err)
	}
	serveOnce(t, paths, func(string) string { return "*1,3;2,2,2,;%1%2%3" })

	v, err := ch.Eval(context.Background(), "collect(1:3)")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if len(v.Dims) != 2 || v.Dims[0] != 3 || v.Dims[1] != 1 {
		t.Errorf("Dims = %v, want [3 1] with VectorAsColumn", v.Dims)
	}
}
