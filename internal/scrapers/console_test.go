package scrapers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"explorer/internal/domain"
)

// fakeController feeds lines pushed through feed into the active stream and
// ends the stream with whatever error is sent on end.
type fakeController struct {
	mu       sync.Mutex
	started  []string
	stopped  []string
	startErr error
	// startGate, when set, holds Start until it is closed.
	startGate chan struct{}
	feed     chan domain.LogLine
	end      chan error
	attached chan struct{}
}

func newFakeController() *fakeController {
	return &fakeController{
		feed:     make(chan domain.LogLine),
		end:      make(chan error, 1),
		attached: make(chan struct{}, 1),
	}
}

func (f *fakeController) Start(ctx context.Context, worker string) error {
	f.mu.Lock()
	f.started = append(f.started, worker)
	gate, err := f.startGate, f.startErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeController) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.started)
}

func (f *fakeController) Stop(ctx context.Context, worker string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, worker)
	return nil
}

func (f *fakeController) Stream(ctx context.Context, worker string, fn func(domain.LogLine)) error {
	f.attached <- struct{}{}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-f.end:
			return err
		case l := <-f.feed:
			fn(l)
		}
	}
}

func waitStatus(t *testing.T, c *Console, id string, want domain.WorkerStatus) WorkerState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		st, err := c.Worker(id)
		if err != nil {
			t.Fatalf("Worker(%s) error: %v", id, err)
		}
		if st.Status == want {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("worker %s status %s, want %s", id, st.Status, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConsoleStartStreamsIntoBuffer(t *testing.T) {
	ctl := newFakeController()
	c := NewConsole(ctl, []string{"campaign-finance", "legislature"}, 10, zerolog.Nop())
	defer c.Close()

	if err := c.Start(context.Background(), "legislature"); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	<-ctl.attached

	backlog, ch, cancel, err := c.Subscribe("legislature")
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	defer cancel()
	if len(backlog) != 1 || backlog[0].Message != "Started legislature" {
		t.Fatalf("unexpected backlog %+v", backlog)
	}

	for i := range 3 {
		ctl.feed <- domain.LogLine{Message: fmt.Sprintf("line %d", i), Type: domain.LogInfo}
	}
	for i := range 3 {
		if l := <-ch; l.Message != fmt.Sprintf("line %d", i) {
			t.Fatalf("line %d out of order: %+v", i, l)
		}
	}

	if err := c.Start(context.Background(), "legislature"); !errors.Is(err, domain.ErrWorkerBusy) {
		t.Fatalf("second Start error = %v, want ErrWorkerBusy", err)
	}
	states := c.Workers()
	if states[0].ID != "campaign-finance" || states[0].Status != domain.WorkerIdle || states[1].Status != domain.WorkerRunning {
		t.Fatalf("unexpected states %+v", states)
	}
}

func TestConsoleStreamErrorRevertsToIdle(t *testing.T) {
	ctl := newFakeController()
	c := NewConsole(ctl, []string{"legislature"}, 10, zerolog.Nop())
	defer c.Close()

	if err := c.Start(context.Background(), "legislature"); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	<-ctl.attached
	ctl.end <- errors.New("connection reset")

	st := waitStatus(t, c, "legislature", domain.WorkerIdle)
	last := st.Lines[len(st.Lines)-1]
	if last.Type != domain.LogError {
		t.Fatalf("expected error line after stream failure, got %+v", last)
	}
}

func TestConsoleStreamEndRevertsToIdle(t *testing.T) {
	ctl := newFakeController()
	c := NewConsole(ctl, []string{"legislature"}, 10, zerolog.Nop())
	defer c.Close()

	if err := c.Start(context.Background(), "legislature"); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	<-ctl.attached
	ctl.end <- nil
	waitStatus(t, c, "legislature", domain.WorkerIdle)
}

func TestConsoleStopDetachesStream(t *testing.T) {
	ctl := newFakeController()
	c := NewConsole(ctl, []string{"campaign-finance"}, 10, zerolog.Nop())
	defer c.Close()

	if err := c.Start(context.Background(), "campaign-finance"); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	<-ctl.attached
	if err := c.Stop(context.Background(), "campaign-finance"); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	st, _ := c.Worker("campaign-finance")
	if st.Status != domain.WorkerIdle {
		t.Fatalf("Stop should leave the worker idle, got %s", st.Status)
	}
	if len(ctl.stopped) != 1 {
		t.Fatalf("expected upstream stop call")
	}

	// A restart attaches a fresh stream.
	if err := c.Start(context.Background(), "campaign-finance"); err != nil {
		t.Fatalf("restart error: %v", err)
	}
	<-ctl.attached
}

func TestConsoleLogCapacity(t *testing.T) {
	ctl := newFakeController()
	c := NewConsole(ctl, []string{"legislature"}, 3, zerolog.Nop())
	defer c.Close()

	for i := range 5 {
		c.append("legislature", domain.LogLine{Message: fmt.Sprint(i)})
	}
	st, _ := c.Worker("legislature")
	if len(st.Lines) != 3 || st.Lines[0].Message != "2" || st.Lines[2].Message != "4" {
		t.Fatalf("ring should keep the newest 3 lines, got %+v", st.Lines)
	}
}

func TestConsoleStartFailure(t *testing.T) {
	ctl := newFakeController()
	ctl.startErr = fmt.Errorf("%w: status 502", domain.ErrUpstream)
	c := NewConsole(ctl, []string{"legislature"}, 10, zerolog.Nop())
	defer c.Close()

	if err := c.Start(context.Background(), "legislature"); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("Start error = %v", err)
	}
	st, _ := c.Worker("legislature")
	if st.Status != domain.WorkerIdle || st.Lines[0].Type != domain.LogError {
		t.Fatalf("failed start should stay idle with an error line: %+v", st)
	}
}

func TestConsoleConcurrentStartIsBusy(t *testing.T) {
	ctl := newFakeController()
	ctl.startGate = make(chan struct{})
	c := NewConsole(ctl, []string{"legislature"}, 10, zerolog.Nop())
	defer c.Close()

	first := make(chan error, 1)
	go func() { first <- c.Start(context.Background(), "legislature") }()
	deadline := time.Now().Add(2 * time.Second)
	for ctl.startCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("first start never reached the controller")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := c.Start(context.Background(), "legislature"); !errors.Is(err, domain.ErrWorkerBusy) {
		t.Fatalf("second Start error = %v, want ErrWorkerBusy", err)
	}
	close(ctl.startGate)
	if err := <-first; err != nil {
		t.Fatalf("first Start error: %v", err)
	}
	<-ctl.attached
	waitStatus(t, c, "legislature", domain.WorkerRunning)
	if got := ctl.startCount(); got != 1 {
		t.Fatalf("upstream start called %d times, want 1", got)
	}
}

func TestConsoleUnknownWorker(t *testing.T) {
	c := NewConsole(newFakeController(), []string{"legislature"}, 10, zerolog.Nop())
	defer c.Close()

	if err := c.Start(context.Background(), "nope"); !errors.Is(err, domain.ErrUnknownWorker) {
		t.Fatalf("Start error = %v", err)
	}
	if err := c.Stop(context.Background(), "nope"); !errors.Is(err, domain.ErrUnknownWorker) {
		t.Fatalf("Stop error = %v", err)
	}
	if _, _, _, err := c.Subscribe("nope"); !errors.Is(err, domain.ErrUnknownWorker) {
		t.Fatalf("Subscribe error = %v", err)
	}
}

func TestConsoleCloseEndsSubscribers(t *testing.T) {
	ctl := newFakeController()
	c := NewConsole(ctl, []string{"legislature"}, 10, zerolog.Nop())
	if err := c.Start(context.Background(), "legislature"); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	<-ctl.attached
	_, ch, cancel, _ := c.Subscribe("legislature")
	c.Close()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("subscriber channel should be closed")
	}
}
