package scrapers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"explorer/internal/domain"
	"explorer/internal/infra"
)

const subscriberBuffer = 64

// Controller is the scraper API surface the console needs.
type Controller interface {
	Start(ctx context.Context, worker string) error
	Stop(ctx context.Context, worker string) error
	Stream(ctx context.Context, worker string, fn func(domain.LogLine)) error
}

// WorkerState is a point-in-time copy of one worker's console state.
type WorkerState struct {
	ID     string              `json:"id"`
	Status domain.WorkerStatus `json:"status"`
	Lines  []domain.LogLine    `json:"lines"`
}

// Console tracks a fixed set of workers: their status, a capped log buffer
// each, and the browsers following them.
type Console struct {
	ctl      Controller
	capacity int
	log      infra.Logger
	now      func() time.Time

	mu      sync.Mutex
	order   []string
	workers map[string]*worker
	closed  bool
	wg      sync.WaitGroup
}

type worker struct {
	id     string
	status domain.WorkerStatus
	lines  []domain.LogLine
	cancel context.CancelFunc
	// starting is set while an upstream start call is in flight.
	starting bool
	// stream increments every time a stream is attached so a finished stream
	// can tell whether it is still the current one.
	stream  uint64
	subs    map[uint64]chan domain.LogLine
	nextSub uint64
}

func NewConsole(ctl Controller, workerIDs []string, capacity int, log infra.Logger) *Console {
	if capacity <= 0 {
		capacity = 500
	}
	c := &Console{
		ctl:      ctl,
		capacity: capacity,
		log:      log,
		now:      time.Now,
		workers:  make(map[string]*worker, len(workerIDs)),
	}
	for _, id := range workerIDs {
		if _, dup := c.workers[id]; dup {
			continue
		}
		c.order = append(c.order, id)
		c.workers[id] = &worker{id: id, status: domain.WorkerIdle, subs: map[uint64]chan domain.LogLine{}}
	}
	return c
}

// Workers returns every worker's state in configuration order.
func (c *Console) Workers() []WorkerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]WorkerState, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.workers[id].state())
	}
	return out
}

func (c *Console) Worker(id string) (WorkerState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.workers[id]
	if !ok {
		return WorkerState{}, fmt.Errorf("%w: %s", domain.ErrUnknownWorker, id)
	}
	return w.state(), nil
}

// Start asks the API to start the worker and attaches its log stream. Only one
// start per worker is in flight at a time.
func (c *Console) Start(ctx context.Context, id string) error {
	c.mu.Lock()
	w, ok := c.workers[id]
	switch {
	case !ok:
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrUnknownWorker, id)
	case c.closed:
		c.mu.Unlock()
		return errors.New("console closed")
	case w.starting || w.status == domain.WorkerRunning:
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrWorkerBusy, id)
	}
	w.starting = true
	stream := w.stream
	c.mu.Unlock()

	err := c.ctl.Start(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	w.starting = false
	if err != nil {
		c.appendLocked(w, c.line(domain.LogError, "Failed to start "+id+": "+err.Error()))
		return err
	}
	if c.closed || w.stream != stream {
		// Stopped or closed while the start was in flight.
		return nil
	}
	streamCtx, cancel := context.WithCancel(context.Background())
	w.status = domain.WorkerRunning
	w.cancel = cancel
	w.stream++
	c.appendLocked(w, c.line(domain.LogInfo, "Started "+id))

	c.wg.Add(1)
	go c.follow(streamCtx, w, w.stream)
	return nil
}

// Stop asks the API to stop the worker and detaches its stream. The upstream
// call is made even when the worker looks idle here.
func (c *Console) Stop(ctx context.Context, id string) error {
	c.mu.Lock()
	_, ok := c.workers[id]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownWorker, id)
	}

	if err := c.ctl.Stop(ctx, id); err != nil {
		c.append(id, c.line(domain.LogError, "Failed to stop "+id+": "+err.Error()))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.workers[id]
	c.detachLocked(w)
	c.appendLocked(w, c.line(domain.LogWarning, "Stopped "+id))
	return nil
}

// Subscribe returns the buffered backlog and a channel of lines appended after
// it. The channel closes when cancel is called, the console closes, or the
// subscriber falls too far behind.
func (c *Console) Subscribe(id string) ([]domain.LogLine, <-chan domain.LogLine, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.workers[id]
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s", domain.ErrUnknownWorker, id)
	}
	ch := make(chan domain.LogLine, subscriberBuffer)
	if c.closed {
		close(ch)
		return slices.Clone(w.lines), ch, func() {}, nil
	}
	subID := w.nextSub
	w.nextSub++
	w.subs[subID] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := w.subs[subID]; ok {
				delete(w.subs, subID)
				close(sub)
			}
		})
	}
	return slices.Clone(w.lines), ch, cancel, nil
}

// Close detaches every stream, closes every subscriber and waits for the
// stream goroutines to exit.
func (c *Console) Close() {
	c.mu.Lock()
	c.closed = true
	for _, w := range c.workers {
		c.detachLocked(w)
		for subID, ch := range w.subs {
			delete(w.subs, subID)
			close(ch)
		}
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Console) follow(ctx context.Context, w *worker, stream uint64) {
	defer c.wg.Done()
	logger := c.log.With().Str("worker", w.id).Logger()
	logger.Info().Msg("log stream attached")

	err := c.ctl.Stream(ctx, w.id, func(line domain.LogLine) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if w.stream == stream {
			c.appendLocked(w, line)
		}
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if w.stream != stream || ctx.Err() != nil {
		logger.Debug().Msg("log stream detached")
		return
	}
	if err != nil {
		logger.Warn().Err(err).Msg("log stream failed")
		c.appendLocked(w, c.line(domain.LogError, "Log stream error: "+err.Error()))
	} else {
		logger.Info().Msg("log stream ended")
	}
	c.detachLocked(w)
}

func (c *Console) detachLocked(w *worker) {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.stream++
	w.status = domain.WorkerIdle
}

func (c *Console) append(id string, line domain.LogLine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w, ok := c.workers[id]; ok {
		c.appendLocked(w, line)
	}
}

// appendLocked adds line to the ring, dropping the oldest entries beyond
// capacity, and fans it out. A subscriber whose buffer is full is closed.
func (c *Console) appendLocked(w *worker, line domain.LogLine) {
	w.lines = append(w.lines, line)
	if over := len(w.lines) - c.capacity; over > 0 {
		w.lines = slices.Delete(w.lines, 0, over)
	}
	for subID, ch := range w.subs {
		select {
		case ch <- line:
		default:
			delete(w.subs, subID)
			close(ch)
			c.log.Warn().Str("worker", w.id).Msg("dropped slow log subscriber")
		}
	}
}

func (c *Console) line(t domain.LogType, msg string) domain.LogLine {
	return domain.LogLine{Timestamp: c.now().UTC(), Message: msg, Type: t}
}

func (w *worker) state() WorkerState {
	return WorkerState{ID: w.id, Status: w.status, Lines: slices.Clone(w.lines)}
}
