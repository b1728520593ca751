// Package worker implements the background load coordinator: a command
// loop that owns the local series store, seeds it from the remote
// source on cold start, and arbitrates overlapping requests so only the
// freshest one produces a visible result.
//
// Concurrency model: the foreground context talks to the coordinator
// exclusively through the command channel and reads responses from the
// message channel; there is no shared memory. Commands are stamped with
// their ordinals synchronously in the receive loop, before any I/O, so
// counter updates never race. Each get is then handled in its own
// goroutine and may interleave with later ones on store or fetch I/O;
// superseded results are discarded instead of cancelled.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmverlaan/climogram/pkg/aggregate"
	"github.com/jmverlaan/climogram/pkg/model"
	"github.com/jmverlaan/climogram/pkg/seed"
	"github.com/jmverlaan/climogram/pkg/store"
)

var (
	// ErrNoData means a supposedly successful load produced zero usable
	// records, so no year range can be computed. Not retried.
	ErrNoData = errors.New("no usable records after load")
	// ErrUnknownCommand means the command channel carried a message
	// type the coordinator does not recognize.
	ErrUnknownCommand = errors.New("unknown command")
)

// loadedState is the per-category year range and year list, computed
// once by the first successful request and kept for the session.
type loadedState struct {
	rng   model.YearRange
	years []int
}

// Config configures a Coordinator.
type Config struct {
	DBPath string
	Source seed.Source

	// MessageBuffer is the response channel capacity (default 8).
	MessageBuffer int
	// CommandBuffer is the command channel capacity (default 16).
	CommandBuffer int
}

// Coordinator owns the store handle, the ordinal counters and the
// per-category loaded state for the lifetime of its goroutine.
type Coordinator struct {
	dbPath string
	source seed.Source

	seq *sequencer

	mu     sync.Mutex
	loaded map[model.Category]*loadedState
	store  *store.Store

	cmds chan Command
	msgs chan tea.Msg

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	startOnce sync.Once
	logLevel  LogLevel
}

// New creates a Coordinator. Call Start to open the store and begin
// processing commands.
func New(cfg Config) *Coordinator {
	if cfg.MessageBuffer <= 0 {
		cfg.MessageBuffer = 8
	}
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		dbPath:   cfg.DBPath,
		source:   cfg.Source,
		seq:      newSequencer(),
		loaded:   make(map[model.Category]*loadedState),
		cmds:     make(chan Command, cfg.CommandBuffer),
		msgs:     make(chan tea.Msg, cfg.MessageBuffer),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		logLevel: logLevelFromEnv(),
	}
}

// Start launches the command loop. Idempotent.
func (c *Coordinator) Start() {
	c.startOnce.Do(func() { go c.run() })
}

// Messages returns the response channel. The channel is owned by the
// coordinator and is never closed; use Done to stop waiting.
func (c *Coordinator) Messages() <-chan tea.Msg {
	if c == nil {
		return nil
	}
	return c.msgs
}

// Done is closed once the coordinator has shut down and released the
// store.
func (c *Coordinator) Done() <-chan struct{} {
	if c == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

// Get submits a request for a category, optionally range-restricted.
// Safe to call from the foreground context at any rate; superseded
// requests simply never produce a response.
func (c *Coordinator) Get(cat model.Category, rng *model.YearRange) {
	c.Submit(Command{Type: CmdGet, Category: cat, Range: rng})
}

// Terminate asks the coordinator to close the store and stop.
func (c *Coordinator) Terminate() {
	c.Submit(Command{Type: CmdTerminate})
}

// Submit places a command on the command channel. Commands submitted
// after shutdown are dropped.
func (c *Coordinator) Submit(cmd Command) {
	if c == nil {
		return
	}
	select {
	case c.cmds <- cmd:
	case <-c.ctx.Done():
	}
}

func (c *Coordinator) run() {
	defer close(c.done)
	defer c.cancel()

	st, err := store.Open(c.dbPath)
	if err != nil {
		c.logEvent(LogLevelError, "store_open_failed", map[string]any{"error": err.Error()})
		c.send(ErrorMsg{Err: err})
		return
	}
	c.mu.Lock()
	c.store = st
	c.mu.Unlock()
	defer st.Close()

	c.logEvent(LogLevelInfo, "ready", map[string]any{"db": c.dbPath})
	c.send(ReadyMsg{})

	for {
		select {
		case <-c.ctx.Done():
			return
		case cmd := <-c.cmds:
			switch cmd.Type {
			case CmdGet:
				if !cmd.Category.Valid() {
					c.fail(fmt.Errorf("%w: category %q", ErrUnknownCommand, cmd.Category))
					continue
				}
				// Stamp before spawning the handler: ordinal updates
				// must complete before the first suspension point.
				sp := c.seq.stamp(cmd.Category)
				c.logEvent(LogLevelDebug, "request", map[string]any{
					"category": cmd.Category.String(),
					"local":    sp.local,
					"global":   sp.global,
				})
				go c.handleGet(cmd.Category, cmd.Range, sp)
			case CmdTerminate:
				c.logEvent(LogLevelInfo, "terminate", nil)
				return
			default:
				c.fail(fmt.Errorf("%w: type %d", ErrUnknownCommand, cmd.Type))
			}
		}
	}
}

// handleGet serves one stamped request. First requests (local == 1)
// always emit; anything later is dropped unless it is still the most
// recent request when its result is ready.
func (c *Coordinator) handleGet(cat model.Category, rng *model.YearRange, st stamp) {
	if st.local == 1 {
		c.handleFirst(cat, st)
		return
	}

	c.mu.Lock()
	ls := c.loaded[cat]
	c.mu.Unlock()
	if ls == nil {
		// The first request is still in flight and will itself emit.
		c.logEvent(LogLevelDebug, "drop_not_ready", map[string]any{"category": cat.String()})
		return
	}
	if !c.seq.current(cat, st) {
		c.logEvent(LogLevelDebug, "drop_stale", map[string]any{"category": cat.String()})
		return
	}

	records, err := c.currentStore().GetAll(cat, rng)
	if err != nil {
		c.fail(err)
		return
	}
	points := aggregate.ByYear(records)

	// Staleness is judged at the moment the result is ready: a request
	// that was current before the read may have been superseded during it.
	if !c.seq.current(cat, st) {
		c.logEvent(LogLevelDebug, "drop_stale", map[string]any{"category": cat.String()})
		return
	}

	resolved := ls.rng
	if rng != nil {
		resolved = *rng
	}
	c.send(DataMsg{Category: cat, Points: points, Range: resolved, Years: ls.years})
}

// handleFirst is the cold-load/warm-load path for a category's first
// request. It establishes the loaded state and emits unconditionally so
// it cannot be starved by later arrivals racing ahead of it.
func (c *Coordinator) handleFirst(cat model.Category, st stamp) {
	s := c.currentStore()

	empty, err := s.IsEmpty(cat)
	if err != nil {
		c.fail(err)
		return
	}
	if empty {
		c.logEvent(LogLevelInfo, "cold_load", map[string]any{"category": cat.String()})
		records, err := c.source.Fetch(c.ctx, cat)
		if err != nil {
			c.fail(err)
			return
		}
		if err := s.Put(cat, records); err != nil {
			c.fail(err)
			return
		}
	}

	all, err := s.GetAll(cat, nil)
	if err != nil {
		c.fail(err)
		return
	}
	span, ok := aggregate.YearSpan(all)
	if !ok {
		c.fail(fmt.Errorf("%w: category %s", ErrNoData, cat))
		return
	}
	years := span.Years()

	c.mu.Lock()
	c.loaded[cat] = &loadedState{rng: span, years: years}
	c.mu.Unlock()

	c.logEvent(LogLevelInfo, "loaded", map[string]any{
		"category": cat.String(),
		"records":  len(all),
		"start":    span.Start,
		"end":      span.End,
	})
	c.send(DataMsg{Category: cat, Points: aggregate.ByYear(all), Range: span, Years: years})
}

func (c *Coordinator) currentStore() *store.Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store
}

// fail converts any handler error into an error response after
// resetting the sequencing state, so the next request for any category
// starts over as a first request.
func (c *Coordinator) fail(err error) {
	c.logEvent(LogLevelError, "request_failed", map[string]any{"error": err.Error()})
	c.seq.reset()
	c.send(ErrorMsg{Err: err})
}

// send delivers a message without ever blocking the coordinator: when
// the channel is full the oldest message is dropped so the newest wins.
func (c *Coordinator) send(msg tea.Msg) {
	if c == nil || msg == nil {
		return
	}
	for {
		select {
		case c.msgs <- msg:
			return
		case <-c.ctx.Done():
			return
		default:
		}

		select {
		case <-c.msgs:
		default:
		}
	}
}
