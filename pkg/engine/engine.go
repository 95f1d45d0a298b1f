// Package engine wraps a Tak board and tinue search into a session a
// driver (CLI or future TEI loop) can manage: reset, play/take back moves,
// and launch a cancellable background tinue analysis.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/seekerror/build"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"

	"github.com/corvidae/takproof/pkg/board"
	"github.com/corvidae/takproof/pkg/board/ptn"
	"github.com/corvidae/takproof/pkg/board/tps"
	"github.com/corvidae/takproof/pkg/tinue"
	"github.com/corvidae/takproof/pkg/tinue/cache"
)

var version = build.NewVersion(0, 1, 0)

// Options are search creation options.
type Options struct {
	// MaxNodes caps a search's node budget. Zero means unlimited.
	MaxNodes uint64
	// Store, if set, persists attacker-node evaluations across searches.
	Store cache.Store
}

func (o Options) String() string {
	return fmt.Sprintf("{maxNodes=%v, store=%v}", o.MaxNodes, o.Store != nil)
}

// Engine encapsulates a Tak session: a board plus engine-wide search
// options, with at most one analysis active at a time.
type Engine struct {
	name, author string

	seed int64
	opts Options

	b       *board.Board
	history []board.RevGameMove
	active  Handle
	mu      sync.Mutex
}

// Option is an engine creation option.
type Option func(*Engine)

// WithOptions sets default runtime options.
func WithOptions(opts Options) Option {
	return func(e *Engine) {
		e.opts = opts
	}
}

// WithZobrist configures the engine to use the given random seed instead of
// the default seed of 1.
func WithZobrist(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

// New returns an Engine reset to the standard opening position.
func New(ctx context.Context, name, author string, opts ...Option) *Engine {
	e := &Engine{
		name:   name,
		author: author,
		seed:   1,
	}
	for _, fn := range opts {
		fn(e)
	}

	_ = e.Reset(ctx, tps.Initial)

	logw.Infof(ctx, "Initialized engine: %v, options=%v", e.Name(), e.opts)
	return e
}

// Name returns the engine name and version.
func (e *Engine) Name() string {
	return fmt.Sprintf("%v %v", e.name, version)
}

// Author returns the author.
func (e *Engine) Author() string {
	return e.author
}

func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.opts
}

func (e *Engine) SetMaxNodes(n uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.opts.MaxNodes = n
}

// Board returns a forked board, safe for the caller to inspect or search
// without racing concurrent Engine methods.
func (e *Engine) Board() *board.Board {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.b.Fork()
}

// Position returns the current position in TPS. Convenience function.
func (e *Engine) Position() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return tps.Encode(e.b)
}

// Reset resets the engine to a new starting position given in TPS.
func (e *Engine) Reset(ctx context.Context, position string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	logw.Infof(ctx, "Reset %v, maxNodes=%v", position, e.opts.MaxNodes)

	e.haltSearchIfActive(ctx)

	b, err := tps.Decode(position, e.seed)
	if err != nil {
		return err
	}
	e.b = b
	e.history = nil

	logw.Infof(ctx, "New board: %v", e.b)
	return nil
}

// Move plays the given move, given in PTN, usually an opponent move.
func (e *Engine) Move(ctx context.Context, move string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	logw.Infof(ctx, "Move %v", move)

	candidate, err := ptn.Parse(move, e.b)
	if err != nil {
		return fmt.Errorf("invalid move: %w", err)
	}

	e.haltSearchIfActive(ctx)

	for _, m := range board.GenerateAllMoves(e.b) {
		if !candidate.Equals(m) {
			continue
		}

		e.history = append(e.history, e.b.DoMove(m))
		logw.Infof(ctx, "Move %v: %v", move, e.b)
		return nil
	}
	return fmt.Errorf("illegal move: %v", move)
}

// TakeBack undoes the latest move.
func (e *Engine) TakeBack(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltSearchIfActive(ctx)

	n := len(e.history)
	if n == 0 {
		return fmt.Errorf("no move to take back")
	}

	rev := e.history[n-1]
	e.history = e.history[:n-1]
	e.b.ReverseMove(rev)

	logw.Infof(ctx, "Takeback %v", rev.Move)
	return nil
}

// Progress is a periodic update from a running Solve, reporting nodes
// visited so far.
type Progress struct {
	Nodes uint64
}

// Handle manages a running tinue search.
type Handle interface {
	// Wait blocks until the search completes on its own and returns its
	// outcome. Unlike Halt, it never requests cancellation, so a caller
	// that only wants the final verdict (e.g. cmd/tinue's normal path)
	// does not race the search's own termination.
	Wait() (tinue.Result, bool)
	// Halt requests cancellation (if the search is still running), then
	// blocks until it has actually stopped and returns its outcome. Ok is
	// false if the search never produced a verdict (e.g. cancelled before
	// completion). Idempotent, and safe to call after Wait.
	Halt() (tinue.Result, bool)
}

// Solve launches a tinue analysis of the current position on a background
// goroutine, over a forked board so the engine's own position is
// unaffected. It returns a Handle to halt the search and a channel of
// periodic progress, closed when the search completes or is halted.
func (e *Engine) Solve(ctx context.Context) (Handle, <-chan Progress, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return nil, nil, fmt.Errorf("search already active")
	}

	logw.Infof(ctx, "Solve %v, opt=%v", e.b, e.opts)

	out := make(chan Progress, 1)
	h := newHandle()

	b := e.b.Fork()
	sopts := tinue.Options{Quit: h.quit, Store: e.opts.Store}
	if e.opts.MaxNodes > 0 {
		sopts.MaxNodes = lang.Some(e.opts.MaxNodes)
	}

	search := tinue.New(b, sopts)
	go h.run(search, out)

	e.active = h
	return h, out, nil
}

// Halt halts the active search and returns its outcome, if any.
func (e *Engine) Halt(ctx context.Context) (tinue.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logw.Infof(ctx, "Halt")

	result, ok := e.haltSearchIfActive(ctx)
	if !ok {
		return tinue.Result{}, fmt.Errorf("no active search")
	}
	return result, nil
}

func (e *Engine) haltSearchIfActive(ctx context.Context) (tinue.Result, bool) {
	if e.active == nil {
		return tinue.Result{}, false
	}

	result, ok := e.active.Halt()
	logw.Infof(ctx, "Search %v halted: tinue=%v, ok=%v, nodes=%v", e.b, result.Tinue, ok, result.Nodes)

	e.active = nil
	return result, ok
}

const progressInterval = 200 * time.Millisecond

// handle runs one tinue.Search on its own goroutine and reports node-count
// progress on a timer, grounded on the teacher's search/iterative.go
// handle (init/quit channels, CAS-guarded close so Halt is idempotent),
// generalized from "iterative deepening PV stream" to "single search run
// with a halt switch".
type handle struct {
	quit   chan struct{}
	doneCh chan struct{}
	halted atomic.Bool

	result tinue.Result
	ok     bool
	mu     sync.Mutex
}

func newHandle() *handle {
	return &handle{quit: make(chan struct{}), doneCh: make(chan struct{})}
}

func (h *handle) run(search *tinue.Search, out chan<- Progress) {
	defer close(out)
	defer close(h.doneCh)

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	searchDone := make(chan struct{})
	go func() {
		result, ok := search.Run()
		h.mu.Lock()
		h.result, h.ok = result, ok
		h.mu.Unlock()
		close(searchDone)
	}()

	for {
		select {
		case <-searchDone:
			h.mu.Lock()
			nodes := h.result.Nodes
			h.mu.Unlock()
			select {
			case out <- Progress{Nodes: nodes}:
			default:
			}
			return
		case <-ticker.C:
			select {
			case out <- Progress{Nodes: search.Nodes()}:
			default:
			}
		}
	}
}

// Wait blocks until the search finishes on its own, without requesting
// cancellation.
func (h *handle) Wait() (tinue.Result, bool) {
	<-h.doneCh

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.result, h.ok
}

// Halt signals the search to stop (if it hasn't already finished) and
// blocks until it has, returning its outcome. Idempotent and safe to call
// more than once, or after Wait.
func (h *handle) Halt() (tinue.Result, bool) {
	if h.halted.CAS(false, true) {
		close(h.quit)
	}
	return h.Wait()
}
