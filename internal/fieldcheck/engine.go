// Package fieldcheck runs field validation for the user wizard: immediate
// rule checks, debounced rule checks and debounced uniqueness checks
// against a remote Checker. Every pending operation owns a context that is
// cancelled as soon as a newer value for the same field arrives.
package fieldcheck

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/validation"
	"github.com/rs/zerolog"
)

// ErrSuperseded is returned by ValidateAsync when a newer call for the same
// field replaced this one
var ErrSuperseded = errors.New("validation superseded by a newer value")

// Checker verifies that a value does not collide with an existing record
type Checker interface {
	CheckAvailability(ctx context.Context, field models.Field, value string, excludeID int64) (models.Availability, error)
}

// Kind tells synchronous rule outcomes from uniqueness outcomes
type Kind string

const (
	KindRule       Kind = "rule"
	KindUniqueness Kind = "uniqueness"
)

// Outcome is a finished validation for one field value
type Outcome struct {
	Field  models.Field
	Value  string
	Kind   Kind
	Result validation.Result
	// Warning is set when the uniqueness check could not be performed.
	// Result is then valid: the server re-validates on submit.
	Warning string
	Cached  bool
}

// Sink receives outcomes of scheduled validations
type Sink func(Outcome)

// Options tunes the engine
type Options struct {
	SyncDelay  time.Duration
	AsyncDelay time.Duration
	// Timeout bounds a single uniqueness request
	Timeout time.Duration
	// Eager fields skip the sync debounce
	Eager map[models.Field]bool
}

// DefaultOptions returns the standard debounce settings
func DefaultOptions() Options {
	return Options{
		SyncDelay:  300 * time.Millisecond,
		AsyncDelay: 500 * time.Millisecond,
		Timeout:    15 * time.Second,
		Eager:      map[models.Field]bool{models.FieldPasswordConfirmation: true},
	}
}

type pendingCall struct {
	id     uint64
	cancel context.CancelFunc
}

// Engine is the field validation engine
type Engine struct {
	rules   *validation.Rules
	checker Checker
	opts    Options
	cache   *ResultCache
	sink    Sink
	log     zerolog.Logger

	root       context.Context
	rootCancel context.CancelFunc

	mu        sync.Mutex
	pending   map[string]pendingCall
	seq       uint64
	excludeID int64
	wg        sync.WaitGroup
}

// New creates an Engine. checker may be nil, in which case uniqueness checks
// always pass. sink may be nil when only the blocking calls are used.
func New(rules *validation.Rules, checker Checker, cache *ResultCache, sink Sink, opts Options, log zerolog.Logger) *Engine {
	if cache == nil {
		cache = NewResultCache()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	root, cancel := context.WithCancel(context.Background())
	return &Engine{
		rules:      rules,
		checker:    checker,
		opts:       opts,
		cache:      cache,
		sink:       sink,
		log:        log.With().Str("component", "fieldcheck").Logger(),
		root:       root,
		rootCancel: cancel,
		pending:    make(map[string]pendingCall),
	}
}

// SetExcludeID sets the id of the record being edited so it does not collide
// with itself
func (e *Engine) SetExcludeID(id int64) {
	e.mu.Lock()
	e.excludeID = id
	e.mu.Unlock()
}

// SetRules swaps the rule engine, used when the wizard switches mode
func (e *Engine) SetRules(rules *validation.Rules) {
	e.mu.Lock()
	e.rules = rules
	e.mu.Unlock()
}

// IsEager reports whether f is validated without debounce
func (e *Engine) IsEager(f models.Field) bool {
	return e.opts.Eager[f]
}

// IsAsync reports whether f needs a uniqueness check
func (e *Engine) IsAsync(f models.Field) bool {
	return models.UniqueFields[f]
}

// Cache returns the uniqueness result cache
func (e *Engine) Cache() *ResultCache {
	return e.cache
}

// ValidateField runs the rule engine immediately
func (e *Engine) ValidateField(f models.Field, value string, d *models.UserDraft) validation.Result {
	e.mu.Lock()
	rules := e.rules
	e.mu.Unlock()
	return rules.ValidateField(f, value, d)
}

// ScheduleSync validates f after the sync debounce and hands the outcome to
// the sink. A newer call for the same field cancels this one. d must be a
// snapshot the caller will not mutate.
func (e *Engine) ScheduleSync(f models.Field, value string, d *models.UserDraft) {
	ctx, id, ok := e.begin(e.root, syncKey(f))
	if !ok {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.release(syncKey(f), id)

		if err := sleep(ctx, e.opts.SyncDelay); err != nil {
			return
		}
		res := e.ValidateField(f, value, d)
		e.deliver(syncKey(f), id, Outcome{Field: f, Value: value, Kind: KindRule, Result: res})
	}()
}

// Enqueue runs ValidateAsync in the background and hands a non-superseded
// outcome to the sink. The call is registered before Enqueue returns, so
// ordering between calls follows the caller's order.
func (e *Engine) Enqueue(f models.Field, value string) {
	key := asyncKey(f)
	ctx, id, ok := e.begin(e.root, key)
	if !ok {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		out, err := e.runAsync(ctx, key, id, f, value)
		if err != nil {
			return
		}
		if e.sink != nil {
			e.sink(out)
		}
	}()
}

// ValidateAsync waits for the async debounce, then checks the cache and
// finally the Checker. Only the latest call per field completes; earlier
// ones return ErrSuperseded. A failed request yields an Outcome carrying a
// Warning rather than an error.
func (e *Engine) ValidateAsync(ctx context.Context, f models.Field, value string) (Outcome, error) {
	key := asyncKey(f)
	ctx, id, ok := e.begin(ctx, key)
	if !ok {
		return Outcome{}, ErrSuperseded
	}
	return e.runAsync(ctx, key, id, f, value)
}

func (e *Engine) runAsync(ctx context.Context, key string, id uint64, f models.Field, value string) (Outcome, error) {
	defer e.release(key, id)

	if err := sleep(ctx, e.opts.AsyncDelay); err != nil {
		return Outcome{}, e.interrupted(key, id, err)
	}

	out := Outcome{Field: f, Value: value, Kind: KindUniqueness}
	ck := CacheKey(f, value)
	if res, hit := e.cache.Get(ck); hit {
		out.Result = res
		out.Cached = true
		return out, nil
	}

	if e.checker == nil {
		out.Result = validation.Result{Valid: true}
		return out, nil
	}

	e.mu.Lock()
	excludeID := e.excludeID
	e.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	avail, err := e.checker.CheckAvailability(reqCtx, f, value, excludeID)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, e.interrupted(key, id, ctx.Err())
		}
		e.log.Warn().Err(err).Str("field", string(f)).Msg("Uniqueness check failed")
		out.Result = validation.Result{Valid: true}
		out.Warning = fmt.Sprintf("Unable to verify %s right now", f.Label())
		return out, nil
	}

	if avail.Available {
		out.Result = validation.Result{Valid: true}
	} else {
		msg := avail.Message
		if msg == "" {
			msg = fmt.Sprintf("%s is already taken", f.Label())
		}
		out.Result = validation.Result{Message: msg}
	}
	e.cache.Put(ck, out.Result)

	if !e.isCurrent(key, id) {
		return Outcome{}, ErrSuperseded
	}
	return out, nil
}

// Cancel aborts pending sync and async work for f
func (e *Engine) Cancel(f models.Field) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, key := range []string{syncKey(f), asyncKey(f)} {
		if p, ok := e.pending[key]; ok {
			p.cancel()
			delete(e.pending, key)
		}
	}
}

// CancelAll aborts every pending validation
func (e *Engine) CancelAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key, p := range e.pending {
		p.cancel()
		delete(e.pending, key)
	}
}

// Pending returns the number of in-flight validations
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Wait blocks until every scheduled validation has finished
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close cancels all work; the engine schedules nothing afterwards
func (e *Engine) Close() {
	e.rootCancel()
	e.CancelAll()
	e.wg.Wait()
}

// begin registers a new call for key, cancelling the previous one
func (e *Engine) begin(parent context.Context, key string) (context.Context, uint64, bool) {
	if e.root.Err() != nil {
		return nil, 0, false
	}
	ctx, cancel := context.WithCancel(parent)

	e.mu.Lock()
	defer e.mu.Unlock()
	if prev, ok := e.pending[key]; ok {
		prev.cancel()
	}
	e.seq++
	e.pending[key] = pendingCall{id: e.seq, cancel: cancel}
	return ctx, e.seq, true
}

func (e *Engine) release(key string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.pending[key]; ok && p.id == id {
		p.cancel()
		delete(e.pending, key)
	}
}

func (e *Engine) isCurrent(key string, id uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.pending[key]
	return ok && p.id == id
}

func (e *Engine) deliver(key string, id uint64, out Outcome) {
	if e.sink == nil || !e.isCurrent(key, id) {
		return
	}
	e.sink(out)
}

// interrupted maps a context error to ErrSuperseded when a newer call took
// over, or passes the caller's cancellation through
func (e *Engine) interrupted(key string, id uint64, err error) error {
	if !e.isCurrent(key, id) {
		return ErrSuperseded
	}
	return err
}

func syncKey(f models.Field) string  { return "sync:" + string(f) }
func asyncKey(f models.Field) string { return "async:" + string(f) }

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
