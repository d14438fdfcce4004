package booster

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-boost/audio"
	"github.com/cwbudde/algo-boost/dom"
	"github.com/cwbudde/algo-boost/store"
)

// ErrClosed is returned for events delivered after Close.
var ErrClosed = errors.New("booster: engine closed")

// Engine is the per-page booster context: persisted state, the shared
// chain, the attached element set and the discovery watchers. Every
// mutation goes through Update, which holds the engine lock, so events from
// timers, observers and control surfaces apply in a single order.
type Engine struct {
	cfg     Config
	log     logrus.FieldLogger
	root    dom.Node
	graph   audio.Graph
	backend store.Backend

	mu        sync.Mutex
	state     State
	chain     *Chain
	attacher  *Attacher
	stopWatch func()
	reported  map[string]struct{}
	closed    bool

	events chan Event
	done   chan struct{}
}

// New loads the persisted state, builds the chain on g, attaches every
// media element under root and starts watching root for insertions.
//
// Failing to build the chain is an InitializationFailure: it is reported
// through the notifier and returned. Discovery, attachment and watch
// failures are reported but do not fail construction.
func New(ctx context.Context, root dom.Node, g audio.Graph, backend store.Backend, opts ...Option) (*Engine, error) {
	cfg := applyOptions(opts...)

	e := &Engine{
		cfg:      cfg,
		log:      cfg.Logger,
		root:     root,
		graph:    g,
		backend:  backend,
		reported: map[string]struct{}{},
		events:   make(chan Event, cfg.QueueSize),
		done:     make(chan struct{}),
	}

	state, err := LoadState(ctx, backend)
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"function": "New",
			"error":    err.Error(),
		}).Warn("Falling back to default settings")
	}

	e.state = state

	chain, err := NewChain(g)
	if err == nil {
		e.chain = chain
		err = e.applyChain()
	}

	if err != nil {
		ferr := failure(InitializationFailure, err)
		e.report(ferr)

		return nil, ferr
	}

	e.attacher = NewAttacher(g, chain.Input(), e.sourceChanged)

	e.mu.Lock()
	e.rescan()
	e.ensureWatch()

	if state.FloatingUIVisible && cfg.Panel != nil {
		cfg.Panel.Show(state)
	}
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"function": "New",
		"enabled":  state.Enabled,
		"gain":     state.Gain,
		"attached": e.attacher.Len(),
	}).Info("Audio booster initialized")

	return e, nil
}

// Update applies one event and acknowledges it. It never panics on host
// failures: each is logged and turned into a notice.
func (e *Engine) Update(ctx context.Context, ev Event) Response {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return failed(ErrClosed)
	}

	switch ev.Kind {
	case EventCommand:
		return e.handle(ctx, ev.Command)
	case EventRescan:
		e.rescan()
	case EventNodesAdded:
		e.scan(ev.Nodes)
	case EventSourceChanged:
		if ev.Element == nil {
			return failed(ErrInvalidPayload)
		}

		if err := e.attacher.Rebind(ev.Element); err != nil {
			e.report(err)
		}
	default:
		return failed(ErrUnknownAction)
	}

	return succeeded()
}

// Submit queues ev for Run. It reports false when the queue is full or the
// engine is closed; the periodic rescan recovers dropped discovery events.
func (e *Engine) Submit(ev Event) bool {
	select {
	case <-e.done:
		return false
	default:
	}

	select {
	case e.events <- ev:
		return true
	default:
		e.log.WithFields(logrus.Fields{
			"function": "Submit",
			"kind":     ev.Kind.String(),
		}).Warn("Event queue full, dropping event")

		return false
	}
}

// Run applies queued events and performs the periodic full rescan until
// ctx is done or the engine is closed.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.RescanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.done:
			return nil
		case <-ticker.C:
			e.Update(ctx, Event{Kind: EventRescan})
		case ev := <-e.events:
			e.Update(ctx, ev)
		}
	}
}

// Close stops watching the document and removes source-change listeners.
// Attached elements keep playing through the chain.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	e.closed = true
	close(e.done)

	if e.stopWatch != nil {
		e.stopWatch()
		e.stopWatch = nil
	}

	e.attacher.Close()
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// Chain returns the signal chain. Callers must not mutate it concurrently
// with Update.
func (e *Engine) Chain() *Chain { return e.chain }

// Attached returns the number of elements routed into the chain.
func (e *Engine) Attached() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.attacher.Len()
}

// Watching reports whether the mutation watch is active.
func (e *Engine) Watching() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.stopWatch != nil
}

func (e *Engine) handle(ctx context.Context, cmd Command) Response {
	logger := e.log.WithFields(logrus.Fields{
		"function": "handle",
		"action":   string(cmd.Action),
	})

	if err := cmd.Validate(); err != nil {
		logger.WithField("error", err.Error()).Warn("Rejected command")
		return failed(err)
	}

	var err error

	switch cmd.Action {
	case ActionToggleBooster:
		err = e.toggleBooster(ctx, *cmd.Enabled)
	case ActionToggleFloatingUI:
		e.toggleFloatingUI(ctx)
	case ActionUpdateGain:
		err = e.updateGain(ctx, *cmd.Value)
	case ActionUpdateCompressor:
		p, _ := cmd.CompressorPatch()
		err = e.updateCompressor(ctx, e.state.Compressor.Merge(p))
	case ActionUpdateLimiter:
		p, _ := cmd.LimiterPatch()
		err = e.updateLimiter(ctx, e.state.Limiter.Merge(p))
	case ActionApplyPreset:
		preset, _ := LookupPreset(cmd.Preset)
		err = e.applyPreset(ctx, preset)
	}

	if e.state.FloatingUIVisible && e.cfg.Panel != nil {
		e.cfg.Panel.Show(e.state)
	}

	if err != nil {
		e.report(err)
		return failed(err)
	}

	logger.Debug("Command applied")

	return succeeded()
}

func (e *Engine) toggleBooster(ctx context.Context, enabled bool) error {
	e.state.Enabled = enabled
	e.persist(ctx, KeyBoosterEnabled)

	var err error
	if rerr := e.applyChain(); rerr != nil {
		op := "disable audio booster"
		if enabled {
			op = "enable audio booster"
		}

		err = &Error{Kind: ToggleFailure, Op: op, Err: rerr}
	}

	e.rescan()
	e.ensureWatch()

	return err
}

func (e *Engine) toggleFloatingUI(ctx context.Context) {
	e.state.FloatingUIVisible = !e.state.FloatingUIVisible
	e.persist(ctx, KeyFloatingUIVisible)

	if e.cfg.Panel != nil && !e.state.FloatingUIVisible {
		e.cfg.Panel.Hide()
	}
}

func (e *Engine) updateGain(ctx context.Context, gain float64) error {
	e.state.Gain = gain
	e.persist(ctx, KeyGainValue)

	if !e.state.Enabled {
		return nil
	}

	if err := e.chain.Rebuild(true, gain); err != nil {
		return failure(ChainUpdateFailure, err)
	}

	return nil
}

func (e *Engine) updateCompressor(ctx context.Context, s CompressorSettings) error {
	e.state.Compressor = s
	e.persist(ctx, KeyCompressorSettings)

	if !e.state.Enabled {
		return nil
	}

	if err := e.chain.ApplyCompressor(s); err != nil {
		return failure(ChainUpdateFailure, err)
	}

	return nil
}

func (e *Engine) updateLimiter(ctx context.Context, s LimiterSettings) error {
	e.state.Limiter = s
	e.persist(ctx, KeyLimiterSettings)

	if !e.state.Enabled {
		return nil
	}

	if err := e.chain.ApplyLimiter(s, e.state.Gain); err != nil {
		return failure(ChainUpdateFailure, err)
	}

	return nil
}

func (e *Engine) applyPreset(ctx context.Context, p Preset) error {
	e.state = p.Apply(e.state)
	e.persist(ctx, KeyCompressorSettings, KeyLimiterSettings)

	if !e.state.Enabled {
		return nil
	}

	err := errors.Join(
		e.chain.ApplyCompressor(e.state.Compressor),
		e.chain.ApplyLimiter(e.state.Limiter, e.state.Gain),
	)
	if err != nil {
		return failure(ChainUpdateFailure, err)
	}

	return nil
}

// applyChain writes the stored settings onto the stages and rewires them.
// Settings changed while disabled only reach the stages here.
func (e *Engine) applyChain() error {
	return errors.Join(
		e.chain.ApplyCompressor(e.state.Compressor),
		e.chain.ApplyLimiter(e.state.Limiter, e.state.Gain),
		e.chain.Rebuild(e.state.Enabled, e.state.Gain),
	)
}

func (e *Engine) rescan() {
	e.scan([]dom.Node{e.root})
}

func (e *Engine) scan(roots []dom.Node) {
	els, err := DiscoverAll(roots)
	e.report(err)

	n, err := e.attacher.AttachAll(els)
	e.report(err)

	if n > 0 {
		e.log.WithFields(logrus.Fields{
			"function": "scan",
			"new":      n,
			"attached": e.attacher.Len(),
		}).Info("Attached media elements")
	}
}

func (e *Engine) ensureWatch() {
	if e.stopWatch != nil {
		return
	}

	stop, err := Watch(e.root, e.nodesAdded)
	if err != nil {
		e.report(err)
		return
	}

	e.stopWatch = stop
}

func (e *Engine) nodesAdded(nodes []dom.Node) {
	e.dispatch(Event{Kind: EventNodesAdded, Nodes: nodes})
}

func (e *Engine) sourceChanged(me dom.MediaElement) {
	e.dispatch(Event{Kind: EventSourceChanged, Element: me})
}

func (e *Engine) dispatch(ev Event) {
	if e.cfg.InlineEvents {
		e.Update(context.Background(), ev)
		return
	}

	e.Submit(ev)
}

func (e *Engine) persist(ctx context.Context, keys ...string) {
	if err := SaveState(ctx, e.backend, e.state, keys...); err != nil {
		e.log.WithFields(logrus.Fields{
			"function": "persist",
			"keys":     keys,
			"error":    err.Error(),
		}).Error("Failed to persist settings")
	}
}

// report logs err and turns each of its failures into a notice. Benign
// "already connected" races are logged at debug level only. Identical
// discovery failures are announced once, since the periodic rescan would
// otherwise repeat them forever.
func (e *Engine) report(err error) {
	for _, leaf := range splitErrors(err) {
		if audio.IsAlreadyConnected(leaf) {
			e.log.WithFields(logrus.Fields{
				"function": "report",
				"error":    leaf.Error(),
			}).Debug("Ignoring already connected element")

			continue
		}

		kind := KindOf(leaf)
		msg := leaf.Error()

		var be *Error
		if errors.As(leaf, &be) {
			msg = be.Message()
		}

		e.log.WithFields(logrus.Fields{
			"function": "report",
			"kind":     kind.String(),
			"error":    leaf.Error(),
		}).Error("Audio booster failure")

		if kind == DiscoveryFailure {
			if _, seen := e.reported[msg]; seen {
				continue
			}

			e.reported[msg] = struct{}{}
		}

		if e.cfg.Notifier != nil {
			e.cfg.Notifier.Notify(Notice{
				Kind:    kind,
				Message: msg,
				InPanel: e.state.FloatingUIVisible && e.cfg.Panel != nil,
				TTL:     e.cfg.NoticeTTL,
			})
		}
	}
}
