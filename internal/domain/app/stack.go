package app

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tactility/internal/domain/lock"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/tactility/internal/shared/bundle"
	"github.com/GriffinCanCode/tactility/internal/shared/pubsub"
)

// DefaultMaxDepth bounds the number of stacked apps
const DefaultMaxDepth = 16

// EventType is the kind of a stack event
type EventType int

const (
	EventStarted EventType = iota + 1
	EventShowing
	EventHiding
	EventStopped
)

// String returns the string representation of the event type
func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventShowing:
		return "showing"
	case EventHiding:
		return "hiding"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MarshalText encodes the event type by name
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Event reports a change of the foreground app
type Event struct {
	Type       EventType `json:"type"`
	AppID      string    `json:"app_id"`
	LaunchID   LaunchID  `json:"launch_id"`
	InstanceID string    `json:"instance_id"`
	Depth      int       `json:"depth"`
	Time       time.Time `json:"time"`
}

type entry struct {
	ctx *Context
	app App
}

// Stack is the foreground app stack: the top entry is the current app.
//
// Lifecycle methods (Start, Show, Hide, Stop) must be called from the UI
// goroutine; Loader marshals them there. Current, Depth and Snapshot may be
// called from any goroutine.
type Stack struct {
	registry *Registry
	graphics *lock.Lock
	owner    lock.Owner
	maxDepth int
	parent   func(ctx *Context) any
	starter  Starter
	events   *pubsub.PubSub[Event]

	nextLaunch atomic.Uint32

	mu      sync.RWMutex
	entries []*entry // Protected by mu

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// StackOption configures a Stack
type StackOption func(*Stack)

// WithStackLogger sets the logger
func WithStackLogger(logger *logging.Logger) StackOption {
	return func(s *Stack) { s.logger = logger.Named("loader") }
}

// WithStackMetrics sets the metrics collector
func WithStackMetrics(metrics *monitoring.Metrics) StackOption {
	return func(s *Stack) { s.metrics = metrics }
}

// WithGraphicsLock makes every app callback run with l held by owner.
// owner must be the token of the UI goroutine so callbacks can take the
// lock again.
func WithGraphicsLock(l *lock.Lock, owner lock.Owner) StackOption {
	return func(s *Stack) {
		s.graphics = l
		s.owner = owner
	}
}

// WithMaxDepth bounds the stack; n <= 0 means unbounded
func WithMaxDepth(n int) StackOption {
	return func(s *Stack) { s.maxDepth = n }
}

// WithParent supplies the parent object passed to OnShow
func WithParent(fn func(ctx *Context) any) StackOption {
	return func(s *Stack) { s.parent = fn }
}

// NewStack creates an empty stack over the manifests of registry
func NewStack(registry *Registry, opts ...StackOption) *Stack {
	s := &Stack{
		registry: registry,
		maxDepth: DefaultMaxDepth,
		parent:   func(*Context) any { return nil },
		events:   pubsub.New[Event](32),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events is the fan-out of stack changes
func (s *Stack) Events() *pubsub.PubSub[Event] {
	return s.events
}

// NextLaunchID reserves a launch id
func (s *Stack) NextLaunchID() LaunchID {
	return LaunchID(s.nextLaunch.Add(1))
}

// Start launches appID on top of the stack and returns its launch id
func (s *Stack) Start(appID string, params *bundle.Bundle) (LaunchID, bool) {
	launchID := s.NextLaunchID()
	return launchID, s.StartWithID(launchID, appID, params)
}

// StartWithID launches appID under a launch id reserved earlier with
// NextLaunchID. Unknown ids and a full stack are logged and refused.
func (s *Stack) StartWithID(launchID LaunchID, appID string, params *bundle.Bundle) bool {
	m, ok := s.registry.Find(appID)
	if !ok {
		s.logger.Error("start of unknown app", zap.String("id", appID))
		return false
	}
	if m.Factory == nil {
		s.logger.Error("app manifest has no factory", zap.String("id", appID))
		return false
	}

	s.mu.RLock()
	depth := len(s.entries)
	var previous *entry
	if depth > 0 {
		previous = s.entries[depth-1]
	}
	s.mu.RUnlock()

	if s.maxDepth > 0 && depth >= s.maxDepth {
		s.logger.Error("app stack limit reached",
			zap.String("id", appID),
			zap.Int("limit", s.maxDepth),
		)
		return false
	}

	instance := m.Factory()
	if instance == nil {
		s.logger.Error("app factory returned nil", zap.String("id", appID))
		return false
	}

	e := &entry{ctx: newContext(m, launchID, params, s.starter), app: instance}
	s.logger.Info("starting app",
		zap.String("id", appID),
		zap.Uint32("launch_id", uint32(launchID)),
	)

	s.transition(e, StateStarted)
	if previous != nil && previous.ctx.State() == StateShown {
		s.transition(previous, StateHidden)
	}

	s.mu.Lock()
	s.entries = append(s.entries, e)
	depth = len(s.entries)
	s.mu.Unlock()
	s.metrics.SetAppStackDepth(depth)

	s.transition(e, StateShown)
	s.publish(EventStarted, e, depth)
	return true
}

// Show re-presents the current app after Hide
func (s *Stack) Show() bool {
	top, ok := s.top()
	if !ok || top.ctx.State() != StateHidden {
		s.logger.Warn("show ignored: no hidden app on top")
		return false
	}
	s.transition(top, StateShown)
	return true
}

// Hide removes the current app's screen without stopping it
func (s *Stack) Hide() bool {
	top, ok := s.top()
	if !ok || top.ctx.State() != StateShown {
		s.logger.Warn("hide ignored: no shown app on top")
		return false
	}
	s.transition(top, StateHidden)
	return true
}

// Stop stops the current app. The app below it, if any, is shown again
// and receives the stopped app's result; an app that set no result
// reports ResultCancelled.
func (s *Stack) Stop() bool {
	top, ok := s.top()
	if !ok {
		s.logger.Warn("stop ignored: no app running")
		return false
	}

	if top.ctx.State() == StateShown {
		s.transition(top, StateHidden)
	}
	s.transition(top, StateStopped)

	s.mu.Lock()
	n := len(s.entries)
	s.entries[n-1] = nil
	s.entries = s.entries[:n-1]
	var next *entry
	if n > 1 {
		next = s.entries[n-2]
	}
	s.mu.Unlock()
	s.metrics.SetAppStackDepth(n - 1)
	s.publish(EventStopped, top, n-1)

	if next == nil {
		return true
	}

	if next.ctx.State() != StateShown {
		s.transition(next, StateShown)
	}

	result, data, has := top.ctx.Result()
	if !has {
		result, data = ResultCancelled, nil
	}
	s.deliverResult(next, top.ctx.LaunchID(), result, data)
	return true
}

// StopAll stops every app from the top down
func (s *Stack) StopAll() int {
	stopped := 0
	for s.Depth() > 0 {
		if !s.Stop() {
			break
		}
		stopped++
	}
	return stopped
}

// Current returns the context of the foreground app
func (s *Stack) Current() (*Context, bool) {
	top, ok := s.top()
	if !ok {
		return nil, false
	}
	return top.ctx, true
}

// Depth returns the number of stacked apps
func (s *Stack) Depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot describes the stack from bottom to top
func (s *Stack) Snapshot() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Info, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.ctx.Describe())
	}
	return out
}

func (s *Stack) top() (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return nil, false
	}
	return s.entries[len(s.entries)-1], true
}

func (s *Stack) transition(e *entry, to State) {
	from := e.ctx.State()
	appID := e.ctx.manifest.ID
	s.logger.Debug("app state",
		zap.String("id", appID),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)

	s.callback(e, to.String(), func() {
		switch to {
		case StateStarted:
			e.app.OnStart(e.ctx)
		case StateShown:
			e.app.OnShow(e.ctx, s.parent(e.ctx))
		case StateHidden:
			e.app.OnHide(e.ctx)
		case StateStopped:
			e.app.OnStop(e.ctx)
		}
	})
	e.ctx.setState(to)
	s.metrics.RecordAppTransition(appID, to.String())

	switch to {
	case StateShown:
		s.publish(EventShowing, e, s.Depth())
	case StateHidden:
		s.publish(EventHiding, e, s.Depth())
	}
}

func (s *Stack) deliverResult(e *entry, launchID LaunchID, result Result, data *bundle.Bundle) {
	s.logger.Debug("delivering app result",
		zap.String("id", e.ctx.manifest.ID),
		zap.Uint32("launch_id", uint32(launchID)),
		zap.Stringer("result", result),
	)
	s.callback(e, "result", func() {
		e.app.OnResult(e.ctx, launchID, result, data)
	})
}

// callback runs fn under the graphics lock. A panicking app is logged and
// its transition still completes so the stack stays consistent.
func (s *Stack) callback(e *entry, phase string, fn func()) {
	run := func() {
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("app callback panicked",
					zap.String("id", e.ctx.manifest.ID),
					zap.String("phase", phase),
					zap.Any("panic", p),
				)
			}
		}()
		fn()
	}

	if s.graphics == nil {
		run()
		return
	}
	s.graphics.With(s.owner, lock.Forever, run)
}

func (s *Stack) publish(t EventType, e *entry, depth int) {
	s.events.Publish(Event{
		Type:       t,
		AppID:      e.ctx.manifest.ID,
		LaunchID:   e.ctx.launchID,
		InstanceID: e.ctx.instanceID.String(),
		Depth:      depth,
		Time:       time.Now(),
	})
}
