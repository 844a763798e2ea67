package service

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/monitoring"
)

// Registry holds service manifests and running instances.
//
// The maps are guarded by mu, but lifecycle hooks run without it: the
// instance is inserted in StateStarting first, so OnStart can look itself
// (or other services) up, and a concurrent Start of the same id is refused.
type Registry struct {
	mu        sync.RWMutex
	manifests map[string]Manifest  // Protected by mu
	instances map[string]*Instance // Protected by mu
	order     []string             // Protected by mu, start order of instances

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewRegistry creates an empty service registry
func NewRegistry(logger *logging.Logger) *Registry {
	return &Registry{
		manifests: make(map[string]Manifest),
		instances: make(map[string]*Instance),
		logger:    logger.Named("services"),
	}
}

// WithMetrics adds metrics tracking to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// Add registers a manifest. Registering an id again replaces the manifest;
// an instance that is already running keeps the manifest it started with.
func (r *Registry) Add(m Manifest) bool {
	if m.ID == "" {
		r.logger.Error("service manifest without id")
		return false
	}

	r.mu.Lock()
	_, replaced := r.manifests[m.ID]
	r.manifests[m.ID] = m
	r.mu.Unlock()

	if replaced {
		r.logger.Warn("service manifest replaced", zap.String("id", m.ID))
	} else {
		r.logger.Debug("service manifest added", zap.String("id", m.ID))
	}
	r.metrics.RecordServiceTransition(m.ID, "registered")
	return true
}

// AddAndStart registers m and starts it
func (r *Registry) AddAndStart(m Manifest) bool {
	return r.Add(m) && r.Start(m.ID)
}

// Start creates an instance of the registered manifest and runs its
// OnStart hook. It fails for unknown ids, for ids that already have an
// instance, and when OnStart returns an error or panics.
func (r *Registry) Start(id string) bool {
	r.mu.Lock()
	m, ok := r.manifests[id]
	if !ok {
		r.mu.Unlock()
		r.logger.Error("start of unknown service", zap.String("id", id))
		return false
	}
	if existing, running := r.instances[id]; running {
		r.mu.Unlock()
		r.logger.Warn("service already running",
			zap.String("id", id),
			zap.Stringer("state", existing.State()),
		)
		return false
	}
	inst := newInstance(m)
	r.instances[id] = inst
	r.mu.Unlock()

	r.logger.Info("starting service", zap.String("id", id))

	if err := r.runStart(inst); err != nil {
		r.mu.Lock()
		delete(r.instances, id)
		r.mu.Unlock()
		inst.setState(StateStopped)

		r.logger.Error("service failed to start", zap.String("id", id), zap.Error(err))
		r.metrics.RecordServiceTransition(id, "start_failed")
		return false
	}

	r.mu.Lock()
	inst.setState(StateStarted)
	r.order = append(r.order, id)
	running := len(r.order)
	r.mu.Unlock()

	r.logger.Info("service started",
		zap.String("id", id),
		zap.String("instance_id", inst.InstanceID().String()),
	)
	r.metrics.RecordServiceTransition(id, "started")
	r.metrics.SetServicesRunning(running)
	return true
}

// Stop runs OnStop of a started instance and removes it. The manifest stays
// registered so the service can be started again.
func (r *Registry) Stop(id string) bool {
	r.mu.Lock()
	inst, ok := r.instances[id]
	if !ok || inst.State() != StateStarted {
		r.mu.Unlock()
		r.logger.Warn("stop of service that is not running", zap.String("id", id))
		return false
	}
	inst.setState(StateStopping)
	r.mu.Unlock()

	r.logger.Info("stopping service", zap.String("id", id))
	r.runStop(inst)

	r.mu.Lock()
	delete(r.instances, id)
	r.order = removeID(r.order, id)
	running := len(r.order)
	r.mu.Unlock()
	inst.setState(StateStopped)

	r.logger.Info("service stopped", zap.String("id", id))
	r.metrics.RecordServiceTransition(id, "stopped")
	r.metrics.SetServicesRunning(running)
	return true
}

// StopAll stops every started service in reverse start order
func (r *Registry) StopAll() int {
	r.mu.RLock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	r.mu.RUnlock()

	stopped := 0
	for i := len(ids) - 1; i >= 0; i-- {
		if r.Stop(ids[i]) {
			stopped++
		}
	}
	return stopped
}

// Find returns the instance of id, including one whose OnStart is running
func (r *Registry) Find(id string) (*Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	return inst, ok
}

// FindManifest returns the manifest registered under id
func (r *Registry) FindManifest(id string) (Manifest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.manifests[id]
	return m, ok
}

// State returns the lifecycle state of id
func (r *Registry) State(id string) State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if inst, ok := r.instances[id]; ok {
		return inst.State()
	}
	if _, ok := r.manifests[id]; ok {
		return StateRegistered
	}
	return StateUnregistered
}

// List returns the started instances in start order
func (r *Registry) List() []*Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Instance, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.instances[id])
	}
	return out
}

// Manifests returns the registered manifest ids, sorted
func (r *Registry) Manifests() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.manifests))
	for id := range r.manifests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) runStart(inst *Instance) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("on start panicked: %v", p)
		}
	}()
	if inst.manifest.OnStart == nil {
		return nil
	}
	return inst.manifest.OnStart(inst)
}

func (r *Registry) runStop(inst *Instance) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("service on stop panicked",
				zap.String("id", inst.ID()),
				zap.Any("panic", p),
			)
		}
	}()
	if inst.manifest.OnStop != nil {
		inst.manifest.OnStop(inst)
	}
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
