// Package sdcard watches SD cards for unsafe ejection.
//
// A worker polls every registered card. A card found in the error state,
// usually pulled while mounted, is unmounted so the next insert can mount
// cleanly. Each check holds the card's bus lock, which the card may share
// with the display.
package sdcard

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tactility/internal/domain/device"
	"github.com/GriffinCanCode/tactility/internal/domain/lock"
	"github.com/GriffinCanCode/tactility/internal/domain/service"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
)

// ServiceID is the service id of the watcher
const ServiceID = "sdcard"

// Defaults match a slow background poll that never holds the shared bus
// long enough to stall rendering.
const (
	DefaultInterval    = 2 * time.Second
	DefaultLockTimeout = 100 * time.Millisecond
)

// Watcher polls SD card health
type Watcher struct {
	devices     *device.Registry
	interval    time.Duration
	lockTimeout time.Duration
	owner       lock.Owner
	logger      *logging.Logger

	mu   sync.Mutex
	last map[device.ID]device.SdState // Protected by mu
}

// New creates a watcher over the cards in devices
func New(devices *device.Registry, logger *logging.Logger) *Watcher {
	return &Watcher{
		devices:     devices,
		interval:    DefaultInterval,
		lockTimeout: DefaultLockTimeout,
		owner:       lock.NewOwner(),
		logger:      logger.Named(ServiceID),
		last:        make(map[device.ID]device.SdState),
	}
}

// WithInterval sets the poll interval
func (w *Watcher) WithInterval(d time.Duration) *Watcher {
	w.interval = d
	return w
}

// WithLockTimeout sets how long a check waits for the bus
func (w *Watcher) WithLockTimeout(d time.Duration) *Watcher {
	w.lockTimeout = d
	return w
}

// Manifest is the service manifest of the watcher. Without an SD card the
// service starts but runs no worker.
func (w *Watcher) Manifest() service.Manifest {
	return service.Manifest{
		ID: ServiceID,
		OnStart: func(inst *service.Instance) error {
			if !w.devices.Has(device.TypeSdCard) {
				w.logger.Info("worker not started: no sd card")
				return nil
			}
			worker := service.NewWorker(ServiceID, w.logger)
			worker.Every("poll", w.interval, w.Poll)
			inst.SetData(worker)
			return nil
		},
		OnStop: func(inst *service.Instance) {
			if worker, ok := inst.Data().(*service.Worker); ok {
				worker.Stop()
			}
		},
	}
}

// Poll checks every card once
func (w *Watcher) Poll() {
	for _, card := range device.FindAllOf[device.SdCard](w.devices, device.TypeSdCard) {
		bus := card.BusLock()
		if bus == nil {
			w.check(card)
			continue
		}
		if !bus.With(w.owner, w.lockTimeout, func() { w.check(card) }) {
			w.logger.Debug("skipped check: bus busy",
				zap.String("card", card.Name()),
				zap.String("bus", bus.Name()),
			)
		}
	}
}

// LastState returns the state seen by the latest check of card id
func (w *Watcher) LastState(id device.ID) (device.SdState, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	state, ok := w.last[id]
	return state, ok
}

func (w *Watcher) check(card device.SdCard) {
	state := card.State()

	if state == device.SdStateError {
		w.logger.Warn("sd card error: unmounting, was the card ejected unsafely?",
			zap.String("card", card.Name()),
		)
		if err := card.Unmount(); err != nil {
			w.logger.Error("unmount failed", zap.String("card", card.Name()), zap.Error(err))
		}
	}

	w.mu.Lock()
	previous, seen := w.last[card.ID()]
	w.last[card.ID()] = state
	w.mu.Unlock()

	if !seen || previous != state {
		w.logger.Info("sd card state",
			zap.String("card", card.Name()),
			zap.Stringer("state", state),
		)
	}
}
