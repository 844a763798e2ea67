// Package runtime owns every registry of a running device and boots the
// built-in services and apps on a board.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tactility/internal/apps"
	"github.com/GriffinCanCode/tactility/internal/domain/app"
	"github.com/GriffinCanCode/tactility/internal/domain/device"
	"github.com/GriffinCanCode/tactility/internal/domain/dispatch"
	"github.com/GriffinCanCode/tactility/internal/domain/lock"
	"github.com/GriffinCanCode/tactility/internal/domain/service"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/config"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/tactility/internal/services/development"
	"github.com/GriffinCanCode/tactility/internal/services/sdcard"
	"github.com/GriffinCanCode/tactility/internal/services/statusbar"
)

// ErrAlreadyBooted is returned by a second Boot
var ErrAlreadyBooted = errors.New("runtime already booted")

// pumpInterval is how long Close waits for one UI message between checks
const pumpInterval = 10 * time.Millisecond

// SdCardMountPath is where Boot mounts the first SD card
const SdCardMountPath = "/sdcard"

// Board supplies the devices of one hardware target
type Board interface {
	Name() string
	Devices() []device.Device
}

// Runtime wires the device, service and app registries to one UI
// dispatcher. The goroutine calling Run is the UI goroutine.
type Runtime struct {
	devices  *device.Registry
	services *service.Registry
	apps     *app.Registry
	locks    *lock.Coordinator
	ui       *dispatch.Dispatcher
	uiOwner  lock.Owner
	loader   *app.Loader

	sdcard    *sdcard.Watcher
	statusbar *statusbar.Updater
	devServer *development.Server

	board   Board
	cfg     *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// New creates an idle runtime. A nil cfg uses config.Default and a nil
// logger discards output; metrics may be nil.
func New(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics) *Runtime {
	if cfg == nil {
		cfg = config.Default()
	}
	logger = logging.OrNop(logger)

	r := &Runtime{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		uiOwner: lock.NewOwner(),
	}

	r.devices = device.NewRegistry(logger).WithMetrics(metrics)
	r.services = service.NewRegistry(logger).WithMetrics(metrics)
	r.apps = app.NewRegistry(logger)
	r.locks = lock.NewCoordinator(logger).WithMetrics(metrics)
	r.ui = dispatch.New("ui", cfg.Dispatcher.QueueSize,
		dispatch.WithLogger(logger),
		dispatch.WithMetrics(metrics),
		dispatch.WithBackpressureWarning(cfg.Dispatcher.BackpressureWarn),
	)

	graphics := r.locks.Get(lock.Graphics)
	stack := app.NewStack(r.apps,
		app.WithStackLogger(logger),
		app.WithStackMetrics(metrics),
		app.WithGraphicsLock(graphics, r.uiOwner),
		app.WithMaxDepth(cfg.Loader.MaxStackDepth),
	)
	r.loader = app.NewLoader(stack, r.ui, logger).WithTimeout(cfg.Loader.Timeout)

	r.sdcard = sdcard.New(r.devices, logger).
		WithInterval(cfg.Services.SdCardPoll).
		WithLockTimeout(cfg.Locks.Timeout)
	r.statusbar = statusbar.New(r.devices, r.ui, graphics, r.uiOwner, logger).
		WithInterval(cfg.Services.StatusbarPoll)

	return r
}

func (r *Runtime) Devices() *device.Registry        { return r.devices }
func (r *Runtime) Services() *service.Registry      { return r.services }
func (r *Runtime) Apps() *app.Registry              { return r.apps }
func (r *Runtime) Locks() *lock.Coordinator         { return r.locks }
func (r *Runtime) UI() *dispatch.Dispatcher         { return r.ui }
func (r *Runtime) Loader() *app.Loader              { return r.loader }
func (r *Runtime) Statusbar() *statusbar.Updater    { return r.statusbar }
func (r *Runtime) Development() *development.Server { return r.devServer }

// UIOwner is the lock owner of the UI goroutine
func (r *Runtime) UIOwner() lock.Owner {
	return r.uiOwner
}

// Boot registers the board devices, the built-in apps and services, then
// requests the auto-start app. Boot returns before the app is shown: that
// happens once Run consumes the request.
func (r *Runtime) Boot(board Board) error {
	if r.board != nil {
		return ErrAlreadyBooted
	}
	r.board = board

	r.logger.Info("Booting runtime", zap.String("board", board.Name()))

	registered := 0
	for _, d := range board.Devices() {
		if r.devices.Register(d) {
			registered++
		}
	}
	r.logger.Info("Board devices registered", zap.Int("count", registered))
	r.mountSdCards()

	apps.Register(r.apps)

	if !r.services.AddAndStart(r.loader.Manifest()) {
		return fmt.Errorf("start %s service", app.LoaderServiceID)
	}
	// Hardware services are optional: a failure is logged by the registry
	r.services.AddAndStart(r.sdcard.Manifest())
	r.services.AddAndStart(r.statusbar.Manifest())

	if r.cfg.Development.Enabled {
		r.devServer = development.New(development.Deps{
			Devices:  r.devices,
			Services: r.services,
			Apps:     r.apps,
			Loader:   r.loader,
			Metrics:  r.metrics,
		}, r.cfg.Development, r.logger)
		r.services.AddAndStart(r.devServer.Manifest())
	}

	if id := r.cfg.Loader.AutoStart; id != "" {
		if _, ok := r.apps.Find(id); !ok {
			r.logger.Warn("Auto-start app not found", zap.String("id", id))
		} else if _, ok := r.loader.Start(id, nil); !ok {
			return fmt.Errorf("queue auto-start of %s", id)
		}
	}

	r.logger.Info("Runtime booted",
		zap.Int("services", len(r.services.List())),
		zap.Int("apps", len(r.apps.List())),
	)
	return nil
}

// mountSdCards mounts the cards found at boot. A missing card is normal.
func (r *Runtime) mountSdCards() {
	for i, card := range device.FindAllOf[device.SdCard](r.devices, device.TypeSdCard) {
		if card.State() == device.SdStateMounted {
			continue
		}
		path := SdCardMountPath
		if i > 0 {
			path = fmt.Sprintf("%s%d", SdCardMountPath, i)
		}

		owner := lock.NewOwner()
		var err error
		if !card.BusLock().With(owner, r.cfg.Locks.Timeout, func() { err = card.Mount(path) }) {
			r.logger.Warn("SD card mount skipped: bus busy", zap.String("card", card.Name()))
			continue
		}
		if err != nil {
			r.logger.Info("SD card not mounted", zap.String("card", card.Name()), zap.Error(err))
			continue
		}
		r.logger.Info("SD card mounted", zap.String("card", card.Name()), zap.String("path", path))
	}
}

// Run is the UI loop. It returns when ctx is done or Close was called.
func (r *Runtime) Run(ctx context.Context) {
	r.ui.Run(ctx)
}

// Close stops every service in reverse start order, closes the UI
// dispatcher and unregisters the board devices. It must not run while Run
// is still consuming: Close drives the UI queue itself so the loader can
// stop apps on the calling goroutine.
func (r *Runtime) Close() {
	done := make(chan int, 1)
	go func() { done <- r.services.StopAll() }()

	var stopped int
	for waiting := true; waiting; {
		select {
		case stopped = <-done:
			waiting = false
		default:
			r.ui.Consume(pumpInterval)
		}
	}
	r.logger.Info("Services stopped", zap.Int("count", stopped))

	r.loader.Stack().Events().Close()
	r.ui.Close()

	if r.board != nil {
		devices := r.board.Devices()
		for i := len(devices) - 1; i >= 0; i-- {
			r.devices.Unregister(devices[i])
		}
	}
	r.logger.Info("Runtime closed")
}
