// Package statusbar keeps the status bar icons in sync with the hardware.
//
// A worker reads battery charge and SD card state in the background. Icon
// changes are dispatched to the UI goroutine and applied to the Bar under
// the graphics lock, since the bar is part of the widget tree.
package statusbar

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tactility/internal/domain/device"
	"github.com/GriffinCanCode/tactility/internal/domain/dispatch"
	"github.com/GriffinCanCode/tactility/internal/domain/lock"
	"github.com/GriffinCanCode/tactility/internal/domain/service"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
)

// ServiceID is the service id of the updater
const ServiceID = "statusbar"

const (
	DefaultInterval        = time.Second
	DefaultDispatchTimeout = 50 * time.Millisecond
)

// Slot is one icon position in the bar
type Slot string

const (
	SlotPower  Slot = "power"
	SlotSdCard Slot = "sdcard"
)

// Icon names an icon asset. The empty icon hides its slot.
type Icon string

const (
	IconNone        Icon = ""
	IconSdCard      Icon = "sdcard"
	IconSdCardAlert Icon = "sdcard_alert"
)

// PowerIcon maps a charge percentage to one of eleven battery icons
func PowerIcon(level int32) Icon {
	if level < 5 {
		return "power_0"
	}
	if level >= 95 {
		return "power_100"
	}
	step := (level + 5) / 10 * 10
	return Icon(fmt.Sprintf("power_%d", step))
}

// SdCardIcon maps a card state to its icon
func SdCardIcon(state device.SdState) Icon {
	if state == device.SdStateMounted {
		return IconSdCard
	}
	return IconSdCardAlert
}

// Bar is the UI-side icon model. Set must run on the UI goroutine.
type Bar struct {
	mu    sync.RWMutex
	icons map[Slot]Icon // Protected by mu
}

// NewBar creates a bar with no icons shown
func NewBar() *Bar {
	return &Bar{icons: make(map[Slot]Icon)}
}

// Set shows icon in slot; IconNone hides the slot
func (b *Bar) Set(slot Slot, icon Icon) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if icon == IconNone {
		delete(b.icons, slot)
		return
	}
	b.icons[slot] = icon
}

// Icon returns the icon shown in slot
func (b *Bar) Icon(slot Slot) Icon {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.icons[slot]
}

// Icons returns a copy of every visible icon
func (b *Bar) Icons() map[Slot]Icon {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[Slot]Icon, len(b.icons))
	for k, v := range b.icons {
		out[k] = v
	}
	return out
}

// Slots returns the visible slots, sorted
func (b *Bar) Slots() []Slot {
	icons := b.Icons()
	out := make([]Slot, 0, len(icons))
	for s := range icons {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type iconUpdate struct {
	slot Slot
	icon Icon
}

// Updater polls hardware and pushes icon changes to the bar
type Updater struct {
	devices  *device.Registry
	ui       *dispatch.Dispatcher
	graphics *lock.Lock
	uiOwner  lock.Owner
	bar      *Bar

	interval time.Duration
	timeout  time.Duration
	logger   *logging.Logger

	mu   sync.Mutex
	sent map[Slot]Icon // Protected by mu, last icon handed to the UI
}

// New creates an updater. uiOwner must be the owner token the UI goroutine
// uses for graphics.
func New(devices *device.Registry, ui *dispatch.Dispatcher, graphics *lock.Lock, uiOwner lock.Owner, logger *logging.Logger) *Updater {
	return &Updater{
		devices:  devices,
		ui:       ui,
		graphics: graphics,
		uiOwner:  uiOwner,
		bar:      NewBar(),
		interval: DefaultInterval,
		timeout:  DefaultDispatchTimeout,
		logger:   logger.Named(ServiceID),
		sent:     make(map[Slot]Icon),
	}
}

// WithInterval sets the poll interval
func (u *Updater) WithInterval(d time.Duration) *Updater {
	u.interval = d
	return u
}

// Bar returns the icon model
func (u *Updater) Bar() *Bar {
	return u.bar
}

// Manifest is the service manifest of the updater
func (u *Updater) Manifest() service.Manifest {
	return service.Manifest{
		ID: ServiceID,
		OnStart: func(inst *service.Instance) error {
			worker := service.NewWorker(ServiceID, u.logger)
			worker.Every("update", u.interval, u.Update)
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

// Update reads the hardware once and dispatches changed icons
func (u *Updater) Update() {
	u.push(SlotPower, u.powerIcon())
	u.push(SlotSdCard, u.sdCardIcon())
}

func (u *Updater) powerIcon() Icon {
	power, ok := device.FindFirst[device.Power](u.devices, device.TypePower)
	if !ok || !power.Supports(device.MetricChargeLevel) {
		return IconNone
	}
	level, ok := power.Metric(device.MetricChargeLevel)
	if !ok {
		return IconNone
	}
	return PowerIcon(level)
}

func (u *Updater) sdCardIcon() Icon {
	card, ok := device.FindFirst[device.SdCard](u.devices, device.TypeSdCard)
	if !ok {
		return IconNone
	}
	return SdCardIcon(card.State())
}

func (u *Updater) push(slot Slot, icon Icon) {
	u.mu.Lock()
	last, seen := u.sent[slot]
	u.mu.Unlock()
	if seen && last == icon {
		return
	}

	queued := u.ui.Dispatch(u.apply, iconUpdate{slot: slot, icon: icon}, u.timeout)
	if !queued {
		// retried next cycle
		u.logger.Debug("icon update not queued", zap.String("slot", string(slot)))
		return
	}

	u.mu.Lock()
	u.sent[slot] = icon
	u.mu.Unlock()
}

// apply runs on the UI goroutine
func (u *Updater) apply(arg any) {
	update := arg.(iconUpdate)
	u.graphics.With(u.uiOwner, lock.Forever, func() {
		u.bar.Set(update.slot, update.icon)
	})
}
