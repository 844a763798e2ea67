package device

import "sync/atomic"

// ID identifies a registered device. IDs are assigned by the Registry and
// never reused during its lifetime.
type ID uint32

// Unassigned is the ID of a device that was never registered.
const Unassigned ID = 0

// Type is the closed set of device kinds the runtime understands.
type Type int

const (
	TypeI2cBus Type = iota + 1
	TypeDisplay
	TypeTouch
	TypeSdCard
	TypeKeyboard
	TypeEncoder
	TypePower
)

// Types lists every Type in declaration order
var Types = []Type{TypeI2cBus, TypeDisplay, TypeTouch, TypeSdCard, TypeKeyboard, TypeEncoder, TypePower}

// String returns the string representation of the type
func (t Type) String() string {
	switch t {
	case TypeI2cBus:
		return "i2c"
	case TypeDisplay:
		return "display"
	case TypeTouch:
		return "touch"
	case TypeSdCard:
		return "sdcard"
	case TypeKeyboard:
		return "keyboard"
	case TypeEncoder:
		return "encoder"
	case TypePower:
		return "power"
	default:
		return "unknown"
	}
}

// ParseType converts a String() value back to a Type
func ParseType(s string) (Type, bool) {
	for _, t := range Types {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// Device is the registry's view of one hardware peripheral. Drivers
// implement it by embedding Base and add a capability interface (Display,
// Power, ...) on top.
type Device interface {
	ID() ID
	Type() Type
	Name() string
	Description() string

	base() *Base
}

// Base carries the identity every device shares.
type Base struct {
	id          uint32 // accessed atomically
	kind        Type
	name        string
	description string
}

// NewBase creates the identity part of a device
func NewBase(kind Type, name, description string) Base {
	return Base{kind: kind, name: name, description: description}
}

func (b *Base) ID() ID              { return ID(atomic.LoadUint32(&b.id)) }
func (b *Base) Type() Type          { return b.kind }
func (b *Base) Name() string        { return b.name }
func (b *Base) Description() string { return b.description }

func (b *Base) base() *Base { return b }

// Info is a serializable snapshot of a device's identity
type Info struct {
	ID          ID     `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Describe returns the identity snapshot of d
func Describe(d Device) Info {
	return Info{
		ID:          d.ID(),
		Type:        d.Type().String(),
		Name:        d.Name(),
		Description: d.Description(),
	}
}
