// Package device is the catalog of hardware peripherals.
//
// Board bootstrap code constructs drivers and registers them; services and
// apps look them up by type and assert them to a capability interface
// (Display, Touch, Keyboard, Encoder, Power, SdCard, I2cBus). The registry
// holds one reference to each device; the creator may hold others.
// Unregistering drops the registry's reference. Closing hardware is the
// creator's job.
//
//	devices := device.NewRegistry(logger)
//	devices.Register(panel)
//
//	if power, ok := device.FindFirst[device.Power](devices, device.TypePower); ok {
//		level, _ := power.Metric(device.MetricChargeLevel)
//	}
package device
