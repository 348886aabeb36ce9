package dashboard

import (
	"context"
	"math"

	"github.com/vstoms/homeydash/internal/homey"
)

// DeviceFetcher is the slice of the hub client the group projection
// needs. Satisfied by *homey.Client.
type DeviceFetcher interface {
	Device(ctx context.Context, id string) *homey.Device
}

// DevicesForGroup projects a group's membership onto live hub state.
//
// Members are fetched in stored order. Ids the hub does not know, or
// cannot be reached for, are dropped from the result without error;
// a group tile simply renders fewer devices while the hub is flaky.
//
// Classification: a device with a dim capability is a "dimmer" and
// reports its level as 0-100, anything else is a "switch" with value
// 0. The on flag mirrors the onoff capability, defaulting to false.
func DevicesForGroup(ctx context.Context, hub DeviceFetcher, group *DeviceGroup) []GroupDevice {
	devices := make([]GroupDevice, 0, len(group.DeviceIDs))

	for _, id := range group.DeviceIDs {
		device := hub.Device(ctx, id)
		if device == nil {
			continue
		}

		caps := device.Capabilities
		dim, hasDim := caps["dim"]
		onoff, hasOnoff := caps["onoff"]

		projected := GroupDevice{
			ID:   id,
			Name: device.Name,
			Type: "switch",
		}
		if projected.Name == "" {
			projected.Name = "Unknown"
		}
		if hasDim {
			projected.Type = "dimmer"
			projected.Value = int(math.Round(toFloat(dim.Value) * 100))
		}
		if hasOnoff {
			projected.On = toBool(onoff.Value)
		}

		devices = append(devices, projected)
	}

	return devices
}

// toFloat coerces a capability value to float64, treating anything
// non-numeric as 0. JSON decoding yields float64 for all numbers.
func toFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	default:
		return 0
	}
}

// toBool coerces a capability value to bool, treating anything
// non-boolean as false.
func toBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
