// ABOUTME: Output device enumeration and lookup
// ABOUTME: Resolves devices by index or case-insensitive name substring
package device

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Device is a snapshot of one output device. Every enumeration call builds
// fresh values, so callers can annotate or mutate a returned Device without
// affecting later calls.
type Device struct {
	Index              int
	Name               string
	MaxChannels        int
	DefaultSampleRate  int
	DefaultLowLatency  time.Duration
	DefaultHighLatency time.Duration
	IsDefault          bool
}

// List returns all devices exposing at least one output channel. The device
// matching the system default output is flagged.
func List() ([]Device, error) {
	if err := ensureHost(); err != nil {
		return nil, err
	}
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	// The default lookup can fail on systems with no output; that only
	// clears the flag, it does not fail enumeration.
	def, _ := portaudio.DefaultOutputDevice()

	var out []Device
	for i, info := range infos {
		if info.MaxOutputChannels < 1 {
			continue
		}
		out = append(out, Device{
			Index:              i,
			Name:               info.Name,
			MaxChannels:        info.MaxOutputChannels,
			DefaultSampleRate:  int(info.DefaultSampleRate),
			DefaultLowLatency:  info.DefaultLowOutputLatency,
			DefaultHighLatency: info.DefaultHighOutputLatency,
			IsDefault:          def != nil && info == def,
		})
	}
	return out, nil
}

// Find resolves a device id against the current enumeration. An id that
// parses as a non-negative integer matches by index; anything else matches
// by case-insensitive substring of the device name, first match wins. An
// empty id resolves to the system default output device.
func Find(id string) (Device, error) {
	devs, err := List()
	if err != nil {
		return Device{}, err
	}
	d, ok := match(devs, id)
	if !ok {
		return Device{}, fmt.Errorf("no output device matches %q", id)
	}
	return d, nil
}

// Validate reports whether id can be resolved. An absent id is always valid
// and means "use the system default".
func Validate(id string) error {
	if id == "" {
		return nil
	}
	_, err := Find(id)
	return err
}

// match is the pure lookup over an enumeration snapshot.
func match(devs []Device, id string) (Device, bool) {
	if id == "" {
		for _, d := range devs {
			if d.IsDefault {
				return d, true
			}
		}
		if len(devs) > 0 {
			return devs[0], true
		}
		return Device{}, false
	}
	if idx, err := strconv.Atoi(id); err == nil && idx >= 0 {
		for _, d := range devs {
			if d.Index == idx {
				return d, true
			}
		}
		return Device{}, false
	}
	needle := strings.ToLower(id)
	for _, d := range devs {
		if strings.Contains(strings.ToLower(d.Name), needle) {
			return d, true
		}
	}
	return Device{}, false
}

// Resolve looks up a device id and returns both the snapshot and the native
// device info needed to open a stream against it.
func Resolve(id string) (*portaudio.DeviceInfo, Device, error) {
	d, err := Find(id)
	if err != nil {
		return nil, Device{}, err
	}
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, Device{}, fmt.Errorf("enumerate devices: %w", err)
	}
	if d.Index < 0 || d.Index >= len(infos) {
		return nil, Device{}, fmt.Errorf("device index %d out of range", d.Index)
	}
	return infos[d.Index], d, nil
}
