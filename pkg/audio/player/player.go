// ABOUTME: Native audio player with real-time callback and device hot-swap
// ABOUTME: Control ops serialized by one lock, callback fed through lock-free state
package player

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"

	"github.com/chrisuthe/sendspin-audio/pkg/audio"
	"github.com/chrisuthe/sendspin-audio/pkg/audio/device"
)

const (
	// maxCallbackFrames sizes the callback scratch buffer. Real hardware
	// callbacks request far fewer frames than this, so the buffer never
	// needs to grow on the audio thread.
	maxCallbackFrames = 8192

	eventQueueSize = 16
)

var (
	ErrNotInitialized     = errors.New("player: not initialized")
	ErrAlreadyInitialized = errors.New("player: already initialized")
	ErrClosed             = errors.New("player: closed")
)

// Player owns one native output stream and the real-time callback feeding
// it. Control operations from arbitrary goroutines are serialized by a
// single lock; the hardware callback thread never takes that lock and reads
// source, volume and mute through atomics instead.
type Player struct {
	mu       sync.Mutex
	id       string
	deviceID string
	format   audio.Format
	stream   *portaudio.Stream
	dev      *portaudio.DeviceInfo
	scratch  []float32
	hostHeld bool
	closed   bool

	state      atomic.Int32
	source     atomic.Pointer[audio.Source]
	volumeBits atomic.Uint32
	muted      atomic.Bool

	events chan Event
}

// New creates a player bound to a device id ("" = system default). The
// player is Uninitialized until Initialize succeeds.
func New(deviceID string) *Player {
	p := &Player{
		id:       uuid.NewString(),
		deviceID: deviceID,
		events:   make(chan Event, eventQueueSize),
	}
	p.volumeBits.Store(math.Float32bits(1.0))
	return p
}

// ID returns the player's instance id, used in logs and events.
func (p *Player) ID() string { return p.id }

// State returns the current state. Safe from any goroutine.
func (p *Player) State() State { return State(p.state.Load()) }

// Events returns the bounded notification queue. Events are dropped, never
// blocked on, when the queue is full.
func (p *Player) Events() <-chan Event { return p.events }

// DeviceID returns the id of the device the player is currently bound to.
func (p *Player) DeviceID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deviceID
}

// Format returns the stream format bound at Initialize.
func (p *Player) Format() audio.Format {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.format
}

// Initialize acquires the shared audio host, resolves the target device and
// opens a callback stream at the given format. On success the player is
// Stopped. On failure the host reference is released, the player transitions
// to Errored and the error is returned.
//
// Initialize is also legal from Errored: a fresh call fully resurrects the
// instance, so callers do not need to discard a player after a failure.
func (p *Player) Initialize(ctx context.Context, format audio.Format) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	switch p.State() {
	case Uninitialized, Errored:
	default:
		return ErrAlreadyInitialized
	}
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return fmt.Errorf("player: invalid format %dHz/%dch", format.SampleRate, format.Channels)
	}
	// A prior Errored state can leave a dead stream behind; clear it.
	if p.stream != nil {
		_ = p.stream.Close()
		p.stream = nil
	}

	if err := device.AcquireHost(); err != nil {
		p.setState(Errored, err)
		return err
	}
	info, dev, err := device.Resolve(p.deviceID)
	if err != nil {
		device.ReleaseHost()
		err = fmt.Errorf("player: resolve device %q: %w", p.deviceID, err)
		p.setState(Errored, err)
		return err
	}
	stream, err := p.openStream(info, format)
	if err != nil {
		device.ReleaseHost()
		err = fmt.Errorf("player: open stream on %q: %w", dev.Name, err)
		p.setState(Errored, err)
		return err
	}

	p.stream = stream
	p.dev = info
	p.format = format
	p.hostHeld = true
	p.scratch = make([]float32, maxCallbackFrames*format.Channels)
	p.setState(Stopped, nil)
	log.Printf("player %s: initialized on %q (%dHz, %dch)", p.id, dev.Name, format.SampleRate, format.Channels)
	return nil
}

// openStream opens a low-latency callback stream on the given device.
func (p *Player) openStream(info *portaudio.DeviceInfo, format audio.Format) (*portaudio.Stream, error) {
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: format.Channels,
			Latency:  info.DefaultLowOutputLatency,
		},
		SampleRate:      float64(format.SampleRate),
		FramesPerBuffer: portaudio.FramesPerBufferUnspecified,
	}
	return portaudio.OpenStream(params, p.callback)
}

// SetSource swaps the active pull source. The swap is a single atomic
// pointer store: the callback observes either the old or the new source in
// full, starting with its next invocation. A source whose rate or channel
// count does not match the bound format is a caller error and is rejected.
func (p *Player) SetSource(src audio.Source) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if src == nil {
		p.source.Store(nil)
		return nil
	}
	if p.State() != Uninitialized {
		f := src.Format()
		if f.Channels != p.format.Channels {
			return fmt.Errorf("player: source has %d channels, stream has %d", f.Channels, p.format.Channels)
		}
		if f.SampleRate != p.format.SampleRate {
			return fmt.Errorf("player: source rate %d does not match stream rate %d (interpose a resample.Converter)",
				f.SampleRate, p.format.SampleRate)
		}
	}
	p.source.Store(&src)
	return nil
}

// Play starts (or resumes) the native stream.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.State() {
	case Playing:
		return nil
	case Stopped, Paused:
	default:
		return ErrNotInitialized
	}
	if err := p.stream.Start(); err != nil {
		err = fmt.Errorf("player: start stream: %w", err)
		log.Printf("player %s: %v", p.id, err)
		p.emit(p.State(), err)
		return err
	}
	p.setState(Playing, nil)
	return nil
}

// Pause stops the native stream but keeps the session resumable. A native
// failure is logged and returned with the stream left as-is.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.State() != Playing {
		return fmt.Errorf("player: pause in state %s", p.State())
	}
	if err := p.stream.Stop(); err != nil {
		err = fmt.Errorf("player: pause stream: %w", err)
		log.Printf("player %s: %v", p.id, err)
		p.emit(p.State(), err)
		return err
	}
	p.setState(Paused, nil)
	return nil
}

// Stop stops playback. Stopping an already-stopped player is a no-op.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.State() {
	case Stopped:
		return nil
	case Playing:
		if err := p.stream.Stop(); err != nil {
			err = fmt.Errorf("player: stop stream: %w", err)
			log.Printf("player %s: %v", p.id, err)
			p.emit(p.State(), err)
			return err
		}
	case Paused:
		// native stream already stopped
	default:
		return ErrNotInitialized
	}
	p.setState(Stopped, nil)
	return nil
}

// SwitchDevice rebinds the player to a new output device while the logical
// session continues. The operation is atomic from the caller's perspective:
// an unknown id fails before anything is touched, and a failure opening the
// new device rolls back to the previous stream and device, leaving the
// player usable where it was. A brief silence during the swap is expected;
// being deviceless is not.
func (p *Player) SwitchDevice(ctx context.Context, newID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	st := p.State()
	switch st {
	case Stopped, Paused, Playing:
	default:
		return ErrNotInitialized
	}

	// Resolve before touching the running stream so a bad id has zero
	// side effects.
	newInfo, newDev, err := device.Resolve(newID)
	if err != nil {
		return fmt.Errorf("player: switch device: %w", err)
	}

	wasPlaying := st == Playing
	oldStream, oldInfo, oldID := p.stream, p.dev, p.deviceID

	if wasPlaying {
		if err := oldStream.Stop(); err != nil {
			err = fmt.Errorf("player: switch device: stop current stream: %w", err)
			log.Printf("player %s: %v", p.id, err)
			p.emit(st, err)
			return err
		}
	}

	newStream, err := p.openStream(newInfo, p.format)
	if err != nil {
		// Roll back verbatim; the old stream handle is still valid.
		p.stream, p.dev, p.deviceID = oldStream, oldInfo, oldID
		err = fmt.Errorf("player: switch to %q failed: %w", newDev.Name, err)
		log.Printf("player %s: %v (still on %q)", p.id, err, oldID)
		p.setState(Stopped, err)
		return err
	}

	if err := oldStream.Close(); err != nil {
		log.Printf("player %s: closing old stream: %v", p.id, err)
	}
	p.stream, p.dev, p.deviceID = newStream, newInfo, newID
	log.Printf("player %s: switched to %q", p.id, newDev.Name)

	if wasPlaying {
		if err := newStream.Start(); err != nil {
			err = fmt.Errorf("player: resume on %q: %w", newDev.Name, err)
			log.Printf("player %s: %v", p.id, err)
			p.setState(Stopped, err)
			return err
		}
		p.setState(Playing, nil)
		return nil
	}
	p.setState(Stopped, nil)
	return nil
}

// SetVolume sets playback volume, clamped to [0, 1]. Takes effect on the
// next callback without blocking it.
func (p *Player) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	p.volumeBits.Store(math.Float32bits(float32(v)))
}

// Volume returns the current volume.
func (p *Player) Volume() float64 {
	return float64(math.Float32frombits(p.volumeBits.Load()))
}

// SetMuted sets mute state. While muted the callback emits exact zeros.
func (p *Player) SetMuted(m bool) { p.muted.Store(m) }

// IsMuted returns mute state.
func (p *Player) IsMuted() bool { return p.muted.Load() }

// Close stops playback, closes the stream and releases the host reference.
// The host itself stays initialized until process exit. The player is
// unusable afterwards.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	var err error
	if p.stream != nil {
		if p.State() == Playing {
			_ = p.stream.Abort()
		}
		err = p.stream.Close()
		p.stream = nil
	}
	if p.hostHeld {
		device.ReleaseHost()
		p.hostHeld = false
	}
	p.state.Store(int32(Uninitialized))
	close(p.events)
	return err
}

// callback runs on the hardware audio thread. It must not allocate, must
// not take the control lock, and must never let a fault escape: any panic
// is converted to a silent buffer.
func (p *Player) callback(out []float32) {
	defer func() {
		if r := recover(); r != nil {
			zero(out)
			log.Printf("player %s: callback fault: %v", p.id, r)
		}
	}()

	sp := p.source.Load()
	if sp == nil || p.muted.Load() {
		zero(out)
		return
	}
	if len(out) > len(p.scratch) {
		// Should not happen with upfront sizing; silence beats allocating
		// on the audio thread.
		log.Printf("player %s: callback wants %d samples, scratch holds %d", p.id, len(out), len(p.scratch))
		zero(out)
		return
	}

	buf := p.scratch[:len(out)]
	(*sp).Read(buf)
	vol := math.Float32frombits(p.volumeBits.Load())
	for i := range out {
		out[i] = buf[i] * vol
	}
}

// setState stores the new state and emits an event. Callers hold p.mu.
func (p *Player) setState(s State, err error) {
	p.state.Store(int32(s))
	p.emit(s, err)
}

// emit delivers an event without ever blocking; a full queue drops it.
func (p *Player) emit(s State, err error) {
	select {
	case p.events <- Event{Player: p.id, State: s, Err: err, At: time.Now()}:
	default:
	}
}

func zero(out []float32) {
	for i := range out {
		out[i] = 0
	}
}
