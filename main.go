// ABOUTME: Entry point for the sendspin audio output utility
// ABOUTME: Lists/probes output devices and plays files or test tones
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chrisuthe/sendspin-audio/internal/source"
	"github.com/chrisuthe/sendspin-audio/pkg/audio"
	"github.com/chrisuthe/sendspin-audio/pkg/audio/device"
	"github.com/chrisuthe/sendspin-audio/pkg/audio/player"
	"github.com/chrisuthe/sendspin-audio/pkg/audio/resample"
)

var (
	listFlag    = flag.Bool("list", false, "List output devices with probed capabilities")
	probeFlag   = flag.String("probe", "", "Probe one device id (index or name substring)")
	deviceFlag  = flag.String("device", "", "Output device id (default: system default)")
	fileFlag    = flag.String("file", "", "Audio file to play (wav, mp3, ogg)")
	toneFlag    = flag.Float64("tone", 440, "Test tone frequency in Hz when no file is given")
	rateFlag    = flag.Int("rate", 0, "Target sample rate (0 = negotiate against device capabilities)")
	tapsFlag    = flag.Int("taps", resample.DefaultTaps, "Resampler filter length")
	volumeFlag  = flag.Float64("volume", 1.0, "Playback volume 0..1")
	durFlag     = flag.Duration("duration", 0, "Stop after this long (0 = until interrupted)")
	swToFlag    = flag.String("switch-to", "", "Hot-swap playback to this device id after -switch-after")
	swAfterFlag = flag.Duration("switch-after", 5*time.Second, "Delay before -switch-to takes effect")
)

func main() {
	flag.Parse()

	var err error
	switch {
	case *listFlag:
		err = listDevices()
	case *probeFlag != "":
		err = probeDevice(*probeFlag)
	default:
		err = play(context.Background())
	}
	if err != nil {
		log.Fatalf("error: %v", err)
	}
}

func listDevices() error {
	devs, err := device.List()
	if err != nil {
		return err
	}
	for _, d := range devs {
		def := " "
		if d.IsDefault {
			def = "*"
		}
		fmt.Printf("%s [%2d] %s (%dch, %dHz, latency %v..%v)\n",
			def, d.Index, d.Name, d.MaxChannels, d.DefaultSampleRate,
			d.DefaultLowLatency.Round(time.Millisecond),
			d.DefaultHighLatency.Round(time.Millisecond))
		caps, err := device.Probe(strconv.Itoa(d.Index))
		if err != nil {
			fmt.Printf("       capabilities unavailable: %v\n", err)
			continue
		}
		fmt.Printf("       rates %v  depths %v  channels %d..%d\n",
			caps.SampleRates, caps.BitDepths, caps.MinChannels, caps.MaxChannels)
	}
	return nil
}

func probeDevice(id string) error {
	caps, err := device.Probe(id)
	if err != nil {
		return err
	}
	fmt.Printf("rates:     %v\n", caps.SampleRates)
	fmt.Printf("depths:    %v\n", caps.BitDepths)
	fmt.Printf("channels:  %d..%d\n", caps.MinChannels, caps.MaxChannels)
	fmt.Printf("preferred: %dHz / %d-bit\n", caps.PreferredSampleRate, caps.PreferredBitDepth)
	return nil
}

// openFile picks a decoder by extension.
func openFile(path string) (audio.Source, io.Closer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		s, err := source.OpenWAV(path)
		return s, s, err
	case ".mp3":
		s, err := source.OpenMP3(path)
		return s, s, err
	case ".ogg", ".oga":
		s, err := source.OpenOgg(path)
		return s, s, err
	default:
		return nil, nil, fmt.Errorf("unsupported file type: %s", path)
	}
}

func play(ctx context.Context) error {
	if err := device.Validate(*deviceFlag); err != nil {
		return err
	}
	caps, err := device.Probe(*deviceFlag)
	if err != nil {
		log.Printf("capability probe failed, continuing without negotiation: %v", err)
	}

	var src audio.Source
	if *fileFlag != "" {
		s, closer, err := openFile(*fileFlag)
		if err != nil {
			return err
		}
		defer closer.Close()
		src = s
		log.Printf("source: %s (%s, %dHz, %dch)", *fileFlag,
			s.Format().Codec, s.Format().SampleRate, s.Format().Channels)
	}

	rate := *rateFlag
	if rate == 0 {
		switch {
		case src != nil && caps != nil && containsInt(caps.SampleRates, src.Format().SampleRate):
			rate = src.Format().SampleRate
		case caps != nil && caps.PreferredSampleRate > 0:
			rate = caps.PreferredSampleRate
		case src != nil:
			rate = src.Format().SampleRate
		default:
			rate = 48000
		}
	}

	channels := 2
	if src != nil {
		channels = src.Format().Channels
	}
	if caps != nil && channels > caps.MaxChannels {
		return fmt.Errorf("source has %d channels but device supports at most %d", channels, caps.MaxChannels)
	}

	if src == nil {
		src = source.NewTone(*toneFlag, audio.Format{SampleRate: rate, Channels: channels})
		log.Printf("source: %.0fHz test tone (%dHz, %dch)", *toneFlag, rate, channels)
	}

	if src.Format().SampleRate != rate {
		conv, err := resample.NewWithTaps(src, rate, *tapsFlag)
		if err != nil {
			return err
		}
		log.Printf("resampling %d -> %d Hz (ratio %.4f, %d taps)",
			src.Format().SampleRate, rate, conv.Ratio(), conv.Taps())
		src = conv
	}

	p := player.New(*deviceFlag)
	format := audio.Format{Codec: src.Format().Codec, SampleRate: rate, Channels: channels}
	if err := p.Initialize(ctx, format); err != nil {
		return err
	}
	defer p.Close()
	go logEvents(p)

	p.SetVolume(*volumeFlag)
	if err := p.SetSource(src); err != nil {
		return err
	}
	if err := p.Play(); err != nil {
		return err
	}
	log.Printf("playing (device %q), interrupt to stop", *deviceFlag)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	var timeout <-chan time.Time
	if *durFlag > 0 {
		timeout = time.After(*durFlag)
	}
	var swap <-chan time.Time
	if *swToFlag != "" {
		swap = time.After(*swAfterFlag)
	}

	for {
		select {
		case <-sig:
			return p.Stop()
		case <-timeout:
			return p.Stop()
		case <-ctx.Done():
			return p.Stop()
		case <-swap:
			swap = nil
			if err := p.SwitchDevice(ctx, *swToFlag); err != nil {
				log.Printf("device switch failed: %v", err)
			}
		}
	}
}

func logEvents(p *player.Player) {
	for ev := range p.Events() {
		if ev.Err != nil {
			log.Printf("player %s: state %s: %v", ev.Player, ev.State, ev.Err)
		} else {
			log.Printf("player %s: state %s", ev.Player, ev.State)
		}
	}
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
