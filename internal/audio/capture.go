package audio

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

var ErrNoDevice = errors.New("audio: no matching input device")

type Config struct {
	DeviceHint      string
	SampleRate      float64
	FramesPerBuffer int
	Channels        int
}

func DefaultConfig() Config {
	return Config{
		SampleRate:      48000,
		FramesPerBuffer: 512,
		Channels:        1,
	}
}

// Callback receives interleaved samples on the capture thread. It must not block.
type Callback func(in []int16)

// Capture owns one portaudio input stream.
type Capture struct {
	cfg       Config
	stream    *portaudio.Stream
	device    *portaudio.DeviceInfo
	overflows atomic.Uint64
}

func NewCapture(cfg Config) *Capture {
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	return &Capture{cfg: cfg}
}

// Initialize must be called once before any other function of this file.
func Initialize() error {
	return portaudio.Initialize()
}

func Terminate() {
	_ = portaudio.Terminate()
}

// FindInputDevice returns the default input device, or the first input
// device whose name contains hint.
func FindInputDevice(hint string) (*portaudio.DeviceInfo, error) {
	if hint == "" {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
		}
		return dev, nil
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 && strings.Contains(dev.Name, hint) {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoDevice, hint)
}

// InputDevices lists the names of devices able to capture.
func InputDevices() ([]string, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			out = append(out, dev.Name)
		}
	}
	return out, nil
}

func (c *Capture) Open(cb Callback) error {
	dev, err := FindInputDevice(c.cfg.DeviceHint)
	if err != nil {
		return err
	}
	c.device = dev

	p := portaudio.LowLatencyParameters(dev, nil)
	p.Input.Channels = c.cfg.Channels
	if c.cfg.SampleRate > 0 {
		p.SampleRate = c.cfg.SampleRate
	}
	if c.cfg.FramesPerBuffer > 0 {
		p.FramesPerBuffer = c.cfg.FramesPerBuffer
	}

	stream, err := portaudio.OpenStream(p, func(in []int16, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
		if flags&portaudio.InputOverflow != 0 {
			c.overflows.Add(1)
		}
		cb(in)
	})
	if err != nil {
		return fmt.Errorf("audio: open stream on %q: %w", dev.Name, err)
	}
	c.stream = stream
	return nil
}

func (c *Capture) Device() *portaudio.DeviceInfo {
	return c.device
}

// Overflows counts callbacks flagged with dropped input. Read it off the capture thread.
func (c *Capture) Overflows() uint64 {
	return c.overflows.Load()
}

func (c *Capture) Start() error {
	if c.stream == nil {
		return errors.New("audio: stream not opened")
	}
	return c.stream.Start()
}

func (c *Capture) Stop() error {
	if c.stream == nil {
		return nil
	}
	return c.stream.Stop()
}

func (c *Capture) Close() error {
	if c.stream != nil {
		return c.stream.Close()
	}
	return nil
}
