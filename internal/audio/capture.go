package audio

import (
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// Chunk is one interleaved block of captured samples. Channels is the
// interleave factor; the visualizer downmixes on delivery.
type Chunk struct {
	Samples  []float32
	Channels int
}

// Config controls how a Capture is opened.
type Config struct {
	// DeviceName selects an input device by case-insensitive substring;
	// empty picks the best available input.
	DeviceName string
	// Channels requested from the device, capped to what it offers.
	Channels int
	// QueueDepth bounds the chunk queue; chunks are dropped when the
	// consumer falls behind.
	QueueDepth int
}

// Capture owns a PortAudio input stream and hands interleaved chunks to
// one consumer. The stream callback never blocks: when the queue is
// full the chunk is dropped, keeping the audio thread real-time safe.
type Capture struct {
	stream     *portaudio.Stream
	device     *portaudio.DeviceInfo
	sampleRate float64
	channels   int

	chunks  chan Chunk
	dropped uint64
}

// NewCapture opens and starts an input stream on the configured device.
func NewCapture(cfg Config) (*Capture, error) {
	if cfg.Channels <= 0 {
		cfg.Channels = 2
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 8
	}

	device, err := findDevice(cfg.DeviceName)
	if err != nil {
		return nil, err
	}
	channels := cfg.Channels
	if channels > device.MaxInputChannels {
		channels = device.MaxInputChannels
	}

	c := &Capture{
		device:     device,
		sampleRate: device.DefaultSampleRate,
		channels:   channels,
		chunks:     make(chan Chunk, cfg.QueueDepth),
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      c.sampleRate,
		FramesPerBuffer: portaudio.FramesPerBufferUnspecified,
	}, c.process)
	if err != nil {
		return nil, fmt.Errorf("open stream on %q: %w", device.Name, err)
	}
	c.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("start stream on %q: %w", device.Name, err)
	}
	return c, nil
}

// Chunks is the capture output. The channel is never closed; stop
// consuming after Close returns.
func (c *Capture) Chunks() <-chan Chunk { return c.chunks }

// SampleRate returns the stream sample rate in Hz.
func (c *Capture) SampleRate() float64 { return c.sampleRate }

// Channels returns the interleave factor of delivered chunks.
func (c *Capture) Channels() int { return c.channels }

// DeviceName names the device the stream was opened on.
func (c *Capture) DeviceName() string { return c.device.Name }

// Dropped counts chunks discarded because the consumer fell behind.
// Read it after Close; the callback thread updates it.
func (c *Capture) Dropped() uint64 { return c.dropped }

// Close stops and closes the stream.
func (c *Capture) Close() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil && !isAlreadyStopped(err) {
		return err
	}
	return c.stream.Close()
}

// process runs on the PortAudio callback thread.
func (c *Capture) process(in []float32) {
	samples := make([]float32, len(in))
	copy(samples, in)
	select {
	case c.chunks <- Chunk{Samples: samples, Channels: c.channels}:
	default:
		c.dropped++
	}
}

// findDevice resolves the capture device: an explicit name match first,
// then the default input, then the highest scoring input available.
func findDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}

	if name != "" {
		needle := strings.ToLower(name)
		for _, d := range devices {
			if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), needle) {
				return d, nil
			}
		}
		return nil, fmt.Errorf("audio device %q not found", name)
	}

	if d, err := portaudio.DefaultInputDevice(); err == nil && d != nil && d.MaxInputChannels > 0 {
		return d, nil
	}

	var best *portaudio.DeviceInfo
	bestScore := -1
	for _, d := range devices {
		if d == nil || d.MaxInputChannels <= 0 {
			continue
		}
		if score := scoreDevice(d); score > bestScore {
			best, bestScore = d, score
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no audio input device available")
	}
	return best, nil
}

// Loopback style devices make the visualizer follow whatever the system
// is playing, so they outrank plain microphones.
var loopbackHints = []string{"monitor", "loopback", "stereo mix", "what u hear"}

func scoreDevice(d *portaudio.DeviceInfo) int {
	score := d.MaxInputChannels
	lower := strings.ToLower(d.Name)
	for _, hint := range loopbackHints {
		if strings.Contains(lower, hint) {
			score += 20
			break
		}
	}
	if strings.Contains(lower, "default") {
		score += 10
	}
	return score
}

// isAlreadyStopped recognizes PortAudio's complaint about stopping a
// stream twice.
func isAlreadyStopped(err error) bool {
	return err != nil && strings.Contains(err.Error(), "PaErrorCode -9986")
}
