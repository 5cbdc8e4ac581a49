package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

const (
	// smoothingTimeConstant weighs the previous magnitude against the
	// instantaneous one; 0.5 halves the residual error per update.
	smoothingTimeConstant = 0.5

	minDecibels = -100.0
	maxDecibels = -30.0

	blackmanAlpha = 0.16
)

// Analyzer turns the waveform ring into the 512x2 byte texture payload
// consumed by the render pipeline: row 0 is the dB-scaled smoothed
// spectrum, row 1 the quantized waveform. Magnitude smoothing state
// persists across calls.
type Analyzer struct {
	window     []float64
	buffer     []complex128
	magnitudes []float64
	payload    []byte
	dirty      bool
}

// NewAnalyzer precomputes the Blackman window for BufferSize samples.
func NewAnalyzer() *Analyzer {
	a := &Analyzer{
		window:     make([]float64, BufferSize),
		buffer:     make([]complex128, BufferSize),
		magnitudes: make([]float64, Bands),
		payload:    make([]byte, BufferSize),
	}
	a0 := 0.5 * (1.0 - blackmanAlpha)
	a1 := 0.5
	a2 := 0.5 * blackmanAlpha
	for i := range a.window {
		x := float64(i) / float64(BufferSize)
		a.window[i] = a0 - a1*math.Cos(2.0*math.Pi*x) + a2*math.Cos(4.0*math.Pi*x)
	}
	return a
}

// Analyze updates the texture payload from the current waveform and marks
// it dirty for upload. pcm must hold BufferSize mono samples.
func (a *Analyzer) Analyze(pcm []float32) {
	for i := 0; i < BufferSize; i++ {
		a.buffer[i] = complex(float64(pcm[i])*a.window[i], 0)
	}

	out := fft.FFT(a.buffer)

	// The DC bin is real; drop any numerical noise in its phase.
	out[0] = complex(real(out[0]), 0)

	for i := 0; i < Bands; i++ {
		re := real(out[i])
		im := imag(out[i])
		magnitude := math.Sqrt(re*re+im*im) / float64(BufferSize)
		a.magnitudes[i] = smoothingTimeConstant*a.magnitudes[i] + (1.0-smoothingTimeConstant)*magnitude
	}

	rangeScale := 1.0 / (maxDecibels - minDecibels)
	for i := 0; i < Bands; i++ {
		dbMag := minDecibels
		if a.magnitudes[i] != 0 {
			dbMag = linearToDecibels(a.magnitudes[i])
		}
		scaled := 255.0 * (dbMag - minDecibels) * rangeScale
		a.payload[i] = clampByte(scaled)
	}

	for i := 0; i < Bands; i++ {
		a.payload[Bands+i] = clampByte(float64(pcm[i]+1.0) * 128.0)
	}

	a.dirty = true
}

// Payload returns the current texture bytes (Bands wide, 2 rows).
func (a *Analyzer) Payload() []byte {
	return a.payload
}

// TakeDirty reports whether the payload changed since the last call and
// clears the flag, so each update is uploaded exactly once.
func (a *Analyzer) TakeDirty() bool {
	d := a.dirty
	a.dirty = false
	return d
}

func linearToDecibels(linear float64) float64 {
	return 20.0 * math.Log10(linear)
}

func clampByte(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v)
}
