package app

import (
	"math"
	"math/rand"
	"time"

	"github.com/meonBot/visualization.matrix/internal/audio"
)

// fakeGenerator synthesizes stereo audio for -no-audio runs: a slow
// bass sweep, a mid tone and a little noise so the spectrum texture has
// something to show.
type fakeGenerator struct {
	rng        *rand.Rand
	sampleRate float64
	phaseBass  float64
	phaseMid   float64
	sweep      float64
}

func newFakeGenerator(sampleRate float64) *fakeGenerator {
	return &fakeGenerator{
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		sampleRate: sampleRate,
	}
}

// Next produces one interleaved stereo chunk of the given frame count.
func (f *fakeGenerator) Next(frames int) audio.Chunk {
	samples := make([]float32, frames*2)
	f.sweep += float64(frames) / f.sampleRate * 0.1

	bassHz := 60.0 + 40.0*math.Sin(f.sweep)
	midHz := 440.0 + 220.0*math.Sin(f.sweep*1.7)

	for i := 0; i < frames; i++ {
		f.phaseBass += 2 * math.Pi * bassHz / f.sampleRate
		f.phaseMid += 2 * math.Pi * midHz / f.sampleRate

		s := 0.5*math.Sin(f.phaseBass) +
			0.25*math.Sin(f.phaseMid) +
			0.05*(f.rng.Float64()*2-1)

		v := float32(s)
		samples[i*2] = v
		samples[i*2+1] = v
	}
	return audio.Chunk{Samples: samples, Channels: 2}
}
