package dsp

import (
	"math"
	"testing"
)

func TestRingLengthIsStable(t *testing.T) {
	r := NewRing()
	chunks := []int{7, 64, 1000, 1024, 1500, 3, 4096}
	for _, frames := range chunks {
		r.Write(make([]float32, frames*2), 2)
		if got := len(r.Samples()); got != BufferSize {
			t.Fatalf("after %d-frame chunk: len=%d want=%d", frames, got, BufferSize)
		}
	}
}

func TestRingDownmixIsMeanAcrossChannels(t *testing.T) {
	r := NewRing()
	chunk := make([]float32, 256*2)
	for i := 0; i < 256; i++ {
		chunk[i*2] = 1.0
		chunk[i*2+1] = -1.0
	}
	r.Write(chunk, 2)

	samples := r.Samples()
	for i := BufferSize - 256; i < BufferSize; i++ {
		if samples[i] != 0 {
			t.Fatalf("sample[%d]=%f want=0 (mean of 1 and -1)", i, samples[i])
		}
	}
}

func TestRingSmallChunkShiftsOldSamples(t *testing.T) {
	r := NewRing()

	first := make([]float32, BufferSize)
	for i := range first {
		first[i] = 0.25
	}
	r.Write(first, 1)

	second := make([]float32, 100)
	for i := range second {
		second[i] = -0.5
	}
	r.Write(second, 1)

	samples := r.Samples()
	for i := 0; i < BufferSize-100; i++ {
		if samples[i] != 0.25 {
			t.Fatalf("kept sample[%d]=%f want=0.25", i, samples[i])
		}
	}
	for i := BufferSize - 100; i < BufferSize; i++ {
		if samples[i] != -0.5 {
			t.Fatalf("new sample[%d]=%f want=-0.5", i, samples[i])
		}
	}
}

func TestRingLargeChunkKeepsNewestFrames(t *testing.T) {
	r := NewRing()

	chunk := make([]float32, 3000)
	for i := range chunk {
		chunk[i] = float32(i)
	}
	r.Write(chunk, 1)

	samples := r.Samples()
	for i := 0; i < BufferSize; i++ {
		want := float32(3000 - BufferSize + i)
		if samples[i] != want {
			t.Fatalf("sample[%d]=%f want=%f", i, samples[i], want)
		}
	}
}

func TestRingIgnoresEmptyChunk(t *testing.T) {
	r := NewRing()
	before := make([]float32, BufferSize)
	copy(before, r.Samples())

	r.Write(nil, 2)
	r.Write([]float32{0.5}, 2) // less than one frame

	for i, v := range r.Samples() {
		if v != before[i] {
			t.Fatalf("sample[%d] changed on empty write", i)
		}
	}
}

func TestDownmixFourChannels(t *testing.T) {
	dst := make([]float32, 2)
	src := []float32{0.2, 0.4, 0.6, 0.8, -1, 1, -1, 1}
	downmix(dst, src, 2, 4)

	if math.Abs(float64(dst[0]-0.5)) > 1e-6 {
		t.Fatalf("dst[0]=%f want=0.5", dst[0])
	}
	if dst[1] != 0 {
		t.Fatalf("dst[1]=%f want=0", dst[1])
	}
}
