package dsp

// BufferSize is the number of mono frames kept for analysis.
const BufferSize = 1024

// Bands is the number of frequency bins exposed to shaders.
const Bands = BufferSize / 2

// Ring keeps the most recent BufferSize mono frames, downmixed from
// whatever interleaved chunks the host delivers. Writes and reads must
// not overlap; the caller is expected to serialize audio delivery and
// rendering (see package doc).
type Ring struct {
	pcm []float32
}

// NewRing returns a ring pre-filled with silence.
func NewRing() *Ring {
	return &Ring{pcm: make([]float32, BufferSize)}
}

// Write appends an interleaved chunk to the ring. Chunks holding at least
// BufferSize frames replace the whole ring with their newest frames;
// smaller chunks shift the ring left and fill the freed tail.
func (r *Ring) Write(samples []float32, channels int) {
	if channels <= 0 {
		channels = 1
	}
	frames := len(samples) / channels
	if frames == 0 {
		return
	}

	if frames >= BufferSize {
		offset := (frames - BufferSize) * channels
		downmix(r.pcm, samples[offset:], BufferSize, channels)
		return
	}

	keep := BufferSize - frames
	copy(r.pcm, r.pcm[frames:])
	downmix(r.pcm[keep:], samples, frames, channels)
}

// Samples exposes the ring contents, oldest frame first. The returned
// slice aliases internal state and must not be retained across writes.
func (r *Ring) Samples() []float32 {
	return r.pcm
}

// downmix averages channels into mono, one output sample per frame.
func downmix(dst []float32, src []float32, frames, channels int) {
	for f := 0; f < frames; f++ {
		sum := float32(0)
		base := f * channels
		for c := 0; c < channels; c++ {
			sum += src[base+c]
		}
		dst[f] = sum / float32(channels)
	}
}
