// Package dsp holds the audio analysis pipeline: a most-recent-1024-frame
// mono ring buffer fed by host audio chunks, and a windowed FFT analyzer
// that packs a smoothed dB spectrum and the raw waveform into the two-row
// byte texture sampled by shaders as iChannel0.
//
// Nothing in this package locks. The host must never invoke audio delivery
// concurrently with rendering; callers that cannot guarantee that need an
// external mutex around Ring and Analyzer access.
package dsp
