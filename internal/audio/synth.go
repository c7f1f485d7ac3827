package audio

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/wav"
	"github.com/san-kum/harmony/internal/dynamo"
)

const (
	DefaultSampleRate = 44100

	minCutoffHz = 200.0
	maxCutoffHz = 8000.0
	delaySecs   = 0.35
	feedback    = 0.6
)

// Synth is a beep streamer whose voice follows the engine's audio
// parameters. Frequency and amplitude glide towards new targets on
// critically damped springs so parameter updates never click.
type Synth struct {
	format beep.Format
	gain   float64
	spring harmonica.Spring

	mu     sync.Mutex // protects target
	target dynamo.AudioParameters

	updates atomic.Uint64

	// Owned by Stream.
	freq, freqVel float64
	amp, ampVel   float64
	phase, fifth  float64
	filter        [2]float64
	delay         [2][]float64
	head          int
}

type SynthOption func(*Synth)

// WithGain sets the master gain applied when writing files.
func WithGain(g float64) SynthOption {
	return func(s *Synth) { s.gain = g }
}

// WithGlide sets the spring's angular frequency and damping ratio.
func WithGlide(angularFrequency, damping float64) SynthOption {
	return func(s *Synth) {
		s.spring = harmonica.NewSpring(1/float64(s.format.SampleRate), angularFrequency, damping)
	}
}

func NewSynth(sampleRate int, opts ...SynthOption) *Synth {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	format := beep.Format{SampleRate: beep.SampleRate(sampleRate), NumChannels: 2, Precision: 2}
	delayLen := int(float64(sampleRate) * delaySecs)

	s := &Synth{
		format: format,
		gain:   1,
		spring: harmonica.NewSpring(1/float64(sampleRate), 30, 1),
		target: dynamo.DefaultAudioParameters(),
		delay:  [2][]float64{make([]float64, delayLen), make([]float64, delayLen)},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.freq = s.target.Frequency
	s.amp = s.target.Amplitude
	return s
}

func (s *Synth) Format() beep.Format { return s.format }

// SetParameters retargets the voice. Invalid parameters are rejected
// without changing the current target.
func (s *Synth) SetParameters(p dynamo.AudioParameters) error {
	patch := dynamo.AudioPatch{
		Frequency:    dynamo.Float(p.Frequency),
		Amplitude:    dynamo.Float(p.Amplitude),
		FilterCutoff: dynamo.Float(p.FilterCutoff),
		ReverbAmount: dynamo.Float(p.ReverbAmount),
		Harmony:      dynamo.Float(p.Harmony),
		Waveform:     dynamo.Wave(p.Waveform),
	}
	if err := patch.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.target = p
	s.mu.Unlock()
	s.updates.Add(1)
	return nil
}

// Parameters returns the current target.
func (s *Synth) Parameters() dynamo.AudioParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Updates counts accepted SetParameters calls.
func (s *Synth) Updates() uint64 { return s.updates.Load() }

func (s *Synth) Stream(samples [][2]float64) (n int, ok bool) {
	target := s.Parameters()

	rate := float64(s.format.SampleRate)
	dt := 1 / rate
	cutoff := minCutoffHz * math.Pow(maxCutoffHz/minCutoffHz, target.FilterCutoff)
	wet := target.ReverbAmount
	fifthMix := 0.5 * target.Harmony

	for i := range samples {
		s.freq, s.freqVel = s.spring.Update(s.freq, s.freqVel, target.Frequency)
		s.amp, s.ampVel = s.spring.Update(s.amp, s.ampVel, target.Amplitude)

		dry := (1-fifthMix)*oscillate(target.Waveform, s.phase) + fifthMix*oscillate(target.Waveform, s.fifth)
		dry *= clamp(s.amp, 0, 1)

		s.phase = wrap(s.phase + s.freq*dt)
		s.fifth = wrap(s.fifth + 1.5*s.freq*dt)

		var out [2]float64
		for ch := 0; ch < 2; ch++ {
			s.filter[ch] = lpf(dry, cutoff, dt, s.filter[ch])

			// ping-pong: each channel hears a little of the other's tail
			tail := 0.8*s.delay[ch][s.head] + 0.2*s.delay[1-ch][s.head]
			out[ch] = (s.filter[ch] + wet*tail) / (1 + wet)
			s.delay[ch][s.head] = 0.5 * (s.filter[ch] + feedback*tail)
		}
		s.head = (s.head + 1) % len(s.delay[0])

		samples[i] = out
	}
	return len(samples), true
}

func (s *Synth) Err() error { return nil }

// GenerateAudioFile renders duration of params to a wav file. It uses a
// fresh voice so the live stream is not disturbed.
func (s *Synth) GenerateAudioFile(duration time.Duration, filename string, params dynamo.AudioParameters) error {
	if duration <= 0 {
		return dynamo.Invalid("duration", "must be > 0, got %v", duration)
	}
	voice := NewSynth(int(s.format.SampleRate), WithGain(s.gain))
	voice.spring = s.spring
	if err := voice.SetParameters(params); err != nil {
		return err
	}
	voice.freq = params.Frequency
	voice.amp = params.Amplitude

	return writeWAV(filename, beep.Take(s.format.SampleRate.N(duration), voice), s.format, s.gain)
}

// Recorder captures the synth's output in step with an offline clock.
type Recorder struct {
	synth   *Synth
	buf     *beep.Buffer
	pending float64
}

func (s *Synth) Recorder() *Recorder {
	return &Recorder{synth: s, buf: beep.NewBuffer(s.format)}
}

// Advance appends d worth of samples. Fractional samples carry over to the
// next call.
func (r *Recorder) Advance(d time.Duration) {
	r.pending += d.Seconds() * float64(r.synth.format.SampleRate)
	n := int(r.pending)
	if n <= 0 {
		return
	}
	r.pending -= float64(n)
	r.buf.Append(beep.Take(n, r.synth))
}

// Len is the number of recorded samples per channel.
func (r *Recorder) Len() int { return r.buf.Len() }

func (r *Recorder) Duration() time.Duration {
	return r.synth.format.SampleRate.D(r.buf.Len())
}

func (r *Recorder) WriteFile(filename string) error {
	if r.buf.Len() == 0 {
		return fmt.Errorf("audio: nothing recorded")
	}
	return writeWAV(filename, r.buf.Streamer(0, r.buf.Len()), r.synth.format, r.synth.gain)
}

type wavFile interface {
	io.WriteSeeker
	io.Closer
}

var createFile = func(name string) (wavFile, error) { return os.Create(name) }

func writeWAV(filename string, s beep.Streamer, format beep.Format, gain float64) (err error) {
	f, err := createFile(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("audio: close %s: %w", filename, cerr)
		}
	}()

	if err := wav.Encode(f, &effects.Gain{Streamer: s, Gain: gain - 1}, format); err != nil {
		return fmt.Errorf("audio: encode %s: %w", filename, err)
	}
	return nil
}

func oscillate(w dynamo.Waveform, phase float64) float64 {
	switch w {
	case dynamo.WaveTriangle:
		return triangle(phase)
	case dynamo.WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case dynamo.WaveSaw:
		return 2 * (phase - 0.5)
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

func triangle(phase float64) float64 {
	return 4.0*math.Abs(phase-0.5) - 1.0
}

// lpf is a one-pole low-pass filter step.
func lpf(sample, cutoff, dt, state float64) float64 {
	rc := 1.0 / (2.0 * math.Pi * cutoff)
	alpha := dt / (rc + dt)
	return state + alpha*(sample-state)
}

func wrap(phase float64) float64 {
	return phase - math.Floor(phase)
}
