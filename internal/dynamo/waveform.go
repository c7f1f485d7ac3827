package dynamo

import "fmt"

// Waveform selects the oscillator shape used by the audio generator.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSquare
	WaveSaw
)

var waveformNames = [...]string{"sine", "triangle", "square", "saw"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("waveform(%d)", int(w))
	}
	return waveformNames[w]
}

func (w Waveform) Valid() bool {
	return w >= 0 && int(w) < len(waveformNames)
}

// ParseWaveform resolves a waveform by name.
func ParseWaveform(s string) (Waveform, error) {
	for i, name := range waveformNames {
		if name == s {
			return Waveform(i), nil
		}
	}
	return 0, Invalid("waveform", "unknown waveform %q", s)
}

func (w Waveform) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, Invalid("waveform", "unknown waveform %d", int(w))
	}
	return []byte(w.String()), nil
}

func (w *Waveform) UnmarshalText(b []byte) error {
	parsed, err := ParseWaveform(string(b))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
