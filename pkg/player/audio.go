package player

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cbodonnell/tether/pkg/game/constants"
)

// AudioDecoder turns an encoded voice packet into mono samples in [-1, 1].
type AudioDecoder interface {
	Decode(packet []byte) ([]float32, error)
}

// PCM16Decoder decodes little endian signed 16 bit PCM.
type PCM16Decoder struct{}

func (PCM16Decoder) Decode(packet []byte) ([]float32, error) {
	if len(packet)%2 != 0 {
		return nil, fmt.Errorf("odd pcm16 packet length %d", len(packet))
	}
	out := make([]float32, len(packet)/2)
	for i := range out {
		s := int16(binary.LittleEndian.Uint16(packet[i*2:]))
		out[i] = float32(s) / 32768
	}
	return out, nil
}

// Analyser keeps the most recent window of decoded voice for level metering.
type Analyser struct {
	decoder AudioDecoder
	fftSize int
	window  []float32
}

type NewAnalyserOptions struct {
	Decoder AudioDecoder
	// FFTSize is the window length in samples.
	FFTSize int
}

func NewAnalyser(opts *NewAnalyserOptions) *Analyser {
	if opts == nil {
		opts = &NewAnalyserOptions{}
	}
	a := &Analyser{decoder: opts.Decoder, fftSize: opts.FFTSize}
	if a.decoder == nil {
		a.decoder = PCM16Decoder{}
	}
	if a.fftSize <= 0 {
		a.fftSize = constants.AnalyserFFTSize
	}
	return a
}

// Write decodes a packet and appends it to the window.
func (a *Analyser) Write(packet []byte) error {
	samples, err := a.decoder.Decode(packet)
	if err != nil {
		return fmt.Errorf("failed to decode audio: %v", err)
	}
	a.window = append(a.window, samples...)
	if n := len(a.window); n > a.fftSize {
		a.window = append(a.window[:0], a.window[n-a.fftSize:]...)
	}
	return nil
}

// Level is the RMS of the window.
func (a *Analyser) Level() float64 {
	if len(a.window) == 0 {
		return 0
	}
	var sum float64
	for _, s := range a.window {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(a.window)))
}

// FFTSize is the window length in samples.
func (a *Analyser) FFTSize() int {
	return a.fftSize
}
