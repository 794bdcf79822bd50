package audio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/jorabin/sounds/internal/tone"
)

// oscillator is an endless sine wave whose period is rounded to whole
// frames, so a clip of whole periods loops without a seam.
type oscillator struct {
	period int
	pos    int
}

func newOscillator(freq float64, rate beep.SampleRate) *oscillator {
	return &oscillator{period: periodFrames(freq, rate)}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		val := math.Sin(2 * math.Pi * float64(o.pos) / float64(o.period))
		samples[i][0] = val
		samples[i][1] = val
		o.pos = (o.pos + 1) % o.period
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// periodFrames returns the length of one period of freq in whole frames.
func periodFrames(freq float64, rate beep.SampleRate) int {
	p := int(math.Round(float64(rate) / freq))
	if p < 1 {
		p = 1
	}
	return p
}

// clipFrames returns the clip length: periods of the lowest tone.
func clipFrames(tones tone.List, rate beep.SampleRate, periods int) int {
	longest := 0
	for _, t := range tones {
		if p := periodFrames(t.Frequency, rate); p > longest {
			longest = p
		}
	}
	return longest * periods
}

// newVolume scales s by a linear amplitude. Zero amplitude is silent.
func newVolume(s beep.Streamer, amplitude float64) beep.Streamer {
	if amplitude <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(amplitude), Silent: false}
}

// synthesize mixes one oscillator per tone into a buffer.
func synthesize(tones tone.List, format beep.Format, periods int) (*beep.Buffer, error) {
	if len(tones) == 0 {
		return nil, fmt.Errorf("%w: no tones", ErrRender)
	}
	for _, t := range tones {
		if t.Frequency <= 0 || math.IsNaN(t.Frequency) || math.IsInf(t.Frequency, 0) {
			return nil, fmt.Errorf("%w: bad frequency %v", ErrRender, t.Frequency)
		}
	}

	streamers := make([]beep.Streamer, 0, len(tones))
	for _, t := range tones {
		streamers = append(streamers, newVolume(newOscillator(t.Frequency, format.SampleRate), t.Amplitude))
	}

	buf := beep.NewBuffer(format)
	buf.Append(beep.Take(clipFrames(tones, format.SampleRate, periods), beep.Mix(streamers...)))
	return buf, nil
}

// encodePCM returns the buffer as signed little-endian PCM in its format.
func encodePCM(buf *beep.Buffer) []byte {
	f := buf.Format()
	width := f.Width()
	pcm := make([]byte, buf.Len()*width)

	s := buf.Streamer(0, buf.Len())
	samples := make([][2]float64, 512)
	off := 0
	for {
		n, ok := s.Stream(samples)
		for i := 0; i < n; i++ {
			off += f.EncodeSigned(pcm[off:], samples[i])
		}
		if !ok || n == 0 {
			break
		}
	}
	return pcm[:off]
}

// decodePCM reverses encodePCM for 16-bit stereo and mono formats.
func decodePCM(format beep.Format, pcm []byte) (*beep.Buffer, error) {
	if format.Precision != 2 {
		return nil, fmt.Errorf("%w: unsupported precision %d", ErrRender, format.Precision)
	}
	width := format.Width()
	if len(pcm) == 0 || len(pcm)%width != 0 {
		return nil, fmt.Errorf("%w: truncated clip of %d bytes", ErrRender, len(pcm))
	}

	samples := make([][2]float64, len(pcm)/width)
	for i := range samples {
		frame := pcm[i*width:]
		left := float64(int16(binary.LittleEndian.Uint16(frame))) / (1<<15 - 1)
		right := left
		if format.NumChannels > 1 {
			right = float64(int16(binary.LittleEndian.Uint16(frame[2:]))) / (1<<15 - 1)
		}
		samples[i] = [2]float64{left, right}
	}

	buf := beep.NewBuffer(format)
	buf.Append(&sliceStreamer{samples: samples})
	return buf, nil
}

// sliceStreamer streams a fixed slice of samples once.
type sliceStreamer struct {
	samples [][2]float64
	pos     int
}

func (s *sliceStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n = copy(samples, s.samples[s.pos:])
	s.pos += n
	return n, true
}

func (s *sliceStreamer) Err() error { return nil }
