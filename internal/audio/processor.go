package audio

import "math"

const (
	// DefaultHistory is roughly two seconds of mono 48kHz audio.
	DefaultHistory = 100_000

	// Headroom maps the long-term RMS to an intensity of 1/Headroom.
	Headroom = 2.0

	// Release is the per-update decay applied when the level drops.
	Release = 0.8

	// SilenceFloor snaps smaller outputs to zero.
	SilenceFloor = 1e-3

	// minHistoryRMS avoids normalising against near silence.
	minHistoryRMS = 1.0 / 32768
)

// Processor turns 16-bit PCM windows into a smoothed intensity in [0,1].
//
// Update is meant to run on the capture callback: it never allocates, never
// locks and does bounded work per call. A Processor is not safe for
// concurrent use.
type Processor struct {
	ring   []uint16
	head   int
	filled int
	sumSq  uint64
	level  float32
}

func NewProcessor(capacity int) *Processor {
	if capacity <= 0 {
		capacity = DefaultHistory
	}
	return &Processor{ring: make([]uint16, capacity)}
}

func (p *Processor) Capacity() int {
	return len(p.ring)
}

// Filled is the number of history slots holding a sample.
func (p *Processor) Filled() int {
	return p.filled
}

// Level returns the last value returned by Update.
func (p *Processor) Level() float32 {
	return p.level
}

// Update folds samples into the history and returns the new intensity.
func (p *Processor) Update(samples []int16) float32 {
	if len(samples) > len(p.ring) {
		samples = samples[len(samples)-len(p.ring):]
	}
	var windowSq uint64
	for _, s := range samples {
		m := magnitude(s)
		sq := uint64(m) * uint64(m)
		windowSq += sq

		if p.filled == len(p.ring) {
			old := uint64(p.ring[p.head])
			p.sumSq -= old * old
		} else {
			p.filled++
		}
		p.ring[p.head] = m
		p.sumSq += sq
		p.head++
		if p.head == len(p.ring) {
			p.head = 0
		}
	}

	var raw float32
	if len(samples) > 0 && p.filled > 0 {
		windowRMS := math.Sqrt(float64(windowSq)/float64(len(samples))) / 32768
		historyRMS := math.Sqrt(float64(p.sumSq)/float64(p.filled)) / 32768
		if historyRMS >= minHistoryRMS {
			raw = float32(clamp01(windowRMS / (Headroom * historyRMS)))
		}
	}

	decayed := p.level * Release
	if raw > decayed {
		p.level = raw
	} else {
		p.level = decayed
	}
	if p.level < SilenceFloor {
		p.level = 0
	}
	return p.level
}

func magnitude(s int16) uint16 {
	if s < 0 {
		return uint16(-int32(s))
	}
	return uint16(s)
}

func clamp01(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
