package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n int, amp float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amp * math.Sin(2*math.Pi*float64(i)/32))
	}
	return out
}

func TestSilenceConverges(t *testing.T) {
	p := NewProcessor(1000)
	loud := sine(100, 20000)
	for i := 0; i < 20; i++ {
		p.Update(loud)
	}
	require.Greater(t, p.Level(), float32(0))

	zeros := make([]int16, 100)
	var v float32
	for i := 0; i < 100; i++ {
		v = p.Update(zeros)
	}
	assert.Equal(t, 1000, p.Filled())
	assert.Equal(t, float32(0), v)
	assert.Equal(t, uint64(0), p.sumSq)
}

func TestSteadyToneIsHalfScale(t *testing.T) {
	p := NewProcessor(3200)
	w := sine(320, 16000)
	var v float32
	for i := 0; i < 20; i++ {
		v = p.Update(w)
	}
	assert.InDelta(t, 1/Headroom, v, 0.02)
}

func TestBurstAfterQuietSaturates(t *testing.T) {
	p := NewProcessor(10000)
	for i := 0; i < 100; i++ {
		p.Update(sine(100, 500))
	}
	v := p.Update(sine(100, 30000))
	assert.Equal(t, float32(1), v)
}

func TestReleaseDecays(t *testing.T) {
	p := NewProcessor(10000)
	for i := 0; i < 100; i++ {
		p.Update(sine(100, 8000))
	}
	peak := p.Update(sine(100, 30000))
	next := p.Update(sine(100, 10))
	assert.InDelta(t, peak*Release, next, 1e-6)
}

func TestDeterministic(t *testing.T) {
	a, b := NewProcessor(500), NewProcessor(500)
	for i := 0; i < 30; i++ {
		w := sine(64+i, float64(1000*i))
		assert.Equal(t, a.Update(w), b.Update(w))
	}
}

func TestWindowLargerThanHistory(t *testing.T) {
	p := NewProcessor(16)
	w := make([]int16, 64)
	w[0] = math.MaxInt16
	p.Update(w)
	assert.Equal(t, 16, p.Filled())
	assert.Equal(t, uint64(0), p.sumSq, "only the newest samples are kept")
}

func TestMinInt16Magnitude(t *testing.T) {
	assert.Equal(t, uint16(32768), magnitude(math.MinInt16))
	assert.Equal(t, uint16(5), magnitude(-5))
}

func TestEmptyWindow(t *testing.T) {
	p := NewProcessor(0)
	assert.Equal(t, DefaultHistory, p.Capacity())
	assert.Equal(t, float32(0), p.Update(nil))
}

func TestUpdateDoesNotAllocate(t *testing.T) {
	p := NewProcessor(4096)
	w := sine(512, 12000)
	allocs := testing.AllocsPerRun(100, func() { p.Update(w) })
	assert.Zero(t, allocs)
}
