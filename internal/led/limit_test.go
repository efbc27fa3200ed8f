package led

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func whitePix(n int) []byte {
	pix := make([]byte, n*4)
	for i := range pix {
		pix[i] = 255
	}
	return pix
}

func TestLimiterBudgetClamp(t *testing.T) {
	// 10 LEDs at full white draw 600 mA.
	pix := whitePix(10)
	l := Limiter{ChanMA: 20, BudgetMA: 300, Knee: 0.9}
	assert.InDelta(t, 600, l.Current(pix, 20), 0.01)

	l.ApplyNRGBA(pix)
	assert.LessOrEqual(t, l.Current(pix, 20), 300.0)
	for i := 3; i < len(pix); i += 4 {
		assert.Equal(t, byte(255), pix[i], "alpha")
	}
}

func TestLimiterWhiteCap(t *testing.T) {
	pix := whitePix(1)
	Limiter{WhiteCap: 0.5}.ApplyNRGBA(pix)
	sum := int(pix[0]) + int(pix[1]) + int(pix[2])
	assert.LessOrEqual(t, sum, 383)
}

func TestLimiterZeroValueIsNoop(t *testing.T) {
	pix := whitePix(4)
	Limiter{}.ApplyNRGBA(pix)
	assert.Equal(t, whitePix(4), pix)
}

func TestLimiterBelowKnee(t *testing.T) {
	pix := []byte{10, 10, 10, 255}
	Limiter{ChanMA: 20, BudgetMA: 1000}.ApplyNRGBA(pix)
	assert.Equal(t, []byte{10, 10, 10, 255}, pix)
}
