package led

import "math"

// Limiter caps per-LED whiteness and total strip current before a frame is
// sent. The zero value is a no-op.
//
//   - WhiteCap: fraction of full white allowed per LED, r+g+b <= WhiteCap*3*255. Disabled outside (0,1).
//   - ChanMA: mA drawn by one channel at full scale (WS2812 ≈ 20).
//   - BudgetMA: total budget for the frame; 0 disables.
//   - Knee: fraction of the budget where soft limiting starts (default 0.9).
type Limiter struct {
	WhiteCap float64
	ChanMA   float64
	BudgetMA float64
	Knee     float64
}

// ApplyNRGBA limits an NRGBA pixel slice in place. Alpha is left untouched.
func (l Limiter) ApplyNRGBA(pix []byte) {
	if l.WhiteCap > 0 && l.WhiteCap < 1 {
		limit := l.WhiteCap * 3.0 * 255.0
		for i := 0; i+3 < len(pix); i += 4 {
			s := float64(pix[i]) + float64(pix[i+1]) + float64(pix[i+2])
			if s > limit {
				scalePixel(pix[i:i+3], limit/s)
			}
		}
	}

	if l.BudgetMA <= 0 {
		return
	}
	chanMA := l.ChanMA
	if chanMA <= 0 {
		chanMA = 20
	}
	knee := l.Knee
	if knee <= 0 || knee >= 1 {
		knee = 0.9
	}

	total := l.Current(pix, chanMA)
	if total <= 0 {
		return
	}
	ratio := total / l.BudgetMA
	if ratio <= knee {
		return
	}
	minS := l.BudgetMA / total
	s := minS
	if ratio <= 1.0 {
		t := (ratio - knee) / (1.0 - knee)
		s = 1.0 - t*(1.0-minS)
	}
	if s >= 1 {
		return
	}
	for i := 0; i+3 < len(pix); i += 4 {
		scalePixel(pix[i:i+3], s)
	}
}

// Current estimates the frame draw in mA.
func (l Limiter) Current(pix []byte, chanMA float64) float64 {
	var sum float64
	for i := 0; i+3 < len(pix); i += 4 {
		sum += float64(pix[i]) + float64(pix[i+1]) + float64(pix[i+2])
	}
	return sum / 255.0 * chanMA
}

// scalePixel rounds down so a limited frame never exceeds its target.
func scalePixel(rgb []byte, s float64) {
	for i := range rgb {
		rgb[i] = byte(math.Floor(float64(rgb[i]) * s))
	}
}
