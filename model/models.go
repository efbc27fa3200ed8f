package model

import (
	"errors"
	"image"
)

var ErrIndex = errors.New("model: led index out of range")

// Strip is a fixed-length LED buffer. Index 0 is the first LED after the
// data input unless Reverse is set, in which case it is the last one.
type Strip struct {
	Reverse bool

	leds []Color
}

func NewStrip(n int, reverse bool) *Strip {
	if n < 0 {
		n = 0
	}
	return &Strip{
		Reverse: reverse,
		leds:    make([]Color, n),
	}
}

func (s *Strip) Len() int {
	return len(s.leds)
}

func (s *Strip) At(i int) Color {
	return s.leds[i]
}

func (s *Strip) Set(i int, c Color) error {
	if i < 0 || i >= len(s.leds) {
		return ErrIndex
	}
	s.leds[i] = c
	return nil
}

func (s *Strip) Fill(c Color) {
	for i := range s.leds {
		s.leds[i] = c
	}
}

// CopyFrom overwrites the buffer. Callers check lengths first.
func (s *Strip) CopyFrom(cs []Color) {
	copy(s.leds, cs)
}

// Leds returns a copy of the buffer in logical order.
func (s *Strip) Leds() []Color {
	out := make([]Color, len(s.leds))
	copy(out, s.leds)
	return out
}

// Image returns a 1-row image in physical order, as expected by display drawers.
func (s *Strip) Image() *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, len(s.leds), 1))
	s.DrawInto(im, nil)
	return im
}

// DrawInto writes the buffer into im in physical order, passing every pixel
// through f when it is not nil. im must be at least Len() pixels wide.
func (s *Strip) DrawInto(im *image.NRGBA, f func(Color) Color) {
	n := len(s.leds)
	for x := 0; x < n && x < im.Rect.Dx(); x++ {
		c := s.leds[s.physical(x)]
		if f != nil {
			c = f(c)
		}
		im.SetNRGBA(im.Rect.Min.X+x, im.Rect.Min.Y, c.ToNRGBA())
	}
}

func (s *Strip) physical(x int) int {
	if s.Reverse {
		return len(s.leds) - 1 - x
	}
	return x
}

// Serialize returns packed RGB bytes in logical order.
func (s *Strip) Serialize() []byte {
	buf := make([]byte, 0, len(s.leds)*3)
	for _, c := range s.leds {
		buf = append(buf, c.R, c.G, c.B)
	}
	return buf
}
