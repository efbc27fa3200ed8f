package led

import (
	"fmt"
	"image"
	"sync"

	"github.com/coreman2200/funtimes-lumiwave/model"
	"periph.io/x/conn/v3/display"
)

// Addressable drives an individually addressable strip through a display
// drawer (nrzled over SPI on the Pi). Commit blocks until the drawer has
// sent the frame.
type Addressable struct {
	mu         sync.Mutex
	drawer     display.Drawer
	strip      *model.Strip
	img        *image.NRGBA
	brightness float64
	limiter    Limiter
	closed     bool
}

func NewAddressable(d display.Drawer, count int, brightness float64, reverse bool, lim Limiter) (*Addressable, error) {
	if count <= 0 {
		return nil, fmt.Errorf("led: invalid LED count: %d", count)
	}
	if w := d.Bounds().Dx(); w < count {
		return nil, fmt.Errorf("led: drawer is %d pixels wide, need %d", w, count)
	}
	return &Addressable{
		drawer:     d,
		strip:      model.NewStrip(count, reverse),
		img:        image.NewNRGBA(image.Rect(0, 0, count, 1)),
		brightness: brightness,
		limiter:    lim,
	}, nil
}

func (a *Addressable) Addressable() bool { return true }

func (a *Addressable) LedAmount() int { return a.strip.Len() }

func (a *Addressable) SetAll(c model.Color) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.strip.Fill(c)
	return nil
}

func (a *Addressable) SetAllIndividual(cs []model.Color) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(cs) != a.strip.Len() {
		return fmt.Errorf("%w: got %d, have %d", ErrLengthMismatch, len(cs), a.strip.Len())
	}
	a.strip.CopyFrom(cs)
	return nil
}

func (a *Addressable) SetIndividual(i int, c model.Color) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.strip.Set(i, c); err != nil {
		return fmt.Errorf("%w: %d >= %d", ErrOutOfRange, i, a.strip.Len())
	}
	return nil
}

func (a *Addressable) Commit() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.commitLocked()
}

func (a *Addressable) commitLocked() error {
	if a.closed {
		return ErrClosed
	}
	a.strip.DrawInto(a.img, func(c model.Color) model.Color {
		return c.Scale(a.brightness)
	})
	a.limiter.ApplyNRGBA(a.img.Pix)
	if err := a.drawer.Draw(a.img.Bounds(), a.img, image.Point{}); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

func (a *Addressable) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.strip.Fill(model.Off)
	return a.commitLocked()
}

// Leds returns a copy of the buffered colours.
func (a *Addressable) Leds() []model.Color {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.strip.Leds()
}

func (a *Addressable) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.drawer.Halt()
}
