package led

import (
	"errors"
	"fmt"
	"sync"

	"github.com/coreman2200/funtimes-lumiwave/model"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Channel is one PWM output of an aggregate fixture. gpio.PinOut satisfies it.
type Channel interface {
	PWM(duty gpio.Duty, f physic.Frequency) error
	Halt() error
}

// Aggregate drives a single logical pixel through three PWM channels. Duty
// cycles change as soon as a colour is set, so Commit has nothing to do.
type Aggregate struct {
	mu         sync.Mutex
	ch         [3]Channel
	freq       physic.Frequency
	brightness float64
	current    model.Color
	closed     bool
}

func NewAggregate(red, green, blue Channel, freq physic.Frequency, brightness float64) (*Aggregate, error) {
	if freq <= 0 {
		return nil, fmt.Errorf("led: invalid PWM frequency %s", freq)
	}
	a := &Aggregate{
		ch:         [3]Channel{red, green, blue},
		freq:       freq,
		brightness: brightness,
	}
	if err := a.apply(model.Off); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Aggregate) Addressable() bool { return false }

func (a *Aggregate) LedAmount() int { return 1 }

// Duty converts one 8-bit channel value into a duty cycle.
func Duty(v uint8, brightness float64) gpio.Duty {
	if !(brightness > 0) {
		return 0
	}
	if brightness > 1 {
		brightness = 1
	}
	return gpio.Duty(float64(gpio.DutyMax) * float64(v) / 255.0 * brightness)
}

func (a *Aggregate) SetAll(c model.Color) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(c)
}

func (a *Aggregate) apply(c model.Color) error {
	if a.closed {
		return ErrClosed
	}
	var errs []error
	for i, v := range [3]uint8{c.R, c.G, c.B} {
		if err := a.ch[i].PWM(Duty(v, a.brightness), a.freq); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	a.current = c
	return nil
}

// SetAllIndividual has no per-pixel meaning on a single fixture.
func (a *Aggregate) SetAllIndividual(cs []model.Color) error {
	return fmt.Errorf("%w: per-pixel colours on aggregate hardware", ErrUnsupported)
}

// SetIndividual sets the whole fixture; every index maps to the one pixel.
func (a *Aggregate) SetIndividual(i int, c model.Color) error {
	return a.SetAll(c)
}

func (a *Aggregate) Commit() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	return nil
}

func (a *Aggregate) Reset() error {
	return a.SetAll(model.Off)
}

// Color returns the colour currently applied.
func (a *Aggregate) Color() model.Color {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

func (a *Aggregate) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	var errs []error
	for _, ch := range a.ch {
		if err := ch.Halt(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
