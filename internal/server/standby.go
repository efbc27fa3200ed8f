package server

import (
	"time"

	"github.com/coreman2200/funtimes-lumiwave/internal/led"
	"github.com/coreman2200/funtimes-lumiwave/model"
)

// rainbow scrolls the colour wheel along the strip while nobody is connected.
// speed is in wheel turns per second.
type rainbow struct {
	ctrl    led.Controller
	speed   float64
	reverse bool
	frame   []model.Color
}

func newRainbow(ctrl led.Controller, speed float64, reverse bool) *rainbow {
	return &rainbow{
		ctrl:    ctrl,
		speed:   speed,
		reverse: reverse,
		frame:   make([]model.Color, ctrl.LedAmount()),
	}
}

func (r *rainbow) step(elapsed time.Duration) error {
	phase := elapsed.Seconds() * r.speed
	if r.reverse {
		phase = -phase
	}
	if !r.ctrl.Addressable() {
		if err := r.ctrl.SetAll(model.Wheel(phase)); err != nil {
			return err
		}
		return r.ctrl.Commit()
	}
	n := float64(len(r.frame))
	for i := range r.frame {
		r.frame[i] = model.Wheel(float64(i)/n + phase)
	}
	if err := r.ctrl.SetAllIndividual(r.frame); err != nil {
		return err
	}
	return r.ctrl.Commit()
}
