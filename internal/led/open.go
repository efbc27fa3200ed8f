package led

import (
	"fmt"
	"strings"

	"github.com/coreman2200/funtimes-lumiwave/internal/config"
	"github.com/coreman2200/funtimes-lumiwave/spi"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

// Open builds the controller selected by cfg. host.Init must have run.
// hardware is false when an addressable strip fell back to console output.
func Open(cfg config.LED) (c Controller, hardware bool, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	switch strings.ToLower(cfg.Type) {
	case config.TypeAddressable:
		freq := physic.Frequency(cfg.SPI.SpeedHz) * physic.Hertz
		d, hw, err := spi.OpenStrip(cfg.SPI.Port, cfg.Count, freq)
		if err != nil {
			return nil, false, err
		}
		lim := Limiter{
			WhiteCap: cfg.Power.WhiteCap,
			ChanMA:   cfg.Power.LEDChanMA,
			BudgetMA: cfg.Power.BudgetMA,
		}
		a, err := NewAddressable(d, cfg.Count, cfg.Brightness, cfg.Reverse, lim)
		if err != nil {
			_ = d.Halt()
			return nil, false, err
		}
		return a, hw, nil

	case config.TypeAggregate:
		var pins [3]gpio.PinIO
		for i, n := range []int{cfg.PWM.PinRed, cfg.PWM.PinGreen, cfg.PWM.PinBlue} {
			name := fmt.Sprintf("GPIO%d", n)
			p := gpioreg.ByName(name)
			if p == nil {
				return nil, false, fmt.Errorf("led: no such pin %s", name)
			}
			pins[i] = p
		}
		freq := physic.Frequency(cfg.PWM.FreqHz * float64(physic.Hertz))
		a, err := NewAggregate(pins[0], pins[1], pins[2], freq, cfg.Brightness)
		if err != nil {
			return nil, false, err
		}
		return a, true, nil
	}
	return nil, false, fmt.Errorf("led: unknown type %q", cfg.Type)
}
