package spi

import (
	"fmt"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
)

// DefaultFreq suits WS281x strips driven through nrzled.
const DefaultFreq = 2500 * physic.KiloHertz

// OpenStrip opens the named SPI port (empty for the first one) and returns a
// WS281x drawer of numPixels RGB pixels. When no SPI port is available it
// falls back to a console drawer and reports hardware=false.
func OpenStrip(name string, numPixels int, freq physic.Frequency) (d display.Drawer, hardware bool, err error) {
	p, err := spireg.Open(name)
	if err != nil {
		return screen.New(numPixels), false, nil
	}
	d, err = NewStrip(p, numPixels, freq)
	if err != nil {
		_ = p.Close()
		return nil, false, err
	}
	return d, true, nil
}

// NewStrip wraps an already opened port.
func NewStrip(p spi.Port, numPixels int, freq physic.Frequency) (*nrzled.Dev, error) {
	if freq == 0 {
		freq = DefaultFreq
	}
	opts := nrzled.Opts{
		NumPixels: numPixels,
		Channels:  3,
		Freq:      freq,
	}
	d, err := nrzled.NewSPI(p, &opts)
	if err != nil {
		return nil, fmt.Errorf("spi: nrzled: %w", err)
	}
	if err := d.Halt(); err != nil {
		return nil, fmt.Errorf("spi: nrzled halt: %w", err)
	}
	return d, nil
}
