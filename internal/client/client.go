// Package client streams audio levels from the capture callback to a
// lumiwave server.
package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/coreman2200/funtimes-lumiwave/internal/protocol"
	"github.com/coreman2200/funtimes-lumiwave/model"
)

const DialTimeout = 5 * time.Second

// Init is the handshake payload. Only the field matching the mode is sent.
type Init struct {
	BaseIntensity float32
	BaseColor     model.Color
}

func DefaultInit(base model.Color) Init {
	return Init{BaseIntensity: 1, BaseColor: base}
}

func Dial(ctx context.Context, addr string) (net.Conn, error) {
	d := net.Dialer{Timeout: DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return conn, nil
}

// Handshake waits for the server greeting, then sends the mode and its init
// frame. Nothing is written when the greeting is wrong.
func Handshake(rw io.ReadWriter, m protocol.Mode, init Init) error {
	if !m.Supported() {
		return fmt.Errorf("%w: %s", protocol.ErrModeNotSupported, m)
	}
	if err := protocol.ReadMagic(rw); err != nil {
		return fmt.Errorf("client: greeting: %w", err)
	}
	if err := protocol.WriteMode(rw, m); err != nil {
		return fmt.Errorf("client: write mode: %w", err)
	}
	var err error
	switch m {
	case protocol.OnlyColor:
		err = protocol.WriteIntensity(rw, init.BaseIntensity)
	case protocol.OnlyIntensity:
		err = protocol.WriteColor(rw, init.BaseColor)
	}
	if err != nil {
		return fmt.Errorf("client: write init frame: %w", err)
	}
	return nil
}

// ColorFor maps a level onto the colour wheel, dimmed by the same level.
func ColorFor(level float32) model.Color {
	l := float64(level)
	return model.Wheel(l).Scale(l)
}
