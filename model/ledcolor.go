package model

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

const (
	RED_OFFSET   uint8 = 0x10
	GREEN_OFFSET uint8 = 0x08
	BLUE_OFFSET  uint8 = 0x0
)

// Color is one RGB output value. There is no white or alpha channel.
type Color struct {
	R, G, B uint8
}

// Off is the colour written on reset.
var Off = Color{}

// NewColor unpacks a 0xRRGGBB value.
func NewColor(c uint32) Color {
	return Color{
		R: getcolor(c, RED_OFFSET),
		G: getcolor(c, GREEN_OFFSET),
		B: getcolor(c, BLUE_OFFSET),
	}
}

// ParseHex reads RRGGBB, with or without a leading '#'.
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Off, fmt.Errorf("model: colour %q is not RRGGBB", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Off, fmt.Errorf("model: colour %q: %w", s, err)
	}
	return NewColor(uint32(v)), nil
}

func getcolor(c uint32, off uint8) uint8 {
	var mask uint32 = 0xFF << off
	return uint8((c & mask) >> off)
}

// Packed returns the colour as 0xRRGGBB.
func (c Color) Packed() uint32 {
	return uint32(c.R)<<RED_OFFSET | uint32(c.G)<<GREEN_OFFSET | uint32(c.B)<<BLUE_OFFSET
}

// Scale multiplies every channel by s, clamped to [0,1]. NaN scales to black.
func (c Color) Scale(s float64) Color {
	if !(s > 0) {
		return Off
	}
	if s >= 1 {
		return c
	}
	return Color{
		R: uint8(float64(c.R) * s),
		G: uint8(float64(c.G) * s),
		B: uint8(float64(c.B) * s),
	}
}

func (c Color) ToNRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

func (c Color) IsOff() bool {
	return c == Off
}

// Wheel maps h in [0,1) onto a fully saturated hue.
func Wheel(h float64) Color {
	h = math.Mod(h, 1)
	if h < 0 {
		h += 1
	}
	h *= 6
	switch {
	case h < 1.:
		return Color{R: 255, G: byte(255 * h)}
	case h < 2.:
		return Color{R: byte(255 * (2 - h)), G: 255}
	case h < 3.:
		return Color{G: 255, B: byte(255 * (h - 2))}
	case h < 4.:
		return Color{G: byte(255 * (4 - h)), B: 255}
	case h < 5.:
		return Color{R: byte(255 * (h - 4)), B: 255}
	default:
		return Color{R: 255, B: byte(255 * (6 - h))}
	}
}
