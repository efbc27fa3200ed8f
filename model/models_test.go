package model_test

import (
	"fmt"
	"image"
	"strconv"
	"testing"

	. "github.com/coreman2200/funtimes-lumiwave/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var TestPackedIsExpectedColor = []struct {
	R, G, B uint8
	Expect  uint32
}{
	{0x11, 0x22, 0x33, 0x112233},
	{0x44, 0x2A, 0x34, 0x442A34},
	{0x88, 0x3B, 0x35, 0x883B35},
	{0xFF, 0x00, 0xFF, 0xFF00FF},
}

func EntryBitRepresentation(c Color) {
	fmt.Println("Color:" + strconv.FormatInt(int64(c.Packed()), 2) + "(0x" + strconv.FormatInt(int64(c.Packed()), 16) + ")")
}

func TestColorsPacked(t *testing.T) {
	for k, v := range TestPackedIsExpectedColor {
		t.Run("Given RGB"+strconv.FormatUint(uint64(k), 10), func(t *testing.T) {
			col := Color{R: v.R, G: v.G, B: v.B}
			EntryBitRepresentation(col)
			assert.Equal(t, v.Expect, col.Packed(), "should be same val")
			assert.Equal(t, col, NewColor(v.Expect))
		})
	}
}

func TestColorScale(t *testing.T) {
	c := Color{R: 200, G: 100, B: 50}
	assert.Equal(t, Color{R: 100, G: 50, B: 25}, c.Scale(0.5))
	assert.Equal(t, c, c.Scale(1))
	assert.Equal(t, c, c.Scale(7))
	assert.Equal(t, Off, c.Scale(0))
	assert.Equal(t, Off, c.Scale(-1))
}

func TestWheelPrimaries(t *testing.T) {
	assert.Equal(t, Color{R: 255}, Wheel(0))
	assert.Equal(t, Color{G: 255}, Wheel(2.0/6))
	assert.Equal(t, Color{B: 255}, Wheel(4.0/6))
	assert.Equal(t, Wheel(0.25), Wheel(1.25))
}

func TestStripSetAndBounds(t *testing.T) {
	s := NewStrip(4, false)
	require.NoError(t, s.Set(3, Color{R: 1}))
	assert.ErrorIs(t, s.Set(4, Color{}), ErrIndex)
	assert.ErrorIs(t, s.Set(-1, Color{}), ErrIndex)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, Color{R: 1}, s.At(3))
}

func TestStripImageOrder(t *testing.T) {
	s := NewStrip(3, false)
	require.NoError(t, s.Set(0, Color{R: 9}))

	im := s.Image()
	assert.Equal(t, image.Rect(0, 0, 3, 1), im.Bounds())
	assert.Equal(t, uint8(9), im.NRGBAAt(0, 0).R)

	s.Reverse = true
	im = s.Image()
	assert.Equal(t, uint8(0), im.NRGBAAt(0, 0).R)
	assert.Equal(t, uint8(9), im.NRGBAAt(2, 0).R)
}

func TestStripSerialize(t *testing.T) {
	s := NewStrip(2, true)
	s.Fill(Color{R: 1, G: 2, B: 3})
	assert.Equal(t, []byte{1, 2, 3, 1, 2, 3}, s.Serialize())
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 255, G: 128}, c)

	c, err = ParseHex("0000FF")
	require.NoError(t, err)
	assert.Equal(t, Color{B: 255}, c)

	_, err = ParseHex("fff")
	assert.Error(t, err)
	_, err = ParseHex("zzzzzz")
	assert.Error(t, err)
}
