package protocol

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/coreman2200/funtimes-lumiwave/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeRoundTrip(t *testing.T) {
	for _, m := range []Mode{OnlyColor, OnlyIntensity, ColorAndIntensity} {
		got, err := ParseMode(m.Byte())
		require.NoError(t, err)
		assert.Equal(t, m, got)

		byName, err := ModeFromName(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, byName)
	}
}

func TestParseModeRejectsUnknown(t *testing.T) {
	for _, b := range []byte{3, 7, 0xFF} {
		_, err := ParseMode(b)
		assert.ErrorIs(t, err, ErrUnknownMode)
	}
	_, err := ModeFromName("rainbow")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestWireCodes(t *testing.T) {
	assert.Equal(t, byte(0), OnlyColor.Byte())
	assert.Equal(t, byte(1), OnlyIntensity.Byte())
	assert.Equal(t, byte(2), ColorAndIntensity.Byte())
}

func TestFrameSizes(t *testing.T) {
	n, err := OnlyColor.InitFrameSize()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	n, err = OnlyColor.StreamFrameSize()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = OnlyIntensity.InitFrameSize()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = OnlyIntensity.StreamFrameSize()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = ColorAndIntensity.InitFrameSize()
	assert.ErrorIs(t, err, ErrModeNotSupported)
	_, err = ColorAndIntensity.StreamFrameSize()
	assert.ErrorIs(t, err, ErrModeNotSupported)
	_, err = Mode(9).StreamFrameSize()
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMagic(&buf))
	assert.Equal(t, []byte{Magic}, buf.Bytes())
	require.NoError(t, ReadMagic(&buf))

	err := ReadMagic(bytes.NewReader([]byte{Magic + 1}))
	assert.ErrorIs(t, err, ErrBadMagic)

	err = ReadMagic(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)
}

func TestIntensityIsBigEndianFloat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIntensity(&buf, 1.0))
	assert.Equal(t, []byte{0x3F, 0x80, 0x00, 0x00}, buf.Bytes())

	f, err := ReadIntensity(&buf)
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), f)
}

func TestIntensityNotClamped(t *testing.T) {
	var b [IntensityFrameSize]byte
	EncodeIntensity(b[:], 3.5)
	assert.Equal(t, float32(3.5), DecodeIntensity(b[:]))

	EncodeIntensity(b[:], float32(math.Inf(-1)))
	assert.True(t, math.IsInf(float64(DecodeIntensity(b[:])), -1))
}

func TestColorFrame(t *testing.T) {
	var buf bytes.Buffer
	c := model.Color{R: 255, G: 16, B: 1}
	require.NoError(t, WriteColor(&buf, c))
	assert.Equal(t, []byte{255, 16, 1}, buf.Bytes())

	got, err := ReadColor(&buf)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestReadFrameBoundaries(t *testing.T) {
	buf := make([]byte, 4)

	err := ReadFrame(bytes.NewReader(nil), buf)
	assert.ErrorIs(t, err, io.EOF, "zero bytes at a boundary is a clean end")

	err = ReadFrame(bytes.NewReader([]byte{1, 2}), buf)
	assert.ErrorIs(t, err, ErrTruncatedFrame)
	assert.NotErrorIs(t, err, io.EOF)

	require.NoError(t, ReadFrame(bytes.NewReader([]byte{1, 2, 3, 4}), buf))
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)
}
