package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/coreman2200/funtimes-lumiwave/model"
)

func WriteMagic(w io.Writer) error {
	_, err := w.Write([]byte{Magic})
	return err
}

// ReadMagic reads the server greeting and fails on any other value.
func ReadMagic(r io.Reader) error {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return err
	}
	if b[0] != Magic {
		return fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrBadMagic, b[0], Magic)
	}
	return nil
}

func WriteMode(w io.Writer, m Mode) error {
	_, err := w.Write([]byte{m.Byte()})
	return err
}

func ReadMode(r io.Reader) (Mode, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return ParseMode(b[0])
}

// ReadFrame fills buf from r. It returns io.EOF only when no byte of the
// frame was read, and ErrTruncatedFrame when the stream ended mid-frame.
func ReadFrame(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncatedFrame
	}
	return err
}

func EncodeColor(dst []byte, c model.Color) {
	dst[0], dst[1], dst[2] = c.R, c.G, c.B
}

func DecodeColor(b []byte) model.Color {
	return model.Color{R: b[0], G: b[1], B: b[2]}
}

// EncodeIntensity writes f as an IEEE-754 big-endian float32. It is not clamped.
func EncodeIntensity(dst []byte, f float32) {
	binary.BigEndian.PutUint32(dst, math.Float32bits(f))
}

func DecodeIntensity(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

func WriteColor(w io.Writer, c model.Color) error {
	var b [ColorFrameSize]byte
	EncodeColor(b[:], c)
	_, err := w.Write(b[:])
	return err
}

func ReadColor(r io.Reader) (model.Color, error) {
	var b [ColorFrameSize]byte
	if err := ReadFrame(r, b[:]); err != nil {
		return model.Color{}, err
	}
	return DecodeColor(b[:]), nil
}

func WriteIntensity(w io.Writer, f float32) error {
	var b [IntensityFrameSize]byte
	EncodeIntensity(b[:], f)
	_, err := w.Write(b[:])
	return err
}

func ReadIntensity(r io.Reader) (float32, error) {
	var b [IntensityFrameSize]byte
	if err := ReadFrame(r, b[:]); err != nil {
		return 0, err
	}
	return DecodeIntensity(b[:]), nil
}
