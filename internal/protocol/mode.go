package protocol

import (
	"fmt"
	"strings"
)

// Magic is written by the server right after accept.
const Magic byte = 0x2A

const (
	ColorFrameSize     = 3
	IntensityFrameSize = 4
)

// Mode selects the frame shapes and rendering policy of one connection.
type Mode uint8

const (
	OnlyColor         Mode = 0
	OnlyIntensity     Mode = 1
	ColorAndIntensity Mode = 2
)

var modeNames = map[Mode]string{
	OnlyColor:         "only-color",
	OnlyIntensity:     "only-intensity",
	ColorAndIntensity: "color-and-intensity",
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

func (m Mode) Byte() byte {
	return byte(m)
}

// ParseMode decodes a wire mode byte. Unknown values are never substituted.
func ParseMode(b byte) (Mode, error) {
	m := Mode(b)
	if _, ok := modeNames[m]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownMode, b)
	}
	return m, nil
}

// ModeFromName parses the CLI spelling of a mode.
func ModeFromName(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, n := range modeNames {
		if n == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Supported reports whether both ends know how to stream the mode.
func (m Mode) Supported() bool {
	return m == OnlyColor || m == OnlyIntensity
}

// InitFrameSize is the size of the frame sent once after the mode byte.
func (m Mode) InitFrameSize() (int, error) {
	switch m {
	case OnlyColor:
		return IntensityFrameSize, nil
	case OnlyIntensity:
		return ColorFrameSize, nil
	case ColorAndIntensity:
		return 0, fmt.Errorf("%w: %s", ErrModeNotSupported, m)
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownMode, uint8(m))
}

// StreamFrameSize is the size of every repeated frame.
func (m Mode) StreamFrameSize() (int, error) {
	switch m {
	case OnlyColor:
		return ColorFrameSize, nil
	case OnlyIntensity:
		return IntensityFrameSize, nil
	case ColorAndIntensity:
		return 0, fmt.Errorf("%w: %s", ErrModeNotSupported, m)
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownMode, uint8(m))
}
