package protocol

import "errors"

var (
	ErrBadMagic         = errors.New("protocol: bad magic byte")
	ErrUnknownMode      = errors.New("protocol: unknown mode")
	ErrModeNotSupported = errors.New("protocol: mode not supported yet")
	ErrTruncatedFrame   = errors.New("protocol: truncated frame")
)
