package client

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/coreman2200/funtimes-lumiwave/internal/audio"
	"github.com/coreman2200/funtimes-lumiwave/internal/protocol"
)

// Writer drains an Outbox into the connection, one frame per level.
type Writer struct {
	conn    net.Conn
	mode    protocol.Mode
	outbox  *Outbox
	timeout time.Duration
	sent    atomic.Uint64
	buf     [protocol.IntensityFrameSize]byte
}

func NewWriter(conn net.Conn, mode protocol.Mode, outbox *Outbox, timeout time.Duration) *Writer {
	return &Writer{conn: conn, mode: mode, outbox: outbox, timeout: timeout}
}

// Run returns nil when ctx is done and the first write error otherwise.
func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case v := <-w.outbox.C():
			if err := w.send(v); err != nil {
				return err
			}
		}
	}
}

func (w *Writer) send(level float32) error {
	var frame []byte
	switch w.mode {
	case protocol.OnlyColor:
		frame = w.buf[:protocol.ColorFrameSize]
		protocol.EncodeColor(frame, ColorFor(level))
	case protocol.OnlyIntensity:
		frame = w.buf[:protocol.IntensityFrameSize]
		protocol.EncodeIntensity(frame, level)
	default:
		return fmt.Errorf("%w: %s", protocol.ErrModeNotSupported, w.mode)
	}
	if w.timeout > 0 {
		if err := w.conn.SetWriteDeadline(time.Now().Add(w.timeout)); err != nil {
			return err
		}
	}
	if _, err := w.conn.Write(frame); err != nil {
		return fmt.Errorf("client: write frame: %w", err)
	}
	w.sent.Add(1)
	return nil
}

// Sent counts frames written.
func (w *Writer) Sent() uint64 { return w.sent.Load() }

// Feed is the capture callback: it folds the window into p and offers the
// level. It does not allocate or block.
func Feed(p *audio.Processor, o *Outbox) audio.Callback {
	return func(in []int16) {
		o.Offer(p.Update(in))
	}
}
