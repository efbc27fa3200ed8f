// Package runner serves one streaming connection: it performs the server
// side of the handshake and turns every received frame into LED updates.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"sync/atomic"
	"time"

	"github.com/coreman2200/funtimes-lumiwave/internal/led"
	"github.com/coreman2200/funtimes-lumiwave/internal/protocol"
	"github.com/coreman2200/funtimes-lumiwave/model"
	"github.com/rs/zerolog"
)

var (
	ErrCommit      = errors.New("runner: commit failed")
	ErrReadTimeout = errors.New("runner: read timeout")
)

type State int32

const (
	AwaitingHandshake State = iota
	Dispatched
	Streaming
	Closed
)

func (s State) String() string {
	switch s {
	case AwaitingHandshake:
		return "awaiting-handshake"
	case Dispatched:
		return "dispatched"
	case Streaming:
		return "streaming"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

type Options struct {
	// ReadTimeout bounds every frame read. Zero waits forever.
	ReadTimeout time.Duration
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
	// OnState is called on every transition. err is only set with Closed.
	OnState func(s State, err error)
}

// Runner owns conn and borrows ctrl for the duration of Run.
type Runner struct {
	conn net.Conn
	ctrl led.Controller
	opts Options
	log  zerolog.Logger

	state  atomic.Int32
	frames atomic.Uint64

	mode          protocol.Mode
	baseIntensity float64
	baseColor     model.Color
	ramp          []model.Color
}

func New(conn net.Conn, ctrl led.Controller, opts Options) *Runner {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Runner{
		conn: conn,
		ctrl: ctrl,
		opts: opts,
		log:  log,
	}
}

func (r *Runner) State() State { return State(r.state.Load()) }

// Frames is the number of streaming frames decoded so far.
func (r *Runner) Frames() uint64 { return r.frames.Load() }

// Mode is valid once the runner left AwaitingHandshake.
func (r *Runner) Mode() protocol.Mode { return r.mode }

func (r *Runner) setState(s State, err error) {
	r.state.Store(int32(s))
	ev := r.log.Debug()
	if err != nil {
		ev = r.log.Warn().Err(err)
	}
	ev.Str("state", s.String()).Msg("runner state")
	if r.opts.OnState != nil {
		r.opts.OnState(s, err)
	}
}

// Run drives the connection to completion and closes it. A clean end of
// stream returns nil. Once a mode was dispatched the controller is reset
// exactly once before Run returns; handshake failures leave it untouched.
func (r *Runner) Run(ctx context.Context) (err error) {
	defer r.conn.Close()
	stop := context.AfterFunc(ctx, func() {
		_ = r.conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	r.setState(AwaitingHandshake, nil)
	if err := r.handshake(ctx); err != nil {
		err = r.cause(ctx, err)
		r.setState(Closed, err)
		return err
	}

	r.setState(Dispatched, nil)
	err = r.dispatch(ctx)
	if err == nil {
		r.setState(Streaming, nil)
		err = r.stream(ctx)
	}
	if errors.Is(err, io.EOF) {
		err = nil
	}
	err = r.cause(ctx, err)

	if rerr := r.ctrl.Reset(); rerr != nil {
		r.log.Error().Err(rerr).Msg("reset after close failed")
	}
	r.setState(Closed, err)
	return err
}

// cause replaces deadline errors with what actually expired.
func (r *Runner) cause(ctx context.Context, err error) error {
	var ne net.Error
	if err == nil || !errors.As(err, &ne) || !ne.Timeout() {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %w", ErrReadTimeout, err)
}

func (r *Runner) handshake(ctx context.Context) error {
	if err := protocol.WriteMagic(r.conn); err != nil {
		return fmt.Errorf("runner: write magic: %w", err)
	}
	var b [1]byte
	if err := r.read(ctx, b[:]); err != nil {
		return fmt.Errorf("runner: read mode: %w", err)
	}
	m, err := protocol.ParseMode(b[0])
	if err != nil {
		return err
	}
	if !m.Supported() {
		return fmt.Errorf("%w: %s", protocol.ErrModeNotSupported, m)
	}
	r.mode = m
	r.log = r.log.With().Str("mode", m.String()).Logger()
	return nil
}

func (r *Runner) dispatch(ctx context.Context) error {
	size, err := r.mode.InitFrameSize()
	if err != nil {
		return err
	}
	buf := make([]byte, size)
	if err := r.read(ctx, buf); err != nil {
		return err
	}
	switch r.mode {
	case protocol.OnlyColor:
		r.baseIntensity = clampUnit(protocol.DecodeIntensity(buf))
		r.log.Debug().Float64("base_intensity", r.baseIntensity).Msg("dispatched")
	case protocol.OnlyIntensity:
		r.baseColor = protocol.DecodeColor(buf)
		r.ramp = make([]model.Color, r.ctrl.LedAmount())
		r.log.Debug().Uint32("base_color", r.baseColor.Packed()).Msg("dispatched")
	}
	return nil
}

func (r *Runner) stream(ctx context.Context) error {
	size, err := r.mode.StreamFrameSize()
	if err != nil {
		return err
	}
	buf := make([]byte, size)
	for {
		if err := r.read(ctx, buf); err != nil {
			return err
		}
		r.frames.Add(1)
		if err := r.render(buf); err != nil {
			return err
		}
	}
}

func (r *Runner) render(frame []byte) error {
	switch r.mode {
	case protocol.OnlyColor:
		c := protocol.DecodeColor(frame).Scale(r.baseIntensity)
		if err := r.ctrl.SetAll(c); err != nil {
			return err
		}
	case protocol.OnlyIntensity:
		if err := r.meter(protocol.DecodeIntensity(frame)); err != nil {
			return err
		}
	}
	if err := r.ctrl.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}
	return nil
}

// meter lights the first LitCount LEDs in the base colour. A single
// aggregate fixture shows the base colour dimmed by the intensity instead.
func (r *Runner) meter(intensity float32) error {
	if !r.ctrl.Addressable() {
		return r.ctrl.SetAll(r.baseColor.Scale(clampUnit(intensity)))
	}
	lit := LitCount(intensity, len(r.ramp))
	for i := range r.ramp {
		if i < lit {
			r.ramp[i] = r.baseColor
		} else {
			r.ramp[i] = model.Off
		}
	}
	return r.ctrl.SetAllIndividual(r.ramp)
}

func (r *Runner) read(ctx context.Context, buf []byte) error {
	if r.opts.ReadTimeout > 0 {
		if err := r.conn.SetReadDeadline(time.Now().Add(r.opts.ReadTimeout)); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return protocol.ReadFrame(r.conn, buf)
}

// LitCount is the number of indices i in [0,n) with i < intensity*n.
func LitCount(intensity float32, n int) int {
	threshold := intensity * float32(n)
	if !(threshold > 0) {
		return 0
	}
	lit := int(math.Ceil(float64(threshold)))
	if lit > n {
		return n
	}
	return lit
}

func clampUnit(f float32) float64 {
	switch {
	case f != f || f <= 0:
		return 0
	case f >= 1:
		return 1
	}
	return float64(f)
}
