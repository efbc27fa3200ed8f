// Package server accepts streaming connections and hands them, one at a
// time, to the goroutine that owns the LED controller.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/coreman2200/funtimes-lumiwave/internal/config"
	"github.com/coreman2200/funtimes-lumiwave/internal/discovery"
	"github.com/coreman2200/funtimes-lumiwave/internal/led"
	"github.com/coreman2200/funtimes-lumiwave/internal/runner"
	"github.com/coreman2200/funtimes-lumiwave/spi"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Observer is told about connection lifecycles. Calls come from the accept
// loop and the owner goroutine and must not block.
type Observer interface {
	ConnState(id string, s runner.State, err error)
	ConnRejected(remote string)
}

type Server struct {
	cfg  config.Server
	ctrl led.Controller
	log  zerolog.Logger
	obs  Observer

	handoff chan net.Conn
	busy    atomic.Bool
	served  atomic.Uint64

	mu   sync.Mutex
	addr net.Addr
}

func New(cfg config.Server, ctrl led.Controller, log zerolog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		ctrl:    ctrl,
		log:     log,
		handoff: make(chan net.Conn),
	}
}

// WithObserver must be called before Serve.
func (s *Server) WithObserver(o Observer) *Server {
	s.obs = o
	return s
}

// Addr is the listening address once Serve has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Busy reports whether a connection currently owns the LEDs.
func (s *Server) Busy() bool { return s.busy.Load() }

// Served counts finished connections.
func (s *Server) Served() uint64 { return s.served.Load() }

// ListenAndServe listens on the configured port and, when enabled,
// advertises the service over mDNS.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	if s.cfg.Advertise {
		txt := []string{
			"leds=" + strconv.Itoa(s.ctrl.LedAmount()),
			"type=" + s.cfg.LED.Type,
		}
		port := ln.Addr().(*net.TCPAddr).Port
		shutdown, err := discovery.Advertise("", port, txt)
		if err != nil {
			s.log.Warn().Err(err).Msg("mdns advertise failed")
		} else {
			defer shutdown()
			s.log.Info().Int("port", port).Str("service", discovery.Service).Msg("advertising")
		}
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is done. Connection failures never stop it.
// The LEDs are reset before Serve returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	owned := make(chan error, 1)
	go func() { owned <- s.own(ctx) }()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("accepting")
	var err error
	for {
		conn, aerr := ln.Accept()
		if aerr != nil {
			if ctx.Err() != nil || errors.Is(aerr, net.ErrClosed) {
				break
			}
			s.log.Warn().Err(aerr).Msg("accept")
			continue
		}
		if !s.busy.CompareAndSwap(false, true) {
			s.reject(conn)
			continue
		}
		select {
		case s.handoff <- conn:
		case <-ctx.Done():
			_ = conn.Close()
		}
	}
	cancel()
	if oerr := <-owned; oerr != nil {
		err = oerr
	}
	return err
}

func (s *Server) reject(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	_ = conn.Close()
	s.log.Info().Str("remote", remote).Msg("busy, connection rejected")
	if s.obs != nil {
		s.obs.ConnRejected(remote)
	}
}

// own is the only goroutine that touches the controller once Serve started.
func (s *Server) own(ctx context.Context) error {
	looper := &spi.Looper{Period: s.cfg.UpdatePeriod()}
	if s.cfg.Standby.Enabled {
		looper.Step = newRainbow(s.ctrl, s.cfg.Standby.Speed, s.cfg.Standby.Reverse).step
	} else if err := s.ctrl.Reset(); err != nil {
		s.log.Error().Err(err).Msg("initial reset")
	}

	for {
		conn, err := spi.RunUntil(ctx, looper, s.handoff)
		if ctx.Err() != nil {
			if conn != nil {
				_ = conn.Close()
			}
			if rerr := s.ctrl.Reset(); rerr != nil {
				s.log.Error().Err(rerr).Msg("reset on shutdown")
			}
			return nil
		}
		if err != nil {
			s.log.Error().Err(err).Msg("standby animation stopped")
			looper.Step = nil
			_ = s.ctrl.Reset()
			continue
		}
		s.serve(ctx, conn)
	}
}

func (s *Server) serve(ctx context.Context, conn net.Conn) {
	defer s.served.Add(1)
	defer s.busy.Store(false)

	id := uuid.NewString()
	log := s.log.With().Str("conn", id).Str("remote", conn.RemoteAddr().String()).Logger()
	log.Info().Msg("connection accepted")

	r := runner.New(conn, s.ctrl, runner.Options{
		ReadTimeout: s.cfg.ReadTimeout(),
		Logger:      &log,
		OnState: func(st runner.State, err error) {
			if s.obs != nil {
				s.obs.ConnState(id, st, err)
			}
		},
	})
	if err := r.Run(ctx); err != nil {
		log.Warn().Err(err).Uint64("frames", r.Frames()).Msg("connection ended")
		return
	}
	log.Info().Uint64("frames", r.Frames()).Msg("connection closed")
}
