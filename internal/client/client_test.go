package client

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/coreman2200/funtimes-lumiwave/internal/audio"
	"github.com/coreman2200/funtimes-lumiwave/internal/led/ledtest"
	"github.com/coreman2200/funtimes-lumiwave/internal/protocol"
	"github.com/coreman2200/funtimes-lumiwave/internal/runner"
	"github.com/coreman2200/funtimes-lumiwave/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshakeOnlyIntensity(t *testing.T) {
	cli, srv := net.Pipe()
	defer cli.Close()
	got := make(chan []byte, 1)
	go func() {
		defer srv.Close()
		_ = protocol.WriteMagic(srv)
		b := make([]byte, 4)
		_, _ = io.ReadFull(srv, b)
		got <- b
	}()
	require.NoError(t, Handshake(cli, protocol.OnlyIntensity, DefaultInit(model.Color{R: 1, G: 2, B: 3})))
	assert.Equal(t, []byte{1, 1, 2, 3}, <-got)
}

func TestHandshakeOnlyColor(t *testing.T) {
	cli, srv := net.Pipe()
	defer cli.Close()
	got := make(chan []byte, 1)
	go func() {
		defer srv.Close()
		_ = protocol.WriteMagic(srv)
		b := make([]byte, 5)
		_, _ = io.ReadFull(srv, b)
		got <- b
	}()
	require.NoError(t, Handshake(cli, protocol.OnlyColor, DefaultInit(model.Off)))
	assert.Equal(t, []byte{0, 0x3f, 0x80, 0, 0}, <-got)
}

func TestHandshakeBadMagicWritesNothing(t *testing.T) {
	cli, srv := net.Pipe()
	read := make(chan error, 1)
	go func() {
		_, _ = srv.Write([]byte{0x00})
		var b [1]byte
		_, err := srv.Read(b[:])
		read <- err
	}()
	err := Handshake(cli, protocol.OnlyColor, DefaultInit(model.Off))
	assert.ErrorIs(t, err, protocol.ErrBadMagic)
	require.NoError(t, cli.Close())
	assert.ErrorIs(t, <-read, io.EOF, "no mode byte after a bad greeting")
}

func TestHandshakeRejectsColorAndIntensity(t *testing.T) {
	cli, srv := net.Pipe()
	defer cli.Close()
	defer srv.Close()
	err := Handshake(cli, protocol.ColorAndIntensity, Init{})
	assert.ErrorIs(t, err, protocol.ErrModeNotSupported)
}

func TestOutboxDropsOldest(t *testing.T) {
	o := NewOutbox(3)
	for i := 1; i <= 5; i++ {
		o.Offer(float32(i))
	}
	assert.Equal(t, uint64(2), o.Dropped())
	assert.Equal(t, 3, o.Len())
	assert.Equal(t, float32(3), <-o.C())
	assert.Equal(t, float32(4), <-o.C())
	assert.Equal(t, float32(5), <-o.C())
}

func TestOutboxOfferNeverBlocks(t *testing.T) {
	o := NewOutbox(0)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10_000; i++ {
			o.Offer(0.5)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Offer blocked")
	}
	assert.Equal(t, uint64(9_999), o.Dropped())
}

func TestWriterIntensityFrames(t *testing.T) {
	cli, srv := net.Pipe()
	defer srv.Close()
	o := NewOutbox(4)
	w := NewWriter(cli, protocol.OnlyIntensity, o, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	o.Offer(0.25)
	f, err := protocol.ReadIntensity(srv)
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), f)

	o.Offer(1)
	f, err = protocol.ReadIntensity(srv)
	require.NoError(t, err)
	assert.Equal(t, float32(1), f)

	cancel()
	assert.NoError(t, <-done)
	assert.Equal(t, uint64(2), w.Sent())
}

func TestWriterColorFrames(t *testing.T) {
	cli, srv := net.Pipe()
	defer srv.Close()
	o := NewOutbox(4)
	w := NewWriter(cli, protocol.OnlyColor, o, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	o.Offer(0.5)
	c, err := protocol.ReadColor(srv)
	require.NoError(t, err)
	assert.Equal(t, ColorFor(0.5), c)
}

func TestWriterTimeout(t *testing.T) {
	cli, srv := net.Pipe()
	defer srv.Close()
	o := NewOutbox(1)
	w := NewWriter(cli, protocol.OnlyIntensity, o, 20*time.Millisecond)
	o.Offer(1)
	err := w.Run(context.Background())
	require.Error(t, err)
	var ne net.Error
	require.ErrorAs(t, err, &ne)
	assert.True(t, ne.Timeout())
}

func TestColorFor(t *testing.T) {
	assert.Equal(t, model.Off, ColorFor(0))
	assert.Equal(t, model.Wheel(1), ColorFor(1))
	assert.Equal(t, model.Off, ColorFor(-1))
}

func TestFeed(t *testing.T) {
	p := audio.NewProcessor(64)
	o := NewOutbox(8)
	cb := Feed(p, o)
	cb(make([]int16, 32))
	require.Equal(t, 1, o.Len())
	assert.Equal(t, float32(0), <-o.C())
}

// Both ends of the wire: handshake and writer against the server runner.
func TestStreamToRunner(t *testing.T) {
	cli, srv := net.Pipe()
	rec := ledtest.NewRecorder(10)
	r := runner.New(srv, rec, runner.Options{ReadTimeout: time.Second})
	ran := make(chan error, 1)
	go func() { ran <- r.Run(context.Background()) }()

	require.NoError(t, Handshake(cli, protocol.OnlyIntensity, DefaultInit(model.Color{G: 255})))
	o := NewOutbox(8)
	w := NewWriter(cli, protocol.OnlyIntensity, o, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	wrote := make(chan error, 1)
	go func() { wrote <- w.Run(ctx) }()

	for _, v := range []float32{0.1, 0.5, 1} {
		o.Offer(v)
		require.Eventually(t, func() bool { return o.Len() == 0 }, time.Second, time.Millisecond)
	}
	require.Eventually(t, func() bool { return r.Frames() == 3 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-wrote)
	require.NoError(t, cli.Close())
	require.NoError(t, <-ran)

	commits, resets, last := rec.Snapshot()
	assert.Equal(t, 3, commits)
	assert.Equal(t, 1, resets)
	assert.Equal(t, 0, ledtest.Lit(last))
	assert.Equal(t, 10, ledtest.Lit(rec.Frames[2]))
	assert.Equal(t, 5, ledtest.Lit(rec.Frames[1]))
	assert.Equal(t, 1, ledtest.Lit(rec.Frames[0]))
}
