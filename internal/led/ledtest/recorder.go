// Package ledtest provides an in-memory led.Controller for tests.
package ledtest

import (
	"fmt"
	"sync"

	"github.com/coreman2200/funtimes-lumiwave/internal/led"
	"github.com/coreman2200/funtimes-lumiwave/model"
)

// Recorder is an addressable controller that keeps every committed frame.
type Recorder struct {
	mu sync.Mutex

	buf     []model.Color
	Frames  [][]model.Color
	Commits int
	Resets  int
	Closed  bool

	// CommitErr, when set, is returned by Commit (wrapped in led.ErrRender).
	CommitErr error
	// ResetErr, when set, is returned by Reset.
	ResetErr error
}

var _ led.Controller = (*Recorder)(nil)

func NewRecorder(n int) *Recorder {
	return &Recorder{buf: make([]model.Color, n)}
}

func (r *Recorder) Addressable() bool { return true }

func (r *Recorder) LedAmount() int { return len(r.buf) }

func (r *Recorder) SetAll(c model.Color) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.buf {
		r.buf[i] = c
	}
	return nil
}

func (r *Recorder) SetAllIndividual(cs []model.Color) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(cs) != len(r.buf) {
		return led.ErrLengthMismatch
	}
	copy(r.buf, cs)
	return nil
}

func (r *Recorder) SetIndividual(i int, c model.Color) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.buf) {
		return led.ErrOutOfRange
	}
	r.buf[i] = c
	return nil
}

func (r *Recorder) Commit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commitLocked()
}

func (r *Recorder) commitLocked() error {
	if r.CommitErr != nil {
		return fmt.Errorf("%w: %w", led.ErrRender, r.CommitErr)
	}
	r.Commits++
	frame := make([]model.Color, len(r.buf))
	copy(frame, r.buf)
	r.Frames = append(r.Frames, frame)
	return nil
}

func (r *Recorder) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Resets++
	if r.ResetErr != nil {
		return r.ResetErr
	}
	for i := range r.buf {
		r.buf[i] = model.Off
	}
	r.Frames = append(r.Frames, make([]model.Color, len(r.buf)))
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Closed = true
	return nil
}

// Snapshot returns copies of the counters and the last committed frame.
func (r *Recorder) Snapshot() (commits, resets int, last []model.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.Frames); n > 0 {
		last = append([]model.Color(nil), r.Frames[n-1]...)
	}
	return r.Commits, r.Resets, last
}

// Lit counts LEDs in the last frame that are not off.
func Lit(frame []model.Color) int {
	n := 0
	for _, c := range frame {
		if !c.IsOff() {
			n++
		}
	}
	return n
}
