package led

import (
	"errors"

	"github.com/coreman2200/funtimes-lumiwave/model"
)

var (
	ErrOutOfRange     = errors.New("led: index out of range")
	ErrLengthMismatch = errors.New("led: colour count does not match led amount")
	ErrUnsupported    = errors.New("led: operation not supported by this hardware")
	ErrRender         = errors.New("led: render failed")
	ErrClosed         = errors.New("led: controller closed")
)

// Controller abstracts the LED hardware. Set* calls buffer colours; Commit
// pushes them out. Implementations serialise Commit so that at most one
// transfer is in flight.
type Controller interface {
	// Addressable reports whether each LED can be set independently.
	Addressable() bool
	// LedAmount is fixed for the controller's lifetime.
	LedAmount() int
	SetAll(c model.Color) error
	// SetAllIndividual needs len(cs) == LedAmount(). Aggregate hardware returns ErrUnsupported.
	SetAllIndividual(cs []model.Color) error
	SetIndividual(i int, c model.Color) error
	Commit() error
	// Reset turns every LED off and commits.
	Reset() error
	Close() error
}
