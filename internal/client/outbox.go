package client

import "sync/atomic"

// Outbox hands levels from the capture thread to the network writer.
// Offer never blocks: when the queue is full the oldest level is dropped,
// so the writer always sends the freshest data it can.
type Outbox struct {
	ch      chan float32
	dropped atomic.Uint64
}

func NewOutbox(size int) *Outbox {
	if size < 1 {
		size = 1
	}
	return &Outbox{ch: make(chan float32, size)}
}

func (o *Outbox) Offer(v float32) {
	for {
		select {
		case o.ch <- v:
			return
		default:
		}
		select {
		case <-o.ch:
			o.dropped.Add(1)
		default:
		}
	}
}

func (o *Outbox) C() <-chan float32 { return o.ch }

func (o *Outbox) Len() int { return len(o.ch) }

// Dropped counts levels discarded to make room.
func (o *Outbox) Dropped() uint64 { return o.dropped.Load() }
