package led

import (
	"sync"

	"github.com/coreman2200/funtimes-lumiwave/model"
)

// FrameSink receives a copy of every committed frame as packed RGB bytes.
// PublishFrame must not block.
type FrameSink interface {
	PublishFrame(rgb []byte)
}

// Preview wraps a Controller and mirrors every successful commit to a sink.
type Preview struct {
	inner Controller
	sink  FrameSink

	mu     sync.Mutex
	mirror *model.Strip
}

func NewPreview(inner Controller, sink FrameSink) *Preview {
	return &Preview{
		inner:  inner,
		sink:   sink,
		mirror: model.NewStrip(inner.LedAmount(), false),
	}
}

func (p *Preview) Addressable() bool { return p.inner.Addressable() }

func (p *Preview) LedAmount() int { return p.inner.LedAmount() }

func (p *Preview) SetAll(c model.Color) error {
	if err := p.inner.SetAll(c); err != nil {
		return err
	}
	p.mu.Lock()
	p.mirror.Fill(c)
	p.mu.Unlock()
	return nil
}

func (p *Preview) SetAllIndividual(cs []model.Color) error {
	if err := p.inner.SetAllIndividual(cs); err != nil {
		return err
	}
	p.mu.Lock()
	p.mirror.CopyFrom(cs)
	p.mu.Unlock()
	return nil
}

func (p *Preview) SetIndividual(i int, c model.Color) error {
	if err := p.inner.SetIndividual(i, c); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.inner.Addressable() {
		p.mirror.Fill(c)
		return nil
	}
	return p.mirror.Set(i, c)
}

func (p *Preview) Commit() error {
	if err := p.inner.Commit(); err != nil {
		return err
	}
	p.publish()
	return nil
}

func (p *Preview) Reset() error {
	err := p.inner.Reset()
	p.mu.Lock()
	p.mirror.Fill(model.Off)
	p.mu.Unlock()
	if err == nil {
		p.publish()
	}
	return err
}

func (p *Preview) publish() {
	if p.sink == nil {
		return
	}
	p.mu.Lock()
	rgb := p.mirror.Serialize()
	p.mu.Unlock()
	p.sink.PublishFrame(rgb)
}

func (p *Preview) Close() error {
	return p.inner.Close()
}
