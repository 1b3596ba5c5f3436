package facade_test

import (
	"testing"
	"time"

	"github.com/momentics/gfxqueue/api"
	"github.com/momentics/gfxqueue/facade"
)

type availableSignal struct{ ch chan struct{} }

func (s *availableSignal) OnBufferAvailable() { s.ch <- struct{}{} }

func TestProducerConsumerRoundTrip(t *testing.T) {
	p, err := facade.New(facade.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	producer := p.Producer()
	consumer := p.Consumer("display")

	signal := &availableSignal{ch: make(chan struct{}, 1)}
	consumer.SetConsumerListener(signal)

	cfg := api.BufferRequestConfig{
		Width:           320,
		Height:          240,
		StrideAlignment: 8,
		Format:          api.PixelFormatRGBA8888,
	}

	req, err := producer.Request(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := producer.Flush(req.Sequence, nil, nil, api.FlushConfig{}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-signal.ch:
	case <-time.After(time.Second):
		t.Fatal("consumer was not notified of the flushed buffer")
	}

	acq, err := consumer.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if acq.Sequence != req.Sequence {
		t.Fatalf("acquired sequence = %d, want %d", acq.Sequence, req.Sequence)
	}
	if err := consumer.Release(acq.Sequence, nil); err != nil {
		t.Fatal(err)
	}
}

func TestConsumerVSyncSubscription(t *testing.T) {
	p, err := facade.New(facade.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	consumer := p.Consumer("display")
	if err := consumer.RequestNextVSync(); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := consumer.NextVSync(); ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("expected a software-fallback vsync delivery")
}
