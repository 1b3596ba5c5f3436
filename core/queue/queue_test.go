package queue_test

import (
	"errors"
	"testing"
	"time"

	"github.com/momentics/gfxqueue/api"
	"github.com/momentics/gfxqueue/core/buffer"
	"github.com/momentics/gfxqueue/core/queue"
)

func baseConfig() api.BufferRequestConfig {
	return api.BufferRequestConfig{
		Width:           640,
		Height:          480,
		StrideAlignment: 8,
		Format:          api.PixelFormatRGBA8888,
	}
}

type countingListener struct{ n int }

func (l *countingListener) OnBufferAvailable() { l.n++ }

func TestRequestFlushAcquireReleaseRoundTrip(t *testing.T) {
	q, err := queue.NewBufferQueue("test", 2, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	listener := &countingListener{}
	q.SetConsumerListener(listener)

	cfg := baseConfig()
	req, err := q.Request(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if req.Sequence == 0 {
		t.Fatal("expected non-zero sequence")
	}

	if err := q.Flush(req.Sequence, nil, buffer.InvalidFence, api.FlushConfig{}); err != nil {
		t.Fatal(err)
	}
	if listener.n != 1 {
		t.Fatalf("OnBufferAvailable called %d times, want 1", listener.n)
	}

	acq, err := q.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if acq.Sequence != req.Sequence {
		t.Fatalf("acquired sequence = %d, want %d", acq.Sequence, req.Sequence)
	}

	if err := q.Release(acq.Sequence, buffer.InvalidFence); err != nil {
		t.Fatal(err)
	}

	req2, err := q.Request(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if req2.Sequence != req.Sequence {
		t.Errorf("expected released buffer reused (seq %d), got new seq %d", req.Sequence, req2.Sequence)
	}
}

func TestRequestReallocatesOnConfigChange(t *testing.T) {
	q, err := queue.NewBufferQueue("test", 1, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	q.SetConsumerListener(&countingListener{})

	cfg := baseConfig()
	r1, err := q.Request(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Cancel(r1.Sequence, nil); err != nil {
		t.Fatal(err)
	}

	cfg2 := cfg
	cfg2.Width = 1024
	cfg2.Height = 768
	r2, err := q.Request(cfg2)
	if err != nil {
		t.Fatal(err)
	}
	if r2.Sequence == r1.Sequence {
		t.Fatal("expected a new sequence after reallocation")
	}

	found := false
	for _, seq := range r2.DeletingBuffers {
		if seq == r1.Sequence {
			found = true
		}
	}
	if !found {
		t.Errorf("expected DeletingBuffers to report evicted sequence %d, got %v", r1.Sequence, r2.DeletingBuffers)
	}
}

func TestRequestTimesOutWhenExhausted(t *testing.T) {
	q, err := queue.NewBufferQueue("test", 1, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	q.SetConsumerListener(&countingListener{})

	cfg := baseConfig()
	cfg.Timeout = 20

	if _, err := q.Request(cfg); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	_, err = q.Request(cfg)
	if !errors.Is(err, api.ErrNoBuffer) {
		t.Fatalf("expected ErrNoBuffer, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("expected request to block roughly until timeout, elapsed %v", elapsed)
	}
}

func TestSharedQueueCancelIsIllegal(t *testing.T) {
	q, err := queue.NewBufferQueue("shared", 1, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	q.SetConsumerListener(&countingListener{})

	req, err := q.Request(baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Cancel(req.Sequence, nil); !errors.Is(err, api.ErrInvalidOperating) {
		t.Errorf("expected ErrInvalidOperating, got %v", err)
	}
}

func TestSharedQueueReturnsSameBufferRepeatedly(t *testing.T) {
	q, err := queue.NewBufferQueue("shared", 1, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	q.SetConsumerListener(&countingListener{})

	r1, err := q.Request(baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Flush(r1.Sequence, nil, buffer.InvalidFence, api.FlushConfig{}); err != nil {
		t.Fatal(err)
	}
	acq, err := q.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Release(acq.Sequence, buffer.InvalidFence); err != nil {
		t.Fatal(err)
	}

	r2, err := q.Request(baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	if r2.Sequence != r1.Sequence {
		t.Errorf("shared queue returned a new sequence %d, want %d", r2.Sequence, r1.Sequence)
	}
}

func TestRequestWithoutConsumerListenerFails(t *testing.T) {
	q, err := queue.NewBufferQueue("test", 1, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := q.Request(baseConfig()); !errors.Is(err, api.ErrNoConsumer) {
		t.Errorf("expected ErrNoConsumer, got %v", err)
	}
}

func TestInvalidRequestConfigRejected(t *testing.T) {
	q, err := queue.NewBufferQueue("test", 1, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	q.SetConsumerListener(&countingListener{})

	bad := baseConfig()
	bad.StrideAlignment = 3 // not a power of two
	if _, err := q.Request(bad); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestOnBufferDeleteCalledOnShrink(t *testing.T) {
	q, err := queue.NewBufferQueue("test", 2, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	q.SetConsumerListener(&countingListener{})

	deleted := make(chan uint64, 4)
	q.SetOnBufferDelete(func(seq uint64) { deleted <- seq })

	r1, err := q.Request(baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Cancel(r1.Sequence, nil); err != nil {
		t.Fatal(err)
	}

	if err := q.SetQueueSize(1); err != nil {
		t.Fatal(err)
	}

	select {
	case seq := <-deleted:
		if seq != r1.Sequence {
			t.Errorf("deleted seq = %d, want %d", seq, r1.Sequence)
		}
	case <-time.After(time.Second):
		t.Fatal("onBufferDelete was not called")
	}
}
