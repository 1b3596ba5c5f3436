// Package facade wires a BufferQueue, a VSyncDistributor, and the control
// plane together into a single runtime object, then exposes it through two
// role-restricted views — Producer and Consumer — so neither side can call
// the other's half of the API by accident.
//
// Author: momentics <momentics@gmail.com>
package facade

import (
	"fmt"
	"log"

	"github.com/momentics/gfxqueue/adapters"
	"github.com/momentics/gfxqueue/api"
	"github.com/momentics/gfxqueue/core/buffer"
	"github.com/momentics/gfxqueue/core/queue"
	"github.com/momentics/gfxqueue/core/vsync"
)

// Config configures a Pipeline. A zero-value Allocator or Controller falls
// back to the heap-backed default and a software-only vsync source,
// respectively, matching DefaultConfig.
type Config struct {
	Name       string
	QueueSize  int
	Shared     bool
	Allocator  api.Allocator
	Controller vsync.Controller
}

// DefaultConfig returns a Config suitable for tests and standalone demos:
// a non-shared, four-deep queue backed by the heap allocator and driven
// purely by the software vsync fallback.
func DefaultConfig() Config {
	return Config{
		Name:      "default",
		QueueSize: 4,
		Shared:    false,
	}
}

// Pipeline owns one BufferQueue and one VSyncDistributor plus the control
// plane wiring (config/metrics/debug probes, CPU affinity) around them.
type Pipeline struct {
	cfg Config

	queue       *queue.BufferQueue
	distributor *vsync.VSyncDistributor
	control     api.Control
	affinity    api.Affinity
}

// New constructs and starts a Pipeline: the VSyncDistributor's worker
// goroutine is running by the time New returns.
func New(cfg Config) (*Pipeline, error) {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 4
	}
	if cfg.Controller == nil {
		cfg.Controller = vsync.NullController{}
	}
	if cfg.Allocator == nil {
		cfg.Allocator = buffer.NewDefaultAllocator()
	}

	q, err := queue.NewBufferQueue(cfg.Name, cfg.QueueSize, cfg.Shared, cfg.Allocator)
	if err != nil {
		return nil, fmt.Errorf("facade: %w", err)
	}

	p := &Pipeline{
		cfg:         cfg,
		queue:       q,
		distributor: vsync.NewVSyncDistributor(cfg.Name, cfg.Controller),
		control:     adapters.NewControlAdapter(),
		affinity:    adapters.NewAffinityAdapter(),
	}

	p.control.RegisterDebugProbe(cfg.Name+".queue", func() any { return q.Stats() })
	p.control.RegisterDebugProbe(cfg.Name+".vsync", func() any { return p.distributor.GetVSyncConnectionInfos() })
	p.control.OnReload(func() {
		log.Printf("[facade] %s: config reloaded: %+v", cfg.Name, p.control.GetConfig())
	})

	return p, nil
}

// Stop tears the pipeline down: stops the distributor thread and drops
// every cached buffer, invoking any registered onBufferDelete callback.
func (p *Pipeline) Stop() {
	p.distributor.Stop()
	p.queue.CleanCache()
}

// GetControl returns the pipeline's control-plane facade.
func (p *Pipeline) GetControl() api.Control { return p.control }

// GetAffinity returns the pipeline's CPU/NUMA affinity controller, usable
// by a caller that wants to pin its own producer/consumer goroutine near
// the buffer allocator's NUMA node.
func (p *Pipeline) GetAffinity() api.Affinity { return p.affinity }

// Producer returns a producer-role view over the shared queue.
func (p *Pipeline) Producer() *Producer {
	return &Producer{q: p.queue}
}

// Consumer returns a consumer-role view over the shared queue and a fresh
// vsync subscription registered against the pipeline's distributor.
func (p *Pipeline) Consumer(name string) *Consumer {
	return &Consumer{q: p.queue, conn: p.distributor.NewConnection(name)}
}

// Stats reports queue and pipeline-level counters for a control.MetricsRegistry.
func (p *Pipeline) Stats() map[string]any {
	return map[string]any{
		"queue": p.queue.Stats(),
	}
}
