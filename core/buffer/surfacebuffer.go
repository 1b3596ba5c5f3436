package buffer

import (
	"sync"

	"github.com/momentics/gfxqueue/api"
)

// SurfaceBuffer is the value object handed between producer and consumer.
// Its identity is Sequence; everything else may mutate in place across a
// request/flush/acquire/release cycle except Handle, which is reallocated
// (not mutated) when the producer's requested config changes.
type SurfaceBuffer struct {
	mu sync.RWMutex

	sequence uint64
	handle   api.BufferHandle
	config   api.BufferRequestConfig

	colorGamut  api.ColorGamut
	transform   api.TransformType
	scalingMode api.ScalingMode

	logicalWidth  int32
	logicalHeight int32

	extra *ExtraData
}

// NewSurfaceBuffer wraps an allocated handle with its originating config.
func NewSurfaceBuffer(sequence uint64, handle api.BufferHandle, cfg api.BufferRequestConfig) *SurfaceBuffer {
	return &SurfaceBuffer{
		sequence:      sequence,
		handle:        handle,
		config:        cfg,
		colorGamut:    cfg.ColorGamut,
		transform:     cfg.Transform,
		scalingMode:   cfg.ScalingMode,
		logicalWidth:  cfg.Width,
		logicalHeight: cfg.Height,
		extra:         NewExtraData(),
	}
}

func (b *SurfaceBuffer) GetSeqNum() uint64 { return b.sequence }

func (b *SurfaceBuffer) GetBufferHandle() api.BufferHandle {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handle
}

func (b *SurfaceBuffer) GetConfig() api.BufferRequestConfig {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

func (b *SurfaceBuffer) GetWidth() int32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.Width
}

func (b *SurfaceBuffer) GetHeight() int32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.Height
}

func (b *SurfaceBuffer) GetFormat() api.PixelFormat {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.Format
}

func (b *SurfaceBuffer) GetUsage() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.Usage
}

func (b *SurfaceBuffer) GetStride() int32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.handle == nil {
		return 0
	}
	return b.handle.Stride()
}

func (b *SurfaceBuffer) GetSize() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.handle == nil {
		return 0
	}
	return b.handle.Size()
}

func (b *SurfaceBuffer) GetVirtualAddr() uintptr {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.handle == nil {
		return 0
	}
	return b.handle.VirtualAddr()
}

func (b *SurfaceBuffer) GetFileDescriptor() uintptr {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.handle == nil {
		return 0
	}
	return b.handle.FD()
}

func (b *SurfaceBuffer) SetTransform(t api.TransformType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transform = t
}

func (b *SurfaceBuffer) GetTransform() api.TransformType {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.transform
}

func (b *SurfaceBuffer) SetScalingMode(s api.ScalingMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scalingMode = s
}

func (b *SurfaceBuffer) GetScalingMode() api.ScalingMode {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.scalingMode
}

func (b *SurfaceBuffer) SetColorGamut(g api.ColorGamut) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.colorGamut = g
}

func (b *SurfaceBuffer) GetColorGamut() api.ColorGamut {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.colorGamut
}

// SetLogicalSize records the crop/window size a consumer should present,
// which may differ from the buffer's allocated width/height.
func (b *SurfaceBuffer) SetLogicalSize(w, h int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logicalWidth, b.logicalHeight = w, h
}

func (b *SurfaceBuffer) GetLogicalSize() (w, h int32) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.logicalWidth, b.logicalHeight
}

// ExtraData returns the buffer's attached key-value metadata map.
func (b *SurfaceBuffer) ExtraData() *ExtraData {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.extra
}
