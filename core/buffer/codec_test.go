package buffer_test

import (
	"testing"

	"github.com/momentics/gfxqueue/api"
	"github.com/momentics/gfxqueue/core/buffer"
)

func TestEncodeDecodeMetaRoundTrip(t *testing.T) {
	alloc := buffer.NewDefaultAllocator()
	cfg := api.BufferRequestConfig{
		Width:           800,
		Height:          600,
		StrideAlignment: 8,
		Format:          api.PixelFormatRGBA8888,
		Usage:           api.BufferUsageCPUWrite,
		ColorGamut:      api.ColorGamutSRGB,
		Transform:       api.TransformRotate90,
		ScalingMode:     api.ScalingModeScaleCrop,
	}
	h, err := alloc.Alloc(cfg)
	if err != nil {
		t.Fatal(err)
	}
	sb := buffer.NewSurfaceBuffer(42, h, cfg)
	sb.ExtraData().SetInt32("frameIndex", 7)
	sb.ExtraData().SetString("tag", "keyframe")

	raw, err := buffer.EncodeMeta(sb)
	if err != nil {
		t.Fatal(err)
	}

	seq, gotCfg, gamut, transform, scaling, lw, lh, extra, err := buffer.DecodeMeta(raw)
	if err != nil {
		t.Fatal(err)
	}
	if seq != 42 {
		t.Errorf("sequence = %d, want 42", seq)
	}
	if gotCfg.Width != 800 || gotCfg.Height != 600 {
		t.Errorf("dims = %dx%d, want 800x600", gotCfg.Width, gotCfg.Height)
	}
	if gamut != api.ColorGamutSRGB || transform != api.TransformRotate90 || scaling != api.ScalingModeScaleCrop {
		t.Errorf("metadata mismatch: gamut=%v transform=%v scaling=%v", gamut, transform, scaling)
	}
	if lw != 800 || lh != 600 {
		t.Errorf("logical size = %dx%d, want 800x600", lw, lh)
	}
	idx, err := extra.GetInt32("frameIndex")
	if err != nil || idx != 7 {
		t.Errorf("frameIndex = %d, err=%v, want 7", idx, err)
	}
	tag, err := extra.GetString("tag")
	if err != nil || tag != "keyframe" {
		t.Errorf("tag = %q, err=%v, want keyframe", tag, err)
	}
}

func TestExtraDataTypeMismatch(t *testing.T) {
	e := buffer.NewExtraData()
	e.SetInt32("x", 1)
	if _, err := e.GetString("x"); err == nil {
		t.Error("expected type mismatch error, got nil")
	}
	if _, err := e.GetInt64("missing"); err == nil {
		t.Error("expected NoEntry error, got nil")
	}
}
