package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/momentics/gfxqueue/api"
	"github.com/momentics/gfxqueue/config"
)

func writeTempYAML(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "queues.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadResolvesNamedEnums(t *testing.T) {
	path := writeTempYAML(t, `
queues:
  - name: primary
    queue_size: 3
    shared: false
    default:
      width: 1920
      height: 1080
      stride_alignment: 64
      format: rgba8888
      color_gamut: bt2020
      transform: rotate90
      scaling_mode: scale_crop
`)

	doc, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Queues) != 1 {
		t.Fatalf("expected 1 queue preset, got %d", len(doc.Queues))
	}
	q := doc.Queues[0]
	if q.Name != "primary" || q.QueueSize != 3 {
		t.Errorf("unexpected queue preset: %+v", q)
	}

	cfg, err := q.Default.ToBufferRequestConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 1920 || cfg.Height != 1080 {
		t.Errorf("dims = %dx%d, want 1920x1080", cfg.Width, cfg.Height)
	}
	if cfg.Format != api.PixelFormatRGBA8888 {
		t.Errorf("format = %v, want PixelFormatRGBA8888", cfg.Format)
	}
	if cfg.ColorGamut != api.ColorGamutBT2020 {
		t.Errorf("colorGamut = %v, want ColorGamutBT2020", cfg.ColorGamut)
	}
	if cfg.Transform != api.TransformRotate90 {
		t.Errorf("transform = %v, want TransformRotate90", cfg.Transform)
	}
	if cfg.ScalingMode != api.ScalingModeScaleCrop {
		t.Errorf("scalingMode = %v, want ScalingModeScaleCrop", cfg.ScalingMode)
	}
}

func TestToBufferRequestConfigRejectsUnknownFormat(t *testing.T) {
	p := config.BufferPreset{Width: 1, Height: 1, Format: "not_a_format"}
	if _, err := p.ToBufferRequestConfig(); err == nil {
		t.Error("expected error for unknown pixel format")
	}
}
