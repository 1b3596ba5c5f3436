// Package config loads BufferRequestConfig and queue presets from YAML,
// the one config-serialization format the example corpus uses anywhere.
//
// Author: momentics <momentics@gmail.com>
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/momentics/gfxqueue/api"
)

// BufferPreset is the YAML-facing shape of an api.BufferRequestConfig,
// using lower_snake_case keys and named enum values instead of the raw
// integers the wire codec carries.
type BufferPreset struct {
	Width           int32  `yaml:"width"`
	Height          int32  `yaml:"height"`
	StrideAlignment int32  `yaml:"stride_alignment"`
	Format          string `yaml:"format"`
	Usage           uint64 `yaml:"usage"`
	TimeoutMillis   int32  `yaml:"timeout_millis"`
	ColorGamut      string `yaml:"color_gamut"`
	Transform       string `yaml:"transform"`
	ScalingMode     string `yaml:"scaling_mode"`
}

// QueuePreset configures a BufferQueue's static shape.
type QueuePreset struct {
	Name      string `yaml:"name"`
	QueueSize int    `yaml:"queue_size"`
	Shared    bool   `yaml:"shared"`
	Default   BufferPreset `yaml:"default"`
}

// Document is the top-level YAML document this package understands: a
// named set of queue presets, e.g. for a multi-display compositor that
// wants one queue configuration per output.
type Document struct {
	Queues []QueuePreset `yaml:"queues"`
}

var pixelFormats = map[string]api.PixelFormat{
	"rgba8888":    api.PixelFormatRGBA8888,
	"rgbx8888":    api.PixelFormatRGBX8888,
	"rgb565":      api.PixelFormatRGB565,
	"bgra8888":    api.PixelFormatBGRA8888,
	"ycbcr420sp":  api.PixelFormatYCbCr420SP,
	"ycrcb420sp":  api.PixelFormatYCrCb420SP,
}

var colorGamuts = map[string]api.ColorGamut{
	"srgb":     api.ColorGamutSRGB,
	"dcip3":    api.ColorGamutDCIP3,
	"adobergb": api.ColorGamutAdobeRGB,
	"bt2020":   api.ColorGamutBT2020,
}

var transforms = map[string]api.TransformType{
	"none":      api.TransformNone,
	"rotate90":  api.TransformRotate90,
	"rotate180": api.TransformRotate180,
	"rotate270": api.TransformRotate270,
	"fliph":     api.TransformFlipH,
	"flipv":     api.TransformFlipV,
}

var scalingModes = map[string]api.ScalingMode{
	"freeze":        api.ScalingModeFreeze,
	"scale_to_window": api.ScalingModeScaleToWindow,
	"scale_crop":    api.ScalingModeScaleCrop,
	"no_scale_crop": api.ScalingModeNoScaleCrop,
}

// ToBufferRequestConfig resolves the preset's named enum fields into an
// api.BufferRequestConfig, failing on any unrecognized name.
func (p BufferPreset) ToBufferRequestConfig() (api.BufferRequestConfig, error) {
	format, ok := pixelFormats[p.Format]
	if !ok {
		return api.BufferRequestConfig{}, fmt.Errorf("%w: unknown pixel format %q", api.ErrInvalidArgument, p.Format)
	}
	gamut := api.ColorGamutSRGB
	if p.ColorGamut != "" {
		gamut, ok = colorGamuts[p.ColorGamut]
		if !ok {
			return api.BufferRequestConfig{}, fmt.Errorf("%w: unknown color gamut %q", api.ErrInvalidArgument, p.ColorGamut)
		}
	}
	transform := api.TransformNone
	if p.Transform != "" {
		transform, ok = transforms[p.Transform]
		if !ok {
			return api.BufferRequestConfig{}, fmt.Errorf("%w: unknown transform %q", api.ErrInvalidArgument, p.Transform)
		}
	}
	scaling := api.ScalingModeFreeze
	if p.ScalingMode != "" {
		scaling, ok = scalingModes[p.ScalingMode]
		if !ok {
			return api.BufferRequestConfig{}, fmt.Errorf("%w: unknown scaling mode %q", api.ErrInvalidArgument, p.ScalingMode)
		}
	}
	return api.BufferRequestConfig{
		Width:           p.Width,
		Height:          p.Height,
		StrideAlignment: p.StrideAlignment,
		Format:          format,
		Usage:           p.Usage,
		Timeout:         p.TimeoutMillis,
		ColorGamut:      gamut,
		Transform:       transform,
		ScalingMode:     scaling,
	}, nil
}

// Load parses a YAML document from path.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &doc, nil
}
