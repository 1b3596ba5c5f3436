// File: core/buffer/codec.go
// Wire codec for SurfaceBuffer metadata, following the same explicit
// length-prefixed binary.BigEndian layout as core/protocol's frame codec.
//
// Author: momentics <momentics@gmail.com>
package buffer

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/momentics/gfxqueue/api"
)

// MaxExtraDataEntries bounds the wire-decoded entry count, mirroring
// protocol.MaxFramePayload's resource-exhaustion guard.
const MaxExtraDataEntries = 1 << 16

// EncodeMeta serializes a SurfaceBuffer's identity and metadata (not its
// pixel contents, which travel through the allocator/transport directly).
// Layout: sequence i32, width i32, height i32, format i32, usage i64,
// colorGamut i32, transform i32, scalingMode i32, logicalWidth i32,
// logicalHeight i32, extraCount u32, then extraCount records of
// { keyLen u16, key bytes, tag i32, value }.
func EncodeMeta(b *SurfaceBuffer) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, int32(b.sequence)); err != nil {
		return nil, err
	}
	for _, v := range []int32{b.config.Width, b.config.Height, int32(b.config.Format)} {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			return nil, err
		}
	}
	if err := binary.Write(&buf, binary.BigEndian, b.config.Usage); err != nil {
		return nil, err
	}
	for _, v := range []int32{int32(b.colorGamut), int32(b.transform), int32(b.scalingMode), b.logicalWidth, b.logicalHeight} {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			return nil, err
		}
	}

	keys := b.extra.Keys()
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(keys))); err != nil {
		return nil, err
	}
	for _, k := range keys {
		if err := encodeExtraEntry(&buf, b.extra, k); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeExtraEntry(buf *bytes.Buffer, e *ExtraData, key string) error {
	e.mu.RLock()
	ent, ok := e.entries[key]
	e.mu.RUnlock()
	if !ok {
		return errors.New("extra data key vanished mid-encode")
	}
	if len(key) > 0xFFFF {
		return errors.New("extra data key too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(key))); err != nil {
		return err
	}
	buf.WriteString(key)
	if err := binary.Write(buf, binary.BigEndian, int32(ent.typ)); err != nil {
		return err
	}
	switch ent.typ {
	case ExtraDataInt32:
		return binary.Write(buf, binary.BigEndian, ent.i32)
	case ExtraDataInt64:
		return binary.Write(buf, binary.BigEndian, ent.i64)
	case ExtraDataFloat64:
		return binary.Write(buf, binary.BigEndian, ent.f64)
	case ExtraDataString:
		if len(ent.str) > 0xFFFF {
			return errors.New("extra data string value too long")
		}
		if err := binary.Write(buf, binary.BigEndian, uint16(len(ent.str))); err != nil {
			return err
		}
		buf.WriteString(ent.str)
		return nil
	default:
		return errors.New("unknown extra data tag")
	}
}

// DecodeMeta parses the layout written by EncodeMeta, returning the
// sequence number, config, and a fresh ExtraData populated from the wire.
// It does not allocate a buffer handle; the caller rebinds the decoded
// metadata onto a SurfaceBuffer produced by its own allocator.
func DecodeMeta(raw []byte) (sequence uint64, cfg api.BufferRequestConfig, gamut api.ColorGamut, transform api.TransformType, scaling api.ScalingMode, logicalW, logicalH int32, extra *ExtraData, err error) {
	r := bytes.NewReader(raw)
	var seq32, w, h, format int32
	if err = binary.Read(r, binary.BigEndian, &seq32); err != nil {
		return
	}
	if err = binary.Read(r, binary.BigEndian, &w); err != nil {
		return
	}
	if err = binary.Read(r, binary.BigEndian, &h); err != nil {
		return
	}
	if err = binary.Read(r, binary.BigEndian, &format); err != nil {
		return
	}
	var usage uint64
	if err = binary.Read(r, binary.BigEndian, &usage); err != nil {
		return
	}
	var g, t, s int32
	if err = binary.Read(r, binary.BigEndian, &g); err != nil {
		return
	}
	if err = binary.Read(r, binary.BigEndian, &t); err != nil {
		return
	}
	if err = binary.Read(r, binary.BigEndian, &s); err != nil {
		return
	}
	if err = binary.Read(r, binary.BigEndian, &logicalW); err != nil {
		return
	}
	if err = binary.Read(r, binary.BigEndian, &logicalH); err != nil {
		return
	}

	var count uint32
	if err = binary.Read(r, binary.BigEndian, &count); err != nil {
		return
	}
	if count > MaxExtraDataEntries {
		err = errors.New("extra data entry count exceeds maximum")
		return
	}
	extra = NewExtraData()
	for i := uint32(0); i < count; i++ {
		if err = decodeExtraEntry(r, extra); err != nil {
			return
		}
	}

	sequence = uint64(seq32)
	cfg = api.BufferRequestConfig{
		Width:  w,
		Height: h,
		Format: api.PixelFormat(format),
		Usage:  usage,
	}
	gamut = api.ColorGamut(g)
	transform = api.TransformType(t)
	scaling = api.ScalingMode(s)
	return
}

func decodeExtraEntry(r *bytes.Reader, extra *ExtraData) error {
	var keyLen uint16
	if err := binary.Read(r, binary.BigEndian, &keyLen); err != nil {
		return err
	}
	keyBytes := make([]byte, keyLen)
	if _, err := r.Read(keyBytes); err != nil {
		return err
	}
	key := string(keyBytes)

	var tag int32
	if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
		return err
	}
	switch ExtraDataType(tag) {
	case ExtraDataInt32:
		var v int32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		extra.SetInt32(key, v)
	case ExtraDataInt64:
		var v int64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		extra.SetInt64(key, v)
	case ExtraDataFloat64:
		var v float64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		extra.SetFloat64(key, v)
	case ExtraDataString:
		var strLen uint16
		if err := binary.Read(r, binary.BigEndian, &strLen); err != nil {
			return err
		}
		strBytes := make([]byte, strLen)
		if _, err := r.Read(strBytes); err != nil {
			return err
		}
		extra.SetString(key, string(strBytes))
	default:
		return errors.New("unknown extra data tag on wire")
	}
	return nil
}
