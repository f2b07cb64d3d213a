// Package stream publishes simulated frames to websocket clients.
//
// Frame layout (little endian):
//
//	0  magic    "SHMR"
//	4  version  uint8
//	5  flags    uint8 (bit 0: payload is an lz4 block)
//	6  reserved uint16
//	8  frame id uint32
//	12 count    uint32
//	16 raw len  uint32 (payload size before compression)
//	20 payload  count records of 8 float32: x y z r g b opacity size
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/pierrec/lz4/v4"

	"github.com/gonewx/shimmer/pkg/field"
	"github.com/gonewx/shimmer/pkg/types"
)

const (
	// Version 当前帧格式版本
	Version = 1

	// FlagLZ4 表示负载经过 lz4 块压缩
	FlagLZ4 = 1 << 0

	headerSize = 20
	recordSize = 8 * 4
)

var magic = [4]byte{'S', 'H', 'M', 'R'}

var (
	ErrShortFrame = errors.New("stream: frame too short")
	ErrBadMagic   = errors.New("stream: bad magic")
	ErrVersion    = errors.New("stream: unsupported version")
)

// Frame is one decoded frame.
type Frame struct {
	ID      uint32
	Flags   uint8
	Samples []field.Sample
}

// Encode serializes samples. With compress set the payload is lz4 block
// compressed, unless compression would not shrink it.
func Encode(id uint32, samples []field.Sample, compress bool) ([]byte, error) {
	raw := make([]byte, len(samples)*recordSize)
	for i, s := range samples {
		rec := raw[i*recordSize:]
		putFloats(rec,
			s.Position.X, s.Position.Y, s.Position.Z,
			s.Color.R, s.Color.G, s.Color.B,
			s.Opacity, s.Size)
	}

	var flags uint8
	payload := raw
	if compress && len(raw) > 0 {
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		var c lz4.Compressor
		n, err := c.CompressBlock(raw, buf)
		if err != nil {
			return nil, fmt.Errorf("stream: compress frame %d: %w", id, err)
		}
		// n == 0 表示数据不可压缩
		if n > 0 && n < len(raw) {
			payload = buf[:n]
			flags |= FlagLZ4
		}
	}

	out := make([]byte, headerSize+len(payload))
	copy(out[0:4], magic[:])
	out[4] = Version
	out[5] = flags
	binary.LittleEndian.PutUint32(out[8:], id)
	binary.LittleEndian.PutUint32(out[12:], uint32(len(samples)))
	binary.LittleEndian.PutUint32(out[16:], uint32(len(raw)))
	copy(out[headerSize:], payload)
	return out, nil
}

func putFloats(b []byte, vs ...float64) {
	for i, v := range vs {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(float32(v)))
	}
}

func getFloat(b []byte, i int) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])))
}

// Decode parses a frame produced by Encode.
func Decode(data []byte) (Frame, error) {
	if len(data) < headerSize {
		return Frame{}, ErrShortFrame
	}
	if [4]byte(data[0:4]) != magic {
		return Frame{}, ErrBadMagic
	}
	if data[4] != Version {
		return Frame{}, fmt.Errorf("%w: %d", ErrVersion, data[4])
	}

	f := Frame{
		ID:    binary.LittleEndian.Uint32(data[8:]),
		Flags: data[5],
	}
	count := int(binary.LittleEndian.Uint32(data[12:]))
	rawLen := int(binary.LittleEndian.Uint32(data[16:]))
	if rawLen != count*recordSize {
		return Frame{}, fmt.Errorf("stream: frame %d: raw length %d does not match %d records", f.ID, rawLen, count)
	}

	raw := data[headerSize:]
	if f.Flags&FlagLZ4 != 0 {
		buf := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(raw, buf)
		if err != nil {
			return Frame{}, fmt.Errorf("stream: decompress frame %d: %w", f.ID, err)
		}
		if n != rawLen {
			return Frame{}, fmt.Errorf("stream: frame %d: decompressed %d bytes, want %d", f.ID, n, rawLen)
		}
		raw = buf
	}
	if len(raw) < rawLen {
		return Frame{}, ErrShortFrame
	}

	f.Samples = make([]field.Sample, count)
	for i := range f.Samples {
		rec := raw[i*recordSize:]
		f.Samples[i] = field.Sample{
			Position: types.Vec3{X: getFloat(rec, 0), Y: getFloat(rec, 1), Z: getFloat(rec, 2)},
			Color:    types.RGB{R: getFloat(rec, 3), G: getFloat(rec, 4), B: getFloat(rec, 5)},
			Opacity:  getFloat(rec, 6),
			Size:     getFloat(rec, 7),
		}
	}
	return f, nil
}
