package dataset

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Binary series are headerless little-endian arrays; the element count
// is implied by the metadata. Each reader is all-or-nothing: a short
// or oversized file fails the whole load and leaves nothing partially
// populated.

// ReadFloat32Array reads exactly count float32 values from path.
func ReadFloat32Array(path string, count int) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) != count*4 {
		return nil, fmt.Errorf("%s: got %d bytes, want %d (%d float32)", path, len(data), count*4, count)
	}
	out := make([]float32, count)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// ReadInt32Array reads exactly count int32 values from path.
func ReadInt32Array(path string, count int) ([]int32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) != count*4 {
		return nil, fmt.Errorf("%s: got %d bytes, want %d (%d int32)", path, len(data), count*4, count)
	}
	out := make([]int32, count)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// ReadInt8Array reads exactly count int8 values from path.
func ReadInt8Array(path string, count int) ([]int8, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) != count {
		return nil, fmt.Errorf("%s: got %d bytes, want %d (int8)", path, len(data), count)
	}
	out := make([]int8, count)
	for i := range out {
		out[i] = int8(data[i])
	}
	return out, nil
}
