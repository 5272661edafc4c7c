package domain

import (
	"encoding/binary"
	"math"
)

// SortableSerialise encodes a number so that byte-wise comparison of two
// encodings orders the same way as the numbers. NaN encodes like zero.
func SortableSerialise(v float64) []byte {
	if math.IsNaN(v) || v == 0 {
		v = 0 // folds -0 into +0
	}
	bits := math.Float64bits(v)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, bits)
	return out
}

// SortableUnserialise decodes a value produced by SortableSerialise.
// Inputs shorter than eight bytes are zero-padded on the right.
func SortableUnserialise(b []byte) float64 {
	var buf [8]byte
	copy(buf[:], b)
	bits := binary.BigEndian.Uint64(buf[:])
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}
