package curves

import (
	"encoding/binary"
	"math"
	"strconv"
)

// Point is a point in the output space.
type Point struct {
	X, Y, Z float64
}

// put stores p as float32s at triple i of buf.
func put(buf []float32, i int, p Point) {
	buf[3*i] = float32(p.X)
	buf[3*i+1] = float32(p.Y)
	buf[3*i+2] = float32(p.Z)
}

// Pack lays out points as one contiguous buffer of 3*len(pts) floats,
// x0, y0, z0, x1, y1, z1, ..., in order.
func Pack(pts []Point) []float32 {
	buf := make([]float32, 3*len(pts))
	for i, p := range pts {
		put(buf, i, p)
	}
	return buf
}

// Unpack is the inverse of Pack. Panics if len(buf) is not a multiple of 3.
func Unpack(buf []float32) []Point {
	if len(buf)%3 != 0 {
		panic("curves: buffer length " + strconv.Itoa(len(buf)) + " is not a multiple of 3")
	}
	pts := make([]Point, len(buf)/3)
	for i := range pts {
		pts[i] = Point{float64(buf[3*i]), float64(buf[3*i+1]), float64(buf[3*i+2])}
	}
	return pts
}

// AppendBinary appends the result's buffer to b as little-endian IEEE-754
// single-precision floats, the layout of a Float32Array on every common host.
func (r *Result) AppendBinary(b []byte) []byte {
	return AppendFloats(b, r.Buffer)
}

// AppendFloats appends buf to b as little-endian IEEE-754 single-precision
// floats.
func AppendFloats(b []byte, buf []float32) []byte {
	b = append(make([]byte, 0, len(b)+4*len(buf)), b...)
	for _, f := range buf {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

// DecodeFloats decodes little-endian single-precision floats as written by
// AppendFloats.
func DecodeFloats(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, &BufferError{Len: len(b)}
	}
	buf := make([]float32, len(b)/4)
	for i := range buf {
		buf[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return buf, nil
}

// BufferError is an error indicating encoded floats of an invalid length.
type BufferError struct {
	Len int
}

func (err *BufferError) Error() string {
	return "invalid float buffer of " + strconv.Itoa(err.Len) + " bytes"
}
