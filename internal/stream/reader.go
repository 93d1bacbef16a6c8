package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/text/encoding"
)

var (
	// ErrShortBuffer is recorded when a read runs past the end of the payload.
	ErrShortBuffer = errors.New("stream: short buffer")
	// ErrInvalidLength is recorded when a length prefix cannot be satisfied.
	ErrInvalidLength = errors.New("stream: invalid length")
)

// Reader reads fields written by Writer from a byte payload.
// The first failed read is remembered; every later read returns a zero value
// and Err reports the original failure.
type Reader struct {
	data []byte
	off  int
	enc  encoding.Encoding
	err  error
}

func NewReader(data []byte, opts ...Option) *Reader {
	o := buildOptions(opts)
	return &Reader{data: data, enc: o.enc}
}

// Err returns the first error encountered while reading.
func (r *Reader) Err() error {
	return r.err
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// take advances the cursor by n bytes and returns them, or nil on underflow.
func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, r.off, r.Remaining())
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// ReadUint8 reads 1 byte.
func (r *Reader) ReadUint8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// ReadUint16 reads 2 bytes as little-endian uint16.
func (r *Reader) ReadUint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// ReadInt32 reads 4 bytes as little-endian int32.
func (r *Reader) ReadInt32() int32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

// ReadUint32 reads 4 bytes as little-endian uint32.
func (r *Reader) ReadUint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// ReadUint64 reads 8 bytes as little-endian uint64.
func (r *Reader) ReadUint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// ReadString reads a length-prefixed string and returns it as UTF-8.
func (r *Reader) ReadString() string {
	n := r.ReadUint32()
	if r.err != nil {
		return ""
	}
	if int64(n) > int64(r.Remaining()) {
		r.err = fmt.Errorf("%w: string of %d bytes, %d remaining", ErrInvalidLength, n, r.Remaining())
		return ""
	}
	raw := r.take(int(n))
	if r.enc == nil || isASCII(raw) {
		return string(raw)
	}
	decoded, err := r.enc.NewDecoder().Bytes(raw)
	if err != nil {
		r.err = fmt.Errorf("decode string: %w", err)
		return ""
	}
	return string(decoded)
}

// ReadBytes reads n raw bytes. The result is a copy.
func (r *Reader) ReadBytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// Read reads the raw bytes of one fixed-layout T.
func Read[T any](r *Reader) T {
	var v T
	size := int(unsafe.Sizeof(v))
	if size == 0 {
		return v
	}
	b := r.take(size)
	if b == nil {
		return v
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), size), b)
	return v
}

// ReadArray reads a slice written by WriteArray. The declared element count
// is checked against the remaining payload before anything is allocated.
func ReadArray[T any](r *Reader) []T {
	n := r.ReadInt32()
	if r.err != nil {
		return nil
	}
	if n == -1 {
		return nil
	}
	if n < -1 {
		r.err = fmt.Errorf("%w: array count %d", ErrInvalidLength, n)
		return nil
	}
	var zero T
	size := int64(unsafe.Sizeof(zero))
	if size*int64(n) > int64(r.Remaining()) {
		r.err = fmt.Errorf("%w: array of %d x %d bytes, %d remaining", ErrInvalidLength, n, size, r.Remaining())
		return nil
	}
	out := make([]T, n)
	if n == 0 || size == 0 {
		return out
	}
	b := r.take(int(size) * int(n))
	copy(unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(out))), len(b)), b)
	return out
}
