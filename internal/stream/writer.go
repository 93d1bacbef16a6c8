package stream

import (
	"encoding/binary"
	"io"
	"unsafe"

	"golang.org/x/text/encoding"
)

// Writer builds a binary payload in memory. Multi-byte primitives are
// little-endian; fixed-layout values written through Write/WriteArray keep
// their in-memory representation.
type Writer struct {
	buf []byte
	enc encoding.Encoding
}

func NewWriter(opts ...Option) *Writer {
	o := buildOptions(opts)
	return &Writer{buf: make([]byte, 0, 256), enc: o.enc}
}

// WriteUint8 writes 1 byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteUint16 writes 2 bytes little-endian.
func (w *Writer) WriteUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteInt32 writes 4 bytes little-endian.
func (w *Writer) WriteInt32(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

// WriteUint32 writes 4 bytes little-endian.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteUint64 writes 8 bytes little-endian.
func (w *Writer) WriteUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// WriteString writes a uint32 byte length followed by the encoded text.
func (w *Writer) WriteString(s string) error {
	raw := []byte(s)
	if w.enc != nil && !isASCII(raw) {
		encoded, err := w.enc.NewEncoder().Bytes(raw)
		if err != nil {
			return err
		}
		raw = encoded
	}
	w.WriteUint32(uint32(len(raw)))
	w.buf = append(w.buf, raw...)
	return nil
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// Bytes returns the written payload. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Reset empties the buffer, keeping its capacity.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// WriteTo writes the buffered payload to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	n, err := dst.Write(w.buf)
	return int64(n), err
}

// Write appends the raw bytes of v. T must be a fixed-layout value type;
// codec.Resolve checks that before handing out a writer for T.
func Write[T any](w *Writer, v T) {
	size := unsafe.Sizeof(v)
	if size == 0 {
		return
	}
	w.buf = append(w.buf, unsafe.Slice((*byte)(unsafe.Pointer(&v)), size)...)
}

// WriteArray writes an int32 element count followed by the raw bytes of
// every element. A nil slice is written with count -1.
func WriteArray[T any](w *Writer, v []T) {
	if v == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(v)))
	if len(v) == 0 {
		return
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return
	}
	w.buf = append(w.buf, unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(v))), size*len(v))...)
}

func isASCII(raw []byte) bool {
	for _, b := range raw {
		if b >= 0x80 {
			return false
		}
	}
	return true
}
