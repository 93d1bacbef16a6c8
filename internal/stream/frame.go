package stream

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// DefaultMaxFrame bounds ReadFrame when the caller passes a non-positive limit.
const DefaultMaxFrame = 64 << 20

// ReadFrame reads one frame from r.
// Wire format: [4 bytes LE: payload length][payload].
func ReadFrame(r io.Reader, maxLen int) ([]byte, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxFrame
	}
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	payloadLen := int64(binary.LittleEndian.Uint32(header[:]))
	if payloadLen > int64(maxLen) {
		return nil, fmt.Errorf("%w: frame of %d bytes exceeds %d", ErrInvalidLength, payloadLen, maxLen)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload (%d bytes): %w", payloadLen, err)
	}
	return payload, nil
}

// WriteFrame writes one frame to w with a single Write call.
func WriteFrame(w io.Writer, data []byte) error {
	if uint64(len(data)) > math.MaxUint32 {
		return fmt.Errorf("%w: frame of %d bytes", ErrInvalidLength, len(data))
	}
	buf := NewWriter()
	buf.WriteUint32(uint32(len(data)))
	buf.WriteBytes(data)
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
