// Package snapshot serializes the component stores of a world into a
// self-describing binary blob.
//
// Layout (integers little-endian):
//
//	"ECSS" | version u16 | text encoding name | world name | tick u64 |
//	section count u16 | { name | payload length u32 | payload }* |
//	blake2b-256 of everything before
//
// Strings are a u32 byte length followed by the bytes. The world name and the
// section names are stored in the named text encoding.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/emberline/ecscore/internal/core/ecs"
	"github.com/emberline/ecscore/internal/stream"
)

const (
	magic   = "ECSS"
	version = 1
)

var (
	ErrBadMagic         = errors.New("snapshot: bad magic")
	ErrVersion          = errors.New("snapshot: unsupported version")
	ErrChecksum         = errors.New("snapshot: checksum mismatch")
	ErrUnknownSection   = errors.New("snapshot: unknown section")
	ErrDuplicateSection = errors.New("snapshot: duplicate section")
)

// Options controls Encode.
type Options struct {
	Tick uint64
	// TextEncoding is a WHATWG encoding label such as "big5" or
	// "windows-1252". Empty means UTF-8.
	TextEncoding string
}

// SectionInfo describes one section of a snapshot.
type SectionInfo struct {
	Name     string
	Entities int
	Bytes    int
}

// Header is what a snapshot says about itself.
type Header struct {
	World        string
	Tick         uint64
	TextEncoding string
	Sections     []SectionInfo
	Checksum     [blake2b.Size256]byte
}

// TextEncoding looks up an encoding by WHATWG label. Empty and UTF-8 labels
// return nil, meaning no transcoding.
func TextEncoding(label string) (encoding.Encoding, error) {
	switch strings.ToLower(label) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("text encoding %q: %w", label, err)
	}
	return enc, nil
}

// Encode writes every section of schema for world.
func Encode(world *ecs.World, schema *Schema, opts Options) ([]byte, error) {
	enc, err := TextEncoding(opts.TextEncoding)
	if err != nil {
		return nil, err
	}

	w := stream.NewWriter(stream.WithEncoding(enc))
	w.WriteBytes([]byte(magic))
	w.WriteUint16(version)
	if err := w.WriteString(opts.TextEncoding); err != nil {
		return nil, err
	}
	if err := w.WriteString(world.Name()); err != nil {
		return nil, fmt.Errorf("encode world name: %w", err)
	}
	w.WriteUint64(opts.Tick)
	w.WriteUint16(uint16(len(schema.sections)))

	payload := stream.NewWriter()
	for _, sec := range schema.sections {
		payload.Reset()
		sec.encode(payload, world)
		if err := w.WriteString(sec.name); err != nil {
			return nil, err
		}
		w.WriteUint32(uint32(payload.Len()))
		w.WriteBytes(payload.Bytes())
	}

	sum := blake2b.Sum256(w.Bytes())
	w.WriteBytes(sum[:])
	return w.Bytes(), nil
}

// Decode restores the sections of data into world. Entities that are not
// alive in world are restored with their original ids.
func Decode(data []byte, world *ecs.World, schema *Schema) (Header, error) {
	return walk(data, func(name string, payload []byte) error {
		idx, ok := schema.byName[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownSection, name)
		}
		r := stream.NewReader(payload)
		if err := schema.sections[idx].decode(r, world); err != nil {
			return fmt.Errorf("decode section %q: %w", name, err)
		}
		return nil
	})
}

// Inspect validates data and reports its header without a schema.
func Inspect(data []byte) (Header, error) {
	return walk(data, nil)
}

// walk verifies data and calls visit for every section payload.
func walk(data []byte, visit func(name string, payload []byte) error) (Header, error) {
	var h Header
	if len(data) < len(magic)+blake2b.Size256 || !bytes.Equal(data[:len(magic)], []byte(magic)) {
		return h, ErrBadMagic
	}
	body, trailer := data[:len(data)-blake2b.Size256], data[len(data)-blake2b.Size256:]
	h.Checksum = blake2b.Sum256(body)
	if !bytes.Equal(h.Checksum[:], trailer) {
		return h, ErrChecksum
	}

	r := stream.NewReader(body[len(magic):])
	if v := r.ReadUint16(); r.Err() == nil && v != version {
		return h, fmt.Errorf("%w: %d", ErrVersion, v)
	}
	h.TextEncoding = r.ReadString()
	if r.Err() != nil {
		return h, fmt.Errorf("read header: %w", r.Err())
	}
	enc, err := TextEncoding(h.TextEncoding)
	if err != nil {
		return h, err
	}

	names := stream.NewReader(body[len(body)-r.Remaining():], stream.WithEncoding(enc))
	h.World = names.ReadString()
	h.Tick = names.ReadUint64()
	count := int(names.ReadUint16())
	if names.Err() != nil {
		return h, fmt.Errorf("read header: %w", names.Err())
	}

	for i := 0; i < count; i++ {
		name := names.ReadString()
		size := names.ReadUint32()
		payload := names.ReadBytes(int(size))
		if err := names.Err(); err != nil {
			return h, fmt.Errorf("read section %d: %w", i, err)
		}
		info := SectionInfo{Name: name, Bytes: len(payload)}
		if n := stream.NewReader(payload).ReadInt32(); n > 0 {
			info.Entities = int(n)
		}
		h.Sections = append(h.Sections, info)
		if visit != nil {
			if err := visit(name, payload); err != nil {
				return h, err
			}
		}
	}
	if names.Remaining() != 0 {
		return h, fmt.Errorf("%w: %d trailing bytes", stream.ErrInvalidLength, names.Remaining())
	}
	return h, nil
}
