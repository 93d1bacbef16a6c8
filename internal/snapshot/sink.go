package snapshot

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Record is one encoded snapshot ready to be stored.
type Record struct {
	World     string
	WorldID   int
	Tick      uint64
	Data      []byte
	Checksum  [blake2b.Size256]byte
	CreatedAt time.Time
}

// NewRecord wraps data, taking the checksum from its trailer.
func NewRecord(world string, worldID int, tick uint64, data []byte) Record {
	rec := Record{World: world, WorldID: worldID, Tick: tick, Data: data, CreatedAt: time.Now()}
	if len(data) >= blake2b.Size256 {
		copy(rec.Checksum[:], data[len(data)-blake2b.Size256:])
	}
	return rec
}

// Sink stores snapshot records.
type Sink interface {
	Save(ctx context.Context, rec Record) error
}

// Sinks fans a record out to several sinks. Every sink is tried; the errors
// are joined.
type Sinks []Sink

func (s Sinks) Save(ctx context.Context, rec Record) error {
	var errs []error
	for _, sink := range s {
		if err := sink.Save(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
