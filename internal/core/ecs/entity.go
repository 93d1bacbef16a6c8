package ecs

import (
	"errors"
	"fmt"
)

// MaxRestoreIndex bounds the entity index Restore accepts. Restore grows the
// pool up to the index, so ids read from outside need a ceiling.
const MaxRestoreIndex = 1<<24 - 1

var ErrEntityIndexRange = errors.New("ecs: entity index out of range")

// EntityID encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on destroy to invalidate stale refs.
type EntityID uint64

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }

func (id EntityID) String() string {
	return fmt.Sprintf("%d:%d", id.Index(), id.Generation())
}

// EntityPool manages entity allocation with generational indices and a free list.
type EntityPool struct {
	generations []uint32
	alive       []bool
	freeList    []uint32
	nextIndex   uint32
	count       int
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		generations: make([]uint32, 0, 1024),
		alive:       make([]bool, 0, 1024),
		freeList:    make([]uint32, 0, 256),
	}
}

func (p *EntityPool) Create() EntityID {
	var idx uint32
	if len(p.freeList) > 0 {
		idx = p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
	} else {
		idx = p.grow()
	}
	p.alive[idx] = true
	p.count++
	return NewEntityID(idx, p.generations[idx])
}

func (p *EntityPool) grow() uint32 {
	idx := p.nextIndex
	p.nextIndex++
	p.generations = append(p.generations, 0)
	p.alive = append(p.alive, false)
	return idx
}

func (p *EntityPool) Alive(id EntityID) bool {
	idx := id.Index()
	if idx >= p.nextIndex {
		return false
	}
	return p.alive[idx] && p.generations[idx] == id.Generation()
}

// Destroy frees id. Stale or unknown ids are ignored; it reports whether the
// entity was alive.
func (p *EntityPool) Destroy(id EntityID) bool {
	if !p.Alive(id) {
		return false
	}
	idx := id.Index()
	p.generations[idx]++
	p.alive[idx] = false
	p.freeList = append(p.freeList, idx)
	p.count--
	return true
}

// Restore marks exactly id as alive, for example when loading a snapshot.
// It fails if the index is already occupied or above MaxRestoreIndex.
func (p *EntityPool) Restore(id EntityID) error {
	idx := id.Index()
	if idx > MaxRestoreIndex {
		return fmt.Errorf("restore entity %v: %w", id, ErrEntityIndexRange)
	}
	for idx >= p.nextIndex {
		p.freeList = append(p.freeList, p.grow())
	}
	if p.alive[idx] {
		return fmt.Errorf("restore entity %v: index in use by %v", id, NewEntityID(idx, p.generations[idx]))
	}
	for i, free := range p.freeList {
		if free == idx {
			p.freeList = append(p.freeList[:i], p.freeList[i+1:]...)
			break
		}
	}
	p.generations[idx] = id.Generation()
	p.alive[idx] = true
	p.count++
	return nil
}

// Len returns the number of live entities.
func (p *EntityPool) Len() int {
	return p.count
}
