// Package codec resolves binary write/read functions for fixed-layout value
// types.
//
// Resolution inspects a type once, rejects it with ErrTypeNotEligible if its
// layout is not fixed and self-contained, and caches the resulting functions.
// The returned functions are plain generic instantiations: calling them does
// no reflection and no type switching.
//
//	pos, err := codec.Resolve[Position]()
//	if err != nil {
//		return err
//	}
//	pos.Write(w, Position{X: 1})
//	p := pos.Read(r)
package codec

import (
	"reflect"
	"sync"

	"github.com/emberline/ecscore/internal/stream"
)

// Entry holds the scalar functions for T.
type Entry[T any] struct {
	Write func(w *stream.Writer, v T)
	Read  func(r *stream.Reader) T
}

// ArrayEntry holds the array functions for T.
type ArrayEntry[T any] struct {
	Write func(w *stream.Writer, v []T)
	Read  func(r *stream.Reader) []T
}

// entry is the cached value for one type. It is fully built before it is
// stored and never modified afterwards.
type entry[T any] struct {
	scalar Entry[T]
	array  ArrayEntry[T]
}

var cache sync.Map // reflect.Type -> *entry[T]

// Resolve returns the scalar write/read functions for T.
func Resolve[T any]() (Entry[T], error) {
	e, err := resolve[T]()
	if err != nil {
		return Entry[T]{}, err
	}
	return e.scalar, nil
}

// ResolveArray returns the write/read functions for []T.
func ResolveArray[T any]() (ArrayEntry[T], error) {
	e, err := resolve[T]()
	if err != nil {
		return ArrayEntry[T]{}, err
	}
	return e.array, nil
}

// MustResolve is like Resolve but panics if T is not eligible.
func MustResolve[T any]() Entry[T] {
	e, err := Resolve[T]()
	if err != nil {
		panic(err)
	}
	return e
}

// MustResolveArray is like ResolveArray but panics if T is not eligible.
func MustResolveArray[T any]() ArrayEntry[T] {
	e, err := ResolveArray[T]()
	if err != nil {
		panic(err)
	}
	return e
}

func resolve[T any]() (*entry[T], error) {
	t := reflect.TypeFor[T]()
	if cached, ok := cache.Load(t); ok {
		return cached.(*entry[T]), nil
	}
	if err := CheckLayout(t); err != nil {
		return nil, err
	}
	built := &entry[T]{
		scalar: Entry[T]{Write: stream.Write[T], Read: stream.Read[T]},
		array:  ArrayEntry[T]{Write: stream.WriteArray[T], Read: stream.ReadArray[T]},
	}
	// Concurrent first resolutions may both build; the first stored entry wins
	// and every caller gets that one.
	actual, _ := cache.LoadOrStore(t, built)
	return actual.(*entry[T]), nil
}

// Cached reports whether t has been resolved successfully.
func Cached(t reflect.Type) bool {
	_, ok := cache.Load(t)
	return ok
}

// Lookup returns the cached scalar and array entries for a type known only
// at run time. The values are an Entry[T] and an ArrayEntry[T] for that type.
func Lookup(t reflect.Type) (scalar any, array any, ok bool) {
	v, ok := cache.Load(t)
	if !ok {
		return nil, nil, false
	}
	return v.(entries).entries()
}

type entries interface {
	entries() (any, any, bool)
}

func (e *entry[T]) entries() (any, any, bool) {
	return e.scalar, e.array, true
}
