package storage

import (
	"reflect"

	"github.com/ironframe/ecs/internal/core/ecs/entity"
)

// ErasedStorage is the type-erased face every Storage[T] presents to
// code that must orchestrate many component types without knowing any
// of them at compile time: the registry's type table, and views/groups
// when testing or removing components outside their pivot/owned type.
// Go has no variadic type parameters, so a view or group over more
// types than it has generic slots for falls back to this interface for
// the types it only needs to test membership in or erase from (§9
// design note).
type ErasedStorage interface {
	// Type reports the concrete component type this storage holds.
	Type() reflect.Type
	// Contains reports whether e currently has this component.
	Contains(e entity.Entity) bool
	// Len reports the number of dense slots in use, holes included.
	Len() int
	// At returns the entity at dense position pos.
	At(pos int) entity.Entity
	// Remove erases e's component if present, passing owner through to
	// the on_destroy listeners. Unlike Erase it is a no-op rather than a
	// panic when e isn't present, matching the registry's Remove/Erase
	// split (§6).
	Remove(owner any, e entity.Entity)
	// Each visits every entity holding this component.
	Each(fn func(entity.Entity))
	// EachReverse visits every entity holding this component in reverse
	// dense order, so a view pivoting on this storage can safely erase
	// the entity it is currently visiting (§4.F).
	EachReverse(fn func(entity.Entity))
	// Policy reports the underlying sparse-set erase policy.
	Policy() Policy
	// ShrinkToFit releases sparse pages that no longer back a present
	// entry, without touching the value array.
	ShrinkToFit()
	// OnConstruct returns the sink fired after a component is created.
	OnConstruct() *Sink
	// OnUpdate returns the sink fired after a component is mutated in
	// place.
	OnUpdate() *Sink
	// OnDestroy returns the sink fired just before a component is
	// erased.
	OnDestroy() *Sink
}

// Storage[T] is the sparse-set-backed column for a single component
// type (§4.C): a SparseSet of entity identifiers kept in lock-step with
// a paged array of T values at the same dense positions. Zero-sized
// component types cost nothing beyond the identifier set: their value
// pages are arrays of zero-byte elements, which Go never heap-allocates
// backing memory for.
type Storage[T any] struct {
	set    *SparseSet
	values Paged[T]
	typ    reflect.Type

	onConstruct Sink
	onUpdate    Sink
	onDestroy   Sink

	owned bool
}

// New creates an empty Storage[T]. pageSize controls the page size of
// the value array (§4.C: "default 1024 for small types"); a
// non-positive value falls back to DefaultPageSize. The sparse index
// always uses DefaultPageSize.
func New[T any](policy Policy, pageSize int) *Storage[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Storage[T]{
		set:    NewSparseSet(policy, DefaultPageSize),
		values: *NewPaged[T](pageSize),
		typ:    reflect.TypeOf((*T)(nil)).Elem(),
	}
}

// Type implements ErasedStorage.
func (s *Storage[T]) Type() reflect.Type { return s.typ }

// Contains implements ErasedStorage.
func (s *Storage[T]) Contains(e entity.Entity) bool { return s.set.Contains(e) }

// Len implements ErasedStorage.
func (s *Storage[T]) Len() int { return s.set.Len() }

// At implements ErasedStorage.
func (s *Storage[T]) At(pos int) entity.Entity { return s.set.At(pos) }

// Policy implements ErasedStorage.
func (s *Storage[T]) Policy() Policy { return s.set.Policy() }

// ShrinkToFit implements ErasedStorage.
func (s *Storage[T]) ShrinkToFit() { s.set.ShrinkToFit() }

// Each implements ErasedStorage.
func (s *Storage[T]) Each(fn func(entity.Entity)) { s.set.Each(fn) }

// EachReverse implements ErasedStorage.
func (s *Storage[T]) EachReverse(fn func(entity.Entity)) { s.set.EachReverse(fn) }

// OnConstruct returns the sink fired after a component is created via
// Emplace (not Replace of an existing one).
func (s *Storage[T]) OnConstruct() *Sink { return &s.onConstruct }

// OnUpdate returns the sink fired after Patch or Replace mutates an
// existing component in place.
func (s *Storage[T]) OnUpdate() *Sink { return &s.onUpdate }

// OnDestroy returns the sink fired just before a component is erased,
// either explicitly or as a side effect of destroying its entity.
func (s *Storage[T]) OnDestroy() *Sink { return &s.onDestroy }

// MarkOwned records that a group now owns this storage's ordering, so
// Sort can refuse to reorder it out from under the group (§9 open
// question, resolved as a recoverable error rather than an assertion).
func (s *Storage[T]) MarkOwned(owned bool) { s.owned = owned }

// Owned reports whether a group currently owns this storage.
func (s *Storage[T]) Owned() bool { return s.owned }

// Emplace constructs a new component for e with value and fires
// on_construct. Precondition: !Contains(e).
func (s *Storage[T]) Emplace(owner any, e entity.Entity, value T) *T {
	pos := s.set.Push(e)
	*s.values.At(uint32(pos)) = value
	s.onConstruct.Publish(owner, e)
	// A listener may have relocated e (group maintenance swaps dense
	// positions), so the slot written above is not necessarily where e
	// lives by the time this returns.
	return s.values.At(uint32(s.set.Index(e)))
}

// InsertRange bulk-constructs a component for each entity in entities
// from the value at the same position in values, firing on_construct
// once per entity as it is added (§4.C: "insert(range_of_entities,
// range_of_values): bulk insert; signals fire per entity"). Precondition:
// len(entities) == len(values), and none of entities already has this
// component.
func (s *Storage[T]) InsertRange(owner any, entities []entity.Entity, values []T) {
	if len(entities) != len(values) {
		panic("storage: InsertRange requires entities and values of equal length")
	}
	for i, e := range entities {
		s.Emplace(owner, e, values[i])
	}
}

// GetOrEmplace returns e's existing component, or constructs it from
// value (firing on_construct) if absent.
func (s *Storage[T]) GetOrEmplace(owner any, e entity.Entity, value T) *T {
	if pos, ok := s.set.TryIndex(e); ok {
		return s.values.At(uint32(pos))
	}
	return s.Emplace(owner, e, value)
}

// Replace overwrites e's existing component and fires on_update.
// Precondition: Contains(e).
func (s *Storage[T]) Replace(owner any, e entity.Entity, value T) *T {
	pos := s.set.Index(e)
	ptr := s.values.At(uint32(pos))
	*ptr = value
	s.onUpdate.Publish(owner, e)
	return ptr
}

// Patch applies fn to e's existing component in place and fires
// on_update. Precondition: Contains(e).
func (s *Storage[T]) Patch(owner any, e entity.Entity, fn func(*T)) *T {
	pos := s.set.Index(e)
	ptr := s.values.At(uint32(pos))
	fn(ptr)
	s.onUpdate.Publish(owner, e)
	return ptr
}

// Get returns a pointer to e's component. Precondition: Contains(e).
func (s *Storage[T]) Get(e entity.Entity) *T {
	pos := s.set.Index(e)
	return s.values.At(uint32(pos))
}

// GetIf returns a pointer to e's component and true, or nil and false
// if e doesn't have one.
func (s *Storage[T]) GetIf(e entity.Entity) (*T, bool) {
	pos, ok := s.set.TryIndex(e)
	if !ok {
		return nil, false
	}
	return s.values.At(uint32(pos)), true
}

// Erase removes e's component, firing on_destroy first. Precondition:
// Contains(e).
func (s *Storage[T]) Erase(owner any, e entity.Entity) {
	s.onDestroy.Publish(owner, e)
	s.swapValueToErasedSlot(e)
	s.set.Erase(e)
}

// Remove implements ErasedStorage: erases e's component if present,
// otherwise does nothing.
func (s *Storage[T]) Remove(owner any, e entity.Entity) {
	if s.set.Contains(e) {
		s.Erase(owner, e)
	}
}

// swapValueToErasedSlot keeps the value array in lock-step with a
// SwapAndPop erase: the set itself only knows about entity identifiers,
// so the storage must mirror the same swap in its value array before
// delegating to set.Erase. Positions are re-read here rather than
// captured before the on_destroy publish, since a listener may have
// moved e in the meantime.
func (s *Storage[T]) swapValueToErasedSlot(e entity.Entity) {
	if s.set.Policy() != SwapAndPop {
		return
	}
	pos := s.set.Index(e)
	last := s.set.Len() - 1
	if pos != last {
		*s.values.At(uint32(pos)) = *s.values.At(uint32(last))
	}
}

// Swap exchanges the dense positions i and j in both the entity set and
// the value array, preserving lock-step. Used by group maintenance and
// by Sort/SortAs.
func (s *Storage[T]) Swap(i, j int) {
	if i == j {
		return
	}
	vi, vj := s.values.At(uint32(i)), s.values.At(uint32(j))
	*vi, *vj = *vj, *vi
	s.set.Swap(i, j)
}

// Set exposes the underlying identifier set, for cross-type operations
// like Registry.SortAs that need one storage's relative order without
// depending on its value type.
func (s *Storage[T]) Set() *SparseSet { return s.set }

// SortAs reorders this storage to match the relative entity order of
// other, keeping values in lock-step. See SparseSet.SortAs.
func (s *Storage[T]) SortAs(other *SparseSet) {
	s.set.SortAs(other, s.Swap)
}

// Sort reorders this storage's entities (and values) according to
// less. See SparseSet.Sort.
func (s *Storage[T]) Sort(less func(a, b entity.Entity) bool) {
	s.set.Sort(less, s.Swap)
}

// Clear erases every component in the storage, firing on_destroy for
// each entity in reverse dense order before the backing arrays are
// dropped (§4.C: "erase every element; signals fire per entity in
// reverse order"). owner is passed through to each listener the same
// way Erase passes it.
func (s *Storage[T]) Clear(owner any) {
	s.set.EachReverse(func(e entity.Entity) {
		s.onDestroy.Publish(owner, e)
	})
	s.set.Clear()
	s.values.Reset()
}

// Raw returns the component values packed in dense order, skipping
// holes. The pages backing the live values never move, so this is a
// snapshot copy assembled from them rather than a reference into the
// storage.
func (s *Storage[T]) Raw() []T {
	out := make([]T, 0, s.set.Len())
	s.set.Each(func(e entity.Entity) {
		out = append(out, *s.values.At(uint32(s.set.Index(e))))
	})
	return out
}

var _ ErasedStorage = (*Storage[int])(nil)
