package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironframe/ecs/internal/core/ecs/entity"
)

type position struct{ X, Y float64 }

func TestStorage_EmplaceAndGet(t *testing.T) {
	s := New[position](SwapAndPop, 4)
	e := entity.Make(1, 0)

	s.Emplace(nil, e, position{X: 1, Y: 2})

	got := s.Get(e)
	assert.Equal(t, position{X: 1, Y: 2}, *got)
}

func TestStorage_GetOrEmplace(t *testing.T) {
	s := New[position](SwapAndPop, 4)
	e := entity.Make(1, 0)

	first := s.GetOrEmplace(nil, e, position{X: 5})
	second := s.GetOrEmplace(nil, e, position{X: 999})

	assert.Equal(t, position{X: 5}, *first)
	assert.Same(t, first, second)
}

func TestStorage_Patch(t *testing.T) {
	s := New[position](SwapAndPop, 4)
	e := entity.Make(1, 0)
	s.Emplace(nil, e, position{X: 1, Y: 1})

	s.Patch(nil, e, func(p *position) { p.X += 10 })

	assert.Equal(t, position{X: 11, Y: 1}, *s.Get(e))
}

func TestStorage_EraseKeepsValuesLockStepUnderSwapAndPop(t *testing.T) {
	s := New[position](SwapAndPop, 4)
	a, b, c := entity.Make(1, 0), entity.Make(2, 0), entity.Make(3, 0)
	s.Emplace(nil, a, position{X: 1})
	s.Emplace(nil, b, position{X: 2})
	s.Emplace(nil, c, position{X: 3})

	s.Erase(nil, a)

	require.True(t, s.Contains(c))
	// c was moved into a's old dense slot; its value must move with it.
	assert.Equal(t, position{X: 3}, *s.Get(c))
	assert.Equal(t, position{X: 2}, *s.Get(b))
}

func TestStorage_RemoveIsNoopWhenAbsent(t *testing.T) {
	s := New[position](SwapAndPop, 4)
	assert.NotPanics(t, func() { s.Remove(nil, entity.Make(1, 0)) })
}

func TestStorage_OnConstructFiresOnEmplaceOnly(t *testing.T) {
	s := New[position](SwapAndPop, 4)
	var constructs, updates int
	s.OnConstruct().Connect(func(owner any, e entity.Entity) { constructs++ })
	s.OnUpdate().Connect(func(owner any, e entity.Entity) { updates++ })

	e := entity.Make(1, 0)
	s.Emplace(nil, e, position{})
	s.Replace(nil, e, position{X: 1})

	assert.Equal(t, 1, constructs)
	assert.Equal(t, 1, updates)
}

func TestStorage_OnDestroyFiresBeforeErase(t *testing.T) {
	s := New[position](SwapAndPop, 4)
	e := entity.Make(1, 0)
	s.Emplace(nil, e, position{X: 7})

	var sawPresent bool
	s.OnDestroy().Connect(func(owner any, ev entity.Entity) { sawPresent = s.Contains(ev) })

	s.Erase(nil, e)

	assert.True(t, sawPresent, "on_destroy observes the component still present")
	assert.False(t, s.Contains(e))
}

func TestStorage_SortAsMirrorsReferenceOrder(t *testing.T) {
	ref := NewSparseSet(SwapAndPop, 4)
	a, b, c := entity.Make(1, 0), entity.Make(2, 0), entity.Make(3, 0)
	ref.Push(b)
	ref.Push(c)
	ref.Push(a)

	s := New[position](SwapAndPop, 4)
	s.Emplace(nil, a, position{X: 1})
	s.Emplace(nil, b, position{X: 2})
	s.Emplace(nil, c, position{X: 3})

	s.SortAs(ref)

	assert.Equal(t, b, s.At(0))
	assert.Equal(t, c, s.At(1))
	assert.Equal(t, a, s.At(2))
	assert.Equal(t, position{X: 2}, *s.Get(b))
}

func TestStorage_Raw(t *testing.T) {
	s := New[position](SwapAndPop, 4)
	s.Emplace(nil, entity.Make(1, 0), position{X: 1})
	s.Emplace(nil, entity.Make(2, 0), position{X: 2})

	raw := s.Raw()
	assert.ElementsMatch(t, []position{{X: 1}, {X: 2}}, raw)
}

// TestStorage_InsertRangeBulkInsertsAndFiresSignalPerEntity covers
// §4.C's bulk insert: each entity in the range gets the value at the
// matching position, and on_construct fires once per entity.
func TestStorage_InsertRangeBulkInsertsAndFiresSignalPerEntity(t *testing.T) {
	s := New[position](SwapAndPop, 4)
	a, b, c := entity.Make(1, 0), entity.Make(2, 0), entity.Make(3, 0)

	var constructed []entity.Entity
	s.OnConstruct().Connect(func(owner any, e entity.Entity) { constructed = append(constructed, e) })

	s.InsertRange(nil, []entity.Entity{a, b, c}, []position{{X: 1}, {X: 2}, {X: 3}})

	assert.Equal(t, []entity.Entity{a, b, c}, constructed)
	assert.Equal(t, position{X: 1}, *s.Get(a))
	assert.Equal(t, position{X: 2}, *s.Get(b))
	assert.Equal(t, position{X: 3}, *s.Get(c))
}

func TestStorage_InsertRangeMismatchedLengthsPanics(t *testing.T) {
	s := New[position](SwapAndPop, 4)
	assert.Panics(t, func() {
		s.InsertRange(nil, []entity.Entity{entity.Make(1, 0)}, nil)
	})
}

func TestStorage_ImplementsErasedStorage(t *testing.T) {
	var _ ErasedStorage = New[position](SwapAndPop, 4)
}

// TestStorage_ClearFiresOnDestroyPerEntityInReverseOrder covers §4.C's
// Clear(): every element is erased, with on_destroy firing once per
// entity in reverse dense order before the storage empties.
func TestStorage_ClearFiresOnDestroyPerEntityInReverseOrder(t *testing.T) {
	s := New[position](SwapAndPop, 4)
	a, b, c := entity.Make(1, 0), entity.Make(2, 0), entity.Make(3, 0)
	s.Emplace(nil, a, position{X: 1})
	s.Emplace(nil, b, position{X: 2})
	s.Emplace(nil, c, position{X: 3})

	var destroyed []entity.Entity
	s.OnDestroy().Connect(func(owner any, e entity.Entity) { destroyed = append(destroyed, e) })

	s.Clear(nil)

	assert.Equal(t, []entity.Entity{c, b, a}, destroyed)
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains(a))
}

// TestStorage_EmplaceReturnsPointerValidAfterListenerSwap guards the
// return value of Emplace against on_construct listeners that reorder
// the pool, the way owning groups do.
func TestStorage_EmplaceReturnsPointerValidAfterListenerSwap(t *testing.T) {
	s := New[position](SwapAndPop, 4)
	a, b := entity.Make(1, 0), entity.Make(2, 0)
	s.Emplace(nil, a, position{X: 1})

	s.OnConstruct().Connect(func(owner any, e entity.Entity) {
		s.Swap(0, s.Set().Index(e))
	})

	got := s.Emplace(nil, b, position{X: 2})

	assert.Equal(t, b, s.At(0), "listener moved b to the front")
	assert.Equal(t, position{X: 2}, *got)
	assert.Same(t, s.Get(b), got)
}
