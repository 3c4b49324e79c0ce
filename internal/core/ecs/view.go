package ecs

import "github.com/ironframe/ecs/internal/core/ecs/storage"

func excludedBy(excludes []Pool, e Entity) bool {
	for _, ex := range excludes {
		if ex.Contains(e) {
			return true
		}
	}
	return false
}

// frontOf returns the first entity of pool that satisfies matches, in
// dense order, or Null if none does.
func frontOf(pool Pool, matches func(Entity) bool) Entity {
	found := Null
	pool.Each(func(e Entity) {
		if found == Null && matches(e) {
			found = e
		}
	})
	return found
}

// backOf is frontOf over the reverse dense order.
func backOf(pool Pool, matches func(Entity) bool) Entity {
	found := Null
	pool.EachReverse(func(e Entity) {
		if found == Null && matches(e) {
			found = e
		}
	})
	return found
}

func smallestOf(lens ...int) int {
	best := 0
	for i, l := range lens {
		if l < lens[best] {
			best = i
		}
	}
	return best
}

// View1 is a stateless single-component query. It degenerates to
// iterating the storage directly (§4.F: "a view over a single component
// degenerates to iterating that storage directly").
type View1[A any] struct {
	a        *storage.Storage[A]
	excludes []Pool
}

// NewView1 builds a view over A, excluding entities that have any of
// the given pools' component types. Exclusion pools come from
// StorageOf, so a type that hasn't been touched yet is materialised
// empty rather than silently ignored.
func NewView1[A any](r *Registry, excludes ...Pool) *View1[A] {
	return &View1[A]{a: StorageOf[A](r), excludes: excludes}
}

func (v *View1[A]) matches(e Entity) bool {
	return !excludedBy(v.excludes, e)
}

// SizeHint returns the storage's size: exact when the view has no
// exclusions and the pool holds no in-place holes, an upper bound
// otherwise.
func (v *View1[A]) SizeHint() int { return v.a.Len() }

// Each visits every matching entity in reverse dense order, so erasing
// the currently-visited entity's A component during fn is safe under
// swap_and_pop (§4.F).
func (v *View1[A]) Each(fn func(Entity, *A)) {
	v.a.EachReverse(func(e Entity) {
		if v.matches(e) {
			fn(e, v.a.Get(e))
		}
	})
}

// Find returns e's component and true if e matches the view.
func (v *View1[A]) Find(e Entity) (*A, bool) {
	if !v.a.Contains(e) || !v.matches(e) {
		return nil, false
	}
	return v.a.Get(e), true
}

// Front returns the first matching entity, or Null if none match.
func (v *View1[A]) Front() Entity { return frontOf(v.a, v.matches) }

// Back returns the last matching entity, or Null if none match.
func (v *View1[A]) Back() Entity { return backOf(v.a, v.matches) }

// Raw returns the packed value snapshot directly, bypassing per-entity
// dispatch, for the single-component fast path.
func (v *View1[A]) Raw() []A { return v.a.Raw() }

// View2 is a stateless two-component query. The pivot (the smaller of
// the two pools) is chosen once, at construction.
type View2[A, B any] struct {
	a        *storage.Storage[A]
	b        *storage.Storage[B]
	excludes []Pool
	pivotIsA bool
}

// NewView2 builds a view requiring both A and B, excluding entities
// that have any of the given pools' component types.
func NewView2[A, B any](r *Registry, excludes ...Pool) *View2[A, B] {
	sa, sb := StorageOf[A](r), StorageOf[B](r)
	return &View2[A, B]{
		a: sa, b: sb,
		excludes: excludes,
		pivotIsA: sa.Len() <= sb.Len(),
	}
}

func (v *View2[A, B]) matches(e Entity) bool {
	return v.a.Contains(e) && v.b.Contains(e) && !excludedBy(v.excludes, e)
}

func (v *View2[A, B]) pivotPool() Pool {
	if v.pivotIsA {
		return v.a
	}
	return v.b
}

// SizeHint returns the pivot pool's size (an upper bound).
func (v *View2[A, B]) SizeHint() int { return v.pivotPool().Len() }

// Each visits every entity holding both A and B and none of the
// excluded types, pivoting on whichever pool was smaller at
// construction.
func (v *View2[A, B]) Each(fn func(Entity, *A, *B)) {
	if v.pivotIsA {
		v.EachPivotA(fn)
		return
	}
	v.EachPivotB(fn)
}

// EachPivotA iterates forcing A's pool as pivot regardless of relative
// size, the explicit-pivot escape hatch spec.md names `each<PivotT>`:
// Go has no way to parameterise a method on "one of this view's own
// type arguments", so the forced-pivot variants are named explicitly.
func (v *View2[A, B]) EachPivotA(fn func(Entity, *A, *B)) {
	v.a.EachReverse(func(e Entity) {
		if v.b.Contains(e) && !excludedBy(v.excludes, e) {
			fn(e, v.a.Get(e), v.b.Get(e))
		}
	})
}

// EachPivotB iterates forcing B's pool as pivot. See EachPivotA.
func (v *View2[A, B]) EachPivotB(fn func(Entity, *A, *B)) {
	v.b.EachReverse(func(e Entity) {
		if v.a.Contains(e) && !excludedBy(v.excludes, e) {
			fn(e, v.a.Get(e), v.b.Get(e))
		}
	})
}

// Find returns e's components and true if e matches the view.
func (v *View2[A, B]) Find(e Entity) (*A, *B, bool) {
	if !v.matches(e) {
		return nil, nil, false
	}
	return v.a.Get(e), v.b.Get(e), true
}

// Front returns the first matching entity in the pivot's dense order,
// or Null if none match.
func (v *View2[A, B]) Front() Entity { return frontOf(v.pivotPool(), v.matches) }

// Back returns the last matching entity in the pivot's dense order, or
// Null if none match.
func (v *View2[A, B]) Back() Entity { return backOf(v.pivotPool(), v.matches) }

// View3 is a stateless three-component query.
type View3[A, B, C any] struct {
	a        *storage.Storage[A]
	b        *storage.Storage[B]
	c        *storage.Storage[C]
	excludes []Pool
	pivot    int // 0=A, 1=B, 2=C
}

// NewView3 builds a view requiring A, B and C.
func NewView3[A, B, C any](r *Registry, excludes ...Pool) *View3[A, B, C] {
	sa, sb, sc := StorageOf[A](r), StorageOf[B](r), StorageOf[C](r)
	v := &View3[A, B, C]{a: sa, b: sb, c: sc, excludes: excludes}
	v.pivot = smallestOf(sa.Len(), sb.Len(), sc.Len())
	return v
}

func (v *View3[A, B, C]) matches(e Entity) bool {
	return v.a.Contains(e) && v.b.Contains(e) && v.c.Contains(e) && !excludedBy(v.excludes, e)
}

func (v *View3[A, B, C]) pool(i int) Pool {
	switch i {
	case 0:
		return v.a
	case 1:
		return v.b
	default:
		return v.c
	}
}

// SizeHint returns the pivot pool's size.
func (v *View3[A, B, C]) SizeHint() int { return v.pool(v.pivot).Len() }

// Each visits every entity holding A, B and C and none of the excluded
// types.
func (v *View3[A, B, C]) Each(fn func(Entity, *A, *B, *C)) {
	v.eachFrom(v.pivot, fn)
}

// EachPivotA iterates forcing A's pool as pivot. See View2.EachPivotA.
func (v *View3[A, B, C]) EachPivotA(fn func(Entity, *A, *B, *C)) { v.eachFrom(0, fn) }

// EachPivotB iterates forcing B's pool as pivot.
func (v *View3[A, B, C]) EachPivotB(fn func(Entity, *A, *B, *C)) { v.eachFrom(1, fn) }

// EachPivotC iterates forcing C's pool as pivot.
func (v *View3[A, B, C]) EachPivotC(fn func(Entity, *A, *B, *C)) { v.eachFrom(2, fn) }

func (v *View3[A, B, C]) eachFrom(pivot int, fn func(Entity, *A, *B, *C)) {
	v.pool(pivot).EachReverse(func(e Entity) {
		if v.matches(e) {
			fn(e, v.a.Get(e), v.b.Get(e), v.c.Get(e))
		}
	})
}

// Find returns e's components and true if e matches the view.
func (v *View3[A, B, C]) Find(e Entity) (*A, *B, *C, bool) {
	if !v.matches(e) {
		return nil, nil, nil, false
	}
	return v.a.Get(e), v.b.Get(e), v.c.Get(e), true
}

// Front returns the first matching entity in the pivot's dense order,
// or Null if none match.
func (v *View3[A, B, C]) Front() Entity { return frontOf(v.pool(v.pivot), v.matches) }

// Back returns the last matching entity in the pivot's dense order, or
// Null if none match.
func (v *View3[A, B, C]) Back() Entity { return backOf(v.pool(v.pivot), v.matches) }

// View4 is a stateless four-component query.
type View4[A, B, C, D any] struct {
	a        *storage.Storage[A]
	b        *storage.Storage[B]
	c        *storage.Storage[C]
	d        *storage.Storage[D]
	excludes []Pool
	pivot    int // 0=A, 1=B, 2=C, 3=D
}

// NewView4 builds a view requiring A, B, C and D.
func NewView4[A, B, C, D any](r *Registry, excludes ...Pool) *View4[A, B, C, D] {
	sa, sb, sc, sd := StorageOf[A](r), StorageOf[B](r), StorageOf[C](r), StorageOf[D](r)
	v := &View4[A, B, C, D]{a: sa, b: sb, c: sc, d: sd, excludes: excludes}
	v.pivot = smallestOf(sa.Len(), sb.Len(), sc.Len(), sd.Len())
	return v
}

func (v *View4[A, B, C, D]) matches(e Entity) bool {
	return v.a.Contains(e) && v.b.Contains(e) && v.c.Contains(e) && v.d.Contains(e) &&
		!excludedBy(v.excludes, e)
}

func (v *View4[A, B, C, D]) pool(i int) Pool {
	switch i {
	case 0:
		return v.a
	case 1:
		return v.b
	case 2:
		return v.c
	default:
		return v.d
	}
}

// SizeHint returns the pivot pool's size.
func (v *View4[A, B, C, D]) SizeHint() int { return v.pool(v.pivot).Len() }

// Each visits every entity holding A, B, C and D and none of the
// excluded types.
func (v *View4[A, B, C, D]) Each(fn func(Entity, *A, *B, *C, *D)) {
	v.eachFrom(v.pivot, fn)
}

// EachPivotA iterates forcing A's pool as pivot. See View2.EachPivotA.
func (v *View4[A, B, C, D]) EachPivotA(fn func(Entity, *A, *B, *C, *D)) { v.eachFrom(0, fn) }

// EachPivotB iterates forcing B's pool as pivot.
func (v *View4[A, B, C, D]) EachPivotB(fn func(Entity, *A, *B, *C, *D)) { v.eachFrom(1, fn) }

// EachPivotC iterates forcing C's pool as pivot.
func (v *View4[A, B, C, D]) EachPivotC(fn func(Entity, *A, *B, *C, *D)) { v.eachFrom(2, fn) }

// EachPivotD iterates forcing D's pool as pivot.
func (v *View4[A, B, C, D]) EachPivotD(fn func(Entity, *A, *B, *C, *D)) { v.eachFrom(3, fn) }

func (v *View4[A, B, C, D]) eachFrom(pivot int, fn func(Entity, *A, *B, *C, *D)) {
	v.pool(pivot).EachReverse(func(e Entity) {
		if v.matches(e) {
			fn(e, v.a.Get(e), v.b.Get(e), v.c.Get(e), v.d.Get(e))
		}
	})
}

// Find returns e's components and true if e matches the view.
func (v *View4[A, B, C, D]) Find(e Entity) (*A, *B, *C, *D, bool) {
	if !v.matches(e) {
		return nil, nil, nil, nil, false
	}
	return v.a.Get(e), v.b.Get(e), v.c.Get(e), v.d.Get(e), true
}

// Front returns the first matching entity in the pivot's dense order,
// or Null if none match.
func (v *View4[A, B, C, D]) Front() Entity { return frontOf(v.pool(v.pivot), v.matches) }

// Back returns the last matching entity in the pivot's dense order, or
// Null if none match.
func (v *View4[A, B, C, D]) Back() Entity { return backOf(v.pool(v.pivot), v.matches) }
