package ecs

import (
	"reflect"

	"github.com/ironframe/ecs/internal/core/ecs/storage"
	"github.com/ironframe/ecs/internal/core/ecs/typeset"
)

// groupDescriptor is the registry-visible shape of a group, used for
// the nested-compatibility check (§4.E, §4.G) and to recognise a repeated
// declaration of the same group. Membership is tracked
// with typeset.Set bitsets keyed by the registry's per-type ids rather
// than walking reflect.Type maps on every registration, the same
// fixed-bit-position idea the teacher's ComponentBitSet uses for its
// closed enum of component kinds, generalized here to the open set of
// Go types a registry actually sees.
type groupDescriptor struct {
	ownedTypes []reflect.Type

	owned, get, exclude typeset.Set
}

func newDescriptor(r *Registry, owned []reflect.Type, get, exclude []Pool) groupDescriptor {
	return groupDescriptor{
		ownedTypes: owned,
		owned:      idSetOf(r, owned),
		get:        idSetOfPools(r, get),
		exclude:    idSetOfPools(r, exclude),
	}
}

func idSetOf(r *Registry, ts []reflect.Type) typeset.Set {
	ids := make([]int, len(ts))
	for i, t := range ts {
		ids[i] = r.typeID(t)
	}
	return typeset.Of(ids...)
}

func idSetOfPools(r *Registry, pools []Pool) typeset.Set {
	ids := make([]int, len(pools))
	for i, p := range pools {
		ids[i] = r.typeID(p.Type())
	}
	return typeset.Of(ids...)
}

// sameAs reports whether two descriptors declare the same group.
func (d groupDescriptor) sameAs(other groupDescriptor) bool {
	return d.owned.Equals(other.owned) && d.get.Equals(other.get) && d.exclude.Equals(other.exclude)
}

// specialises reports whether d's owned, get, and exclude sets are all
// supersets of base's: d's predicate is at least as restrictive, so
// every entity d accepts is also accepted by base and d's prefix nests
// inside base's (§4.G "the second, more specific group carves its
// prefix inside the first's").
func (d groupDescriptor) specialises(base groupDescriptor) bool {
	return base.owned.IsSubsetOf(d.owned) &&
		base.get.IsSubsetOf(d.get) &&
		base.exclude.IsSubsetOf(d.exclude)
}

// groupHandle is the registry's bookkeeping entry for a registered
// group: the descriptor for compatibility checks against future
// registrations, and the live handle so an identical re-request returns
// the existing group instead of double-wiring it (§4.E "created on
// first request; persists").
type groupHandle struct {
	desc  groupDescriptor
	group any
}

// registerGroup adds desc to the group table. When an identical group
// already exists, its handle is returned instead and nothing is added.
// A descriptor whose owned set overlaps an existing group's is accepted
// only if it specialises that group: the table therefore always holds
// more general groups before more specific ones (§9 "partial order
// check at registration"), which is what keeps the signal handlers of
// nested groups firing in an order that preserves every prefix — the
// general group grows its prefix first on insert, and the specific
// group shrinks its own first on evict.
func registerGroup(r *Registry, desc groupDescriptor, group any) (any, error) {
	for _, g := range r.groups {
		if g.desc.sameAs(desc) {
			return g.group, nil
		}
		if !g.desc.owned.Intersects(desc.owned) {
			continue
		}
		if !desc.specialises(g.desc) {
			return nil, newGroupConflictError(
				"owned set overlaps an existing group incompatibly (declare more general groups first)",
				desc.ownedTypes...)
		}
	}
	r.groups = append(r.groups, &groupHandle{desc: desc, group: group})
	return nil, nil
}

// NonOwningGroup maintains a private index of entities satisfying
// get ∖ exclude (§4.G), kept current by signal subscriptions on the
// involved storages.
type NonOwningGroup struct {
	index *storage.SparseSet
}

// Each calls fn for every indexed entity.
func (g *NonOwningGroup) Each(fn func(Entity)) { g.index.Each(fn) }

// Len reports the number of entities currently in the group.
func (g *NonOwningGroup) Len() int { return g.index.Len() }

// Sort reorders the private index by less. This never touches the
// underlying storages (§4.G: "does NOT reorder underlying storages").
func (g *NonOwningGroup) Sort(less func(a, b Entity) bool) {
	g.index.Sort(less, g.index.Swap)
}

// satisfies reports whether e currently has every get storage and none
// of the exclude storages.
func satisfies(e Entity, get, exclude []Pool) bool {
	return satisfiesIgnoring(e, get, exclude, nil)
}

// satisfiesIgnoring is satisfies, but treats ignore as if it weren't in
// the exclude list. A storage's on_destroy fires before the component is
// actually gone (§4.C), so a group reacting to an exclude type's
// on_destroy must evaluate as though that one type had already been
// removed rather than trusting its still-stale Contains.
func satisfiesIgnoring(e Entity, get, exclude []Pool, ignore Pool) bool {
	for _, st := range get {
		if !st.Contains(e) {
			return false
		}
	}
	for _, st := range exclude {
		if st == ignore {
			continue
		}
		if st.Contains(e) {
			return false
		}
	}
	return true
}

// NewNonOwningGroup registers a group over the get pools, excluding the
// exclude pools, and returns its persistent handle. Pools come from
// StorageOf, which materialises a not-yet-touched type's storage so the
// group observes it from the moment of declaration. get must be
// non-empty.
func NewNonOwningGroup(r *Registry, get, exclude []Pool) (*NonOwningGroup, error) {
	if len(get) == 0 {
		panic("ecs: a non-owning group needs at least one observed pool")
	}
	g := &NonOwningGroup{index: storage.NewSparseSet(storage.SwapAndPop, storage.DefaultPageSize)}
	prior, err := registerGroup(r, newDescriptor(r, nil, get, exclude), g)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		return prior.(*NonOwningGroup), nil
	}

	pivot := get[0]
	for _, st := range get[1:] {
		if st.Len() < pivot.Len() {
			pivot = st
		}
	}
	pivot.Each(func(e Entity) {
		if satisfies(e, get, exclude) {
			g.index.Push(e)
		}
	})

	insertIfMatch := func(owner any, e Entity) {
		if !g.index.Contains(e) && satisfies(e, get, exclude) {
			g.index.Push(e)
		}
	}
	removeIfTracked := func(owner any, e Entity) {
		if g.index.Contains(e) {
			g.index.Erase(e)
		}
	}

	for _, st := range get {
		st.OnConstruct().Connect(insertIfMatch)
		st.OnDestroy().Connect(removeIfTracked)
	}
	for _, st := range exclude {
		st := st
		st.OnDestroy().Connect(func(owner any, e Entity) {
			if !g.index.Contains(e) && satisfiesIgnoring(e, get, exclude, st) {
				g.index.Push(e)
			}
		})
		st.OnConstruct().Connect(removeIfTracked)
	}

	return g, nil
}

// OwningGroup1 owns a single component type, observing additional get
// types without owning them.
type OwningGroup1[A any] struct {
	owned  *storage.Storage[A]
	length *int
}

// Len reports the number of entities currently in the owned prefix.
func (g *OwningGroup1[A]) Len() int { return *g.length }

// Each visits the first Len entities of the owned pool, which are
// exactly the entities satisfying the group's predicate.
func (g *OwningGroup1[A]) Each(fn func(Entity, *A)) {
	n := *g.length
	for i := 0; i < n; i++ {
		e := g.owned.At(i)
		fn(e, g.owned.Get(e))
	}
}

// Sort reorders the owned prefix by less, preserving the invariant that
// entity i occupies the same position across every pool the group owns
// (trivial here: there is only one).
func (g *OwningGroup1[A]) Sort(less func(a, b Entity) bool) {
	sortPrefix(g.owned.Set(), *g.length, less, g.owned.Swap)
}

func sortPrefix(set *storage.SparseSet, length int, less func(a, b Entity) bool, swap func(i, j int)) {
	for i := 1; i < length; i++ {
		for j := i; j > 0 && less(set.At(j), set.At(j-1)); j-- {
			swap(j, j-1)
		}
	}
}

// NewOwningGroup1 registers an owning group over A, additionally
// observing the get pools and excluding the exclude pools.
func NewOwningGroup1[A any](r *Registry, get, exclude []Pool) (*OwningGroup1[A], error) {
	sa := StorageOf[A](r)
	// An owned pool must stay hole-free: the prefix partition swaps
	// positions freely, which an in-place pool's tombstoned slots would
	// poison.
	if sa.Policy() == storage.InPlaceDelete {
		panic("ecs: an owning group requires swap-and-pop storage")
	}

	owned := []reflect.Type{typeOf[A]()}
	length := 0
	g := &OwningGroup1[A]{owned: sa, length: &length}
	prior, err := registerGroup(r, newDescriptor(r, owned, get, exclude), g)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		shared, ok := prior.(*OwningGroup1[A])
		if !ok {
			return nil, newGroupConflictError("an identical group is already registered with a different shape", owned...)
		}
		return shared, nil
	}
	sa.MarkOwned(true)

	// recompute trusts Contains for every involved storage: safe for
	// on_construct (which fires after the value exists) but never wired
	// to an on_destroy, since that fires before removal and would read a
	// stale "still present" for the type that is in fact going away
	// (§4.C).
	recompute := func(owner any, e Entity) {
		eligible := sa.Contains(e) && satisfies(e, get, exclude)
		maintainOwning1(g, sa, e, eligible)
	}
	// forceIneligible handles on_destroy of a required (owned or get)
	// type: the component is on its way out, so the entity cannot remain
	// eligible regardless of what Contains still reports.
	forceIneligible := func(owner any, e Entity) {
		maintainOwning1(g, sa, e, false)
	}

	// Handlers that can grow the prefix are appended and handlers that
	// can shrink it are prepended: registration order runs general
	// groups before the groups that specialise them (registerGroup
	// enforces that order), so on insert the wider prefix extends before
	// the nested one claims its slot, and on evict the nested prefix
	// releases the entity before the wider one moves it.
	sa.OnConstruct().Connect(recompute)
	sa.OnDestroy().ConnectFront(forceIneligible)
	for _, st := range get {
		st.OnConstruct().Connect(recompute)
		st.OnDestroy().ConnectFront(forceIneligible)
	}
	for _, st := range exclude {
		st := st
		st.OnConstruct().ConnectFront(recompute)
		st.OnDestroy().Connect(func(owner any, e Entity) {
			eligible := sa.Contains(e) && satisfiesIgnoring(e, get, exclude, st)
			maintainOwning1(g, sa, e, eligible)
		})
	}

	// Single-pass partition over A's current dense order. Each swap
	// exchanges position i with the prefix end, which is never past i,
	// so the positions still to be visited are untouched and every
	// entity is examined exactly once.
	n := sa.Len()
	for i := 0; i < n; i++ {
		e := sa.At(i)
		maintainOwning1(g, sa, e, satisfies(e, get, exclude))
	}

	return g, nil
}

func maintainOwning1[A any](g *OwningGroup1[A], owned *storage.Storage[A], e Entity, eligible bool) {
	pos, inOwned := owned.Set().TryIndex(e)
	inPrefix := inOwned && pos < *g.length

	switch {
	case eligible && !inPrefix && inOwned:
		owned.Swap(pos, *g.length)
		*g.length++
	case !eligible && inPrefix:
		last := *g.length - 1
		owned.Swap(pos, last)
		*g.length--
	}
}

// OwningGroup2 owns two component types, keeping their dense arrays in
// lock-step across the owned prefix.
type OwningGroup2[A, B any] struct {
	a      *storage.Storage[A]
	ownedB *storage.Storage[B]
	length *int
}

// Len reports the number of entities currently in the owned prefix.
func (g *OwningGroup2[A, B]) Len() int { return *g.length }

// Each visits the first Len entities shared by both owned pools.
func (g *OwningGroup2[A, B]) Each(fn func(Entity, *A, *B)) {
	n := *g.length
	for i := 0; i < n; i++ {
		e := g.a.At(i)
		fn(e, g.a.Get(e), g.ownedB.Get(e))
	}
}

// Sort reorders the owned prefix by less, mirroring the reorder across
// both owned pools so they stay in lock-step.
func (g *OwningGroup2[A, B]) Sort(less func(a, b Entity) bool) {
	sortPrefix(g.a.Set(), *g.length, less, func(i, j int) {
		g.a.Swap(i, j)
		g.ownedB.Swap(i, j)
	})
}

// NewOwningGroup2 registers an owning group over A and B, additionally
// observing the get pools and excluding the exclude pools.
func NewOwningGroup2[A, B any](r *Registry, get, exclude []Pool) (*OwningGroup2[A, B], error) {
	sa, sb := StorageOf[A](r), StorageOf[B](r)
	if sa.Policy() == storage.InPlaceDelete || sb.Policy() == storage.InPlaceDelete {
		panic("ecs: an owning group requires swap-and-pop storage")
	}

	owned := []reflect.Type{typeOf[A](), typeOf[B]()}
	length := 0
	g := &OwningGroup2[A, B]{a: sa, ownedB: sb, length: &length}
	prior, err := registerGroup(r, newDescriptor(r, owned, get, exclude), g)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		shared, ok := prior.(*OwningGroup2[A, B])
		if !ok {
			// Same owned/get/exclude sets but a different type
			// arrangement (e.g. the two owned types in the other order):
			// the existing group already maintains these pools, and a
			// second handler set over them would double-swap.
			return nil, newGroupConflictError("an identical group is already registered with a different shape", owned...)
		}
		return shared, nil
	}
	sa.MarkOwned(true)
	sb.MarkOwned(true)

	recompute := func(owner any, e Entity) {
		eligible := sa.Contains(e) && sb.Contains(e) && satisfies(e, get, exclude)
		maintainOwning2(g, sa, sb, e, eligible)
	}
	forceIneligible := func(owner any, e Entity) {
		maintainOwning2(g, sa, sb, e, false)
	}

	// Same append/prepend split as OwningGroup1: growth handlers run in
	// registration (general-first) order, shrink handlers in reverse.
	sa.OnConstruct().Connect(recompute)
	sa.OnDestroy().ConnectFront(forceIneligible)
	sb.OnConstruct().Connect(recompute)
	sb.OnDestroy().ConnectFront(forceIneligible)
	for _, st := range get {
		st.OnConstruct().Connect(recompute)
		st.OnDestroy().ConnectFront(forceIneligible)
	}
	for _, st := range exclude {
		st := st
		st.OnConstruct().ConnectFront(recompute)
		st.OnDestroy().Connect(func(owner any, e Entity) {
			eligible := sa.Contains(e) && sb.Contains(e) && satisfiesIgnoring(e, get, exclude, st)
			maintainOwning2(g, sa, sb, e, eligible)
		})
	}

	// Same single-pass partition as OwningGroup1, driven by A's dense
	// order; B's own order is not scanned, only its membership and
	// position for each candidate entity from A.
	n := sa.Len()
	for i := 0; i < n; i++ {
		e := sa.At(i)
		maintainOwning2(g, sa, sb, e, sb.Contains(e) && satisfies(e, get, exclude))
	}

	return g, nil
}

func maintainOwning2[A, B any](g *OwningGroup2[A, B], sa *storage.Storage[A], sb *storage.Storage[B], e Entity, eligible bool) {
	posA, inA := sa.Set().TryIndex(e)
	inPrefix := inA && posA < *g.length

	switch {
	case eligible && !inPrefix && inA:
		posB, _ := sb.Set().TryIndex(e)
		sa.Swap(posA, *g.length)
		sb.Swap(posB, *g.length)
		*g.length++
	case !eligible && inPrefix:
		last := *g.length - 1
		posB, _ := sb.Set().TryIndex(e)
		sa.Swap(posA, last)
		sb.Swap(posB, last)
		*g.length--
	}
}
