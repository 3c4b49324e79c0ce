package storage

import (
	"fmt"

	"github.com/ironframe/ecs/internal/core/ecs/entity"
)

// Policy selects how a SparseSet reacts to erase: either the dense array
// stays contiguous by swapping the last element into the hole
// (SwapAndPop), or the hole is left in place and tombstoned for reuse
// (InPlaceDelete). §3: "policy ∈ {swap_and_pop, in_place_delete}".
type Policy int

const (
	// SwapAndPop moves dense.back() into the erased position and pops
	// the back, so iteration order is LIFO-with-swap.
	SwapAndPop Policy = iota
	// InPlaceDelete marks the erased position as a tombstone and reuses
	// it on the next push, preserving the relative order of surviving
	// entries.
	InPlaceDelete
)

const notPresent = -1

// SparseSet is the paged sparse-set described in §4.B: a dense array of
// entities paired with a paged sparse index from entity index to dense
// position. It is the core of all typed storage (storage.go wraps one
// in lock-step with a value array) and is also used standalone as a
// group's private index set.
type SparseSet struct {
	policy Policy
	sparse Paged[int32]
	dense  []entity.Entity
	// free lists the dense positions freed by an InPlaceDelete erase,
	// available for reuse by the next push. Unlike the registry's
	// entity free list, this isn't embedded in the dense array itself:
	// the dense slot already holds a full Entity value with no spare
	// bits to repurpose, so a plain stack costs nothing extra and needs
	// no bit-packing tricks.
	free []int32
}

// NewSparseSet creates an empty SparseSet using the given policy and
// sparse-page size. A non-positive pageSize falls back to
// DefaultPageSize.
func NewSparseSet(policy Policy, pageSize int) *SparseSet {
	return &SparseSet{
		policy: policy,
		sparse: *NewPaged[int32](pageSize),
	}
}

// Policy reports the set's erase policy.
func (s *SparseSet) Policy() Policy { return s.policy }

// Len returns the number of dense slots in use, holes included; under
// SwapAndPop this equals the number of entities stored.
func (s *SparseSet) Len() int { return len(s.dense) }

// Contains reports whether e (index and version) is present. A sparse
// slot that was allocated but never written reads as zero, which may be
// out of range or point at some other entity's dense slot; the range
// check and the dense comparison settle both.
func (s *SparseSet) Contains(e entity.Entity) bool {
	pos := s.sparse.Peek(e.Index())
	if pos == nil || *pos < 0 || int(*pos) >= len(s.dense) {
		return false
	}
	return s.dense[*pos] == e
}

// Index returns the dense position of e. Precondition: Contains(e).
func (s *SparseSet) Index(e entity.Entity) int {
	pos, ok := s.TryIndex(e)
	if !ok {
		panic(fmt.Sprintf("storage: %s is not present", e))
	}
	return pos
}

// TryIndex is the non-panicking form of Index, used by callers (views,
// groups) that only want to test membership and would otherwise call
// Contains immediately followed by Index.
func (s *SparseSet) TryIndex(e entity.Entity) (int, bool) {
	pos := s.sparse.Peek(e.Index())
	if pos == nil || *pos < 0 || int(*pos) >= len(s.dense) || s.dense[*pos] != e {
		return 0, false
	}
	return int(*pos), true
}

// At returns the entity stored at dense position pos.
func (s *SparseSet) At(pos int) entity.Entity { return s.dense[pos] }

// Push inserts e. Precondition: !Contains(e).
func (s *SparseSet) Push(e entity.Entity) int {
	if s.Contains(e) {
		panic(fmt.Sprintf("storage: %s already present", e))
	}

	var pos int
	if s.policy == InPlaceDelete && len(s.free) > 0 {
		pos = int(s.free[len(s.free)-1])
		s.free = s.free[:len(s.free)-1]
		s.dense[pos] = e
	} else {
		pos = len(s.dense)
		s.dense = append(s.dense, e)
	}

	*s.sparse.At(e.Index()) = int32(pos)
	return pos
}

// Erase removes e. Precondition: Contains(e). Returns the dense position
// that now needs attention from any lock-step value array: for
// SwapAndPop this is the erased slot (now holding the moved element);
// for InPlaceDelete it is the erased slot itself (now a hole).
func (s *SparseSet) Erase(e entity.Entity) int {
	pos, ok := s.TryIndex(e)
	if !ok {
		panic(fmt.Sprintf("storage: %s is not present", e))
	}

	*s.sparse.At(e.Index()) = notPresent

	switch s.policy {
	case SwapAndPop:
		last := len(s.dense) - 1
		moved := s.dense[last]
		s.dense[pos] = moved
		s.dense = s.dense[:last]
		if pos != last {
			*s.sparse.At(moved.Index()) = int32(pos)
		}
	case InPlaceDelete:
		s.dense[pos] = entity.Tombstone
		s.free = append(s.free, int32(pos))
	}

	return pos
}

// Swap exchanges the entities at dense positions i and j, updating both
// sparse entries. Typed storage overrides this behavior by also
// swapping its value array; SparseSet.Swap only moves identifiers.
func (s *SparseSet) Swap(i, j int) {
	if i == j {
		return
	}
	s.dense[i], s.dense[j] = s.dense[j], s.dense[i]
	if s.dense[i] != entity.Tombstone {
		*s.sparse.At(s.dense[i].Index()) = int32(i)
	}
	if s.dense[j] != entity.Tombstone {
		*s.sparse.At(s.dense[j].Index()) = int32(j)
	}
}

// Each calls fn for every live entity in dense order (forward). Under
// InPlaceDelete, tombstoned slots are skipped at the iterator level, not
// surfaced to fn (§9 open question: "skip at the iterator level, not the
// user level").
func (s *SparseSet) Each(fn func(entity.Entity)) {
	for _, e := range s.dense {
		if e == entity.Tombstone {
			continue
		}
		fn(e)
	}
}

// EachReverse calls fn for every live entity in reverse dense order.
// Views pivot with reverse iteration so that erasing the
// currently-visited entity (which swaps the last element into its slot
// under SwapAndPop) never skips or revisits an entity.
func (s *SparseSet) EachReverse(fn func(entity.Entity)) {
	for i := len(s.dense) - 1; i >= 0; i-- {
		e := s.dense[i]
		if e == entity.Tombstone {
			continue
		}
		fn(e)
	}
}

// Compact moves every live entry ahead of the tombstoned holes and
// truncates the holes away, leaving the dense array contiguous. swap
// must move any lock-step value array alongside the identifiers. A
// SwapAndPop set is always contiguous, so this is a no-op for it.
func (s *SparseSet) Compact(swap func(i, j int)) {
	if len(s.free) == 0 {
		return
	}
	n := 0
	for i := 0; i < len(s.dense); i++ {
		if s.dense[i] == entity.Tombstone {
			continue
		}
		if i != n {
			swap(n, i)
		}
		n++
	}
	s.dense = s.dense[:n]
	s.free = nil
}

// SortAs reorders this set's dense array so the entities it shares with
// other appear in the same relative order as in other; entities unique
// to this set keep their relative order and are placed after the shared
// ones. Callers layered on top of SparseSet (storage.Storage) must pass
// a swap that keeps value arrays in lock-step. Holes left by
// InPlaceDelete erases are compacted away first.
func (s *SparseSet) SortAs(other *SparseSet, swap func(i, j int)) {
	s.Compact(swap)

	target := make([]entity.Entity, 0, len(s.dense))
	for i := 0; i < other.Len(); i++ {
		e := other.At(i)
		if e != entity.Tombstone && s.Contains(e) {
			target = append(target, e)
		}
	}
	shared := make(map[entity.Entity]struct{}, len(target))
	for _, e := range target {
		shared[e] = struct{}{}
	}
	for _, e := range s.dense {
		if _, ok := shared[e]; !ok {
			target = append(target, e)
		}
	}

	// Positions are fixed left to right; placing the entity that belongs
	// at p displaces whatever sat there to a not-yet-final slot.
	for p, e := range target {
		if cur := s.Index(e); cur != p {
			swap(cur, p)
		}
	}
}

// Sort reorders the dense array (and, via swap, any lock-step value
// array) according to less, a strict weak ordering over entities. Holes
// left by InPlaceDelete erases are compacted away first. It uses a
// plain insertion sort: simple, stable, and fine for the infrequent,
// usually-small, nearly-sorted resorts this core expects; callers who
// need an asymptotically better sort over huge pools can still call
// SortAs against an externally-sorted reference set.
func (s *SparseSet) Sort(less func(a, b entity.Entity) bool, swap func(i, j int)) {
	s.Compact(swap)
	for i := 1; i < len(s.dense); i++ {
		for j := i; j > 0 && less(s.dense[j], s.dense[j-1]); j-- {
			swap(j, j-1)
		}
	}
}

// Clear removes every entity and releases all sparse pages.
func (s *SparseSet) Clear() {
	s.dense = nil
	s.free = nil
	s.sparse.Reset()
}

// ShrinkToFit releases sparse pages that no longer contain any present
// entry.
func (s *SparseSet) ShrinkToFit() {
	present := make(map[uint32]struct{}, len(s.dense))
	for _, e := range s.dense {
		if e != entity.Tombstone {
			present[e.Index()] = struct{}{}
		}
	}
	s.sparse.pages = shrinkPages(s.sparse.pages, s.sparse.pageSize, present)
}

func shrinkPages(pages [][]int32, pageSize int, present map[uint32]struct{}) [][]int32 {
	for pg, page := range pages {
		if page == nil {
			continue
		}
		keep := false
		base := pg * pageSize
		for off := range page {
			if _, ok := present[uint32(base+off)]; ok {
				keep = true
				break
			}
		}
		if !keep {
			pages[pg] = nil
		}
	}
	for len(pages) > 0 && pages[len(pages)-1] == nil {
		pages = pages[:len(pages)-1]
	}
	return pages
}
