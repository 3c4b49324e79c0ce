package ecs

import (
	"reflect"

	"github.com/ironframe/ecs/internal/core/ecs/storage"
)

// Config tunes the page sizes and default erase policy new storages are
// created with. It plays the role the teacher's *WorldConfig* plays for
// World: a value threaded through the registry at construction instead
// of ambient global state.
type Config struct {
	// SparsePageSize is not read when storages are created: every
	// storage's sparse index table uses storage.DefaultPageSize,
	// whatever this field holds.
	SparsePageSize int
	// ValuePageSize is the page size of every storage's value array.
	// Zero selects storage.DefaultPageSize.
	ValuePageSize int
	// DefaultPolicy is the erase policy newly created storages use when
	// the call site doesn't request one explicitly via
	// RegisterPolicy.
	DefaultPolicy storage.Policy
}

// DefaultConfig mirrors the teacher's NewWorldConfig(): sane defaults
// for a registry that hasn't been tuned for a specific workload.
func DefaultConfig() Config {
	return Config{
		SparsePageSize: storage.DefaultPageSize,
		ValuePageSize:  1024,
		DefaultPolicy:  storage.SwapAndPop,
	}
}

// slot is one entry of the registry's entity array. A slot that is on
// the free list repurposes its Entity's index field to point at the
// next free slot (§4.E, §9 "free list embedded in entity array"); Null
// terminates the chain.
type slot struct {
	id Entity
}

// Registry owns the entity identifier pool, the type-indexed table of
// component storages, context variables, and the group registry. It is
// the single mutation point of an ECS world; every other type in this
// package (View, Group, Storage) reads through it or is wired into it.
type Registry struct {
	cfg Config

	slots      []slot
	freeHead   uint32
	aliveCount int

	storages map[reflect.Type]storage.ErasedStorage
	policies map[reflect.Type]storage.Policy

	groups []*groupHandle

	context map[reflect.Type]any

	typeIDs    map[reflect.Type]int
	nextTypeID int
}

// New creates an empty registry using cfg.
func New(cfg Config) *Registry {
	return &Registry{
		cfg:      cfg,
		freeHead: uint32(Null.Index()),
		storages: make(map[reflect.Type]storage.ErasedStorage),
		policies: make(map[reflect.Type]storage.Policy),
		context:  make(map[reflect.Type]any),
		typeIDs:  make(map[reflect.Type]int),
	}
}

// typeID returns t's small dense integer id, assigning the next free one
// the first time t is seen. Group descriptors use these ids to test
// owned/get/exclude set relationships with typeset.Set instead of
// walking reflect.Type maps (§4.G).
func (r *Registry) typeID(t reflect.Type) int {
	if id, ok := r.typeIDs[t]; ok {
		return id
	}
	id := r.nextTypeID
	r.typeIDs[t] = id
	r.nextTypeID++
	return id
}

// Len reports the total number of slots ever allocated, alive or not.
func (r *Registry) Len() int { return len(r.slots) }

// Alive reports the number of currently live entities.
func (r *Registry) Alive() int { return r.aliveCount }

// Create allocates a new entity, reusing a released slot if the free
// list is non-empty.
func (r *Registry) Create() Entity {
	if r.freeHead != Null.Index() {
		idx := r.freeHead
		s := &r.slots[idx]
		r.freeHead = s.id.Index()
		s.id = Make(idx, s.id.Version())
		r.aliveCount++
		return s.id
	}

	idx := uint32(len(r.slots))
	id := Make(idx, 0)
	r.slots = append(r.slots, slot{id: id})
	r.aliveCount++
	return id
}

// CreateHint allocates the entity at hint's index, detaching it from the
// free list (or growing the slot array to reach it) and adopting hint's
// version. If the slot is already alive, behaves as Create.
//
// Precondition: hint.Version() != Tombstone.Version(). §9 leaves this
// case ("hint-based creation across a wrap") as an open question between
// a silent remap and a precondition violation; this module takes the
// precondition-violation reading, consistent with every other tombstone
// encounter in the core being caller error rather than something the
// registry repairs on the caller's behalf.
func (r *Registry) CreateHint(hint Entity) Entity {
	if hint.Version() == Tombstone.Version() {
		panic("ecs: CreateHint called with a tombstone version")
	}
	idx := hint.Index()

	if int(idx) < len(r.slots) {
		if r.isFree(idx) {
			r.detachFree(idx)
			r.slots[idx].id = Make(idx, hint.Version())
			r.aliveCount++
			return r.slots[idx].id
		}
		return r.Create()
	}

	for uint32(len(r.slots)) < idx {
		freeIdx := uint32(len(r.slots))
		r.slots = append(r.slots, slot{id: Make(freeIdx, 0)})
		r.pushFree(freeIdx)
	}

	id := Make(idx, hint.Version())
	r.slots = append(r.slots, slot{id: id})
	r.aliveCount++
	return id
}

func (r *Registry) isFree(idx uint32) bool {
	n := r.freeHead
	for n != Null.Index() {
		if n == idx {
			return true
		}
		n = r.slots[n].id.Index()
	}
	return false
}

func (r *Registry) detachFree(idx uint32) {
	if r.freeHead == idx {
		r.freeHead = r.slots[idx].id.Index()
		return
	}
	n := r.freeHead
	for n != Null.Index() {
		next := r.slots[n].id.Index()
		if next == idx {
			r.slots[n].id = Make(r.slots[idx].id.Index(), r.slots[n].id.Version())
			return
		}
		n = next
	}
}

func (r *Registry) pushFree(idx uint32) {
	r.slots[idx].id = Make(r.freeHead, r.slots[idx].id.Version())
	r.freeHead = idx
}

// Valid reports whether e is exactly the id stored at its slot. A slot
// on the free list repurposes its index field to point at the next free
// slot, so it never self-references and can't compare equal to e here;
// a retired slot holds the tombstone version, which the version guard
// rejects. No free-list walk is needed.
func (r *Registry) Valid(e Entity) bool {
	if e == Null || e.Version() == MaxVersion {
		return false
	}
	idx := e.Index()
	if int(idx) >= len(r.slots) {
		return false
	}
	return r.slots[idx].id == e
}

// Release retires e without touching any component storage, bumping the
// slot's version so stale copies of e stop validating.
// Precondition: e is valid and has no attached components.
func (r *Registry) Release(e Entity) {
	r.ReleaseVersion(e, NextVersion(e.Version()))
}

// ReleaseVersion is Release with a caller-provided replacement version
// (§4.E "optionally override the version"). A version equal to
// MaxVersion retires the slot outright: it stays off the free list and
// its index is never recycled.
func (r *Registry) ReleaseVersion(e Entity, version uint32) {
	if !r.Valid(e) {
		panic("ecs: release of an entity that is not valid: " + e.String())
	}
	idx := e.Index()
	r.slots[idx].id = Make(idx, version)
	if version != MaxVersion {
		r.pushFree(idx)
	}
	r.aliveCount--
}

// Destroy erases every component attached to e from its storage, then
// releases e.
func (r *Registry) Destroy(e Entity) {
	for _, st := range r.storages {
		st.Remove(r, e)
	}
	r.Release(e)
}

// Current returns the version currently stored at e's slot, whether or
// not it matches e's own version field (§6 "current_version").
// Precondition: e's index is within the slot array.
func (r *Registry) Current(e Entity) uint32 {
	return r.slots[e.Index()].id.Version()
}

// CreateN allocates n new entities in one call.
func (r *Registry) CreateN(n int) []Entity {
	out := make([]Entity, n)
	for i := range out {
		out[i] = r.Create()
	}
	return out
}

// DestroyN destroys every entity in es.
func (r *Registry) DestroyN(es []Entity) {
	for _, e := range es {
		r.Destroy(e)
	}
}

// Each calls fn for every live entity.
func (r *Registry) Each(fn func(Entity)) {
	for i := range r.slots {
		idx := uint32(i)
		if r.slots[idx].id.Index() == idx && r.Valid(r.slots[idx].id) {
			fn(r.slots[idx].id)
		}
	}
}

// Orphans calls fn for every live entity that has no components in any
// storage.
func (r *Registry) Orphans(fn func(Entity)) {
	r.Each(func(e Entity) {
		for _, st := range r.storages {
			if st.Contains(e) {
				return
			}
		}
		fn(e)
	})
}

// Clear destroys every entity and drops every storage, group, and
// context variable.
func (r *Registry) Clear() {
	r.slots = nil
	r.freeHead = Null.Index()
	r.aliveCount = 0
	r.storages = make(map[reflect.Type]storage.ErasedStorage)
	r.groups = nil
	r.context = make(map[reflect.Type]any)
	r.typeIDs = make(map[reflect.Type]int)
	r.nextTypeID = 0
}

// Reserve grows the entity slot array's capacity to at least n slots
// without allocating any new live or free entities, so a caller that
// knows its expected entity count up front avoids repeated slice growth
// (§6 "reserve(n)").
func (r *Registry) Reserve(n int) {
	if n <= cap(r.slots) {
		return
	}
	grown := make([]slot, len(r.slots), n)
	copy(grown, r.slots)
	r.slots = grown
}

// ShrinkToFit releases every component storage's sparse pages that no
// longer back a present entry (§6 "shrink_to_fit"). It never discards
// live component values, only the sparse index pages that have gone
// entirely empty.
func (r *Registry) ShrinkToFit() {
	for _, st := range r.storages {
		st.ShrinkToFit()
	}
}

// RegisterPolicy fixes the erase policy a component type's storage is
// created with, the first time it is touched. It must be called before
// the type's first Emplace/GetOrEmplace/storage access; calling it after
// the storage already exists has no effect on the already-created
// storage.
func RegisterPolicy[T any](r *Registry, policy storage.Policy) {
	r.policies[typeOf[T]()] = policy
}

// typeOf resolves T's reflect.Type without instantiating a value, so it
// also works for interface component types, which a boxed zero value
// would erase to a nil type.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// storageOf returns (creating if necessary) the typed storage for T.
func storageOf[T any](r *Registry) *storage.Storage[T] {
	t := typeOf[T]()
	if existing, ok := r.storages[t]; ok {
		return existing.(*storage.Storage[T])
	}
	policy, ok := r.policies[t]
	if !ok {
		policy = r.cfg.DefaultPolicy
	}
	s := storage.New[T](policy, r.cfg.ValuePageSize)
	r.storages[t] = s
	return s
}

// StorageOf exposes the typed storage for T, creating it on first
// access. Views and groups use this to read pools directly; ordinary
// callers should prefer the Emplace/Get/... free functions below.
func StorageOf[T any](r *Registry) *storage.Storage[T] {
	return storageOf[T](r)
}

// Pool is the type-erased face of a component storage, the currency
// view and group declarations trade in. Obtain one with StorageOf,
// which also materialises the storage on first touch so declarations
// naming a not-yet-seen component type still observe it from the start.
type Pool = storage.ErasedStorage

// OnConstruct returns the sink fired after a T is created for any
// entity (§6 "on_construct<T>").
func OnConstruct[T any](r *Registry) *storage.Sink {
	return storageOf[T](r).OnConstruct()
}

// OnUpdate returns the sink fired after a T is replaced or patched.
func OnUpdate[T any](r *Registry) *storage.Sink {
	return storageOf[T](r).OnUpdate()
}

// OnDestroy returns the sink fired just before a T is erased.
func OnDestroy[T any](r *Registry) *storage.Sink {
	return storageOf[T](r).OnDestroy()
}

// Emplace constructs a new T for e. Precondition: e doesn't already have
// one.
func Emplace[T any](r *Registry, e Entity, value T) *T {
	return storageOf[T](r).Emplace(r, e, value)
}

// GetOrEmplace returns e's existing T, or constructs it from value if
// absent.
func GetOrEmplace[T any](r *Registry, e Entity, value T) *T {
	return storageOf[T](r).GetOrEmplace(r, e, value)
}

// InsertRange bulk-constructs a T for each entity in entities from the
// value at the same position in values, firing on_construct once per
// entity (§4.C, §6 "insert(range)"). Precondition: len(entities) ==
// len(values), and none of entities already has a T.
func InsertRange[T any](r *Registry, entities []Entity, values []T) {
	storageOf[T](r).InsertRange(r, entities, values)
}

// EmplaceOrReplace constructs value for e if absent, otherwise replaces
// the existing component and fires on_update.
func EmplaceOrReplace[T any](r *Registry, e Entity, value T) *T {
	s := storageOf[T](r)
	if s.Contains(e) {
		return s.Replace(r, e, value)
	}
	return s.Emplace(r, e, value)
}

// Replace overwrites e's existing T. Precondition: present.
func Replace[T any](r *Registry, e Entity, value T) *T {
	return storageOf[T](r).Replace(r, e, value)
}

// Patch mutates e's existing T in place via fn. Precondition: present.
func Patch[T any](r *Registry, e Entity, fn func(*T)) *T {
	return storageOf[T](r).Patch(r, e, fn)
}

// Remove erases e's T if present and reports whether it removed one.
func Remove[T any](r *Registry, e Entity) int {
	s := storageOf[T](r)
	if s.Contains(e) {
		s.Erase(r, e)
		return 1
	}
	return 0
}

// Erase removes e's T. Precondition: present.
func Erase[T any](r *Registry, e Entity) {
	storageOf[T](r).Erase(r, e)
}

// ClearType erases every T component, firing on_destroy once per entity
// in reverse order (§4.C, §6 "clear<T>"), without destroying the
// entities themselves or touching any other component type.
func ClearType[T any](r *Registry) {
	storageOf[T](r).Clear(r)
}

// Get returns a pointer to e's T. Precondition: present.
func Get[T any](r *Registry, e Entity) *T {
	return storageOf[T](r).Get(e)
}

// TryGet returns a pointer to e's T and true, or nil and false.
func TryGet[T any](r *Registry, e Entity) (*T, bool) {
	return storageOf[T](r).GetIf(e)
}

// AllOf reports whether e has every one of the given component types.
func AllOf(r *Registry, e Entity, types ...reflect.Type) bool {
	for _, t := range types {
		st, ok := r.storages[t]
		if !ok || !st.Contains(e) {
			return false
		}
	}
	return true
}

// AnyOf reports whether e has at least one of the given component
// types.
func AnyOf(r *Registry, e Entity, types ...reflect.Type) bool {
	for _, t := range types {
		if st, ok := r.storages[t]; ok && st.Contains(e) {
			return true
		}
	}
	return false
}

// Sortable reports whether T's storage is free to be reordered, i.e.
// not currently owned by a group.
func Sortable[T any](r *Registry) bool {
	return !storageOf[T](r).Owned()
}

// Sort reorders T's storage by less. Returns a *ECSError with
// ErrCodeStorageOwned if T is currently owned by a group, per §9's
// resolved open question (a recoverable error rather than an
// assertion).
func Sort[T any](r *Registry, less func(a, b Entity) bool) error {
	s := storageOf[T](r)
	if s.Owned() {
		return newStorageOwnedError("cannot sort a storage owned by a group", typeOf[T]())
	}
	s.Sort(less)
	return nil
}

// SortAs reorders To's storage to mirror the relative entity order of
// From's storage (spec.md §6: "sort<To, From>()").
func SortAs[To, From any](r *Registry) error {
	to := storageOf[To](r)
	if to.Owned() {
		return newStorageOwnedError("cannot sort a storage owned by a group", typeOf[To]())
	}
	from := storageOf[From](r)
	to.SortAs(from.Set())
	return nil
}

// ctxKey returns the key a context variable of type T is stored under:
// its own type.
func ctxKey[T any]() reflect.Type { return typeOf[T]() }

// CtxEmplace stores value as the process-scoped service for type T,
// overwriting any existing one.
func CtxEmplace[T any](r *Registry, value T) {
	r.context[ctxKey[T]()] = value
}

// CtxGet returns the context variable for T. Precondition: present.
func CtxGet[T any](r *Registry) T {
	return r.context[ctxKey[T]()].(T)
}

// CtxTryGet returns the context variable for T and true, or the zero
// value and false.
func CtxTryGet[T any](r *Registry) (T, bool) {
	v, ok := r.context[ctxKey[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// CtxContains reports whether a context variable for T is set.
func CtxContains[T any](r *Registry) bool {
	_, ok := r.context[ctxKey[T]()]
	return ok
}

// CtxErase removes the context variable for T.
func CtxErase[T any](r *Registry) {
	delete(r.context, ctxKey[T]())
}
