// Package entity defines the versioned integer identifier the rest of
// the ECS core is built around. It sits below both the registry and the
// storage layer so either can name the identifier type without
// depending on the other.
package entity

import "fmt"

// Entity is an opaque, versioned integer identifier. It is never a
// pointer into storage; the registry is always consulted to resolve it
// to component data.
//
// The low IndexBits bits hold the slot index; the remaining high bits
// hold the version. This module fixes the split at 20 index bits / 12
// version bits (entt's default for a 32-bit identifier) as package
// constants rather than a type parameter: Go generics have no
// value-level (non-type) parameters, so "compile-time parameterised on
// the bit split" is expressed the idiomatic Go way, as named constants
// a fork of this package would edit directly, not as a generic type.
type Entity uint32

const (
	// IndexBits is the width of the index field.
	IndexBits = 20
	// VersionBits is the width of the version field.
	VersionBits = 32 - IndexBits

	indexMask   = 1<<IndexBits - 1
	versionMask = 1<<VersionBits - 1
)

// MaxVersion is the largest representable version, reserved as the
// tombstone marker (§3: "version = all-ones").
const MaxVersion = versionMask

// Null is the sentinel entity: index = all-ones, version irrelevant.
// Null never references a live entity; the registry reports it invalid
// unconditionally.
const Null Entity = indexMask

// Tombstone is the sentinel entity whose version field is all-ones. A
// slot that reaches the tombstone version is retired rather than
// recycled; the registry reports it invalid.
const Tombstone Entity = Entity(versionMask) << IndexBits

// Make packs an index and version into an Entity.
func Make(index, version uint32) Entity {
	return Entity(index&indexMask) | Entity(version&versionMask)<<IndexBits
}

// Index returns the low index field of e.
func (e Entity) Index() uint32 {
	return uint32(e) & indexMask
}

// Version returns the high version field of e.
func (e Entity) Version() uint32 {
	return (uint32(e) >> IndexBits) & versionMask
}

// NextVersion returns the version that follows v, skipping the
// tombstone value: a slot whose version would wrap onto MaxVersion
// instead resumes from 0 (§4.A tie-break rule).
func NextVersion(v uint32) uint32 {
	next := (v + 1) & versionMask
	if next == MaxVersion {
		return 0
	}
	return next
}

// String renders an entity as index/version, for diagnostics and test
// failure messages.
func (e Entity) String() string {
	if e == Null {
		return "entity(null)"
	}
	return fmt.Sprintf("entity(%d/%d)", e.Index(), e.Version())
}
