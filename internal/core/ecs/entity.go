// Package ecs provides the core Entity Component System runtime: the
// registry, the sparse-set component storages it manages, and the
// view/group query engine built on top of them.
package ecs

import "github.com/ironframe/ecs/internal/core/ecs/entity"

// Entity is the versioned integer identifier entities are addressed
// by. It is an alias of the entity package's type so values flow
// between the registry and the storage layer without conversion; see
// that package for the bit layout.
type Entity = entity.Entity

const (
	// IndexBits is the width of an Entity's index field.
	IndexBits = entity.IndexBits
	// VersionBits is the width of an Entity's version field.
	VersionBits = entity.VersionBits
	// MaxVersion is the largest representable version, reserved as the
	// tombstone marker.
	MaxVersion = entity.MaxVersion
)

// Null is the sentinel entity that never references a live entity.
const Null = entity.Null

// Tombstone is the sentinel entity whose version field is all-ones.
const Tombstone = entity.Tombstone

// Make packs an index and version into an Entity.
func Make(index, version uint32) Entity { return entity.Make(index, version) }

// NextVersion returns the version that follows v, skipping the
// tombstone value.
func NextVersion(v uint32) uint32 { return entity.NextVersion(v) }
