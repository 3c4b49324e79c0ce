package storage

// DefaultPageSize is the page size used when a storage doesn't request
// a different one. Spec §4.B: "default 4096 entries" for the sparse
// table; typed storages pick their own (§4.C: "default 1024 for small
// types").
const DefaultPageSize = 4096

// Paged is a page-allocated array. Each page is a fixed-size slice,
// lazily allocated on first write. Once a page is allocated it is never
// reallocated or moved — only ShrinkToFit/Reset ever release a page —
// so a pointer returned by At or Peek stays valid across further writes
// to other indices (§9 "Page tables... this must be reproduced
// verbatim: random-access pools must not reallocate existing pages on
// growth, because external code expects component references to remain
// valid across further inserts").
type Paged[T any] struct {
	pages    [][]T
	pageSize int
}

// NewPaged creates a Paged array with the given page size. A
// non-positive size falls back to DefaultPageSize.
func NewPaged[T any](pageSize int) *Paged[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Paged[T]{pageSize: pageSize}
}

func (p *Paged[T]) locate(i uint32) (page, offset int) {
	return int(i) / p.pageSize, int(i) % p.pageSize
}

// At returns a pointer to the slot at i, allocating its backing page if
// this is the first write to it.
func (p *Paged[T]) At(i uint32) *T {
	pg, off := p.locate(i)
	for pg >= len(p.pages) {
		p.pages = append(p.pages, nil)
	}
	if p.pages[pg] == nil {
		p.pages[pg] = make([]T, p.pageSize)
	}
	return &p.pages[pg][off]
}

// Peek returns a pointer to the slot at i without allocating its page.
// It returns nil if that page hasn't been touched yet.
func (p *Paged[T]) Peek(i uint32) *T {
	pg, off := p.locate(i)
	if pg >= len(p.pages) || p.pages[pg] == nil {
		return nil
	}
	return &p.pages[pg][off]
}

// PageSize reports the configured page size.
func (p *Paged[T]) PageSize() int {
	return p.pageSize
}

// Reset drops every page.
func (p *Paged[T]) Reset() {
	p.pages = nil
}
