package storage

import "github.com/ironframe/ecs/internal/core/ecs/entity"

// Listener receives a storage lifecycle notification. entity is the
// entity the event concerns; the registry that owns the storage is
// passed as owner so a listener can immediately look up sibling
// components without the storage itself needing a back-reference.
type Listener func(owner any, e entity.Entity)

type sinkEntry struct {
	id int
	fn Listener
}

// Sink is an ordered multicast of Listeners. A storage keeps three
// sinks (construct, update, destroy, §4.D) and fires each listener in
// list order: Connect appends, ConnectFront prepends.
type Sink struct {
	entries []sinkEntry
	nextID  int
}

func (s *Sink) newEntry(fn Listener) sinkEntry {
	e := sinkEntry{id: s.nextID, fn: fn}
	s.nextID++
	return e
}

// Connect appends fn to the sink and returns a token that Disconnect
// can use to remove exactly this listener, even if other listeners are
// connected and disconnected in between.
func (s *Sink) Connect(fn Listener) int {
	e := s.newEntry(fn)
	s.entries = append(s.entries, e)
	return e.id
}

// ConnectFront inserts fn ahead of every already-connected listener.
// Owning groups use it for the handlers that shrink a prefix: when
// nested groups share an owned pool, the most recently declared (most
// specific) group must evict an entity before the groups it nests
// inside move the same dense positions.
func (s *Sink) ConnectFront(fn Listener) int {
	e := s.newEntry(fn)
	s.entries = append([]sinkEntry{e}, s.entries...)
	return e.id
}

// Disconnect removes the listener identified by token. Once
// disconnected, a token must not be reused.
func (s *Sink) Disconnect(token int) {
	for i := range s.entries {
		if s.entries[i].id == token {
			s.entries[i].fn = nil
			return
		}
	}
}

// Publish calls every connected listener, in list order, with owner and
// e. Listeners disconnected during a publish (including one
// disconnecting itself) are skipped for the remainder of this call.
func (s *Sink) Publish(owner any, e entity.Entity) {
	for _, en := range s.entries {
		if en.fn != nil {
			en.fn(owner, e)
		}
	}
}

// Len reports the number of listener slots, including disconnected
// ones still holding a slot open. Used only by tests to assert on
// connect/disconnect bookkeeping.
func (s *Sink) Len() int { return len(s.entries) }
