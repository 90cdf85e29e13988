package message

import "sync/atomic"

// Releaser is invoked exactly once, when a Message's reference count
// drops to zero, with the byte region that was originally allocated for
// it. The default releaser is a no-op (Go's GC reclaims the backing
// array once nothing references it); tests substitute a hook releaser
// to verify the refcount-balance property.
type Releaser func(data []byte)

func noopRelease([]byte) {}

// shared is the refcounted state behind every clone of a Message. Only
// one shared exists per logical payload; Message values are cheap
// handles wrapping a pointer to it.
type shared struct {
	data     []byte
	meta     metadataSet
	refCount atomic.Int32
	release  Releaser
	freed    atomic.Bool // guards against double-free
}

// Message is an immutable, reference-counted byte payload plus zero or
// more metadata entries. The zero Message is not valid; construct one
// via MsgBuf.Take or New.
type Message struct {
	s *shared
}

// New constructs a Message with refcount 1, taking ownership of data
// (the caller must not mutate it afterwards) and releaser (defaults to
// a no-op if nil).
func New(data []byte, meta map[uint32]Metadata, release Releaser) Message {
	if release == nil {
		release = noopRelease
	}
	s := &shared{data: data, release: release}
	if len(meta) > 0 {
		s.meta = metadataSet(meta).clone()
	}
	s.refCount.Store(1)
	return Message{s: s}
}

// Clone increments the reference count and returns a new handle backed
// by the same bytes. Safe to call from any goroutine.
func (m Message) Clone() Message {
	if m.s == nil {
		return m
	}
	m.s.refCount.Add(1)
	return Message{s: m.s}
}

// Free decrements the reference count. When it reaches zero the
// backing bytes are released via the allocator recorded at
// construction, exactly once.
func (m Message) Free() {
	if m.s == nil {
		return
	}
	if m.s.refCount.Add(-1) == 0 {
		if m.s.freed.CompareAndSwap(false, true) {
			m.s.release(m.s.data)
		}
	}
}

// RefCount returns the current reference count. Intended for tests and
// diagnostics only — the value may be stale the instant it is read.
func (m Message) RefCount() int32 {
	if m.s == nil {
		return 0
	}
	return m.s.refCount.Load()
}

// Data borrows the message's bytes. The slice is valid until any Free
// call on a handle referencing this message's shared state; callers
// that need the bytes to outlive their own Free call must Clone first.
func (m Message) Data() []byte {
	if m.s == nil {
		return nil
	}
	return m.s.data
}

// Len is a convenience for len(m.Data()).
func (m Message) Len() int {
	return len(m.Data())
}

// GetMetadata returns the entry for id, or (id, Empty, _) if absent.
func (m Message) GetMetadata(id uint32) Metadata {
	if m.s == nil || id == 0 {
		return Metadata{}
	}
	return m.s.meta.get(id)
}

// SetMetadata overrides the entry for entry.ID. It is only defined on
// the unique handle — callers must hold the sole reference
// (RefCount()==1) immediately after construction. Implementations may
// either enforce uniqueness or copy-on-write; this one enforces it and
// silently no-ops otherwise.
func (m Message) SetMetadata(entry Metadata) {
	if m.s == nil || entry.ID == 0 {
		return
	}
	if m.s.refCount.Load() != 1 {
		return
	}
	if m.s.meta == nil {
		m.s.meta = make(metadataSet, 1)
	}
	m.s.meta.set(entry)
}

// Valid reports whether m wraps a shared payload.
func (m Message) Valid() bool {
	return m.s != nil
}
