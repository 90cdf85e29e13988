package message

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRefcountBalance(t *testing.T) {
	var released [][]byte
	var mu sync.Mutex

	m := New([]byte("hello"), nil, func(data []byte) {
		mu.Lock()
		released = append(released, data)
		mu.Unlock()
	})

	clones := []Message{m.Clone(), m.Clone(), m.Clone()}
	require.EqualValues(t, 4, m.RefCount())

	for _, c := range clones {
		c.Free()
	}
	require.EqualValues(t, 1, m.RefCount())
	assert.Empty(t, released)

	m.Free()
	require.EqualValues(t, 0, m.RefCount())
	require.Len(t, released, 1)
	assert.Equal(t, "hello", string(released[0]))
}

func TestMessageFreeIsIdempotent(t *testing.T) {
	count := 0
	m := New([]byte("x"), nil, func([]byte) { count++ })

	m.Free()
	m.Free() // double free on the same handle must not re-run the releaser
	assert.Equal(t, 1, count)
}

func TestMetadataRoundTrip(t *testing.T) {
	m := New([]byte("x"), nil, nil)

	entry := Metadata{ID: 7, Type: Duration, Duration: 2*time.Second + 500*time.Millisecond}
	m.SetMetadata(entry)

	got := m.GetMetadata(7)
	assert.Equal(t, entry, got)
}

func TestMetadataAbsentIsEmpty(t *testing.T) {
	m := New([]byte("x"), nil, nil)

	got := m.GetMetadata(42)
	assert.True(t, got.IsAbsent())
	assert.Equal(t, Empty, got.Type)
}

func TestMetadataIDZeroNeverValid(t *testing.T) {
	m := New([]byte("x"), nil, nil)

	m.SetMetadata(Metadata{ID: 0, Type: Int64, Int: 99})
	got := m.GetMetadata(0)
	assert.True(t, got.IsAbsent())
}

func TestSetMetadataOnlyOnUniqueHandle(t *testing.T) {
	m := New([]byte("x"), nil, nil)
	clone := m.Clone()
	defer clone.Free()
	defer m.Free()

	// refcount is 2 here: SetMetadata must be a silent no-op.
	m.SetMetadata(Metadata{ID: 1, Type: Int64, Int: 1})
	assert.True(t, m.GetMetadata(1).IsAbsent())
}

func TestDataIsStableAcrossClones(t *testing.T) {
	m := New([]byte("payload"), nil, nil)
	c := m.Clone()
	defer m.Free()
	defer c.Free()

	assert.Equal(t, m.Data(), c.Data())
	assert.Equal(t, 7, m.Len())
}
