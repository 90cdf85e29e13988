package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMsgBufWriteAndTake(t *testing.T) {
	b := NewMsgBuf(2)
	n, err := b.Write([]byte("hel"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, _ = b.Write([]byte("lo"))
	assert.Equal(t, 5, b.Len())

	b.SetMetadata(Metadata{ID: 1, Type: Int64, Int: 10})

	msg := b.Take(nil)
	defer msg.Free()

	assert.Equal(t, "hello", string(msg.Data()))
	assert.EqualValues(t, 10, msg.GetMetadata(1).Int)
	assert.EqualValues(t, 1, msg.RefCount())

	// Buffer resets to empty after Take.
	assert.Equal(t, 0, b.Len())
	assert.True(t, b.GetMetadata(1).IsAbsent())
}

func TestMsgBufResetDiscardsPendingBytes(t *testing.T) {
	b := NewMsgBuf(0)
	_, _ = b.Write([]byte("discard me"))
	b.SetMetadata(Metadata{ID: 3, Type: Empty})

	b.Reset()

	assert.Equal(t, 0, b.Len())
	assert.True(t, b.GetMetadata(3).IsAbsent())
}

func TestMsgBufPortIsStable(t *testing.T) {
	b := NewMsgBuf(5)
	assert.Equal(t, 5, b.Port())
}
