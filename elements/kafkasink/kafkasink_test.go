package kafkasink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elementio/elementio/pkg/element"
)

func TestRequiresBrokersAndTopic(t *testing.T) {
	_, err := newInstance(`topic: t`)
	require.Error(t, err)

	_, err = newInstance(`brokers: ["localhost:9092"]`)
	require.Error(t, err)
}

func TestOptionalFieldsMayBeOmitted(t *testing.T) {
	inst, err := newInstance(`brokers: ["localhost:9092"]
topic: events`)
	require.NoError(t, err)

	fc, ok := inst.(element.FinalizerCreator)
	require.True(t, ok)
	finalizer := fc.CreateFinalizer()
	require.NotNil(t, finalizer)
	defer finalizer.Finalize()
}

func TestRejectsUnknownCompression(t *testing.T) {
	_, err := newInstance(`brokers: ["localhost:9092"]
topic: events
compression: zstd-turbo`)
	require.Error(t, err)
}

func TestDescriptorDeclaresOneRecvPortNoSendPorts(t *testing.T) {
	d := Descriptor()
	assert.Equal(t, 1, d.RecvCount())
	assert.Equal(t, 0, d.SendCount())
}
