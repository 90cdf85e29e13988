package textsrc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elementio/elementio/internal/runtime"
	"github.com/elementio/elementio/pkg/dchan"
)

func TestEmitsConfiguredCountThenCloses(t *testing.T) {
	inst, err := newInstance(`text: "hi"
interval_ms: 1
count: 3`)
	require.NoError(t, err)

	ch := dchan.New(8)
	node := &runtime.Node{
		TaskID:    "src",
		Instance:  inst,
		SendEdges: [][]*dchan.Channel{{ch}},
	}
	done := make(chan error, 1)
	go func() { done <- runtime.NewWorker(node, runtime.NewCloser(), nil).Run() }()
	require.NoError(t, <-done) // worker closes ch itself on exit

	count := 0
	for {
		msg, ok := ch.Recv(make(chan struct{}))
		if !ok {
			break
		}
		assert.Equal(t, "hi", string(msg.Data()))
		msg.Free()
		count++
	}
	assert.Equal(t, 3, count)
}

func TestOmittedIntervalDefaultsTo100ms(t *testing.T) {
	inst, err := newInstance(`text: "x"`)
	require.NoError(t, err)
	impl := inst.(*instance)
	assert.Equal(t, int64(100), impl.interval.Milliseconds())
}

func TestInvalidConfigIsRejected(t *testing.T) {
	_, err := newInstance("text: [not a string")
	require.Error(t, err)
}
