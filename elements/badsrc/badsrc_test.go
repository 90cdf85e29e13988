package badsrc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elementio/elementio/internal/errs"
	"github.com/elementio/elementio/internal/runtime"
	"github.com/elementio/elementio/pkg/dchan"
)

func TestEmitsCountThenErrs(t *testing.T) {
	inst, err := newInstance(`count: 2
err_msg: "kaboom"`)
	require.NoError(t, err)

	ch := dchan.New(8)
	node := &runtime.Node{
		TaskID:    "bad",
		Instance:  inst,
		SendEdges: [][]*dchan.Channel{{ch}},
	}
	runErr := runtime.NewWorker(node, runtime.NewCloser(), nil).Run()
	ch.Close()

	require.Error(t, runErr)
	assert.True(t, errors.Is(runErr, errs.ErrElementRuntime))
	assert.Contains(t, runErr.Error(), "kaboom")

	produced := 0
	for {
		msg, ok := ch.TryRecv()
		if !ok {
			break
		}
		msg.Free()
		produced++
	}
	assert.Equal(t, 2, produced)
}

func TestDefaultsAreCount2AndBoom(t *testing.T) {
	inst, err := newInstance("")
	require.NoError(t, err)
	impl := inst.(*instance)
	assert.Equal(t, 2, impl.cfg.Count)
	assert.Equal(t, "boom", impl.cfg.ErrMsg)
}
