package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elementio/elementio/internal/config"
	"github.com/elementio/elementio/internal/errs"
	"github.com/elementio/elementio/pkg/element"
)

// noopInstance is the minimal element.Instance used across these tests;
// it never actually runs (Build never calls Next).
type noopInstance struct {
	freed *bool
}

func (n *noopInstance) Next(pipe element.Pipeline, recv element.Receiver) element.Signal {
	return element.Close
}
func (n *noopInstance) Free() {
	if n.freed != nil {
		*n.freed = true
	}
}

func registerTestElement(t *testing.T, name string, recv, send []element.PortSpec, freed *bool, failNew bool) {
	t.Helper()
	element.Register(element.Descriptor{
		Name:      name,
		RecvPorts: recv,
		SendPorts: send,
		New: func(conf string) (element.Instance, error) {
			if failNew {
				return nil, errors.New("boom")
			}
			return &noopInstance{freed: freed}, nil
		},
	})
}

// resetRegistry swaps in a fresh element registry for the duration of
// one test so element.Register calls across tests never collide.
func resetRegistry(t *testing.T) {
	t.Helper()
	element.ResetForTest()
	t.Cleanup(element.ResetForTest)
}

func wildcard() element.PortSpec { return element.PortSpec{} }
func typed(types ...string) element.PortSpec {
	return element.PortSpec{Types: types}
}

func TestBuildSimpleSourceToSink(t *testing.T) {
	resetRegistry(t)
	registerTestElement(t, "src", nil, []element.PortSpec{wildcard()}, nil, false)
	registerTestElement(t, "sink", []element.PortSpec{wildcard()}, nil, nil, false)

	doc := &config.Document{Tasks: []config.TaskConfig{
		{ID: 1, Element: "src"},
		{ID: 2, Element: "sink", From: []config.RecvWiring{{{UpstreamID: 1, UpstreamPort: 0}}}},
	}}

	g, err := Build(doc)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	assert.Len(t, g.Nodes[1].RecvFanIn, 1)
	assert.Len(t, g.Nodes[0].SendEdges, 1)
	assert.Len(t, g.Nodes[0].SendEdges[0], 1)
}

func TestBuildUnknownElementIsConfigError(t *testing.T) {
	resetRegistry(t)
	doc := &config.Document{Tasks: []config.TaskConfig{{ID: 1, Element: "nonexistent"}}}
	_, err := Build(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrElementNotFound))
}

func TestBuildRecvPortWithoutFromIsConfigError(t *testing.T) {
	resetRegistry(t)
	registerTestElement(t, "sink", []element.PortSpec{wildcard()}, nil, nil, false)
	doc := &config.Document{Tasks: []config.TaskConfig{{ID: 1, Element: "sink"}}}
	_, err := Build(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfig))
}

func TestBuildFromReferencingUnknownUpstreamIsConfigError(t *testing.T) {
	resetRegistry(t)
	registerTestElement(t, "sink", []element.PortSpec{wildcard()}, nil, nil, false)
	doc := &config.Document{Tasks: []config.TaskConfig{
		{ID: 1, Element: "sink", From: []config.RecvWiring{{{UpstreamID: 99, UpstreamPort: 0}}}},
	}}
	_, err := Build(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfig))
}

func TestBuildFromReferencingOutOfRangeSendPortIsConfigError(t *testing.T) {
	resetRegistry(t)
	registerTestElement(t, "src", nil, []element.PortSpec{wildcard()}, nil, false)
	registerTestElement(t, "sink", []element.PortSpec{wildcard()}, nil, nil, false)
	doc := &config.Document{Tasks: []config.TaskConfig{
		{ID: 1, Element: "src"},
		{ID: 2, Element: "sink", From: []config.RecvWiring{{{UpstreamID: 1, UpstreamPort: 5}}}},
	}}
	_, err := Build(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfig))
}

func TestBuildTypeMismatchIsRejected(t *testing.T) {
	resetRegistry(t)
	registerTestElement(t, "src", nil, []element.PortSpec{typed("text")}, nil, false)
	registerTestElement(t, "sink", []element.PortSpec{typed("pcap")}, nil, nil, false)
	doc := &config.Document{Tasks: []config.TaskConfig{
		{ID: 1, Element: "src"},
		{ID: 2, Element: "sink", From: []config.RecvWiring{{{UpstreamID: 1, UpstreamPort: 0}}}},
	}}
	_, err := Build(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrTypeMismatch))
}

func TestBuildWildcardAcceptsAnyType(t *testing.T) {
	resetRegistry(t)
	registerTestElement(t, "src", nil, []element.PortSpec{typed("text")}, nil, false)
	registerTestElement(t, "sink", []element.PortSpec{wildcard()}, nil, nil, false)
	doc := &config.Document{Tasks: []config.TaskConfig{
		{ID: 1, Element: "src"},
		{ID: 2, Element: "sink", From: []config.RecvWiring{{{UpstreamID: 1, UpstreamPort: 0}}}},
	}}
	_, err := Build(doc)
	require.NoError(t, err)
}

func TestBuildRollsBackOnLaterInstantiateFailure(t *testing.T) {
	resetRegistry(t)
	var firstFreed, secondFreed bool
	registerTestElement(t, "ok", nil, []element.PortSpec{wildcard()}, &firstFreed, false)
	registerTestElement(t, "bad", []element.PortSpec{wildcard()}, nil, &secondFreed, true)

	doc := &config.Document{Tasks: []config.TaskConfig{
		{ID: 1, Element: "ok"},
		{ID: 2, Element: "bad", From: []config.RecvWiring{{{UpstreamID: 1, UpstreamPort: 0}}}},
	}}

	_, err := Build(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrElementInit))
	assert.True(t, firstFreed, "earlier instance must be freed on later instantiate failure")
}

func TestBuildFanInSortsByAscendingUpstreamPort(t *testing.T) {
	resetRegistry(t)
	registerTestElement(t, "src", nil, []element.PortSpec{wildcard(), wildcard(), wildcard()}, nil, false)
	registerTestElement(t, "sink", []element.PortSpec{wildcard()}, nil, nil, false)

	doc := &config.Document{Tasks: []config.TaskConfig{
		{ID: 1, Element: "src"},
		{ID: 2, Element: "sink", From: []config.RecvWiring{{
			{UpstreamID: 1, UpstreamPort: 2},
			{UpstreamID: 1, UpstreamPort: 0},
			{UpstreamID: 1, UpstreamPort: 1},
		}}},
	}}

	g, err := Build(doc)
	require.NoError(t, err)
	fanIn := g.Nodes[1].RecvFanIn[0]
	require.NotNil(t, fanIn)
	assert.Equal(t, []int{0, 1, 2}, fanIn.SourcePortsForTest())
}

func TestBuildMetadataRegistryIsSealed(t *testing.T) {
	resetRegistry(t)
	registerTestElement(t, "src", nil, []element.PortSpec{wildcard()}, nil, false)
	doc := &config.Document{Tasks: []config.TaskConfig{{ID: 1, Element: "src"}}}
	g, err := Build(doc)
	require.NoError(t, err)
	assert.Panics(t, func() { g.Metadata.Declare("late") })
}

func TestBuildEmptyFromEntryIsConfigError(t *testing.T) {
	resetRegistry(t)
	registerTestElement(t, "src", nil, []element.PortSpec{wildcard()}, nil, false)
	registerTestElement(t, "sink", []element.PortSpec{wildcard()}, nil, nil, false)
	doc := &config.Document{Tasks: []config.TaskConfig{
		{ID: 1, Element: "src"},
		{ID: 2, Element: "sink", From: []config.RecvWiring{{}}},
	}}
	_, err := Build(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfig))
}

