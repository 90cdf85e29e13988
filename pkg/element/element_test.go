package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortSpecAcceptsWildcard(t *testing.T) {
	wildcard := PortSpec{}
	typed := PortSpec{Types: []string{"sip/message"}}

	assert.True(t, wildcard.Accepts(typed))
	assert.True(t, typed.Accepts(wildcard))
	assert.True(t, wildcard.Accepts(wildcard))
}

func TestPortSpecAcceptsIntersection(t *testing.T) {
	a := PortSpec{Types: []string{"text/plain", "application/json"}}
	b := PortSpec{Types: []string{"application/json", "application/xml"}}
	c := PortSpec{Types: []string{"application/xml"}}

	assert.True(t, a.Accepts(b))
	assert.False(t, a.Accepts(c))
}

func TestDescriptorPortCounts(t *testing.T) {
	d := Descriptor{
		RecvPorts: []PortSpec{{}, {}},
		SendPorts: []PortSpec{{}},
		New:       func(string) (Instance, error) { return noopInstance{}, nil },
	}
	assert.Equal(t, 2, d.RecvCount())
	assert.Equal(t, 1, d.SendCount())
}
