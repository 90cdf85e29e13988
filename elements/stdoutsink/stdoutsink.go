// Package stdoutsink implements a sink element that writes every
// received message's bytes to stdout, followed by a configurable
// separator (spec end-to-end scenario 1).
package stdoutsink

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/elementio/elementio/pkg/element"
)

// Name is this element's registered name.
const Name = "stdout-sink"

type config struct {
	Separator string `yaml:"separator"`
}

type instance struct {
	out       io.Writer
	separator []byte
}

// Descriptor returns this element's registration.
func Descriptor() element.Descriptor {
	return element.Descriptor{
		Name:        Name,
		Description: "writes every received message to stdout, separator-terminated",
		ConfigDoc:   "separator: string (default \"\\n\")",
		RecvPorts:   []element.PortSpec{{}}, // wildcard: accepts any message type
		New:         newInstance,
	}
}

func newInstance(conf string) (element.Instance, error) {
	cfg := config{Separator: "\n"}
	if conf != "" {
		if err := yaml.Unmarshal([]byte(conf), &cfg); err != nil {
			return nil, err
		}
	}
	return &instance{out: os.Stdout, separator: []byte(cfg.Separator)}, nil
}

func (i *instance) Next(_ element.Pipeline, recv element.Receiver) element.Signal {
	msg, ok := recv.Recv(0)
	if !ok {
		return element.Close
	}
	defer msg.Free()
	i.out.Write(msg.Data())
	i.out.Write(i.separator)
	return element.Produced
}

func (i *instance) Free() {}
