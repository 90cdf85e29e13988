// Package badsrc implements a source element that emits a configured
// number of messages and then signals a fatal Err — used to exercise
// the runtime's error-propagation path (spec end-to-end scenario 3).
package badsrc

import (
	"gopkg.in/yaml.v3"

	"github.com/elementio/elementio/pkg/element"
	"github.com/elementio/elementio/pkg/message"
)

// Name is this element's registered name.
const Name = "bad-src"

type config struct {
	Count  int    `yaml:"count"`
	ErrMsg string `yaml:"err_msg"`
}

type instance struct {
	cfg      config
	produced int
}

// Descriptor returns this element's registration.
func Descriptor() element.Descriptor {
	return element.Descriptor{
		Name:        Name,
		Description: "emits count messages then fails with err_msg",
		ConfigDoc:   "count: int (default 2), err_msg: string (default \"boom\")",
		SendPorts:   []element.PortSpec{{}},
		New:         newInstance,
	}
}

func newInstance(conf string) (element.Instance, error) {
	cfg := config{Count: 2, ErrMsg: "boom"}
	if conf != "" {
		if err := yaml.Unmarshal([]byte(conf), &cfg); err != nil {
			return nil, err
		}
	}
	return &instance{cfg: cfg}, nil
}

func (i *instance) Next(pipe element.Pipeline, _ element.Receiver) element.Signal {
	if i.produced >= i.cfg.Count {
		pipe.SetErrorMsg(i.cfg.ErrMsg)
		return element.Err
	}
	pipe.SetResultMsg(0, message.New([]byte("x"), nil, nil))
	i.produced++
	return element.Produced
}

func (i *instance) Free() {}
