// Package textsrc implements a source element that emits a fixed text
// payload on an interval, for a configured number of times (or forever
// if count is zero) — the runtime's "hello world" source (spec
// end-to-end scenario 1/2).
package textsrc

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/elementio/elementio/pkg/element"
	"github.com/elementio/elementio/pkg/message"
)

// Name is this element's registered name.
const Name = "text-src"

// config is textsrc's own conf-blob shape, decoded independently of the
// graph document.
type config struct {
	Text       string `yaml:"text"`
	IntervalMS int    `yaml:"interval_ms"`
	Count      int    `yaml:"count"` // 0 = unbounded
}

type instance struct {
	cfg       config
	interval  time.Duration
	produced  int
	firstTick bool
}

// Descriptor returns this element's registration, passed to
// element.Register by package elements' init.
func Descriptor() element.Descriptor {
	return element.Descriptor{
		Name:        Name,
		Description: "emits a fixed text payload on an interval",
		ConfigDoc:   "text: string, interval_ms: int (default 100), count: int (0 = unbounded)",
		SendPorts:   []element.PortSpec{{Types: []string{"text/plain"}}},
		New:         newInstance,
	}
}

func newInstance(conf string) (element.Instance, error) {
	cfg := config{IntervalMS: 100}
	if conf != "" {
		if err := yaml.Unmarshal([]byte(conf), &cfg); err != nil {
			return nil, err
		}
	}
	interval := time.Duration(cfg.IntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &instance{cfg: cfg, interval: interval, firstTick: true}, nil
}

func (i *instance) Next(pipe element.Pipeline, _ element.Receiver) element.Signal {
	if i.cfg.Count > 0 && i.produced >= i.cfg.Count {
		return element.Close
	}
	if !i.firstTick {
		time.Sleep(i.interval)
	}
	i.firstTick = false

	data := append([]byte(nil), i.cfg.Text...)
	pipe.SetResultMsg(0, message.New(data, nil, nil))
	i.produced++
	return element.Produced
}

func (i *instance) Free() {}
