// Package elements is the blank-importable registration point for
// every built-in element: importing it for side effects registers
// text-src, stdout-sink, counter-sink, bad-src, kafka-sink, pcap-src
// and sip-parser into the process-wide element registry.
package elements

import (
	"github.com/elementio/elementio/elements/badsrc"
	"github.com/elementio/elementio/elements/countersink"
	"github.com/elementio/elementio/elements/kafkasink"
	"github.com/elementio/elementio/elements/pcapsrc"
	"github.com/elementio/elementio/elements/sipparser"
	"github.com/elementio/elementio/elements/stdoutsink"
	"github.com/elementio/elementio/elements/textsrc"
	"github.com/elementio/elementio/pkg/element"
)

func init() {
	element.Register(textsrc.Descriptor())
	element.Register(stdoutsink.Descriptor())
	element.Register(countersink.Descriptor())
	element.Register(badsrc.Descriptor())
	element.Register(kafkasink.Descriptor())
	element.Register(pcapsrc.Descriptor())
	element.Register(sipparser.Descriptor())
}
