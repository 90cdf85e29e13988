// Package pcapsrc implements a source element that replays packets
// from a pcap file, one message per packet, adapted from the reference
// lineage's live AF_PACKET capturer down to an offline, dependency-free
// (no libpcap) file source built on gopacket/pcapgo.
package pcapsrc

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"gopkg.in/yaml.v3"

	"github.com/elementio/elementio/pkg/element"
	"github.com/elementio/elementio/pkg/message"
)

// Name is this element's registered name.
const Name = "pcap-src"

// srcEndpointMetadata/dstEndpointMetadata record the UDP/TCP source and
// destination IPv4 address and port of a decoded packet, each packed
// into a single Int64. For an IPv6 packet only the port is recorded.
const (
	srcEndpointMetadata = "net.src_endpoint"
	dstEndpointMetadata = "net.dst_endpoint"
)

func packEndpoint(ip net.IP, port uint16) int64 {
	v4 := ip.To4()
	if v4 == nil {
		return int64(port)
	}
	addr := binary.BigEndian.Uint32(v4)
	return int64(uint64(addr)<<16 | uint64(port))
}

type config struct {
	File string `yaml:"file"`
}

type instance struct {
	file   *os.File
	reader *pcapgo.Reader
	source *gopacket.PacketSource
	ch     <-chan gopacket.Packet
}

// Descriptor returns this element's registration.
func Descriptor() element.Descriptor {
	return element.Descriptor{
		Name:        Name,
		Description: "replays UDP/TCP payloads decoded from a pcap file, one message per packet",
		ConfigDoc:   "file: string (path to a pcap-format file)",
		SendPorts:   []element.PortSpec{{}},
		MetadataIDs: []string{srcEndpointMetadata, dstEndpointMetadata},
		New:         newInstance,
	}
}

func newInstance(conf string) (element.Instance, error) {
	var cfg config
	if conf != "" {
		if err := yaml.Unmarshal([]byte(conf), &cfg); err != nil {
			return nil, err
		}
	}
	if cfg.File == "" {
		return nil, fmt.Errorf("pcap-src: file is required")
	}

	f, err := os.Open(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("pcap-src: %w", err)
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pcap-src: %w", err)
	}

	src := gopacket.NewPacketSource(r, r.LinkType())
	return &instance{
		file:   f,
		reader: r,
		source: src,
		ch:     src.Packets(),
	}, nil
}

func (i *instance) Next(pipe element.Pipeline, _ element.Receiver) element.Signal {
	pkt, ok := <-i.ch
	if !ok {
		return element.Close
	}

	payload, srcIP, dstIP, srcPort, dstPort := decodeTransport(pkt)
	if payload == nil {
		return element.Produced
	}

	meta := make(map[uint32]message.Metadata, 2)
	if id := pipe.GetMetadataID(srcEndpointMetadata); id != 0 {
		meta[id] = message.Metadata{ID: id, Type: message.Int64, Int: packEndpoint(srcIP, srcPort)}
	}
	if id := pipe.GetMetadataID(dstEndpointMetadata); id != 0 {
		meta[id] = message.Metadata{ID: id, Type: message.Int64, Int: packEndpoint(dstIP, dstPort)}
	}

	pipe.SetResultMsg(0, message.New(append([]byte(nil), payload...), meta, nil))
	return element.Produced
}

// decodeTransport extracts the UDP or TCP payload and endpoint
// addressing out of a decoded packet. payload is nil when pkt carries
// no recognizable IPv4/IPv6 + UDP/TCP stack (e.g. ARP, a fragment).
func decodeTransport(pkt gopacket.Packet) (payload []byte, srcIP, dstIP net.IP, srcPort, dstPort uint16) {
	netLayer := pkt.NetworkLayer()
	if netLayer == nil {
		return nil, nil, nil, 0, 0
	}
	switch nl := netLayer.(type) {
	case *layers.IPv4:
		srcIP, dstIP = nl.SrcIP, nl.DstIP
	case *layers.IPv6:
		srcIP, dstIP = nl.SrcIP, nl.DstIP
	default:
		return nil, nil, nil, 0, 0
	}

	switch tl := pkt.TransportLayer().(type) {
	case *layers.UDP:
		return tl.Payload, srcIP, dstIP, uint16(tl.SrcPort), uint16(tl.DstPort)
	case *layers.TCP:
		return tl.Payload, srcIP, dstIP, uint16(tl.SrcPort), uint16(tl.DstPort)
	default:
		return nil, nil, nil, 0, 0
	}
}

func (i *instance) Free() {
	i.file.Close()
}
