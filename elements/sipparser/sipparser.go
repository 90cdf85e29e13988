// Package sipparser implements a transform element that reassembles
// framed SIP messages out of a chunked byte stream, parses each one
// with gosip, and re-serializes it as JSON using the same header/
// Content-Length framing and gosip field projection a SIP-aware
// capture pipeline needs.
package sipparser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	gosip "github.com/ghettovoice/gosip/sip"
	"github.com/ghettovoice/gosip/sip/parser"

	"github.com/elementio/elementio/pkg/element"
	"github.com/elementio/elementio/pkg/message"
)

// Name is this element's registered name.
const Name = "sip-parser"

// callIDHashMetadata is declared so downstream elements (or a future
// dedup stage) can filter/partition on a call without round-tripping
// through the JSON body; Metadata only carries numeric values,
// so the call-id string itself lives in the JSON body, not here.
const callIDHashMetadata = "sip.call_id_hash"

var sipMethods = [][]byte{
	[]byte("INVITE"), []byte("ACK"), []byte("BYE"), []byte("CANCEL"),
	[]byte("REGISTER"), []byte("OPTIONS"), []byte("PRACK"), []byte("SUBSCRIBE"),
	[]byte("NOTIFY"), []byte("PUBLISH"), []byte("INFO"), []byte("REFER"),
	[]byte("MESSAGE"), []byte("UPDATE"),
}

var sipVersion = []byte("SIP/2.0")

// sipEnvelope is the JSON shape emitted on the send port: the fields
// worth projecting out of a parsed gosip message, minus any tracing-
// specific session bookkeeping that belongs to an observability
// backend, not this runtime.
type sipEnvelope struct {
	Kind      string `json:"kind"` // "request" or "response"
	StartLine string `json:"start_line"`
	CallID    string `json:"call_id"`
	CSeq      string `json:"cseq"`
	From      string `json:"from"`
	To        string `json:"to"`
	Method    string `json:"method,omitempty"`
	Status    int    `json:"status,omitempty"`
	Body      string `json:"body"`
}

type instance struct {
	buf    []byte
	parser *parser.PacketParser
}

// Descriptor returns this element's registration.
func Descriptor() element.Descriptor {
	return element.Descriptor{
		Name:        Name,
		Description: "reassembles framed SIP messages and re-serializes each as JSON",
		RecvPorts:   []element.PortSpec{{Types: []string{"application/sip"}}},
		SendPorts:   []element.PortSpec{{Types: []string{"application/json"}}},
		MetadataIDs: []string{callIDHashMetadata},
		New:         newInstance,
	}
}

func newInstance(string) (element.Instance, error) {
	return &instance{parser: parser.NewPacketParser(newSlogAdapter())}, nil
}

func (i *instance) Next(pipe element.Pipeline, recv element.Receiver) element.Signal {
	if frame, n, ok := extract(i.buf); ok {
		i.buf = i.buf[n:]
		i.emit(pipe, frame)
		return element.Produced
	}

	msg, ok := recv.Recv(0)
	if !ok {
		return element.Close
	}
	i.buf = append(i.buf, msg.Data()...)
	msg.Free()

	if frame, n, ok := extract(i.buf); ok {
		i.buf = i.buf[n:]
		i.emit(pipe, frame)
	}
	return element.Produced
}

func (i *instance) Free() {}

// emit parses frame with gosip and stages its JSON re-serialization on
// the send port's MsgBuf, attaching a numeric call-id-hash metadata
// entry when the registry declared one. A frame that fails to parse
// (framing guaranteed it looked like SIP, but gosip is stricter) is
// dropped rather than forwarded malformed.
func (i *instance) emit(pipe element.Pipeline, frame []byte) {
	msg, err := i.parser.ParseMessage(frame)
	if err != nil {
		return
	}

	callID, _ := msg.CallID()
	cseq, _ := msg.CSeq()
	from, _ := msg.From()
	to, _ := msg.To()
	env := sipEnvelope{
		StartLine: msg.StartLine(),
		Body:      msg.Body(),
		CallID:    callID.Value(),
		CSeq:      cseq.Value(),
		From:      from.Value(),
		To:        to.Value(),
	}
	if req, ok := msg.(gosip.Request); ok {
		env.Kind = "request"
		env.Method = string(req.Method())
	} else if res, ok := msg.(gosip.Response); ok {
		env.Kind = "response"
		env.Status = int(res.StatusCode())
	}

	encoded, err := json.Marshal(env)
	if err != nil {
		return
	}

	buf := pipe.MsgBuf(0)
	if buf == nil {
		return
	}
	buf.Write(encoded)
	if id := pipe.GetMetadataID(callIDHashMetadata); id != 0 && env.CallID != "" {
		h := fnv.New64a()
		h.Write([]byte(env.CallID))
		buf.SetMetadata(message.Metadata{ID: id, Type: message.Int64, Int: int64(h.Sum64())})
	}
}

// detect reports whether data begins with a recognizable SIP request
// line or status line.
func detect(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if bytes.HasPrefix(data, sipVersion) {
		return true
	}
	for _, method := range sipMethods {
		if bytes.HasPrefix(data, method) && len(data) > len(method) && data[len(method)] == ' ' {
			return true
		}
	}
	return false
}

// extract pulls one complete SIP message (headers + Content-Length
// body) out of the front of data, returning the frame, the number of
// bytes consumed, and true — or (nil, 0, false) if data holds less
// than one full message yet.
func extract(data []byte) ([]byte, int, bool) {
	if len(data) == 0 || !detect(data) {
		return nil, 0, false
	}

	marker := []byte("\r\n\r\n")
	headerEnd := bytes.Index(data, marker)
	if headerEnd == -1 {
		return nil, 0, false
	}

	bodyStart := headerEnd + len(marker)
	contentLength, err := parseContentLength(data[:headerEnd])
	if err != nil {
		return nil, 0, false
	}

	total := bodyStart + contentLength
	if len(data) < total {
		return nil, 0, false
	}

	frame := make([]byte, total)
	copy(frame, data[:total])
	return frame, total, true
}

func parseContentLength(header []byte) (int, error) {
	for _, line := range strings.Split(string(header), "\r\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		var prefix string
		switch {
		case strings.HasPrefix(lower, "content-length:"):
			prefix = "content-length:"
		case strings.HasPrefix(lower, "l:"):
			prefix = "l:"
		default:
			continue
		}
		value := strings.TrimSpace(line[len(prefix):])
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid Content-Length: %q", line)
		}
		return n, nil
	}
	return 0, nil
}
