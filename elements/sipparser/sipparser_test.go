package sipparser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elementio/elementio/internal/runtime"
	"github.com/elementio/elementio/pkg/dchan"
	"github.com/elementio/elementio/pkg/message"
)

func chunk(s string) message.Message { return message.New([]byte(s), nil, nil) }

func TestExtractsOneMessageWhenAllBytesArriveAtOnce(t *testing.T) {
	full := "INVITE sip:bob@example.com SIP/2.0\r\nContent-Length: 5\r\n\r\nhello"
	frame, n, ok := extract([]byte(full))
	require.True(t, ok)
	assert.Equal(t, len(full), n)
	assert.Equal(t, full, string(frame))
}

func TestWaitsForMoreBytesWhenBodyIncomplete(t *testing.T) {
	partial := "INVITE sip:bob@example.com SIP/2.0\r\nContent-Length: 5\r\n\r\nhel"
	_, _, ok := extract([]byte(partial))
	assert.False(t, ok)
}

func TestRejectsNonSipPrefix(t *testing.T) {
	_, _, ok := extract([]byte("GET / HTTP/1.1\r\n\r\n"))
	assert.False(t, ok)
}

func TestAcceptsAbbreviatedContentLengthHeader(t *testing.T) {
	full := "SIP/2.0 200 OK\r\nl: 2\r\n\r\nhi"
	frame, n, ok := extract([]byte(full))
	require.True(t, ok)
	assert.Equal(t, len(full), n)
	assert.Equal(t, full, string(frame))
}

const fullInvite = "INVITE sip:bob@example.com SIP/2.0\r\n" +
	"Via: SIP/2.0/UDP pc33.example.com;branch=z9hG4bK776asdhds\r\n" +
	"Max-Forwards: 70\r\n" +
	"To: Bob <sip:bob@example.com>\r\n" +
	"From: Alice <sip:alice@example.com>;tag=1928301774\r\n" +
	"Call-ID: a84b4c76e66710@pc33.example.com\r\n" +
	"CSeq: 314159 INVITE\r\n" +
	"Contact: <sip:alice@pc33.example.com>\r\n" +
	"Content-Length: 2\r\n\r\n" +
	"hi"

func TestReassemblesOneMessageSplitAcrossTwoChunks(t *testing.T) {
	inst, err := newInstance("")
	require.NoError(t, err)

	split := len(fullInvite) / 2
	ch := dchan.New(8)
	ch.Send(chunk(fullInvite[:split]), make(chan struct{}))
	ch.Send(chunk(fullInvite[split:]), make(chan struct{}))
	ch.Close()

	node := &runtime.Node{
		TaskID:    "parser",
		Instance:  inst,
		RecvFanIn: []*dchan.FanIn{dchan.NewFanIn([]*dchan.Channel{ch}, []int{0})},
		SendEdges: [][]*dchan.Channel{{dchan.New(8)}},
	}
	out := node.SendEdges[0][0]
	require.NoError(t, runtime.NewWorker(node, runtime.NewCloser(), nil).Run())

	msg, ok := out.TryRecv()
	require.True(t, ok)
	var env sipEnvelope
	require.NoError(t, json.Unmarshal(msg.Data(), &env))
	assert.Equal(t, "request", env.Kind)
	assert.Equal(t, "INVITE", env.Method)
	assert.Equal(t, "hi", env.Body)
	msg.Free()

	_, ok = out.TryRecv()
	assert.False(t, ok)
}

func sipResponse(callID string) string {
	return "SIP/2.0 200 OK\r\n" +
		"Via: SIP/2.0/UDP pc33.example.com;branch=z9hG4bK776asdhds\r\n" +
		"To: Bob <sip:bob@example.com>;tag=a6c85cf\r\n" +
		"From: Alice <sip:alice@example.com>;tag=1928301774\r\n" +
		"Call-ID: " + callID + "\r\n" +
		"CSeq: 314159 INVITE\r\n" +
		"Contact: <sip:bob@192.0.2.4>\r\n" +
		"Content-Length: 0\r\n\r\n"
}

func TestEmitsTwoBackToBackMessagesOneNextAtATime(t *testing.T) {
	inst, err := newInstance("")
	require.NoError(t, err)

	msg1 := sipResponse("call-1@pc33.example.com")
	msg2 := sipResponse("call-2@pc33.example.com")

	ch := dchan.New(8)
	ch.Send(chunk(msg1+msg2), make(chan struct{}))
	ch.Close()

	sendCh := dchan.New(8)
	node := &runtime.Node{
		TaskID:    "parser",
		Instance:  inst,
		RecvFanIn: []*dchan.FanIn{dchan.NewFanIn([]*dchan.Channel{ch}, []int{0})},
		SendEdges: [][]*dchan.Channel{{sendCh}},
	}
	require.NoError(t, runtime.NewWorker(node, runtime.NewCloser(), nil).Run())

	var envs []sipEnvelope
	for {
		msg, ok := sendCh.TryRecv()
		if !ok {
			break
		}
		var env sipEnvelope
		require.NoError(t, json.Unmarshal(msg.Data(), &env))
		envs = append(envs, env)
		msg.Free()
	}
	require.Len(t, envs, 2)
	assert.Equal(t, "response", envs[0].Kind)
	assert.Equal(t, 200, envs[0].Status)
	assert.Equal(t, "call-1@pc33.example.com", envs[0].CallID)
	assert.Equal(t, "response", envs[1].Kind)
	assert.Equal(t, "call-2@pc33.example.com", envs[1].CallID)
}
