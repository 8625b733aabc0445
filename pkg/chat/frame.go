// Package chat implements the real-time messaging core: the connection
// registry, the per-connection session state machine and the wire codec.
//
// Wire contract: inbound text frames are either a bare message body or a
// JSON object {"message": "<body>"}; both are accepted because different
// client runtimes can only produce one of the two. Outbound frames are
// always JSON {"sender": "<label>", "message": "<body>"}, with the label
// "Me" for the reader's own messages and the peer's display name otherwise.
// Per-message failures are reported as {"error": "<reason>"}. Frames whose
// decoded body is empty or whitespace-only are rejected, never persisted.
package chat

import (
	"encoding/json"
	"strings"
)

// SelfLabel tags the reader's own messages in replay and echo frames.
const SelfLabel = "Me"

// Frame is the decoded form of an inbound text frame. Wrapped records which
// of the two accepted payload conventions the client used.
type Frame struct {
	Body    string
	Wrapped bool
}

// Empty reports whether the frame carries no usable body.
func (f Frame) Empty() bool {
	return strings.TrimSpace(f.Body) == ""
}

// DecodeInbound is a tagged decode, not an error-driven fallback: a JSON
// object carrying a "message" key unwraps, everything else is the literal
// body.
func DecodeInbound(data []byte) Frame {
	var wrapped struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Message != nil {
		return Frame{Body: *wrapped.Message, Wrapped: true}
	}
	return Frame{Body: string(data)}
}

type outboundFrame struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

type errorFrame struct {
	Error string `json:"error"`
}

func EncodeOutbound(sender, body string) []byte {
	data, _ := json.Marshal(outboundFrame{Sender: sender, Message: body})
	return data
}

func EncodeError(reason string) []byte {
	data, _ := json.Marshal(errorFrame{Error: reason})
	return data
}
