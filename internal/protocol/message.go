package protocol

import (
	"github.com/google/go-dap"
	"github.com/tidwall/gjson"
)

// Message types on the host wire.
const (
	TypeRequest  = "request"
	TypeResponse = "response"
	TypeEvent    = "event"
)

// Envelope is the peeked header of one raw host frame. Raw keeps the original
// bytes so pass-through commands can be forwarded verbatim without a
// round-trip through typed structs.
type Envelope struct {
	Raw     []byte
	Seq     int
	Type    string
	Command string
}

// ParseEnvelope extracts seq, type and command from a raw frame.
func ParseEnvelope(raw []byte) Envelope {
	return Envelope{
		Raw:     raw,
		Seq:     int(gjson.GetBytes(raw, "seq").Int()),
		Type:    gjson.GetBytes(raw, "type").String(),
		Command: gjson.GetBytes(raw, "command").String(),
	}
}

// IsRequest reports whether the frame is a request.
func (e Envelope) IsRequest() bool { return e.Type == TypeRequest }

// AdapterCapabilities is the fixed capability set returned by initialize,
// independent of the request's arguments. The debuggee owns all breakpoint
// and evaluation behavior beyond what is advertised here.
func AdapterCapabilities() dap.Capabilities {
	return dap.Capabilities{
		SupportsConfigurationDoneRequest: true,
		SupportsFunctionBreakpoints:      false,
		SupportsConditionalBreakpoints:   false,
		SupportsEvaluateForHovers:        false,
		ExceptionBreakpointFilters:       []dap.ExceptionBreakpointsFilter{},
	}
}

// NewInitializeResponse builds the initialize response for the given request.
func NewInitializeResponse(seq int, req Envelope) *dap.InitializeResponse {
	return &dap.InitializeResponse{
		Response: newResponse(seq, req),
		Body:     AdapterCapabilities(),
	}
}

// NewAckResponse builds a bare success response echoing the request's
// sequence number and command.
func NewAckResponse(seq int, req Envelope) *dap.Response {
	resp := newResponse(seq, req)
	return &resp
}

// NewErrorResponse builds a failure response for the given request. The
// rendered message is user-facing; the structured body keeps the template.
func NewErrorResponse(seq int, req Envelope, info *ErrorInfo) *dap.ErrorResponse {
	resp := newResponse(seq, req)
	resp.Success = false
	resp.Message = info.Render()
	return &dap.ErrorResponse{
		Response: resp,
		Body:     dap.ErrorResponseBody{Error: info.DAPMessage()},
	}
}

func newResponse(seq int, req Envelope) dap.Response {
	return dap.Response{
		ProtocolMessage: dap.ProtocolMessage{Seq: seq, Type: TypeResponse},
		RequestSeq:      req.Seq,
		Command:         req.Command,
		Success:         true,
	}
}

// NewInitializedEvent signals that the adapter is ready for configuration.
func NewInitializedEvent(seq int) *dap.InitializedEvent {
	return &dap.InitializedEvent{Event: newEvent(seq, "initialized")}
}

// NewTerminatedEvent signals that the debuggee has gone away.
func NewTerminatedEvent(seq int) *dap.TerminatedEvent {
	return &dap.TerminatedEvent{Event: newEvent(seq, "terminated")}
}

// NewOutputEvent carries one chunk of debuggee or player output to the host.
func NewOutputEvent(seq int, category, output string) *dap.OutputEvent {
	return &dap.OutputEvent{
		Event: newEvent(seq, "output"),
		Body:  dap.OutputEventBody{Category: category, Output: output},
	}
}

// NewStoppedEvent reports an execution stop. Synthetic stops produced by the
// player-output heuristic use reason "error" and carry the offending line in
// Text; genuine breakpoint stops are relayed from the debuggee and never pass
// through this constructor.
func NewStoppedEvent(seq int, reason, text string) *dap.StoppedEvent {
	return &dap.StoppedEvent{
		Event: newEvent(seq, "stopped"),
		Body: dap.StoppedEventBody{
			Reason:            reason,
			Text:              text,
			ThreadId:          1,
			AllThreadsStopped: true,
		},
	}
}

func newEvent(seq int, event string) dap.Event {
	return dap.Event{
		ProtocolMessage: dap.ProtocolMessage{Seq: seq, Type: TypeEvent},
		Event:           event,
	}
}
