package channel

import "time"

// Envelope is the structured message unit exchanged with the peer. The wire
// shape is fixed: any peer implementation must produce and consume exactly
// these keys.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Source    string      `json:"source,omitempty"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

// Sender roles stamped into the source field.
const (
	SourceParent = "parent-app"
	SourcePeer   = "adk-ui"
)

// Recognized envelope types. The type tag is an open string: peers may
// define extensions, and unknown types are accepted rather than rejected.
const (
	TypeInitialize        = "initialize"
	TypeContextUpdate     = "context_update"
	TypeStartValidation   = "start_validation"
	TypeClearContext      = "clear_context"
	TypeReady             = "ready"
	TypeAgentResponse     = "agent_response"
	TypeStatusUpdate      = "status_update"
	TypeError             = "error"
	TypeNavigationRequest = "navigation_request"
)

// now returns the sender timestamp in milliseconds since epoch.
// Overridable in tests.
var now = func() int64 {
	return time.Now().UnixMilli()
}
