package bridge

import "encoding/json"

// Message types on the wire
const (
	TypeInvoke  = "invoke"  // front end → native: call a command
	TypeReply   = "reply"   // native → front end: command outcome
	TypeEvent   = "event"   // native → front end: notification
	TypeRequest = "request" // native → front end: notification that expects an ack
	TypeEval    = "eval"    // native → front end: evaluate script, expects an ack
	TypeAck     = "ack"     // front end → native: answer to request/eval
	TypeReady   = "ready"   // front end → native: window can receive notifications
	TypeFocus   = "focus"   // front end → native: window became active
)

// Message is the single envelope used in both directions.
type Message struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Command string          `json:"command,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Script  string          `json:"script,omitempty"`
	OK      bool            `json:"ok,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func encodePayload(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}
