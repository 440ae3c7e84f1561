package tcp

import "encoding/json"

// Message is one newline-delimited envelope on the wire.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ConnectPayload identifies the connecting user. An empty user id asks the
// server to generate one.
type ConnectPayload struct {
	User string `json:"user,omitempty"`
}

// TextPayload carries one text message to or from a user.
type TextPayload struct {
	User string `json:"user,omitempty"`
	Text string `json:"text"`
}

const (
	actionConnect   = "connect"
	actionConnected = "connected"
	actionMessage   = "message"
)

func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
