package ws

import "encoding/json"

// Event names pushed to clients. OnlineUsers carries the full
// online-id snapshot; the other two carry a full message payload.
const (
	EventNewMessage  = "newMessage"
	EventMessageSeen = "messageSeen"
	EventOnlineUsers = "getOnlineUsers"

	// EventSetup is inbound: a client re-announces its user id on an
	// already-open connection. Re-binding is idempotent.
	EventSetup = "setup"
)

// Envelope is the wire format for everything on the push channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func NewEnvelope(event string, payload any) (*Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{Event: event, Data: b}, nil
}
