package broadcast

import (
	"encoding/json"

	"github.com/shaneah/infyemailer-sub010/internal/domain"
)

// MessageType is the type discriminator on every outbound metrics message.
const MessageType = "email-metrics-update"

// SubscribeChannel is the advisory channel name clients subscribe to. All
// subscribers receive all updates regardless; the subscription is a no-op.
const SubscribeChannel = "email-metrics"

// metricsUpdate is the outbound wire envelope: the snapshot fields flattened
// next to the type discriminator.
type metricsUpdate struct {
	Type string `json:"type"`
	domain.Snapshot
}

// ClientMessage is the only recognized inbound message shape. Anything else
// is ignored.
type ClientMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

func encodeSnapshot(snapshot domain.Snapshot) ([]byte, error) {
	return json.Marshal(metricsUpdate{Type: MessageType, Snapshot: snapshot})
}
