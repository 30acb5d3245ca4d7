// Package bus names the publish-subscribe transport's interface: the
// mechanism by which signed events reach the registry and by which a store
// broadcasts its state changes outward. §1 places the transport itself out
// of scope ("the publish-subscribe transport that delivers signed events");
// this package only specifies the boundary.
//
// Adapted from the teacher's internal/bus/types.go, trimmed of the
// channel-specific fields (Telegram/Discord media attachments, peer-kind
// session-key derivation) that belonged to its multi-channel chat gateway
// and have no analogue here.
package bus

import (
	"context"

	"github.com/tenex-chat/tenex-sub007/pkg/wire"
)

// EventHandler handles one signed event delivered off the transport.
type EventHandler func(wire.Event)

// BroadcastKind tags what kind of state change a Broadcast announces.
type BroadcastKind string

const (
	BroadcastKindNewConversation BroadcastKind = "conversation"
	BroadcastKindMetadata        BroadcastKind = "metadata"
)

// Broadcast is a server-side notification of a state change to a store,
// for any out-of-process observer subscribed through the transport. This
// package only defines its shape; internal/registry does not emit
// Broadcasts.
type Broadcast struct {
	Kind           BroadcastKind `json:"kind"`
	ConversationID string        `json:"conversationId"`
	Payload        any           `json:"payload,omitempty"`
}

// BroadcastHandler handles one outgoing Broadcast.
type BroadcastHandler func(Broadcast)

// EventPublisher abstracts inbound event subscription and outbound
// broadcast. A concrete transport (internal/relay is one reference
// implementation) decodes wire bytes into wire.Event and calls back into
// this interface's consumer; this package never touches bytes on the wire
// itself.
type EventPublisher interface {
	Subscribe(id string, handler EventHandler)
	Unsubscribe(id string)
	Broadcast(b Broadcast)
}

// MessageRouter abstracts inbound event ingestion and outbound broadcast
// delivery between the transport and the registry.
type MessageRouter interface {
	PublishInbound(event wire.Event)
	ConsumeInbound(ctx context.Context) (wire.Event, bool)
	PublishOutbound(b Broadcast)
	SubscribeOutbound(ctx context.Context) (Broadcast, bool)
}
