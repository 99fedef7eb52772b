// Package chat bridges the conversation engine to chat platforms (Discord, Slack).
package chat

import (
	"context"
	"time"
)

// Adapter is the interface that platform-specific implementations must satisfy.
// Each adapter handles connection management and translation between platform
// events and the engine's event/message types.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound events from the platform.
	// The channel is closed when the context is cancelled or the adapter
	// is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan InboundEvent, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// EventKind distinguishes free-text messages from button presses.
type EventKind int

const (
	// EventText is a free-text message typed by the user.
	EventText EventKind = iota
	// EventAction is a press of an inline button.
	EventAction
)

// InboundEvent represents one user event received from the chat platform.
type InboundEvent struct {
	Platform     string    // e.g. "discord", "slack"
	Conversation string    // platform-specific conversation (channel/DM) identifier
	UserID       string    // platform-specific user identifier
	UserName     string    // human-readable username
	Kind         EventKind
	Text         string    // message text, set for EventText
	Action       Action    // decoded button action, set for EventAction
	MessageID    string    // message the pressed button was attached to
	Timestamp    time.Time // when the event occurred
}

// OutboundMessage represents a message to be sent to the chat platform.
type OutboundMessage struct {
	Conversation string     // target conversation; empty means the adapter's default channel
	Text         string     // markdown-formatted message text
	ImageURL     string     // optional image attachment
	Buttons      [][]Button // inline button rows attached to the message
	ClearButtons bool       // edit MessageID to remove its buttons instead of sending
	MessageID    string     // target message for ClearButtons
}

// Button is one inline action button.
type Button struct {
	Label  string
	Action Action
}

// BotUserIDer is an optional interface that adapters can implement to
// expose the bot's own user ID. This enables self-message filtering.
type BotUserIDer interface {
	BotUserID() string
}
