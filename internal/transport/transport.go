// Package transport defines the capability interface the engine consumes
// from the hosting proxy. The engine emits message keys with placeholder
// parameters; rendering (localization, formatting) is the host's concern.
package transport

import "github.com/gateward/gateward/internal/model"

// Messenger carries engine instructions back to a held connection
type Messenger interface {
	// SendMessage delivers a user-facing message identified by a catalog
	// key with placeholder parameters
	SendMessage(connID model.ConnectionID, key string, params map[string]string)

	// Release lets the connection proceed to its real destination
	Release(connID model.ConnectionID)

	// Disconnect terminates the connection with a localized reason
	Disconnect(connID model.ConnectionID, key string, params map[string]string)
}

// Message catalog keys the engine emits
const (
	MsgWelcome         = "verification.welcome"
	MsgChatPrompt      = "verification.chat-prompt"
	MsgChatRetry       = "verification.chat-retry"
	MsgMovementPrompt  = "verification.movement-prompt"
	MsgMovementAdvance = "verification.movement-advance"
	MsgSuccess         = "verification.success"
	MsgFailed          = "verification.failed"
	MsgTimedOut        = "verification.timed-out"
	MsgPenaltyActive   = "verification.penalty-active"
)
