package models

import "time"

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is one message of a PRD refinement conversation. Turns are kept
// in the chat log, not in the relational store.
type ChatTurn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}
