package models

import "time"

// Role distinguishes the two sides of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message within a Session.
type Turn struct {
	Role    Role
	Content string
	TS      time.Time
}

// Session is the ordered sequence of turns under one opaque id. Turns
// alternate beginning with a user turn; LastSeenAt is always >= CreatedAt.
type Session struct {
	ID         string
	Turns      []Turn
	CreatedAt  time.Time
	LastSeenAt time.Time
}
