// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "encoding/json"

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether the role is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleFunction:
		return true
	}
	return false
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
//
// Messages are treated as immutable once appended to a history: the
// conversation engine only ever appends, never edits in place.
type Message struct {
	Role    Role   `json:"role" cbor:"1,keyasint"`
	Content string `json:"content" cbor:"2,keyasint"`

	// FunctionCall is set on assistant messages when the model requests
	// a function invocation instead of (or alongside) plain content.
	FunctionCall *FunctionCall `json:"function_call,omitempty" cbor:"3,keyasint,omitempty"`
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewFunctionMessage creates a function-result message for the named function.
func NewFunctionMessage(name string, result string) Message {
	return Message{
		Role:    RoleFunction,
		Content: result,
		FunctionCall: &FunctionCall{
			Name: name,
		},
	}
}

// IsEmpty returns true if the message carries neither content nor a
// function call.
func (m Message) IsEmpty() bool {
	return m.Content == "" && m.FunctionCall == nil
}

// Equal reports whether two messages carry the same role, content, and
// function-call payload. Used by persistence round-trip checks.
func (m Message) Equal(other Message) bool {
	if m.Role != other.Role || m.Content != other.Content {
		return false
	}
	switch {
	case m.FunctionCall == nil && other.FunctionCall == nil:
		return true
	case m.FunctionCall == nil || other.FunctionCall == nil:
		return false
	}
	return m.FunctionCall.Name == other.FunctionCall.Name &&
		string(m.FunctionCall.Arguments) == string(other.FunctionCall.Arguments)
}

// =============================================================================
// FUNCTION CALL TYPE
// =============================================================================

// FunctionCall is the payload the model returns when it wants a function
// invoked: the function name and its arguments as raw JSON.
type FunctionCall struct {
	Name      string          `json:"name" cbor:"1,keyasint"`
	Arguments json.RawMessage `json:"arguments,omitempty" cbor:"2,keyasint,omitempty"`
}
