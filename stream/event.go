// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "github.com/jeranaias/converse/chat"

// =============================================================================
// EVENT TYPES
// =============================================================================

// EventType identifies the variant of a decoded response event.
type EventType int

const (
	// EventBegin announces the role of one candidate completion.
	EventBegin EventType = iota + 1

	// EventContent carries an incremental content delta.
	EventContent

	// EventClose marks one candidate completion as finished.
	EventClose

	// EventDone is the terminal event of the whole stream.
	EventDone

	// EventError carries a typed decode error. The stream continues;
	// the consumer decides whether to keep reading.
	EventError
)

// String returns the name of the event type.
func (t EventType) String() string {
	switch t {
	case EventBegin:
		return "begin"
	case EventContent:
		return "content"
	case EventClose:
		return "close"
	case EventDone:
		return "done"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// =============================================================================
// EVENT
// =============================================================================

// Event is one decoded element of a streamed response.
//
// Index identifies which parallel candidate a delta belongs to when more
// than one completion is requested; for single-reply requests it is 0.
type Event struct {
	Type EventType

	// Role is set on EventBegin.
	Role chat.Role

	// Delta is set on EventContent.
	Delta string

	// Index is the response index (EventBegin, EventContent, EventClose).
	Index int

	// Err is set on EventError.
	Err error
}

// IsDone returns true for the terminal event.
func (e Event) IsDone() bool {
	return e.Type == EventDone
}

// IsError returns true if the event carries a decode error.
func (e Event) IsError() bool {
	return e.Type == EventError
}
