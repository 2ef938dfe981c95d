// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/jeranaias/converse/chat"
)

// =============================================================================
// WIRE FRAMING CONSTANTS
// =============================================================================

const (
	// linePrefix marks an event line; anything else is a comment or
	// keep-alive and is ignored.
	linePrefix = "data: "

	// eventTerminator separates events on the wire.
	eventTerminator = "\n\n"

	// doneSentinel is the payload of the terminal event.
	doneSentinel = "[DONE]"

	// maxEventSize caps a single carried-over event (64KB). A stream
	// that never terminates an event would otherwise grow the carry
	// without bound.
	maxEventSize = 64 * 1024
)

// =============================================================================
// DECODER
// =============================================================================

// Decoder transforms an arbitrarily fragmented byte stream into an ordered
// sequence of Events. The only state it keeps between calls is the
// carry-over buffer: the trailing text of an event whose terminator has
// not arrived yet.
type Decoder struct {
	carry string
}

// NewDecoder creates a decoder with an empty carry-over buffer.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Pending reports whether text from an incomplete event is being carried
// over to the next fragment.
func (d *Decoder) Pending() bool {
	return d.carry != ""
}

// Reset discards any carried-over text.
func (d *Decoder) Reset() {
	d.carry = ""
}

// Feed decodes one fragment and returns the events completed by it, in
// wire order. An empty fragment is valid and yields no events.
//
// Invalid UTF-8 yields a single EventError and leaves the carry-over
// buffer untouched, so the caller may abandon the stream or skip the
// fragment. A piece whose terminator has not arrived is saved verbatim
// (marker prefix included) and completes on a later call. A payload that
// fails to parse yields an EventError and decoding continues with the
// next piece.
func (d *Decoder) Feed(fragment []byte) []Event {
	if len(fragment) == 0 && d.carry == "" {
		return nil
	}
	if !utf8.Valid(fragment) {
		return []Event{{
			Type: EventError,
			Err:  &chat.ParsingError{Message: "invalid UTF-8 in stream fragment"},
		}}
	}

	text := d.carry + string(fragment)
	d.carry = ""

	var events []Event
	for _, piece := range strings.SplitAfter(text, eventTerminator) {
		if piece == "" {
			continue
		}
		if !strings.HasSuffix(piece, eventTerminator) {
			// Incomplete event: keep it, prefix and all, for the
			// next fragment. SplitAfter guarantees this is the
			// final piece.
			if len(piece) > maxEventSize {
				events = append(events, Event{
					Type: EventError,
					Err:  &chat.ParsingError{Message: "stream event exceeds maximum size"},
				})
				break
			}
			d.carry = piece
			break
		}

		payload, ok := strings.CutPrefix(piece, linePrefix)
		if !ok {
			// Comment or keep-alive line.
			continue
		}
		payload = strings.TrimSuffix(payload, eventTerminator)
		if payload == "" {
			continue
		}

		if payload == doneSentinel {
			events = append(events, Event{Type: EventDone})
			continue
		}

		events = append(events, decodePayload(payload))
	}
	return events
}

// =============================================================================
// PAYLOAD DECODING
// =============================================================================

// inboundDelta is the delta object of one choice. The pointer fields
// distinguish "absent" from "present but empty": a role selects Begin, a
// content string selects Content, and an empty delta selects Close.
type inboundDelta struct {
	Role    *chat.Role `json:"role"`
	Content *string    `json:"content"`
}

// inboundChunk is the JSON payload of one non-terminal event.
type inboundChunk struct {
	Choices []struct {
		Index int          `json:"index"`
		Delta inboundDelta `json:"delta"`
	} `json:"choices"`
}

// decodePayload classifies a single event payload into an Event.
func decodePayload(payload string) Event {
	var chunk inboundChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return Event{
			Type: EventError,
			Err:  &chat.ParsingError{Message: "decoding stream payload", Err: err},
		}
	}
	if len(chunk.Choices) == 0 {
		return Event{
			Type: EventError,
			Err:  &chat.ParsingError{Message: "stream payload has no choices"},
		}
	}

	choice := chunk.Choices[0]
	switch {
	case choice.Delta.Role != nil:
		return Event{Type: EventBegin, Role: *choice.Delta.Role, Index: choice.Index}
	case choice.Delta.Content != nil:
		return Event{Type: EventContent, Delta: *choice.Delta.Content, Index: choice.Index}
	default:
		return Event{Type: EventClose, Index: choice.Index}
	}
}
