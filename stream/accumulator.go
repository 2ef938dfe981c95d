// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"sort"
	"strings"

	"github.com/jeranaias/converse/chat"
)

// =============================================================================
// ACCUMULATOR
// =============================================================================

// Accumulator folds a sequence of Events back into whole messages, one
// partial-content builder per response index. It reconstructs every
// parallel candidate from interleaved deltas when more than one
// completion was requested.
type Accumulator struct {
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	parts  map[int]*strings.Builder
	roles  map[int]chat.Role
	closed map[int]bool
	done   bool
	err    error
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		parts:  make(map[int]*strings.Builder),
		roles:  make(map[int]chat.Role),
		closed: make(map[int]bool),
	}
}

// Add processes one event.
func (a *Accumulator) Add(ev Event) {
	switch ev.Type {
	case EventBegin:
		a.roles[ev.Index] = ev.Role
		a.builder(ev.Index)
	case EventContent:
		a.builder(ev.Index).WriteString(ev.Delta)
	case EventClose:
		a.closed[ev.Index] = true
	case EventDone:
		a.done = true
	case EventError:
		if a.err == nil {
			a.err = ev.Err
		}
	}
}

// Done returns true once the terminal event has been seen.
func (a *Accumulator) Done() bool {
	return a.done
}

// Err returns the first decode error seen, if any.
func (a *Accumulator) Err() error {
	return a.err
}

// Content returns the accumulated content for one response index.
func (a *Accumulator) Content(index int) string {
	if b, ok := a.parts[index]; ok {
		return b.String()
	}
	return ""
}

// Message assembles the candidate at the given index into a Message. The
// role defaults to assistant when the stream never announced one.
func (a *Accumulator) Message(index int) chat.Message {
	role, ok := a.roles[index]
	if !ok {
		role = chat.RoleAssistant
	}
	return chat.Message{Role: role, Content: a.Content(index)}
}

// Messages assembles every candidate seen so far, ordered by response
// index.
func (a *Accumulator) Messages() []chat.Message {
	indexes := make([]int, 0, len(a.parts))
	for i := range a.parts {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	msgs := make([]chat.Message, 0, len(indexes))
	for _, i := range indexes {
		msgs = append(msgs, a.Message(i))
	}
	return msgs
}

// builder returns the content builder for an index, creating it on first
// use.
func (a *Accumulator) builder(index int) *strings.Builder {
	b, ok := a.parts[index]
	if !ok {
		b = &strings.Builder{}
		a.parts[index] = b
	}
	return b
}
