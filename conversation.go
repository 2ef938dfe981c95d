// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package converse

import (
	"context"
	"os"
	"sync"

	"github.com/jeranaias/converse/chat"
	"github.com/jeranaias/converse/history"
)

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation owns an ordered, append-only message history and folds
// send results back into it.
//
// History mutation follows a deferred-append contract: the outgoing user
// message and the resulting assistant message are appended together,
// only after the backend accepted the request. A failed send leaves the
// history exactly as it was.
//
// A mutex serializes sends, so two in-flight sends never interleave
// their appends; callers wanting concurrency should use separate
// Conversation instances.
type Conversation struct {
	client *Client

	mu      sync.Mutex
	history []chat.Message

	// storeID is the record ID when the conversation came from or was
	// saved to a history.Store.
	storeID string
}

// History returns a snapshot copy of the message history in
// chronological order.
func (c *Conversation) History() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]chat.Message, len(c.history))
	copy(out, c.history)
	return out
}

// MessageCount returns the number of messages in the history.
func (c *Conversation) MessageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

// LastMessage returns the most recent message and true, or a zero
// message and false for an empty history.
func (c *Conversation) LastMessage() (chat.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.history) == 0 {
		return chat.Message{}, false
	}
	return c.history[len(c.history)-1], true
}

// =============================================================================
// SEND OPERATIONS
// =============================================================================

// Send appends a user message, issues a non-streamed request, and on
// success appends the first returned completion as the assistant turn.
// On any error — transport, parsing, or a backend error envelope —
// nothing is appended and the history is unchanged.
func (c *Conversation) Send(ctx context.Context, message string) (*chat.CompletionResponse, error) {
	return c.send(ctx, message, nil)
}

// SendWithFunctions is Send with function descriptors attached to the
// request. The appended assistant message may carry a function-call
// payload instead of (or alongside) plain content.
func (c *Conversation) SendWithFunctions(ctx context.Context, message string, functions []chat.FunctionDescriptor) (*chat.CompletionResponse, error) {
	return c.send(ctx, message, functions)
}

func (c *Conversation) send(ctx context.Context, message string, functions []chat.FunctionDescriptor) (*chat.CompletionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	userMsg := chat.NewUserMessage(message)
	snapshot := make([]chat.Message, 0, len(c.history)+1)
	snapshot = append(snapshot, c.history...)
	snapshot = append(snapshot, userMsg)

	var resp *chat.CompletionResponse
	var err error
	if len(functions) > 0 {
		resp, err = c.client.SendHistoryFunctions(ctx, snapshot, functions)
	} else {
		resp, err = c.client.SendHistory(ctx, snapshot)
	}
	if err != nil {
		return nil, err
	}

	c.history = append(c.history, userMsg, resp.FirstMessage())
	return resp, nil
}

// SendStreaming appends a user message once the stream opens and returns
// the live event sequence. The streamed assistant content is NOT folded
// back into the history automatically; pass the finished stream to
// ApplyStream to do that explicitly.
//
// When the backend rejects the request the stream is never opened, the
// user message is not appended, and the error is returned. A backend
// that answers a streamed request with an error envelope and a success
// status produces an empty stream.
func (c *Conversation) SendStreaming(ctx context.Context, message string) (*Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	userMsg := chat.NewUserMessage(message)
	snapshot := make([]chat.Message, 0, len(c.history)+1)
	snapshot = append(snapshot, c.history...)
	snapshot = append(snapshot, userMsg)

	s, err := c.client.SendHistoryStreaming(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	c.history = append(c.history, userMsg)
	return s, nil
}

// ApplyStream drains a stream returned by SendStreaming, appends the
// first candidate's accumulated message to the history, and returns it.
// On a decode error nothing is appended. An empty stream, which is how
// a backend error under a success status presents, appends nothing
// either: the history never gains a blank assistant turn.
func (c *Conversation) ApplyStream(s *Stream) (chat.Message, error) {
	acc, err := s.Accumulate()
	if err != nil {
		return chat.Message{}, err
	}

	msg := acc.Message(0)
	if msg.IsEmpty() {
		return msg, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, msg)
	return msg, nil
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// SaveHistoryJSON persists the history to a file in the human-readable
// encoding.
func (c *Conversation) SaveHistoryJSON(path string) error {
	data, err := history.EncodeJSON(c.History())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SaveHistoryBinary persists the history to a file in the compact
// binary encoding.
func (c *Conversation) SaveHistoryBinary(path string) error {
	data, err := history.EncodeBinary(c.History())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SaveToStore persists the history into a conversation store. The first
// save allocates a record ID; later saves update the same record.
func (c *Conversation) SaveToStore(ctx context.Context, store *history.Store, title string) (string, error) {
	c.mu.Lock()
	id := c.storeID
	c.mu.Unlock()

	id, err := store.Save(ctx, id, title, c.History())
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.storeID = id
	c.mu.Unlock()
	return id, nil
}
