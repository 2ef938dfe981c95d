// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package converse is a client library for a hosted conversational-
// completion API. It builds completion requests, maintains per-session
// message history, and decodes both whole and incrementally streamed
// responses.
//
// # Key Types
//
//   - Client: HTTP client for the completions endpoint with bearer auth,
//     connection pooling, and optional proxy and request pacing
//   - Conversation: ordered message history with single-shot and
//     streaming send operations
//   - Stream: a live, cancellable sequence of decoded response events
//
// # Usage
//
// Create a client and hold a conversation:
//
//	client, err := converse.New(apiKey)
//	if err != nil {
//	    return err
//	}
//	conv := client.NewConversation()
//	resp, err := conv.Send(ctx, "Describe quantum entanglement briefly.")
//
// For streaming responses:
//
//	s, err := conv.SendStreaming(ctx, "Write a haiku about networks.")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	for ev := range s.Events() {
//	    if ev.Type == stream.EventContent {
//	        fmt.Print(ev.Delta)
//	    }
//	}
//
// The transport is treated as an opaque byte stream: fragments may split
// or bundle events arbitrarily and the decoder reassembles them. Retry
// policy, authentication schemes beyond the bearer header, and
// rate-limit recovery are left to the embedding application.
package converse
