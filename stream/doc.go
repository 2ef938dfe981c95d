// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the server-push event framing used by streamed
// completion responses.
//
// The backend delivers a UTF-8 text stream in which events are separated
// by a blank line, every event line starts with the "data: " marker, and
// the payload of the final event is the literal token "[DONE]". The
// network is free to fragment that stream anywhere, so the Decoder keeps
// a carry-over buffer holding the trailing text of an event that has not
// fully arrived yet.
//
// # Usage
//
// Feed raw fragments as they arrive and consume the decoded events:
//
//	dec := stream.NewDecoder()
//	for fragment := range fragments {
//	    for _, ev := range dec.Feed(fragment) {
//	        switch ev.Type {
//	        case stream.EventContent:
//	            fmt.Print(ev.Delta)
//	        case stream.EventDone:
//	            return
//	        }
//	    }
//	}
//
// Decoding the same byte sequence yields the same ordered events no
// matter how it is fragmented. A malformed payload becomes an
// EventError carrying a typed decode error; it never aborts the stream.
package stream
