// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package converse

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/jeranaias/converse/chat"
	"github.com/jeranaias/converse/stream"
)

// readChunkSize is the read buffer for the streamed response body. The
// decoder is fragmentation-invariant, so the size only affects latency.
const readChunkSize = 4096

// =============================================================================
// LIVE STREAM
// =============================================================================

// Stream is a live streamed response: a lazy, non-restartable sequence
// of decoded events. The channel closes after the terminal Done event,
// on context cancellation, or when the connection ends.
//
// Stopping early is safe: Close (or cancelling the context passed to the
// send call) releases the connection, and no partially decoded event is
// ever delivered twice.
type Stream struct {
	events    chan stream.Event
	body      io.ReadCloser
	done      chan struct{}
	closeOnce sync.Once
}

// newStream starts decoding the response body in the background.
func newStream(ctx context.Context, body io.ReadCloser) *Stream {
	s := &Stream{
		events: make(chan stream.Event, 64),
		body:   body,
		done:   make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// Events returns the event channel. Consume it with range; it closes
// when the stream ends.
func (s *Stream) Events() <-chan stream.Event {
	return s.events
}

// Close releases the underlying connection and unblocks the background
// reader, so abandoning a stream mid-way leaks nothing even when the
// send context is still live. It is safe to call more than once and
// safe to call while another goroutine is still draining Events.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.body.Close()
	})
	return err
}

// run reads raw fragments, feeds the decoder, and forwards events.
func (s *Stream) run(ctx context.Context) {
	defer close(s.events)
	defer s.Close()

	dec := stream.NewDecoder()
	buf := make([]byte, readChunkSize)

	for {
		n, err := s.body.Read(buf)
		if n > 0 {
			for _, ev := range dec.Feed(buf[:n]) {
				select {
				case s.events <- ev:
				case <-ctx.Done():
					return
				case <-s.done:
					return
				}
				if ev.Type == stream.EventDone {
					return
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.deliver(ctx, stream.Event{
					Type: stream.EventError,
					Err:  &chat.TransportError{Err: err},
				})
			}
			return
		}
	}
}

// deliver sends one event unless the stream was closed or the context
// cancelled.
func (s *Stream) deliver(ctx context.Context, ev stream.Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	case <-s.done:
	}
}

// Accumulate drains the stream into an accumulator, blocking until the
// stream ends. The accumulator's Err reports the first decode error.
func (s *Stream) Accumulate() (*stream.Accumulator, error) {
	acc := stream.NewAccumulator()
	for ev := range s.events {
		acc.Add(ev)
	}
	return acc, acc.Err()
}
