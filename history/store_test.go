// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/converse/chat"
)

// =============================================================================
// STORE TESTS
// =============================================================================

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "conversations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	want := sampleHistory()

	id, err := store.Save(ctx, "", "weather chat", want)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := store.Load(ctx, id)
	require.NoError(t, err)
	requireEqualHistories(t, want, got)
}

func TestStore_SaveUpdatesExistingRecord(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := []chat.Message{chat.NewUserMessage("hello")}
	id, err := store.Save(ctx, "", "chat", first)
	require.NoError(t, err)

	second := append(first, chat.NewAssistantMessage("hi there"))
	sameID, err := store.Save(ctx, id, "chat", second)
	require.NoError(t, err)
	require.Equal(t, id, sameID)

	got, err := store.Load(ctx, id)
	require.NoError(t, err)
	requireEqualHistories(t, second, got)

	// Still a single record.
	metas, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 1)
}

func TestStore_List(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "", "first", []chat.Message{chat.NewUserMessage("a")})
	require.NoError(t, err)
	_, err = store.Save(ctx, "", "second", []chat.Message{chat.NewUserMessage("b"), chat.NewAssistantMessage("c")})
	require.NoError(t, err)

	metas, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 2)

	byTitle := map[string]Meta{}
	for _, m := range metas {
		require.NotEmpty(t, m.ID)
		require.False(t, m.CreatedAt.IsZero())
		require.False(t, m.UpdatedAt.IsZero())
		byTitle[m.Title] = m
	}
	require.Equal(t, 1, byTitle["first"].MessageCount)
	require.Equal(t, 2, byTitle["second"].MessageCount)
}

func TestStore_Delete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, "", "doomed", []chat.Message{chat.NewUserMessage("x")})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))

	_, err = store.Load(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, store.Delete(ctx, id), ErrNotFound)
}

func TestStore_LoadUnknownID(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Load(context.Background(), "no-such-id")
	require.ErrorIs(t, err, ErrNotFound)
}
