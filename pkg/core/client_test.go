package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmemory-ai/openmemory-go/pkg/vectorstore"
)

func seedMemory(t *testing.T, store *fakeStore, id int64, userID, content string, metadata map[string]interface{}) {
	t.Helper()
	require.NoError(t, store.Insert(context.Background(), &vectorstore.Memory{
		ID:       id,
		UserID:   userID,
		Content:  content,
		Metadata: metadata,
	}))
}

func TestSearchScopedToUser(t *testing.T) {
	store := newFakeStore()
	seedMemory(t, store, 1, "alice", "Lives in Berlin", nil)
	seedMemory(t, store, 2, "bob", "Lives in Tokyo", nil)

	emb := &fakeEmbedder{}
	client := newTestClient(store, &fakeLLM{}, emb)

	results, err := client.Search(context.Background(), "where does the user live",
		WithUserIDForSearch("alice"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Lives in Berlin", results[0].Content)
	assert.Equal(t, []string{"where does the user live"}, emb.calls)
}

func TestSearchExcludesArchivedAndPaused(t *testing.T) {
	store := newFakeStore()
	seedMemory(t, store, 1, "alice", "active memory", nil)
	seedMemory(t, store, 2, "alice", "archived memory", nil)
	seedMemory(t, store, 3, "alice", "paused memory", nil)

	client := newTestClient(store, &fakeLLM{}, &fakeEmbedder{})
	ctx := context.Background()

	require.NoError(t, client.Archive(ctx, []int64{2}, WithUserIDForUpdate("alice")))
	require.NoError(t, client.Pause(ctx, []int64{3}, WithUserIDForUpdate("alice")))

	results, err := client.Search(ctx, "memory", WithUserIDForSearch("alice"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "active memory", results[0].Content)

	// Resume brings a paused memory back into search
	require.NoError(t, client.Resume(ctx, []int64{3}, WithUserIDForUpdate("alice")))
	results, err = client.Search(ctx, "memory", WithUserIDForSearch("alice"))
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestGetReturnsAttachmentIDs(t *testing.T) {
	store := newFakeStore()
	seedMemory(t, store, 5, "alice", "Lives in Berlin", map[string]interface{}{
		"attachment_ids": []string{"att-1", "att-2"},
	})

	client := newTestClient(store, &fakeLLM{}, &fakeEmbedder{})

	memory, err := client.Get(context.Background(), 5, WithUserIDForGet("alice"))
	require.NoError(t, err)
	assert.Equal(t, "Lives in Berlin", memory.Content)
	assert.Equal(t, []string{"att-1", "att-2"}, memory.AttachmentIDs())
}

func TestUpdateRewritesContentKeepsMetadata(t *testing.T) {
	store := newFakeStore()
	seedMemory(t, store, 5, "alice", "Lives in Paris", map[string]interface{}{
		"attachment_ids": []string{"att-1"},
		"source":         "chat",
	})

	emb := &fakeEmbedder{}
	client := newTestClient(store, &fakeLLM{}, emb)

	memory, err := client.Update(context.Background(), 5, "Lives in Berlin",
		WithUserIDForUpdate("alice"))
	require.NoError(t, err)
	assert.Equal(t, "Lives in Berlin", memory.Content)
	assert.Equal(t, []string{"att-1"}, memory.AttachmentIDs())
	assert.Equal(t, "chat", memory.Metadata["source"])
	assert.Equal(t, []string{"Lives in Berlin"}, emb.calls, "update re-embeds the new content")
}

func TestDeleteRemovesMemory(t *testing.T) {
	store := newFakeStore()
	seedMemory(t, store, 5, "alice", "x", nil)

	client := newTestClient(store, &fakeLLM{}, &fakeEmbedder{})

	require.NoError(t, client.Delete(context.Background(), 5, WithUserIDForDelete("alice")))
	_, err := client.Get(context.Background(), 5)
	assert.Error(t, err)
}

func TestDeleteMemoriesKeepsAttachmentsByDefault(t *testing.T) {
	store := newFakeStore()
	client := newTestClient(store, &fakeLLM{}, &fakeEmbedder{})
	ctx := context.Background()

	att, err := client.Attachments().Create(ctx, "the full document", nil)
	require.NoError(t, err)

	seedMemory(t, store, 5, "alice", "summary", map[string]interface{}{
		"attachment_ids": []string{att.ID.String()},
	})

	require.NoError(t, client.DeleteMemories(ctx, []int64{5}, false, WithUserIDForDelete("alice")))
	assert.Zero(t, store.count())

	// The attachment outlives the memory
	kept, err := client.Attachments().Get(ctx, att.ID)
	require.NoError(t, err)
	assert.Equal(t, "the full document", kept.Content)
}

func TestDeleteMemoriesCascadesToAttachments(t *testing.T) {
	store := newFakeStore()
	client := newTestClient(store, &fakeLLM{}, &fakeEmbedder{})
	ctx := context.Background()

	att, err := client.Attachments().Create(ctx, "the full document", nil)
	require.NoError(t, err)

	seedMemory(t, store, 5, "alice", "summary", map[string]interface{}{
		"attachment_ids": []string{att.ID.String()},
	})

	require.NoError(t, client.DeleteMemories(ctx, []int64{5}, true, WithUserIDForDelete("alice")))
	assert.Zero(t, store.count())

	_, err = client.Attachments().Get(ctx, att.ID)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

func TestDeleteMemoriesContinuesPastFailures(t *testing.T) {
	store := newFakeStore()
	seedMemory(t, store, 1, "alice", "first", nil)
	seedMemory(t, store, 3, "alice", "third", nil)

	client := newTestClient(store, &fakeLLM{}, &fakeEmbedder{})

	err := client.DeleteMemories(context.Background(), []int64{1, 2, 3}, false,
		WithUserIDForDelete("alice"))
	assert.Error(t, err, "missing memory reports an error")
	assert.Zero(t, store.count(), "remaining memories are still deleted")
}

func TestGetAllFiltersByState(t *testing.T) {
	store := newFakeStore()
	seedMemory(t, store, 1, "alice", "a", nil)
	seedMemory(t, store, 2, "alice", "b", nil)

	client := newTestClient(store, &fakeLLM{}, &fakeEmbedder{})
	ctx := context.Background()

	require.NoError(t, client.Archive(ctx, []int64{2}, WithUserIDForUpdate("alice")))

	all, err := client.GetAll(ctx, WithUserIDForGetAll("alice"))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	archived, err := client.GetAll(ctx,
		WithUserIDForGetAll("alice"),
		WithStateForGetAll(StateArchived),
	)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "b", archived[0].Content)
}

func TestDeleteAllScopedToUser(t *testing.T) {
	store := newFakeStore()
	seedMemory(t, store, 1, "alice", "a", nil)
	seedMemory(t, store, 2, "bob", "b", nil)

	client := newTestClient(store, &fakeLLM{}, &fakeEmbedder{})

	require.NoError(t, client.DeleteAll(context.Background(), WithUserIDForDeleteAll("alice")))
	assert.Equal(t, 1, store.count())
}

func TestCloseReleasesProviders(t *testing.T) {
	client := newTestClient(newFakeStore(), &fakeLLM{}, &fakeEmbedder{})
	assert.NoError(t, client.Close())
}
