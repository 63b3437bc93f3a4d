package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartConversation(t *testing.T) {
	ctx := context.Background()

	t.Run("validates input", func(t *testing.T) {
		uc := NewStartConversationUseCase(newFakeRepo(), &fakeFeed{})

		_, err := uc.Execute(ctx, StartConversationInput{CurrentUserID: "alice"})
		assert.Error(t, err)

		_, err = uc.Execute(ctx, StartConversationInput{CurrentUserID: "alice", OtherUserID: "alice"})
		assert.Error(t, err)
	})

	t.Run("repeat calls return the same id in either argument order", func(t *testing.T) {
		repo := newFakeRepo()
		uc := NewStartConversationUseCase(repo, &fakeFeed{})

		first, err := uc.Execute(ctx, StartConversationInput{CurrentUserID: "alice", OtherUserID: "bob"})
		require.NoError(t, err)

		second, err := uc.Execute(ctx, StartConversationInput{CurrentUserID: "alice", OtherUserID: "bob"})
		require.NoError(t, err)
		assert.Equal(t, first, second)

		swapped, err := uc.Execute(ctx, StartConversationInput{CurrentUserID: "bob", OtherUserID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, first, swapped)
	})

	t.Run("publishes participant inserts only on creation", func(t *testing.T) {
		repo := newFakeRepo()
		feed := &fakeFeed{}
		uc := NewStartConversationUseCase(repo, feed)

		_, err := uc.Execute(ctx, StartConversationInput{CurrentUserID: "alice", OtherUserID: "bob"})
		require.NoError(t, err)
		assert.Len(t, feed.publishedTo("participants"), 2)

		_, err = uc.Execute(ctx, StartConversationInput{CurrentUserID: "bob", OtherUserID: "alice"})
		require.NoError(t, err)
		assert.Len(t, feed.publishedTo("participants"), 2, "existing conversation must not republish")
	})
}
