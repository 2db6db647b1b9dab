package messenger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposerCanSubmit(t *testing.T) {
	c := NewComposer(newTestWindow(newFakeStore(), &recordingSink{}))

	assert.False(t, c.CanSubmit())
	c.SetDraft("  \t")
	assert.False(t, c.CanSubmit())
	c.SetDraft(" hi ")
	assert.True(t, c.CanSubmit())
}

func TestComposerSubmit(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	w := newTestWindow(store, &recordingSink{})
	defer w.Close()
	require.NoError(t, w.SetActiveKey(ctx, ConversationKey(userA, userB)))
	c := NewComposer(w)

	c.SetDraft("   ")
	_, err := c.Submit(ctx)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, 0, store.createCount())

	store.createErr = errStoreDown
	c.SetDraft("keep me")
	_, err = c.Submit(ctx)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, "keep me", c.Draft())

	store.createErr = nil
	msg, err := c.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "keep me", msg.Body)
	assert.Empty(t, c.Draft())
}
