package messenger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(store *fakeStore, following []*User) (*Session, *recordingSink) {
	sink := &recordingSink{}
	dir := &fakeDirectory{following: map[string][]*User{userA: following}}
	s := NewSession(userA, dir, store, store, sink, SessionConfig{
		InitialLimit:     DefaultInitialLimit,
		LimitStep:        DefaultLimitStep,
		WriteBackTimeout: time.Second,
	})
	return s, sink
}

func TestSessionStartSelectsFirstFollowing(t *testing.T) {
	store := newFakeStore()
	s, sink := newTestSession(store, testFollowing())
	defer s.Close()

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, userB, s.Active().TargetID)
	assert.Equal(t, ConversationKey(userA, userB), s.Window().Key)
	require.Len(t, sink.following, 1)
	require.NotEmpty(t, sink.selections)
}

func TestSessionStartWithoutFollowing(t *testing.T) {
	store := newFakeStore()
	s, _ := newTestSession(store, nil)
	defer s.Close()

	require.NoError(t, s.Start(context.Background()))
	assert.Empty(t, s.Active().Key)
	assert.Empty(t, store.activeMessageSubs())
	assert.Empty(t, store.activeStatusSubs())
}

func TestSessionSingleSubscriptionAfterSwitches(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	s, _ := newTestSession(store, testFollowing())
	require.NoError(t, s.Start(ctx))

	for _, target := range []string{userC, userB, userB, "404", userC, "", userB} {
		_, err := s.Select(ctx, target)
		require.NoError(t, err)
		if target == "" {
			assert.Empty(t, store.activeMessageSubs())
			assert.Empty(t, store.activeStatusSubs())
			continue
		}
		key := ConversationKey(userA, target)
		msgSubs := store.activeMessageSubs()
		statusSubs := store.activeStatusSubs()
		require.Len(t, msgSubs, 1)
		require.Len(t, statusSubs, 1)
		assert.Equal(t, key, msgSubs[0].key)
		assert.Equal(t, key, statusSubs[0].key)
	}

	s.Close()
	assert.Empty(t, store.activeMessageSubs())
	assert.Empty(t, store.activeStatusSubs())
}

func TestSessionSendKeepsDraftOnFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	s, sink := newTestSession(store, testFollowing())
	defer s.Close()
	require.NoError(t, s.Start(ctx))

	store.mu.Lock()
	store.createErr = errStoreDown
	store.mu.Unlock()
	_, err := s.Send(ctx, "hello")
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, "hello", s.Draft())

	store.mu.Lock()
	store.createErr = nil
	store.mu.Unlock()
	msg, err := s.Send(ctx, "hello")
	require.NoError(t, err)
	assert.Empty(t, s.Draft())
	assert.Equal(t, msg.ID, sink.lastWindow().Anchor)

	_, err = s.Send(ctx, "  ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSessionReselectRepeatsWriteBack(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.seed(userB, userA, 2)
	s, _ := newTestSession(store, testFollowing())
	defer s.Close()

	require.NoError(t, s.Start(ctx))
	assert.Eventually(t, func() bool { return store.markReadCount() >= 1 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return len(s.Unread()) == 0 }, time.Second, 10*time.Millisecond)

	_, err := s.Select(ctx, userB)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return store.markReadCount() >= 2 }, time.Second, 10*time.Millisecond)
	assert.Len(t, store.activeMessageSubs(), 1)
}

func TestSessionRefreshFollowing(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	dir := &fakeDirectory{following: map[string][]*User{}}
	sink := &recordingSink{}
	s := NewSession(userA, dir, store, store, sink, SessionConfig{})
	defer s.Close()

	require.NoError(t, s.Start(ctx))
	assert.Empty(t, s.Active().Key)

	dir.mu.Lock()
	dir.following[userA] = testFollowing()
	dir.mu.Unlock()
	require.NoError(t, s.RefreshFollowing(ctx))
	assert.Equal(t, userB, s.Active().TargetID)
	assert.Len(t, sink.following, 2)

	dir.mu.Lock()
	dir.err = errStoreDown
	dir.mu.Unlock()
	assert.ErrorIs(t, s.RefreshFollowing(ctx), errStoreDown)
}

func TestSessionLoadMore(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.seed(userB, userA, 60)
	s, _ := newTestSession(store, testFollowing())
	defer s.Close()

	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.LoadMore(ctx))
	assert.Len(t, s.Window().Messages, 60)
	assert.ErrorIs(t, s.LoadMore(ctx), ErrNoMoreHistory)
}

func TestSessionRefreshFollowingUpdatesCounterpart(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	dir := &fakeDirectory{following: map[string][]*User{userA: {{ID: userC, DisplayName: "carol"}}}}
	sink := &recordingSink{}
	s := NewSession(userA, dir, store, store, sink, SessionConfig{})
	defer s.Close()
	require.NoError(t, s.Start(ctx))

	_, err := s.Select(ctx, userB)
	require.NoError(t, err)
	assert.Nil(t, s.Active().Counterpart)
	subs := store.activeMessageSubs()
	require.Len(t, subs, 1)

	// 关注之后会话对象出现
	dir.mu.Lock()
	dir.following[userA] = testFollowing()
	dir.mu.Unlock()
	require.NoError(t, s.RefreshFollowing(ctx))

	require.NotNil(t, s.Active().Counterpart)
	assert.Equal(t, "bob", s.Active().Counterpart.DisplayName)
	last := sink.selections[len(sink.selections)-1]
	require.NotNil(t, last.Counterpart)
	assert.Equal(t, userB, last.TargetID)
	assert.Same(t, subs[0], store.activeMessageSubs()[0])

	// 取消关注之后会话对象消失，会话保持打开
	dir.mu.Lock()
	dir.following[userA] = []*User{{ID: userC, DisplayName: "carol"}}
	dir.mu.Unlock()
	require.NoError(t, s.RefreshFollowing(ctx))

	assert.Nil(t, s.Active().Counterpart)
	assert.Equal(t, ConversationKey(userA, userB), s.Active().Key)
	assert.Nil(t, sink.selections[len(sink.selections)-1].Counterpart)

	// 关注列表没有变化时不重复推送
	n := len(sink.selections)
	require.NoError(t, s.RefreshFollowing(ctx))
	assert.Len(t, sink.selections, n)
}

func TestSessionRejectsSelf(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	s, _ := newTestSession(store, testFollowing())
	defer s.Close()
	require.NoError(t, s.Start(ctx))

	sel, err := s.Select(ctx, userA)
	assert.ErrorIs(t, err, ErrSelfConversation)
	assert.Equal(t, userB, sel.TargetID)
	assert.Equal(t, ConversationKey(userA, userB), s.Active().Key)
	require.Len(t, store.activeMessageSubs(), 1)
	assert.Equal(t, ConversationKey(userA, userB), store.activeMessageSubs()[0].key)
}
