package messenger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnreadMarkers(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	status := &ConversationStatus{
		Key:      ConversationKey(userA, userB),
		LastRead: map[string]time.Time{userA: base},
		Markers: []Marker{
			{MessageID: "1", SenderID: userB, RecipientID: userA, CreatedAt: base.Add(-time.Minute)},
			{MessageID: "2", SenderID: userB, RecipientID: userA, CreatedAt: base},
			{MessageID: "3", SenderID: userB, RecipientID: userA, CreatedAt: base.Add(time.Minute)},
			{MessageID: "4", SenderID: userA, RecipientID: userB, CreatedAt: base.Add(2 * time.Minute)},
		},
	}

	got := UnreadMarkers(status, userA)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].MessageID)

	// B 从未读过
	got = UnreadMarkers(status, userB)
	require.Len(t, got, 1)
	assert.Equal(t, "4", got[0].MessageID)

	assert.Empty(t, UnreadMarkers(nil, userA))
}

func TestUnreadOpenClears(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	sink := &recordingSink{}
	store.seed(userB, userA, 3)

	tr := NewUnreadTracker(store, userA, time.Second, sink.UnreadChanged)
	defer tr.Close()

	key := ConversationKey(userA, userB)
	require.NoError(t, tr.SetActiveKey(ctx, key))

	assert.Eventually(t, func() bool {
		return store.markReadCount() >= 1 && len(tr.UnreadMessages()) == 0
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, key, sink.lastUnread().Key)

	// 打开期间收到的新消息计为未读，直到再次回写
	store.seed(userB, userA, 1)
	assert.Eventually(t, func() bool { return len(tr.UnreadMessages()) == 1 }, time.Second, 10*time.Millisecond)

	tr.MarkSeen(key)
	tr.MarkSeen(key)
	assert.Eventually(t, func() bool {
		return store.markReadCount() >= 3 && len(tr.UnreadMessages()) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestUnreadOwnMessagesNotCounted(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.markReadErr = errStoreDown
	store.seed(userA, userB, 4)

	tr := NewUnreadTracker(store, userA, time.Second, nil)
	defer tr.Close()

	require.NoError(t, tr.SetActiveKey(ctx, ConversationKey(userA, userB)))
	assert.Empty(t, tr.UnreadMessages())
}

func TestUnreadWriteBackFailureIgnored(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.markReadErr = errStoreDown
	store.seed(userB, userA, 3)

	tr := NewUnreadTracker(store, userA, time.Second, nil)
	defer tr.Close()

	require.NoError(t, tr.SetActiveKey(ctx, ConversationKey(userA, userB)))
	assert.Eventually(t, func() bool { return store.markReadCount() >= 1 }, time.Second, 10*time.Millisecond)
	assert.Len(t, tr.UnreadMessages(), 3)
}

func TestUnreadSwitchKeepsOneSubscription(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	tr := NewUnreadTracker(store, userA, time.Second, nil)

	require.NoError(t, tr.SetActiveKey(ctx, ConversationKey(userA, userB)))
	require.NoError(t, tr.SetActiveKey(ctx, ConversationKey(userA, userC)))
	require.NoError(t, tr.SetActiveKey(ctx, ConversationKey(userA, userB)))

	subs := store.activeStatusSubs()
	require.Len(t, subs, 1)
	assert.Equal(t, ConversationKey(userA, userB), subs[0].key)

	tr.Close()
	assert.Empty(t, store.activeStatusSubs())
	// Close 可重复调用
	tr.Close()
}
