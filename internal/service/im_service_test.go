package service

import (
	"GameZone/internal/api/config"
	"GameZone/internal/api/dto"
	"GameZone/internal/messenger"
	"GameZone/internal/pkg/live"
	"GameZone/internal/pkg/mongo"
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*mongo.Message
}

func (r *fakeMessageRepo) SaveMessage(_ context.Context, msg *mongo.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	cp := *msg
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *fakeMessageRepo) GetWindow(_ context.Context, key string, limit int) ([]*mongo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*mongo.Message, 0)
	for i := len(r.messages) - 1; i >= 0 && len(res) < limit; i-- {
		if r.messages[i].ConversationKey == key {
			cp := *r.messages[i]
			res = append(res, &cp)
		}
	}
	return res, nil
}

type fakeStatusRepo struct {
	mu         sync.Mutex
	statuses   map[string]*mongo.ConversationStatus
	appendErrs int
	appends    int
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{statuses: make(map[string]*mongo.ConversationStatus)}
}

func (r *fakeStatusRepo) upsert(key string, participants []string) *mongo.ConversationStatus {
	st, ok := r.statuses[key]
	if !ok {
		st = &mongo.ConversationStatus{Key: key, Participants: participants, LastRead: map[string]time.Time{}}
		r.statuses[key] = st
	}
	return st
}

func (r *fakeStatusRepo) AppendMessage(_ context.Context, msg *mongo.Message, participants []string, maxMarkers int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErrs > 0 {
		r.appendErrs--
		return errors.New("mongo unavailable")
	}
	r.appends++
	st := r.upsert(msg.ConversationKey, participants)
	st.LastMessage = &mongo.LastMessage{MessageID: msg.ID, SenderID: msg.SenderID, Content: msg.Content, CreatedAt: msg.CreatedAt}
	st.LastMessageAt = msg.CreatedAt
	marker := mongo.UnreadMarker{MessageID: msg.ID, SenderID: msg.SenderID, RecipientID: msg.RecipientID, CreatedAt: msg.CreatedAt}
	st.Recent = append([]mongo.UnreadMarker{marker}, st.Recent...)
	if len(st.Recent) > maxMarkers {
		st.Recent = st.Recent[:maxMarkers]
	}
	return nil
}

func (r *fakeStatusRepo) MarkRead(_ context.Context, key string, participants []string, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.upsert(key, participants)
	if at.After(st.LastRead[userID]) {
		st.LastRead[userID] = at
	}
	return nil
}

func (r *fakeStatusRepo) GetStatus(_ context.Context, key string) (*mongo.ConversationStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.statuses[key]
	if !ok {
		return nil, nil
	}
	cp := *st
	cp.LastRead = make(map[string]time.Time, len(st.LastRead))
	for k, v := range st.LastRead {
		cp.LastRead[k] = v
	}
	cp.Recent = append([]mongo.UnreadMarker(nil), st.Recent...)
	return &cp, nil
}

func (r *fakeStatusRepo) ListByParticipant(ctx context.Context, userID string, limit int) ([]*mongo.ConversationStatus, error) {
	r.mu.Lock()
	keys := make([]string, 0)
	for k, st := range r.statuses {
		for _, p := range st.Participants {
			if p == userID {
				keys = append(keys, k)
			}
		}
	}
	r.mu.Unlock()
	sort.Strings(keys)
	res := make([]*mongo.ConversationStatus, 0, len(keys))
	for _, k := range keys {
		st, _ := r.GetStatus(ctx, k)
		res = append(res, st)
	}
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (r *fakeStatusRepo) appendCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appends
}

type fakeUserService struct {
	UserService
	users map[uint64]string
}

func (s *fakeUserService) GetUserSimpleInfo(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	users, _ := s.GetUserSimpleInfoByIds(ctx, []uint64{id})
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return users[0], nil
}

func (s *fakeUserService) GetUserSimpleInfoByIds(_ context.Context, ids []uint64) ([]*dto.UserDTO, error) {
	res := make([]*dto.UserDTO, 0, len(ids))
	for _, id := range ids {
		name, ok := s.users[id]
		if !ok {
			continue
		}
		uid, nickname := id, name
		res = append(res, &dto.UserDTO{UserID: &uid, Nickname: &nickname})
	}
	return res, nil
}

type imFixture struct {
	svc      IMService
	messages *fakeMessageRepo
	statuses *fakeStatusRepo
	hub      *live.Hub
}

func newIMFixture(t *testing.T) *imFixture {
	t.Helper()
	f := &imFixture{
		messages: &fakeMessageRepo{},
		statuses: newFakeStatusRepo(),
		hub:      live.NewHub(),
	}
	users := &fakeUserService{users: map[uint64]string{1: "alice", 2: "bob", 3: "carol"}}
	f.svc = NewIMService(config.IMConfig{InitialLimit: 10, RecentMarkers: 3}, f.messages, f.statuses, f.hub, f.hub, users)
	t.Cleanup(f.svc.Close)
	return f
}

type latest[T any] struct {
	mu  sync.Mutex
	v   T
	set bool
}

func (l *latest[T]) put(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.v, l.set = v, true
}

func (l *latest[T]) get() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.v, l.set
}

func TestIMService_CreateMessagePushesToWatchers(t *testing.T) {
	f := newIMFixture(t)
	ctx := context.Background()
	key := messenger.ConversationKey("1", "2")

	var window latest[[]*messenger.Message]
	sub, err := f.svc.WatchMessages(ctx, key, 2, window.put)
	require.NoError(t, err)
	defer sub.Cancel()

	require.Eventually(t, func() bool {
		v, ok := window.get()
		return ok && len(v) == 0
	}, time.Second, 10*time.Millisecond)

	for _, body := range []string{"hi", "there", "again"} {
		msg := &messenger.Message{ConversationKey: key, SenderID: "1", RecipientID: "2", Body: body}
		require.NoError(t, f.svc.CreateMessage(ctx, msg))
		assert.NotEmpty(t, msg.ID)
		assert.False(t, msg.CreatedAt.IsZero())
	}

	require.Eventually(t, func() bool {
		v, _ := window.get()
		return len(v) == 2 && v[0].Body == "again" && v[1].Body == "there"
	}, time.Second, 10*time.Millisecond)
}

func TestIMService_CreateMessageRejectsInvalid(t *testing.T) {
	f := newIMFixture(t)
	ctx := context.Background()

	err := f.svc.CreateMessage(ctx, &messenger.Message{ConversationKey: "1_2", SenderID: "1", RecipientID: "2", Body: "  \n"})
	assert.ErrorIs(t, err, messenger.ErrEmptyMessage)

	err = f.svc.CreateMessage(ctx, &messenger.Message{ConversationKey: "2_1", SenderID: "1", RecipientID: "2", Body: "hi"})
	assert.ErrorIs(t, err, ErrConversation)

	err = f.svc.CreateMessage(ctx, &messenger.Message{ConversationKey: "1_2", SenderID: "1", RecipientID: "3", Body: "hi"})
	assert.ErrorIs(t, err, ErrConversation)

	err = f.svc.CreateMessage(ctx, &messenger.Message{ConversationKey: "2_3", SenderID: "1", RecipientID: "2", Body: "hi"})
	assert.ErrorIs(t, err, ErrConversation)

	assert.Empty(t, f.messages.messages)
}

func TestIMService_WatchStatusAndMarkRead(t *testing.T) {
	f := newIMFixture(t)
	ctx := context.Background()
	key := messenger.ConversationKey("1", "2")

	var status latest[*messenger.ConversationStatus]
	sub, err := f.svc.WatchStatus(ctx, key, status.put)
	require.NoError(t, err)
	defer sub.Cancel()

	require.Eventually(t, func() bool {
		v, ok := status.get()
		return ok && v.Key == key && len(v.Markers) == 0
	}, time.Second, 10*time.Millisecond)

	_, err = f.svc.SendMessage(ctx, 2, &dto.SendMessageReq{TargetUserID: 1, Content: "ping"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		v, _ := status.get()
		return len(messenger.UnreadMarkers(v, "1")) == 1
	}, time.Second, 10*time.Millisecond)

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, f.svc.MarkRead(ctx, key, "1"))

	require.Eventually(t, func() bool {
		v, _ := status.get()
		return len(messenger.UnreadMarkers(v, "1")) == 0
	}, time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, f.svc.MarkRead(ctx, key, "3"), ErrConversation)
}

func TestIMService_StatusRetriedInBackground(t *testing.T) {
	f := newIMFixture(t)
	ctx := context.Background()
	f.statuses.appendErrs = 1

	msg := &messenger.Message{ConversationKey: "1_2", SenderID: "1", RecipientID: "2", Body: "hi"}
	require.NoError(t, f.svc.CreateMessage(ctx, msg))

	require.Eventually(t, func() bool {
		return f.statuses.appendCount() == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestIMService_SendMessage(t *testing.T) {
	f := newIMFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, 1, &dto.SendMessageReq{TargetUserID: 1, Content: "hi"})
	assert.ErrorIs(t, err, ErrTargetUserInvalid)

	_, err = f.svc.SendMessage(ctx, 1, &dto.SendMessageReq{TargetUserID: 99, Content: "hi"})
	assert.ErrorIs(t, err, ErrTargetUserInvalid)

	res, err := f.svc.SendMessage(ctx, 2, &dto.SendMessageReq{TargetUserID: 1, Content: " hi "})
	require.NoError(t, err)
	assert.Equal(t, "1_2", res.ConversationKey)
	assert.Equal(t, "2", res.SenderID)
	assert.Equal(t, "1", res.RecipientID)
	assert.Equal(t, " hi ", res.Content)
}

func TestIMService_HistoryAndConversationList(t *testing.T) {
	f := newIMFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.svc.SendMessage(ctx, 2, &dto.SendMessageReq{TargetUserID: 1, Content: "from bob"})
		require.NoError(t, err)
	}
	_, err := f.svc.SendMessage(ctx, 1, &dto.SendMessageReq{TargetUserID: 3, Content: "to carol"})
	require.NoError(t, err)

	history, err := f.svc.GetHistory(ctx, 1, &dto.HistoryReq{TargetUserID: 2, Limit: 4})
	require.NoError(t, err)
	assert.Len(t, history, 4)

	history, err = f.svc.GetHistory(ctx, 1, &dto.HistoryReq{TargetUserID: 2})
	require.NoError(t, err)
	assert.Len(t, history, 5)

	list, err := f.svc.GetConversationList(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "1_2", list[0].ConversationKey)
	assert.Equal(t, "2", list[0].PeerID)
	assert.Equal(t, "bob", list[0].PeerNickname)
	// 只保留最近 3 个标记
	assert.Equal(t, 3, list[0].UnreadCount)

	assert.Equal(t, "1_3", list[1].ConversationKey)
	assert.Equal(t, "carol", list[1].PeerNickname)
	assert.Equal(t, 0, list[1].UnreadCount)
	assert.Equal(t, "to carol", list[1].LastMsgContent)

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, f.svc.MarkAsRead(ctx, 1, 2))
	list, err = f.svc.GetConversationList(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, list[0].UnreadCount)
}
