package messenger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var errStoreDown = errors.New("store down")

type fakeMsgSub struct {
	store     *fakeStore
	key       string
	limit     int
	fn        func([]*Message)
	cancelled bool
}

func (s *fakeMsgSub) Cancel() {
	s.store.mu.Lock()
	s.cancelled = true
	s.store.mu.Unlock()
}

type fakeStatusSub struct {
	store     *fakeStore
	key       string
	fn        func(*ConversationStatus)
	cancelled bool
}

func (s *fakeStatusSub) Cancel() {
	s.store.mu.Lock()
	s.cancelled = true
	s.store.mu.Unlock()
}

// fakeStore 内存实现，回调在持有锁时同步触发
type fakeStore struct {
	mu         sync.Mutex
	clock      time.Time
	seq        int
	messages   map[string][]*Message // 旧消息在前
	status     map[string]*ConversationStatus
	msgSubs    []*fakeMsgSub
	statusSubs []*fakeStatusSub

	createErr   error
	markReadErr error
	creates     int
	markReads   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		messages: make(map[string][]*Message),
		status:   make(map[string]*ConversationStatus),
	}
}

func (f *fakeStore) WatchMessages(_ context.Context, key string, limit int, fn func([]*Message)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeMsgSub{store: f, key: key, limit: limit, fn: fn}
	f.msgSubs = append(f.msgSubs, sub)
	fn(f.windowLocked(key, limit))
	return sub, nil
}

func (f *fakeStore) WatchStatus(_ context.Context, key string, fn func(*ConversationStatus)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeStatusSub{store: f, key: key, fn: fn}
	f.statusSubs = append(f.statusSubs, sub)
	fn(f.statusLocked(key))
	return sub, nil
}

func (f *fakeStore) CreateMessage(_ context.Context, msg *Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.creates++
	f.seq++
	f.clock = f.clock.Add(time.Second)
	msg.ID = fmt.Sprintf("m%04d", f.seq)
	msg.CreatedAt = f.clock
	f.messages[msg.ConversationKey] = append(f.messages[msg.ConversationKey], msg)

	st := f.ensureStatusLocked(msg.ConversationKey)
	st.Markers = append(st.Markers, Marker{
		MessageID:   msg.ID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		CreatedAt:   msg.CreatedAt,
	})
	f.notifyLocked(msg.ConversationKey)
	return nil
}

func (f *fakeStore) MarkRead(_ context.Context, key, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReads++
	if f.markReadErr != nil {
		return f.markReadErr
	}
	f.clock = f.clock.Add(time.Second)
	st := f.ensureStatusLocked(key)
	if f.clock.After(st.LastRead[userID]) {
		st.LastRead[userID] = f.clock
	}
	f.notifyLocked(key)
	return nil
}

// seed 写入 n 条 from 发给 to 的消息
func (f *fakeStore) seed(from, to string, n int) {
	for i := 0; i < n; i++ {
		_ = f.CreateMessage(context.Background(), &Message{
			ConversationKey: ConversationKey(from, to),
			SenderID:        from,
			RecipientID:     to,
			Body:            fmt.Sprintf("hi %d", i),
		})
	}
}

func (f *fakeStore) activeMessageSubs() []*fakeMsgSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*fakeMsgSub
	for _, s := range f.msgSubs {
		if !s.cancelled {
			res = append(res, s)
		}
	}
	return res
}

func (f *fakeStore) activeStatusSubs() []*fakeStatusSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*fakeStatusSub
	for _, s := range f.statusSubs {
		if !s.cancelled {
			res = append(res, s)
		}
	}
	return res
}

func (f *fakeStore) markReadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.markReads
}

func (f *fakeStore) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

func (f *fakeStore) windowLocked(key string, limit int) []*Message {
	all := f.messages[key]
	res := make([]*Message, 0, limit)
	for i := len(all) - 1; i >= 0 && len(res) < limit; i-- {
		res = append(res, all[i])
	}
	return res
}

func (f *fakeStore) statusLocked(key string) *ConversationStatus {
	st := f.ensureStatusLocked(key)
	cp := &ConversationStatus{
		Key:      st.Key,
		LastRead: make(map[string]time.Time, len(st.LastRead)),
		Markers:  append([]Marker(nil), st.Markers...),
	}
	for k, v := range st.LastRead {
		cp.LastRead[k] = v
	}
	sort.Slice(cp.Markers, func(i, j int) bool { return cp.Markers[i].CreatedAt.After(cp.Markers[j].CreatedAt) })
	return cp
}

func (f *fakeStore) ensureStatusLocked(key string) *ConversationStatus {
	st, ok := f.status[key]
	if !ok {
		st = &ConversationStatus{Key: key, LastRead: make(map[string]time.Time)}
		f.status[key] = st
	}
	return st
}

func (f *fakeStore) notifyLocked(key string) {
	for _, s := range f.msgSubs {
		if s.key == key && !s.cancelled {
			s.fn(f.windowLocked(key, s.limit))
		}
	}
	for _, s := range f.statusSubs {
		if s.key == key && !s.cancelled {
			s.fn(f.statusLocked(key))
		}
	}
}

type fakeDirectory struct {
	mu        sync.Mutex
	following map[string][]*User
	err       error
}

func (d *fakeDirectory) ListFollows(_ context.Context, userID string, kind FollowKind) ([]*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	if kind != FollowKindFollowing {
		return nil, nil
	}
	return append([]*User(nil), d.following[userID]...), nil
}

type recordingSink struct {
	mu         sync.Mutex
	selections []Selection
	windows    []*Window
	unreads    []*Unread
	following  [][]*User
}

func (r *recordingSink) SelectionChanged(sel Selection) {
	r.mu.Lock()
	r.selections = append(r.selections, sel)
	r.mu.Unlock()
}

func (r *recordingSink) WindowChanged(win *Window) {
	r.mu.Lock()
	r.windows = append(r.windows, win)
	r.mu.Unlock()
}

func (r *recordingSink) UnreadChanged(u *Unread) {
	r.mu.Lock()
	r.unreads = append(r.unreads, u)
	r.mu.Unlock()
}

func (r *recordingSink) FollowingChanged(users []*User) {
	r.mu.Lock()
	r.following = append(r.following, users)
	r.mu.Unlock()
}

func (r *recordingSink) lastWindow() *Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.windows) == 0 {
		return nil
	}
	return r.windows[len(r.windows)-1]
}

func (r *recordingSink) lastUnread() *Unread {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.unreads) == 0 {
		return nil
	}
	return r.unreads[len(r.unreads)-1]
}
