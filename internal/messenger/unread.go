package messenger

import (
	"context"
	"fmt"
	log "log/slog"
	"sync"
	"time"
)

const defaultWriteBackTimeout = 2 * time.Second

// Unread 活动会话中当前用户尚未读到的消息标记
type Unread struct {
	Key      string
	Messages []Marker
}

// UnreadTracker 订阅会话状态推导未读，并在打开会话时回写已读进度
type UnreadTracker struct {
	store    StatusStore
	self     string
	timeout  time.Duration
	onChange func(*Unread)

	mu     sync.Mutex
	key    string
	unread []Marker
	sub    Subscription
	gen    uint64

	writeBackChan chan string
	stopChan      chan struct{}
	wg            sync.WaitGroup
	closeOnce     sync.Once
}

// NewUnreadTracker onChange 在内部锁内调用，不能回调 UnreadTracker
func NewUnreadTracker(store StatusStore, self string, timeout time.Duration, onChange func(*Unread)) *UnreadTracker {
	if timeout <= 0 {
		timeout = defaultWriteBackTimeout
	}
	t := &UnreadTracker{
		store:         store,
		self:          self,
		timeout:       timeout,
		onChange:      onChange,
		writeBackChan: make(chan string, 16),
		stopChan:      make(chan struct{}),
	}

	t.wg.Add(1)
	go t.writeBackWorker()

	return t
}

// SetActiveKey 切换状态订阅，并异步回写已读进度
func (t *UnreadTracker) SetActiveKey(ctx context.Context, key string) error {
	t.mu.Lock()
	old := t.detachLocked()
	t.key = key
	t.unread = nil
	gen := t.gen
	t.emitLocked()
	t.mu.Unlock()

	if old != nil {
		old.Cancel()
	}
	if key == "" {
		return nil
	}

	t.MarkSeen(key)

	sub, err := t.store.WatchStatus(ctx, key, t.receiver(gen))
	if err != nil {
		return fmt.Errorf("watch status of %s: %w", key, err)
	}

	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		sub.Cancel()
		return nil
	}
	t.sub = sub
	t.mu.Unlock()
	return nil
}

// MarkSeen 投递一次已读回写，队列满时直接丢弃
func (t *UnreadTracker) MarkSeen(key string) {
	if key == "" {
		return
	}
	select {
	case t.writeBackChan <- key:
	default:
		log.Warn("Last-read write-back dropped", "key", key, "user", t.self)
	}
}

// UnreadMessages 当前未读标记的副本
func (t *UnreadTracker) UnreadMessages() []Marker {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Marker(nil), t.unread...)
}

// Close 取消订阅并停止回写协程
func (t *UnreadTracker) Close() {
	t.mu.Lock()
	old := t.detachLocked()
	t.mu.Unlock()
	if old != nil {
		old.Cancel()
	}

	t.closeOnce.Do(func() {
		close(t.stopChan)
	})
	t.wg.Wait()
}

func (t *UnreadTracker) receiver(gen uint64) func(*ConversationStatus) {
	return func(status *ConversationStatus) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if gen != t.gen {
			return
		}
		t.unread = UnreadMarkers(status, t.self)
		t.emitLocked()
	}
}

func (t *UnreadTracker) writeBackWorker() {
	defer t.wg.Done()
	for {
		select {
		case key := <-t.writeBackChan:
			ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
			err := t.store.MarkRead(ctx, key, t.self)
			cancel()
			if err != nil {
				log.Warn("Last-read write-back failed", "key", key, "user", t.self, "err", err)
			}
		case <-t.stopChan:
			return
		}
	}
}

func (t *UnreadTracker) detachLocked() Subscription {
	t.gen++
	old := t.sub
	t.sub = nil
	return old
}

func (t *UnreadTracker) emitLocked() {
	if t.onChange == nil {
		return
	}
	t.onChange(&Unread{
		Key:      t.key,
		Messages: append([]Marker(nil), t.unread...),
	})
}

// UnreadMarkers 发给 self 且晚于其已读进度的标记
func UnreadMarkers(status *ConversationStatus, self string) []Marker {
	if status == nil {
		return nil
	}
	lastRead := status.LastRead[self]
	var res []Marker
	for _, m := range status.Markers {
		if m.RecipientID == self && m.CreatedAt.After(lastRead) {
			res = append(res, m)
		}
	}
	return res
}
