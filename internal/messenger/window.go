package messenger

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const (
	DefaultInitialLimit = 50
	DefaultLimitStep    = 25
)

// Window 当前会话最近 N 条消息的快照，Messages 新消息在前
type Window struct {
	Key            string
	Limit          int
	Messages       []*Message
	CanLoadMore    bool
	Anchor         string // 最新一条消息 ID，客户端据此定位滚动锚点
	ScrollToLatest bool
}

// WindowManager 维护活动会话的消息窗口，窗口内容完全由实时订阅推送的快照替换
type WindowManager struct {
	store    MessageStore
	self     string
	step     int
	onChange func(*Window)

	mu            sync.Mutex
	key           string
	limit         int
	messages      []*Message
	sub           Subscription
	gen           uint64
	pendingScroll bool
}

// NewWindowManager onChange 在内部锁内调用，不能回调 WindowManager
func NewWindowManager(store MessageStore, self string, initialLimit, step int, onChange func(*Window)) *WindowManager {
	if initialLimit <= 0 {
		initialLimit = DefaultInitialLimit
	}
	if step <= 0 {
		step = DefaultLimitStep
	}
	return &WindowManager{
		store:    store,
		self:     self,
		step:     step,
		onChange: onChange,
		limit:    initialLimit,
	}
}

// SetActiveKey 先取消旧订阅，再按当前 limit 订阅新会话；key 为空表示关闭会话
func (w *WindowManager) SetActiveKey(ctx context.Context, key string) error {
	w.mu.Lock()
	old := w.detachLocked()
	w.key = key
	w.messages = nil
	w.pendingScroll = true
	gen, limit := w.gen, w.limit
	w.emitLocked(false)
	w.mu.Unlock()

	if old != nil {
		old.Cancel()
	}
	if key == "" {
		return nil
	}
	return w.attach(ctx, gen, key, limit)
}

// IncreaseLimit 仅当窗口已满时允许扩大窗口，实现为取消后重新订阅
func (w *WindowManager) IncreaseLimit(ctx context.Context) error {
	w.mu.Lock()
	if w.key == "" {
		w.mu.Unlock()
		return ErrNoConversation
	}
	if !w.canLoadMoreLocked() {
		w.mu.Unlock()
		return ErrNoMoreHistory
	}
	old := w.detachLocked()
	w.limit += w.step
	gen, key, limit := w.gen, w.key, w.limit
	w.mu.Unlock()

	if old != nil {
		old.Cancel()
	}
	return w.attach(ctx, gen, key, limit)
}

// SendMessage 写入新消息，不修改本地窗口，新消息由订阅回推
func (w *WindowManager) SendMessage(ctx context.Context, body string) (*Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}

	w.mu.Lock()
	key, gen, prevScroll := w.key, w.gen, w.pendingScroll
	if key != "" {
		w.pendingScroll = true
	}
	w.mu.Unlock()
	if key == "" {
		return nil, ErrNoConversation
	}

	peer, err := PeerOf(key, w.self)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		ConversationKey: key,
		SenderID:        w.self,
		RecipientID:     peer,
		Body:            body,
	}
	if err = w.store.CreateMessage(ctx, msg); err != nil {
		w.mu.Lock()
		if w.gen == gen {
			w.pendingScroll = prevScroll
		}
		w.mu.Unlock()
		return nil, err
	}
	return msg, nil
}

// CanLoadMore 条数等于 limit 时认为可能还有更早的消息
func (w *WindowManager) CanLoadMore() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canLoadMoreLocked()
}

func (w *WindowManager) Limit() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.limit
}

func (w *WindowManager) ActiveKey() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.key
}

// Snapshot 当前窗口的副本
func (w *WindowManager) Snapshot() *Window {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked(false)
}

// Close 取消订阅，之后到达的快照全部丢弃
func (w *WindowManager) Close() {
	w.mu.Lock()
	old := w.detachLocked()
	w.mu.Unlock()
	if old != nil {
		old.Cancel()
	}
}

func (w *WindowManager) attach(ctx context.Context, gen uint64, key string, limit int) error {
	sub, err := w.store.WatchMessages(ctx, key, limit, w.receiver(gen))
	if err != nil {
		return fmt.Errorf("watch messages of %s: %w", key, err)
	}

	w.mu.Lock()
	if w.gen != gen {
		// 订阅建立期间会话已切换
		w.mu.Unlock()
		sub.Cancel()
		return nil
	}
	w.sub = sub
	w.mu.Unlock()
	return nil
}

func (w *WindowManager) receiver(gen uint64) func([]*Message) {
	return func(msgs []*Message) {
		w.mu.Lock()
		defer w.mu.Unlock()
		if gen != w.gen {
			return
		}
		if len(msgs) > w.limit {
			msgs = msgs[:w.limit]
		}
		w.messages = msgs
		w.emitLocked(w.pendingScroll)
		w.pendingScroll = false
	}
}

func (w *WindowManager) detachLocked() Subscription {
	w.gen++
	old := w.sub
	w.sub = nil
	return old
}

func (w *WindowManager) canLoadMoreLocked() bool {
	return len(w.messages) > 0 && len(w.messages) >= w.limit
}

func (w *WindowManager) emitLocked(scroll bool) {
	if w.onChange == nil {
		return
	}
	w.onChange(w.snapshotLocked(scroll))
}

func (w *WindowManager) snapshotLocked(scroll bool) *Window {
	win := &Window{
		Key:            w.key,
		Limit:          w.limit,
		Messages:       append([]*Message(nil), w.messages...),
		CanLoadMore:    w.canLoadMoreLocked(),
		ScrollToLatest: scroll,
	}
	if len(w.messages) > 0 {
		win.Anchor = w.messages[0].ID
	}
	return win
}
