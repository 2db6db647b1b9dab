package messenger

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"
)

// Sink 接收会话状态变化，实现方需自行处理并发，且不能回调 Session
type Sink interface {
	SelectionChanged(sel Selection)
	WindowChanged(win *Window)
	UnreadChanged(unread *Unread)
	FollowingChanged(following []*User)
}

type SessionConfig struct {
	InitialLimit     int
	LimitStep        int
	WriteBackTimeout time.Duration
}

// Session 一个连接对应一个 Session，组合选择器、消息窗口、未读追踪和输入框
type Session struct {
	self      string
	directory Directory
	sink      Sink

	selector *Selector
	window   *WindowManager
	unread   *UnreadTracker
	composer *Composer
}

func NewSession(self string, directory Directory, messages MessageStore, status StatusStore, sink Sink, cfg SessionConfig) *Session {
	s := &Session{
		self:      self,
		directory: directory,
		sink:      sink,
	}
	s.selector = NewSelector(self, nil)
	s.window = NewWindowManager(messages, self, cfg.InitialLimit, cfg.LimitStep, sink.WindowChanged)
	s.unread = NewUnreadTracker(status, self, cfg.WriteBackTimeout, sink.UnreadChanged)
	s.composer = NewComposer(s.window)
	s.selector.Subscribe(s.onSelect)
	return s
}

// Start 加载关注列表并默认选中第一个关注的用户
func (s *Session) Start(ctx context.Context) error {
	if err := s.loadFollowing(ctx); err != nil {
		return err
	}
	_, err := s.selector.Select(ctx, s.selector.DefaultTarget())
	return err
}

func (s *Session) Select(ctx context.Context, targetID string) (Selection, error) {
	return s.selector.Select(ctx, targetID)
}

func (s *Session) LoadMore(ctx context.Context) error {
	return s.window.IncreaseLimit(ctx)
}

// Send 发送失败时草稿保留在 Composer 中，可通过 Draft 取回
func (s *Session) Send(ctx context.Context, body string) (*Message, error) {
	s.composer.SetDraft(body)
	msg, err := s.composer.Submit(ctx)
	if err != nil {
		return nil, err
	}
	s.unread.MarkSeen(msg.ConversationKey)
	return msg, nil
}

func (s *Session) Draft() string {
	return s.composer.Draft()
}

// RefreshFollowing 重新加载关注列表，未选中会话时补选第一个关注的用户
func (s *Session) RefreshFollowing(ctx context.Context) error {
	if err := s.loadFollowing(ctx); err != nil {
		return err
	}
	if s.selector.Active().TargetID != "" {
		return nil
	}
	target := s.selector.DefaultTarget()
	if target == "" {
		return nil
	}
	_, err := s.selector.Select(ctx, target)
	return err
}

func (s *Session) Active() Selection {
	return s.selector.Active()
}

func (s *Session) Window() *Window {
	return s.window.Snapshot()
}

func (s *Session) Unread() []Marker {
	return s.unread.UnreadMessages()
}

func (s *Session) Close() {
	s.window.Close()
	s.unread.Close()
}

func (s *Session) loadFollowing(ctx context.Context) error {
	following, err := s.directory.ListFollows(ctx, s.self, FollowKindFollowing)
	if err != nil {
		return fmt.Errorf("load following of %s: %w", s.self, err)
	}
	sel, changed := s.selector.SetFollowing(following)
	s.sink.FollowingChanged(following)
	if changed {
		// 只更新会话对象，订阅保持不变
		s.sink.SelectionChanged(sel)
	}
	return nil
}

func (s *Session) onSelect(ctx context.Context, sel Selection, changed bool) error {
	s.sink.SelectionChanged(sel)
	if !changed {
		s.unread.MarkSeen(sel.Key)
		return nil
	}

	var errs []error
	if err := s.window.SetActiveKey(ctx, sel.Key); err != nil {
		log.ErrorContext(ctx, "Subscribe messages failed", "key", sel.Key, "err", err)
		errs = append(errs, err)
	}
	if err := s.unread.SetActiveKey(ctx, sel.Key); err != nil {
		log.ErrorContext(ctx, "Subscribe conversation status failed", "key", sel.Key, "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
