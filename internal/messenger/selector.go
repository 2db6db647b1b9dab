package messenger

import (
	"context"
	"errors"
	"sync"
)

// Selection 当前选中的会话对象；Counterpart 为 nil 表示关注列表中找不到该用户
type Selection struct {
	TargetID    string
	Counterpart *User
	Key         string
}

// SelectionListener changed 为 false 表示重复选中同一会话
type SelectionListener func(ctx context.Context, sel Selection, changed bool) error

// Selector 从关注列表中选择私信对象
type Selector struct {
	self string

	selectMu  sync.Mutex // 串行化 Select
	mu        sync.Mutex
	following []*User
	active    Selection
	listeners []SelectionListener
}

func NewSelector(self string, following []*User) *Selector {
	s := &Selector{self: self}
	s.SetFollowing(following)
	return s
}

// Subscribe 注册选择变化的监听者，按注册顺序在锁外调用
func (s *Selector) Subscribe(listener SelectionListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, listener)
	s.mu.Unlock()
}

// SetFollowing 替换关注列表快照并重新查找当前会话对象，不改变选中的会话
// 会话对象变化时返回新的选择和 true
func (s *Selector) SetFollowing(following []*User) (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.following = append([]*User(nil), following...)
	if s.active.TargetID == "" {
		return s.active, false
	}
	counterpart := s.lookupLocked(s.active.TargetID)
	if sameUser(counterpart, s.active.Counterpart) {
		return s.active, false
	}
	s.active.Counterpart = counterpart
	return s.active, true
}

func (s *Selector) Following() []*User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*User(nil), s.following...)
}

// DefaultTarget 关注列表第一个用户，列表为空时返回空串
func (s *Selector) DefaultTarget() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.following) == 0 {
		return ""
	}
	return s.following[0].ID
}

func (s *Selector) Active() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Select 设置活动会话；targetID 为空表示不选中任何会话，不能选中自己
func (s *Selector) Select(ctx context.Context, targetID string) (Selection, error) {
	if targetID != "" && targetID == s.self {
		return s.Active(), ErrSelfConversation
	}

	s.selectMu.Lock()
	defer s.selectMu.Unlock()

	s.mu.Lock()
	sel := Selection{TargetID: targetID}
	if targetID != "" {
		sel.Key = ConversationKey(s.self, targetID)
		sel.Counterpart = s.lookupLocked(targetID)
	}
	changed := sel.Key != s.active.Key
	s.active = sel
	listeners := append([]SelectionListener(nil), s.listeners...)
	s.mu.Unlock()

	var errs []error
	for _, l := range listeners {
		if err := l(ctx, sel, changed); err != nil {
			errs = append(errs, err)
		}
	}
	return sel, errors.Join(errs...)
}

func (s *Selector) lookupLocked(id string) *User {
	for _, u := range s.following {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func sameUser(a, b *User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
