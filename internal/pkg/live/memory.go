package live

import (
	"context"
	"sync"
)

// Hub 进程内的 Notifier/Listener 实现，用于单实例部署和测试
type Hub struct {
	mu    sync.Mutex
	feeds map[string]map[*memFeed]struct{}
}

func NewHub() *Hub {
	return &Hub{feeds: make(map[string]map[*memFeed]struct{})}
}

func (h *Hub) Notify(_ context.Context, channel string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for f := range h.feeds[channel] {
		f.signal()
	}
	return nil
}

func (h *Hub) Listen(_ context.Context, channel string) (Feed, error) {
	f := &memFeed{hub: h, channel: channel, c: make(chan struct{}, 1)}
	h.mu.Lock()
	if h.feeds[channel] == nil {
		h.feeds[channel] = make(map[*memFeed]struct{})
	}
	h.feeds[channel][f] = struct{}{}
	h.mu.Unlock()
	return f, nil
}

// Listeners 频道上的监听数
func (h *Hub) Listeners(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.feeds[channel])
}

type memFeed struct {
	hub     *Hub
	channel string
	c       chan struct{}
	once    sync.Once
}

func (f *memFeed) C() <-chan struct{} {
	return f.c
}

func (f *memFeed) signal() {
	select {
	case f.c <- struct{}{}:
	default:
	}
}

func (f *memFeed) Close() error {
	f.once.Do(func() {
		f.hub.mu.Lock()
		delete(f.hub.feeds[f.channel], f)
		if len(f.hub.feeds[f.channel]) == 0 {
			delete(f.hub.feeds, f.channel)
		}
		f.hub.mu.Unlock()
	})
	return nil
}
