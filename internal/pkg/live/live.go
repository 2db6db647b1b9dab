package live

import (
	"context"
	"fmt"
	log "log/slog"
	"sync"
)

// Notifier 发布变更通知，通知只携带频道，不携带数据
type Notifier interface {
	Notify(ctx context.Context, channel string) error
}

// Listener 监听频道，Listen 返回时订阅已经生效
type Listener interface {
	Listen(ctx context.Context, channel string) (Feed, error)
}

// Feed 变更信号；多次通知可能合并为一次，底层连接断开时关闭 C
type Feed interface {
	C() <-chan struct{}
	Close() error
}

// Subscription 一个实时查询，Cancel 返回后不会再回调
type Subscription struct {
	cancel context.CancelFunc
	feed   Feed
	done   chan struct{}
	once   sync.Once
}

func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.cancel()
		_ = s.feed.Close()
	})
	<-s.done
}

// Watch 先订阅频道再查询一次，之后每收到一次通知重新查询并回调 fn
// 所有回调在同一个协程内按序执行
func Watch[T any](ctx context.Context, l Listener, channel string, fetch func(context.Context) (T, error), fn func(T)) (*Subscription, error) {
	feed, err := l.Listen(ctx, channel)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		cancel: cancel,
		feed:   feed,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		if !deliver(watchCtx, channel, fetch, fn) {
			return
		}
		for {
			select {
			case <-watchCtx.Done():
				return
			case _, ok := <-feed.C():
				if !ok {
					if watchCtx.Err() == nil {
						log.WarnContext(watchCtx, "Live query feed closed", "channel", channel)
					}
					return
				}
				if !deliver(watchCtx, channel, fetch, fn) {
					return
				}
			}
		}
	}()

	return s, nil
}

// deliver 返回 false 表示订阅已取消
func deliver[T any](ctx context.Context, channel string, fetch func(context.Context) (T, error), fn func(T)) bool {
	v, err := fetch(ctx)
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		log.ErrorContext(ctx, "Live query fetch failed", "channel", channel, "err", err)
		return true
	}
	fn(v)
	return true
}
