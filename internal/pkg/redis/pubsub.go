package redis

import (
	"GameZone/internal/pkg/live"
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

const changedPayload = "1"

// PubSub 基于 Redis 频道的变更通知
type PubSub struct {
	rdb *redis.Client
}

func NewPubSub(rdb *redis.Client) *PubSub {
	return &PubSub{rdb: rdb}
}

func (p *PubSub) Notify(ctx context.Context, channel string) error {
	return p.rdb.Publish(ctx, channel, changedPayload).Err()
}

// Listen 等待 SUBSCRIBE 确认后返回，避免订阅生效前的通知丢失
func (p *PubSub) Listen(ctx context.Context, channel string) (live.Feed, error) {
	ps := p.rdb.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	f := &feed{ps: ps, c: make(chan struct{}, 1)}
	go f.loop()
	return f, nil
}

type feed struct {
	ps   *redis.PubSub
	c    chan struct{}
	once sync.Once
}

func (f *feed) C() <-chan struct{} {
	return f.c
}

func (f *feed) Close() error {
	var err error
	f.once.Do(func() {
		err = f.ps.Close()
	})
	return err
}

func (f *feed) loop() {
	defer close(f.c)
	for range f.ps.Channel() {
		// 合并通知，消费方每次都会重新查询
		select {
		case f.c <- struct{}{}:
		default:
		}
	}
}
