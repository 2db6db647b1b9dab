package kafka

import (
	"GameZone/internal/api/config"
	"GameZone/internal/pkg/es"
	"GameZone/internal/pkg/live"
	"context"
	log "log/slog"
	"sync"

	"github.com/IBM/sarama"
)

type consumer struct {
	name    string
	topic   string
	group   sarama.ConsumerGroup
	handler sarama.ConsumerGroupHandler
}

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	consumers []*consumer
}

// NewConsumerManager 构造函数
func NewConsumerManager(
	cfg *config.Config,
	userESRepo es.UserRepo,
	userCache UserCache,
	notifier live.Notifier,
) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	userDetailConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaUserDetailConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	userFollowsConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaUserFollowsConsumer.GroupID, saramaCfg)
	if err != nil {
		_ = userDetailConsumer.Close()
		return nil, err
	}

	return &ConsumerManager{
		consumers: []*consumer{
			{
				name:    "user detail",
				topic:   cfg.KafkaUserDetailConsumer.Topic,
				group:   userDetailConsumer,
				handler: NewUserDetailHandler(userESRepo, userCache),
			},
			{
				name:    "user follows",
				topic:   cfg.KafkaUserFollowsConsumer.Topic,
				group:   userFollowsConsumer,
				handler: NewUserFollowsHandler(notifier),
			},
		},
	}, nil
}

// Start 启动所有消费者，ctx 结束后关闭消费组并返回
func (m *ConsumerManager) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, c := range m.consumers {
		wg.Add(2)
		go func(c *consumer) {
			defer wg.Done()
			log.Info("Kafka consumer started", "name", c.name, "topic", c.topic)
			for {
				if err := c.group.Consume(ctx, []string{c.topic}, c.handler); err != nil {
					log.Error("Error from consumer", "name", c.name, "err", err)
				}
				if ctx.Err() != nil {
					return
				}
			}
		}(c)
		go func(c *consumer) {
			defer wg.Done()
			for {
				select {
				case err, ok := <-c.group.Errors():
					if !ok {
						return
					}
					log.Error("Kafka consumer group error", "name", c.name, "err", err)
				case <-ctx.Done():
					return
				}
			}
		}(c)
	}

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	for _, c := range m.consumers {
		if err := c.group.Close(); err != nil {
			log.Error("Failed to close consumer", "name", c.name, "err", err)
		}
	}
	wg.Wait()

	return nil
}
