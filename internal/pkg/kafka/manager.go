package kafka

import (
	"CraveQuest/internal/api/config"
	"CraveQuest/internal/pkg/metrics"
	"CraveQuest/internal/service"
	"context"
	"errors"
	log "log/slog"

	"github.com/IBM/sarama"
)

type consumer struct {
	topic   string
	group   sarama.ConsumerGroup
	handler sarama.ConsumerGroupHandler
}

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	consumers []*consumer
}

// NewConsumerManager 为四张表各建一个消费组
func NewConsumerManager(
	cfg *config.Config,
	trendSvc service.TrendService,
	valueSvc service.ValueService,
	ratingSvc service.RatingService,
	dirty DirtyMarker,
	m *metrics.Metrics,
) (*ConsumerManager, error) {
	saramaCfg, err := newSaramaConfig(cfg.Kafka)
	if err != nil {
		return nil, err
	}

	specs := []struct {
		consumerCfg config.KafkaTopicConsumer
		table       string
		logic       TableLogic
	}{
		{cfg.KafkaInteractionConsumer, "recipe_interactions", NewInteractionsHandler(trendSvc, dirty).Handle},
		{cfg.KafkaModificationConsumer, "recipe_modifications", NewModificationsHandler(trendSvc, dirty).Handle},
		{cfg.KafkaRecipeConsumer, "recipes", NewRecipesHandler(valueSvc, dirty).Handle},
		{cfg.KafkaRatingConsumer, "recipe_ratings", NewRatingsHandler(ratingSvc, dirty).Handle},
	}

	mgr := &ConsumerManager{}
	for _, s := range specs {
		group, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, s.consumerCfg.GroupID, saramaCfg)
		if err != nil {
			mgr.close()
			return nil, err
		}
		mgr.consumers = append(mgr.consumers, &consumer{
			topic:   s.consumerCfg.Topic,
			group:   group,
			handler: newTableHandler(s.table, s.logic, m),
		})
	}
	return mgr, nil
}

// Start 启动所有消费者，阻塞到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context) error {
	for _, c := range m.consumers {
		go m.run(ctx, c)
	}

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")
	return m.close()
}

func (m *ConsumerManager) run(ctx context.Context, c *consumer) {
	log.Info("consumer started", "topic", c.topic)
	go func() {
		for err := range c.group.Errors() {
			log.Error("consumer group error", "topic", c.topic, "err", err)
		}
	}()
	for {
		// 每次 rebalance 后 Consume 返回，需要重新加入
		if err := c.group.Consume(ctx, []string{c.topic}, c.handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			log.Error("Error from consumer", "topic", c.topic, "err", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (m *ConsumerManager) close() error {
	var errs []error
	for _, c := range m.consumers {
		if err := c.group.Close(); err != nil {
			log.Error("Failed to close consumer", "topic", c.topic, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
