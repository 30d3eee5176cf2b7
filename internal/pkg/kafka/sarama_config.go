package kafka

import (
	"CraveQuest/internal/api/config"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

const clientID = "cravequest-ranking"

// newSaramaConfig 四个消费组共用一份配置
func newSaramaConfig(kafkaCfg config.KafkaConfig) (*sarama.Config, error) {
	c := sarama.NewConfig()
	c.ClientID = clientID

	if kafkaCfg.Version != "" {
		version, err := sarama.ParseKafkaVersion(kafkaCfg.Version)
		if err != nil {
			return nil, fmt.Errorf("invalid kafka version %q: %w", kafkaCfg.Version, err)
		}
		c.Version = version
	}

	if kafkaCfg.Sasl.Enable {
		c.Net.SASL.Enable = true
		c.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		c.Net.SASL.User = kafkaCfg.Sasl.Username
		c.Net.SASL.Password = kafkaCfg.Sasl.Password
	}

	consumer := kafkaCfg.Consumer
	c.Consumer.Return.Errors = true
	c.Consumer.Offsets.Initial = sarama.OffsetNewest
	if strings.EqualFold(consumer.InitialOffset, "oldest") {
		c.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	c.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}

	c.Consumer.Group.Session.Timeout = time.Duration(consumer.SessionTimeout) * time.Second
	c.Consumer.Group.Heartbeat.Interval = time.Duration(consumer.HeartbeatInterval) * time.Second
	c.Consumer.Group.Rebalance.Timeout = time.Duration(consumer.RebalanceTimeout) * time.Second
	c.Consumer.MaxProcessingTime = time.Duration(consumer.MaxProcessingTime) * time.Second
	// 每批处理完成后手动提交
	c.Consumer.Offsets.AutoCommit.Enable = false

	return c, c.Validate()
}
