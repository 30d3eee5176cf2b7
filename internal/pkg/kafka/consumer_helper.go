package kafka

import (
	"CraveQuest/internal/pkg/logger"
	"CraveQuest/internal/pkg/metrics"
	"context"
	"errors"
	log "log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

const (
	batchSize        = 32
	batchTimeout     = 1 * time.Second
	retryInterval    = 100 * time.Millisecond
	maxRetryInterval = 5 * time.Second
)

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// TableLogic 处理一条已解析的 binlog 事件
type TableLogic func(ctx context.Context, msg *CanalMessage) error

// tableHandler 消费单张表的 binlog topic
type tableHandler struct {
	table   string
	logic   TableLogic
	metrics *metrics.Metrics
}

func newTableHandler(table string, logic TableLogic, m *metrics.Metrics) *tableHandler {
	return &tableHandler{table: table, logic: logic, metrics: m}
}

func (h *tableHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("consumer setup", "table", h.table)
	return nil
}

func (h *tableHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("consumer cleanup", "table", h.table)
	return nil
}

func (h *tableHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("consume claim", "table", h.table, "partition", claim.Partition())
	if err := pullMessageBatch(session, claim, h.handle); err != nil {
		log.Error("process batch error", "table", h.table, "err", err)
		return err
	}
	log.Info("consume claim end", "table", h.table, "partition", claim.Partition())
	return nil
}

func (h *tableHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, h.table)
	if err == nil {
		err = h.logic(ctx, canalMsg)
	}
	switch {
	case err == nil:
		h.metrics.IncEvent(h.table, "ok")
	case errors.Is(err, errMalformed):
		h.metrics.IncEvent(h.table, "skipped")
	default:
		h.metrics.IncEvent(h.table, "error")
	}
	return err
}

// pullMessageBatch 拉取一批消息并执行业务逻辑
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				if len(batch) > 0 {
					processBatch(session, batch, logic)
				}
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				processBatch(session, batch, logic)
				// 清空缓冲区 & 重置定时器
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 并发处理一批消息，全部完成后提交位点
func processBatch(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage, logic LogicFunc) {
	var wg sync.WaitGroup

	for _, msg := range messages {
		wg.Add(1)

		go func(m *sarama.ConsumerMessage) {
			defer wg.Done()
			ctx := logger.WithTrace(session.Context(), "kafka-"+m.Topic)
			processMessage(ctx, m, logic)
		}(msg)
	}

	wg.Wait()

	if session.Context().Err() != nil {
		return
	}
	lastMsg := messages[len(messages)-1]
	session.MarkMessage(lastMsg, "")
	session.Commit()
}

// processMessage 失败时退避重试，直到成功、消息损坏或会话结束
func processMessage(ctx context.Context, m *sarama.ConsumerMessage, logic LogicFunc) {
	interval := retryInterval
	for {
		err := logic(ctx, m)
		if err == nil {
			return
		}
		if errors.Is(err, errMalformed) {
			log.WarnContext(ctx, "skip malformed message", "topic", m.Topic, "offset", m.Offset, "err", err)
			return
		}

		log.ErrorContext(ctx, "process message error", "topic", m.Topic, "offset", m.Offset, "err", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		interval *= 2
		if interval > maxRetryInterval {
			interval = maxRetryInterval
		}
	}
}
