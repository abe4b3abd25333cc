package sink

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wyfcoding/paymentsengine/internal/ledger/domain"
	"github.com/wyfcoding/paymentsengine/pkg/mq"
)

// MessageSender 批量发送消息
type MessageSender interface {
	SendMessages(ctx context.Context, topic string, messages []mq.Message) error
}

// KafkaSink 每个账户发布一条消息，key 为客户 ID
type KafkaSink struct {
	sender MessageSender
	topic  string
}

// NewKafkaSink 创建 Kafka 快照输出
func NewKafkaSink(sender MessageSender, topic string) *KafkaSink {
	return &KafkaSink{sender: sender, topic: topic}
}

// Write 发布全部账户快照
func (s *KafkaSink) Write(ctx context.Context, accounts []domain.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	messages := make([]mq.Message, len(accounts))
	for i, a := range accounts {
		messages[i] = mq.Message{
			Key:   strconv.FormatUint(uint64(a.ClientID), 10),
			Value: NewSnapshot(a),
		}
	}
	if err := s.sender.SendMessages(ctx, s.topic, messages); err != nil {
		return fmt.Errorf("failed to publish account snapshots: %w", err)
	}
	return nil
}
