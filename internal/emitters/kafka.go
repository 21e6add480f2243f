package emitters

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	apperrors "github.com/wallet-analyzer/internal/errors"
	"github.com/wallet-analyzer/internal/types"
)

// ReportEvent announces that a wallet analysis run completed.
type ReportEvent struct {
	RunID            string          `json:"run_id"`
	Address          string          `json:"address"`
	OverallRiskScore float64         `json:"overall_risk_score"`
	RiskLevel        types.RiskLevel `json:"risk_level"`
	AlertCount       int             `json:"alert_count"`
	CompletedAt      time.Time       `json:"completed_at"`
}

// Emitter publishes report completion events.
type Emitter interface {
	EmitReport(ctx context.Context, event ReportEvent) error
	Close() error
}

// KafkaEmitter implements Emitter on a kafka topic. Messages are keyed by
// address so events for one wallet stay ordered within a partition.
type KafkaEmitter struct {
	writer *kafka.Writer
}

// NewKafkaEmitter creates an emitter for the given broker and topic.
func NewKafkaEmitter(brokerAddress, topic string) *KafkaEmitter {
	return &KafkaEmitter{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokerAddress),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (k *KafkaEmitter) EmitReport(ctx context.Context, event ReportEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewInternalError("failed to encode report event", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Address),
		Value: value,
	})
	if err != nil {
		return apperrors.NewInternalError("failed to publish report event", err)
	}
	return nil
}

func (k *KafkaEmitter) Close() error {
	return k.writer.Close()
}
