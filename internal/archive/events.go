package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/domain"
)

// KafkaSink publishes story events to a topic, keyed by story id so every
// change to one story lands on the same partition.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

var _ domain.EventSink = (*KafkaSink)(nil)

func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true
	cfg.Producer.Timeout = 10 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaSinkWithProducer(producer, topic), nil
}

func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (k *KafkaSink) Emit(_ context.Context, e domain.StoryEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(e.Story.ID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("kind"), Value: []byte(e.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("send %s event for %s: %w", e.Kind, e.Story.ID, err)
	}
	return nil
}

func (k *KafkaSink) Close() error {
	return k.producer.Close()
}

// LogSink records events in the log. Used when no bus is configured.
type LogSink struct {
	logger *zap.Logger
}

var _ domain.EventSink = (*LogSink)(nil)

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (l *LogSink) Emit(_ context.Context, e domain.StoryEvent) error {
	l.logger.Info("story event", zap.String("kind", e.Kind), zap.String("story_id", e.Story.ID))
	return nil
}
