package mq

import (
	"context"
	"fmt"

	"linkmart/internal/config"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// Publisher delivers one message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
	Close() error
}

// KafkaPublisher wraps a sarama SyncProducer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
}

// NewKafkaPublisher builds a producer that waits for all in-sync replicas.
func NewKafkaPublisher(cfg *config.KafkaConfig) (*KafkaPublisher, error) {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	logrus.WithField("brokers", cfg.Brokers).Info("kafka producer ready")
	return NewPublisherFromProducer(producer), nil
}

func NewPublisherFromProducer(producer sarama.SyncProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(_ context.Context, topic, key string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	_, _, err := p.producer.SendMessage(msg)
	return err
}

func (p *KafkaPublisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// LogPublisher is used when Kafka is disabled; events are logged and
// considered delivered.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, topic, key string, value []byte) error {
	logrus.WithFields(logrus.Fields{
		"topic": topic,
		"key":   key,
	}).Debug(string(value))
	return nil
}

func (LogPublisher) Close() error { return nil }
