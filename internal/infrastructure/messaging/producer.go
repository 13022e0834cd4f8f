// internal/infrastructure/messaging/producer.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/order"
	"github.com/sirupsen/logrus"
)

// KafkaProducer publishes order events to Kafka
type KafkaProducer struct {
	producer *kafka.Producer
	topic    string
	log      *logrus.Logger
}

// NewKafkaProducer connects to the configured brokers. It returns nil when no brokers are configured.
func NewKafkaProducer(cfg *config.Config, log *logrus.Logger) (*KafkaProducer, error) {
	if cfg.Kafka.Brokers == "" {
		log.Info("Kafka brokers not configured, order events disabled")
		return nil, nil
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Kafka.Brokers,
		"client.id":         cfg.App.Name,
		"acks":              "all",
		"retries":           10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	kp := &KafkaProducer{producer: p, topic: cfg.Kafka.Topic, log: log}
	go kp.watchDeliveries()

	log.WithFields(logrus.Fields{"brokers": cfg.Kafka.Brokers, "topic": cfg.Kafka.Topic}).Info("Kafka producer ready")
	return kp, nil
}

func (p *KafkaProducer) watchDeliveries() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.log.WithError(ev.TopicPartition.Error).
					WithField("key", string(ev.Key)).
					Error("order event delivery failed")
			}
		case kafka.Error:
			p.log.WithError(ev).Warn("Kafka producer error")
		}
	}
}

// Publish queues event for delivery. Delivery failures are reported asynchronously in the log.
func (p *KafkaProducer) Publish(ctx context.Context, event order.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := NewMessage(p.topic, event)
	if err != nil {
		return err
	}
	if err := p.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("failed to queue order event: %w", err)
	}
	return nil
}

// Close flushes pending events and closes the producer
func (p *KafkaProducer) Close() {
	if remaining := p.producer.Flush(5000); remaining > 0 {
		p.log.WithField("pending", remaining).Warn("order events not delivered before shutdown")
	}
	p.producer.Close()
}

// NewMessage encodes event as a Kafka message keyed by order so one order's events stay in order
func NewMessage(topic string, event order.Event) (*kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order event: %w", err)
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(fmt.Sprintf("ORDER#%d", event.OrderID)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}, nil
}
