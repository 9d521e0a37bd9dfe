package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Event is the message published after a committed status transition.
type Event struct {
	Kind               Kind              `json:"event_type"`
	ResourceType       ResourceType      `json:"resource_type"`
	ResourceExternalID string            `json:"resource_external_id"`
	ParentExternalID   string            `json:"parent_resource_external_id,omitempty"`
	GatewayAccountID   uint64            `json:"gateway_account_id"`
	Status             string            `json:"status"`
	Details            map[string]string `json:"event_details,omitempty"`
	Timestamp          time.Time         `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// publishBatchTimeout bounds how long a transition's event waits for
// siblings before the writer flushes it.
const publishBatchTimeout = 10 * time.Millisecond

// KafkaPublisher writes events to a single topic keyed by the charge external
// id, so every event of a charge and of its refunds lands on one partition.
// Writes are asynchronous; delivery failures are logged by the writer.
type KafkaPublisher struct {
	writer kafkaWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string, logger logrus.FieldLogger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: newKafkaWriter(brokers, topic, logger),
		topic:  topic,
	}
}

func newKafkaWriter(brokers []string, topic string, logger logrus.FieldLogger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: publishBatchTimeout,
		Async:        true,
		Completion:   completionLogger(logger),
	}
}

func completionLogger(logger logrus.FieldLogger) func([]kafka.Message, error) {
	return func(messages []kafka.Message, err error) {
		if err == nil {
			return
		}
		for _, msg := range messages {
			logger.WithError(err).WithFields(logrus.Fields{
				"key":        string(msg.Key),
				"event_type": headerValue(msg, "event_type"),
			}).Error("event_delivery_failed")
		}
	}
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(partitionKey(event)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Kind)},
		},
		Time: event.Timestamp,
	})
}

func partitionKey(event *Event) string {
	if event.ParentExternalID != "" {
		return event.ParentExternalID
	}
	return event.ResourceExternalID
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher only logs events. Used when no brokers are configured.
type LogPublisher struct {
	logger logrus.FieldLogger
}

func NewLogPublisher(logger logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event *Event) error {
	p.logger.WithFields(logrus.Fields{
		"event_type":           event.Kind.String(),
		"resource_type":        event.ResourceType,
		"resource_external_id": event.ResourceExternalID,
		"status":               event.Status,
	}).Info("domain_event")
	return nil
}
