// Package stream bridges the core into a streaming topology: one event
// in from the transaction topic, zero-or-more action records out, one
// per triggered rule.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"

	"github.com/riskgate/riskgate/internal/config"
	"github.com/riskgate/riskgate/internal/engine"
	"github.com/riskgate/riskgate/internal/event"
)

const commitEvery = 100

// Alert is one triggered-action record emitted downstream. Evidence
// carries only the findings of the rule that raised this alert.
type Alert struct {
	EventID  string         `json:"event_id"`
	UserID   string         `json:"user_id"`
	RuleID   string         `json:"rule_id"`
	Action   string         `json:"action"`
	Evidence map[string]any `json:"evidence,omitempty"`
}

// Bridge consumes transaction events and produces risk alerts.
type Bridge struct {
	consumer *kafka.Consumer
	producer *kafka.Producer
	eng      *engine.Engine
	conf     config.KafkaConf
}

// NewBridge connects the consumer and producer and subscribes to the
// event topic.
func NewBridge(conf config.KafkaConf, eng *engine.Engine) (*Bridge, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  conf.Brokers,
		"group.id":           conf.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, err
	}
	if err := consumer.SubscribeTopics([]string{conf.EventTopic}, nil); err != nil {
		consumer.Close()
		return nil, err
	}
	producer, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": conf.Brokers})
	if err != nil {
		consumer.Close()
		return nil, err
	}
	return &Bridge{consumer: consumer, producer: producer, eng: eng, conf: conf}, nil
}

// Run polls the event topic until ctx ends. Malformed messages and
// per-event evaluation errors are logged and skipped; the stream keeps
// moving.
func (b *Bridge) Run(ctx context.Context) {
	processed := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		raw := b.consumer.Poll(100)
		if raw == nil {
			continue
		}
		switch m := raw.(type) {
		case *kafka.Message:
			b.handle(ctx, m)
			processed++
			if processed%commitEvery == 0 {
				if _, err := b.consumer.Commit(); err != nil {
					slog.Warn("kafka commit failed", "err", err)
				}
			}
		case kafka.Error:
			slog.Warn("kafka consumer error", "err", m)
		}
	}
}

func (b *Bridge) handle(ctx context.Context, m *kafka.Message) {
	var ev event.Event
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		slog.Warn("malformed event message, skipping", "err", err)
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	ev.ReceivedAt = time.Now()

	res, err := b.eng.ProcessSync(ctx, &ev)
	if err != nil {
		slog.Warn("event evaluation failed", "event_id", ev.ID, "err", err)
		return
	}
	if !res.HasRisk() {
		return
	}
	for i, action := range res.Actions {
		ruleID := res.TriggeredRules[i]
		b.emit(Alert{
			EventID:  ev.ID,
			UserID:   ev.UserID,
			RuleID:   ruleID,
			Action:   action,
			Evidence: res.Context[ruleID],
		})
	}
}

func (b *Bridge) emit(a Alert) {
	payload, err := json.Marshal(a)
	if err != nil {
		slog.Warn("alert marshal failed", "event_id", a.EventID, "err", err)
		return
	}
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &b.conf.ActionTopic, Partition: kafka.PartitionAny},
		Key:            []byte(a.EventID),
		Value:          payload,
	}
	if err := b.producer.Produce(msg, nil); err != nil {
		slog.Warn("alert produce failed", "event_id", a.EventID, "err", err)
	}
}

// Close flushes the producer and closes both clients.
func (b *Bridge) Close() {
	b.producer.Flush(5000)
	b.producer.Close()
	if err := b.consumer.Close(); err != nil {
		slog.Warn("kafka consumer close failed", "err", err)
	}
}
