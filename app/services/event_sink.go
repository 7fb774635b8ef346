// Package services provides external service integrations and technical concerns like event delivery
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/amirphl/infobip-sms-bridge/config"
	"github.com/amirphl/infobip-sms-bridge/models"
	"github.com/amirphl/infobip-sms-bridge/repository"
)

// EventSink records analytics events for the data warehouse
type EventSink interface {
	Record(ctx context.Context, stat *models.DwhStat) error
	Close() error
}

// DBEventSink writes events to the dwh_stats table
type DBEventSink struct {
	repo repository.DwhStatRepository
}

func NewDBEventSink(repo repository.DwhStatRepository) *DBEventSink {
	return &DBEventSink{repo: repo}
}

func (s *DBEventSink) Record(ctx context.Context, stat *models.DwhStat) error {
	if err := s.repo.Save(ctx, stat); err != nil {
		return fmt.Errorf("record %s event: %w", stat.EventType, err)
	}
	return nil
}

func (s *DBEventSink) Close() error { return nil }

// KafkaEventSink publishes events as JSON keyed by channel id
type KafkaEventSink struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaEventSink(producer sarama.SyncProducer, topic string) *KafkaEventSink {
	return &KafkaEventSink{producer: producer, topic: topic}
}

// NewKafkaProducer creates an idempotent synchronous producer
func NewKafkaProducer(cfg config.EventSinkConfig) (sarama.SyncProducer, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.Idempotent = true
	sc.Net.MaxOpenRequests = 1
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5
	if cfg.KafkaTimeout > 0 {
		sc.Producer.Timeout = cfg.KafkaTimeout
	}
	prod, err := sarama.NewSyncProducer(cfg.KafkaBrokers, sc)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return prod, nil
}

func (s *KafkaEventSink) Record(ctx context.Context, stat *models.DwhStat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(stat)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", stat.EventType, err)
	}
	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(stat.ChannelID, 10)),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(stat.EventType)},
		},
	}
	if _, _, err := s.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("publish %s event: %w", stat.EventType, err)
	}
	return nil
}

func (s *KafkaEventSink) Close() error {
	return s.producer.Close()
}

// NewEventSink selects the sink named by cfg.Provider
func NewEventSink(cfg config.EventSinkConfig, repo repository.DwhStatRepository) (EventSink, error) {
	switch cfg.Provider {
	case "kafka":
		prod, err := NewKafkaProducer(cfg)
		if err != nil {
			return nil, err
		}
		return NewKafkaEventSink(prod, cfg.KafkaTopic), nil
	case "db", "":
		return NewDBEventSink(repo), nil
	default:
		return nil, fmt.Errorf("unknown event sink provider %q", cfg.Provider)
	}
}
