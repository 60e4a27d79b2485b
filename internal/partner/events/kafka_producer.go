package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gartstein/partnerhub/internal/partner/metrics"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	PartnerCreated        EventType = "partner_created"
	PartnerUpdated        EventType = "partner_updated"
	PartnerDeleted        EventType = "partner_deleted"
	ConsultationRequested EventType = "consultation_requested"
	NewsletterSubscribed  EventType = "newsletter_subscribed"
)

// IsPartnerEvent reports whether t changes the partner collection.
func (t EventType) IsPartnerEvent() bool {
	return t == PartnerCreated || t == PartnerUpdated || t == PartnerDeleted
}

// Event is the JSON value written to Kafka, keyed by EntityID.
type Event struct {
	Type         EventType                      `json:"type"`
	EntityID     string                         `json:"entityId"`
	OccurredAt   time.Time                      `json:"occurredAt"`
	Partner      *models.Partner                `json:"partner,omitempty"`
	Consultation *models.ConsultationRequest    `json:"consultation,omitempty"`
	Subscription *models.NewsletterSubscription `json:"subscription,omitempty"`
}

func PartnerEvent(t EventType, p *models.Partner) Event {
	return Event{Type: t, EntityID: p.ID, OccurredAt: time.Now().UTC(), Partner: p}
}

func ConsultationEvent(c *models.ConsultationRequest) Event {
	return Event{Type: ConsultationRequested, EntityID: c.ID, OccurredAt: time.Now().UTC(), Consultation: c}
}

func SubscriptionEvent(s *models.NewsletterSubscription) Event {
	return Event{Type: NewsletterSubscribed, EntityID: s.ID, OccurredAt: time.Now().UTC(), Subscription: s}
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
	done      chan struct{}
}

func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	// Create topic if it doesn't exist
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	p := newProducer(&kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
		Topic:    topic,
	}, logger, 1000)
	go p.eventLoop()
	return p, nil
}

func newProducer(writer KafkaWriter, logger *zap.Logger, buffer int) *Producer {
	return &Producer{
		writer:    writer,
		events:    make(chan Event, buffer),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Produce queues event for delivery. It never blocks; when the queue is full
// the event is dropped and logged.
func (p *Producer) Produce(event Event) {
	select {
	case p.events <- event:
	default:
		metrics.EventsDropped.Inc()
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("entity_id", event.EntityID),
		)
	}
}

func (p *Producer) eventLoop() {
	defer close(p.done)
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			p.drain()
			return
		}
	}
}

// drain flushes whatever is still queued when the producer closes.
func (p *Producer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event := <-p.events:
			p.sendEvent(ctx, event)
		default:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("entity_id", event.EntityID),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.EntityID),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("entity_id", event.EntityID),
		)
		return
	}
	metrics.EventsPublished.WithLabelValues(string(event.Type)).Inc()
}

// Close stops the event loop after flushing queued events, then closes the
// writer.
func (p *Producer) Close() {
	close(p.closeChan)
	<-p.done
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
