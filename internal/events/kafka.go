// Package events публикует доменные события платформы лояльности в Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Типы событий.
const (
	TypeCreated       = "created"
	TypeStatusChanged = "status_changed"
)

// Event — запись о созданной или изменённой сущности.
type Event struct {
	ID         string    `json:"event_id"`
	Type       string    `json:"event_type"`
	Entity     string    `json:"entity"`
	EntityID   string    `json:"entity_id"`
	TenantID   string    `json:"tenant_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}

// NewEvent заполняет идентификатор и время события.
func NewEvent(eventType, entity, entityID, tenantID string, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Entity:     entity,
		EntityID:   entityID,
		TenantID:   tenantID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Key — ключ сообщения. События одного тенанта попадают в одну партицию и сохраняют порядок.
func (e Event) Key() string {
	if e.TenantID == "" {
		return e.EntityID
	}
	return e.TenantID
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher отправляет события в топик Kafka.
type Publisher struct {
	writer messageWriter
}

// NewPublisher создаёт издателя для указанных брокеров и топика.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		WriteTimeout:           10 * time.Second,
		ReadTimeout:            10 * time.Second,
		AllowAutoTopicCreation: true,
	}}
}

// Publish сериализует событие в JSON и записывает его в топик.
func (p *Publisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.Key()),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Entity + "." + e.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message to kafka: %w", err)
	}
	return nil
}

// Close закрывает writer и дожидается отправки буферизованных сообщений.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
