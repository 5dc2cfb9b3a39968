package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/Trazabilidad-api/internal/application/traceability"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

var (
	_ traceability.EventPublisher = (*Publisher)(nil)
	_ traceability.EventPublisher = NopPublisher{}
)

// channel subconjunto de *amqp.Channel usado para publicar.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher publica eventos en un exchange; el tipo de evento es la routing key.
type Publisher struct {
	mu       sync.Mutex
	channel  channel
	exchange string
	source   string
	logger   *logger.Logger
}

// NewPublisher declara el exchange y construye el publicador.
func NewPublisher(rmq *RabbitMQ, exchange, source string, log *logger.Logger) (*Publisher, error) {
	if err := rmq.DeclareExchange(exchange); err != nil {
		return nil, fmt.Errorf("declarar exchange %s: %w", exchange, err)
	}
	return newPublisher(rmq.Channel(), exchange, source, log), nil
}

func newPublisher(ch channel, exchange, source string, log *logger.Logger) *Publisher {
	return &Publisher{channel: ch, exchange: exchange, source: source, logger: log}
}

// Publish implementa traceability.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	correlationID := CorrelationID(ctx)
	event, err := NewEvent(eventType, p.source, correlationID, data)
	if err != nil {
		return fmt.Errorf("crear evento: %w", err)
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}

	// amqp.Channel no admite publicaciones concurrentes.
	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		eventType,  // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     event.ID,
			CorrelationId: correlationID,
			Timestamp:     event.Timestamp,
			Type:          eventType,
			Body:          body,
		},
	)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publicar evento: %w", err)
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Str("event_id", event.ID).
		Str("correlation_id", correlationID).
		Msg("evento publicado")
	return nil
}

// NopPublisher descarta los eventos; se usa cuando AMQP está deshabilitado.
type NopPublisher struct{}

// Publish implementa traceability.EventPublisher.
func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
