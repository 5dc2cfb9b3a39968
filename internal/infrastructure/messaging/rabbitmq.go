// Package messaging publica los eventos de movimientos de lote en RabbitMQ.
package messaging

import (
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

// RabbitMQ mantiene la conexión y el canal con el broker.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
	mu      sync.RWMutex
}

// Connect abre conexión y canal contra url.
func Connect(url string, log *logger.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("conectar a RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("abrir canal: %w", err)
	}
	log.Info().Msg("conectado a RabbitMQ")
	return &RabbitMQ{conn: conn, channel: ch, logger: log}, nil
}

// Channel devuelve el canal actual.
func (r *RabbitMQ) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

// DeclareExchange declara un exchange topic durable.
func (r *RabbitMQ) DeclareExchange(name string) error {
	return r.Channel().ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-deleted
		false,   // internal
		false,   // no-wait
		nil,     // arguments
	)
}

// Healthy indica si la conexión sigue abierta.
func (r *RabbitMQ) Healthy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conn != nil && !r.conn.IsClosed()
}

// Close cierra canal y conexión.
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("no se pudo cerrar el canal")
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("cerrar conexión: %w", err)
		}
	}
	r.logger.Info().Msg("conexión RabbitMQ cerrada")
	return nil
}
