package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"workorder/internal/domain/entity"
)

// EventHandler processes one delivered event. A returned error requeues the delivery.
type EventHandler func(ctx context.Context, e entity.Event) error

type EventConsumer struct {
	channel     *amqp.Channel
	queue       string
	prefetchCnt int
	Handle      EventHandler
}

// NewEventConsumer declares queue and binds it to exchange with bindingKey,
// which may use topic wildcards such as "step.*" or "#".
func NewEventConsumer(conn *amqp.Connection, exchange, bindingKey, queue string, handle EventHandler) (*EventConsumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	consumer := &EventConsumer{
		channel:     ch,
		queue:       queue,
		prefetchCnt: 16,
		Handle:      handle,
	}

	err = ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, err
	}

	// An unnamed queue is exclusive to this connection and named by the broker.
	durable, exclusive := queue != "", queue == ""
	q, err := ch.QueueDeclare(
		queue,
		durable,
		exclusive,
		exclusive,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, err
	}
	consumer.queue = q.Name

	if err := ch.QueueBind(q.Name, bindingKey, exchange, false, nil); err != nil {
		ch.Close()
		return nil, err
	}

	if err := ch.Qos(consumer.prefetchCnt, 0, false); err != nil {
		ch.Close()
		return nil, err
	}

	return consumer, nil
}

// Start consumes until ctx is done or the channel closes. Deliveries are
// handled one at a time, in order.
func (c *EventConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event consumer shutting down")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				log.Warn().Msg("rabbitmq channel closed")
				return nil
			}

			c.handle(ctx, msg)
		}
	}
}

// handle settles one delivery. Malformed bodies are dropped, handler
// failures are requeued and everything else is acked.
func (c *EventConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	var e entity.Event
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		log.Error().Err(err).Str("routing_key", msg.RoutingKey).Msg("failed to unmarshal event")
		if err := msg.Nack(false, false); err != nil {
			log.Error().Err(err).Msg("nack delivery")
		}
		return
	}

	if err := c.Handle(ctx, e); err != nil {
		log.Error().Err(err).Str("event", string(e.Type)).Str("job_id", e.JobID).Msg("failed to handle event")
		if err := msg.Nack(false, true); err != nil {
			log.Error().Err(err).Msg("nack delivery")
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		log.Error().Err(err).Msg("ack delivery")
	}
}

func (c *EventConsumer) Close() error {
	return c.channel.Close()
}
