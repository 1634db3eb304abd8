package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"storefront/storefront-svc/internal/domain"
)

const OrdersExchange = "orders_topic"

// AMQPChannel is the part of *amqp.Channel the publisher needs.
type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitPublisher struct {
	Channel  AMQPChannel
	Exchange string
}

// NewRabbitPublisher declares the durable topic exchange orders are sent to.
func NewRabbitPublisher(ch AMQPChannel) (*RabbitPublisher, error) {
	if err := ch.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &RabbitPublisher{Channel: ch, Exchange: OrdersExchange}, nil
}

// RoutingKey is "orders.<type>", e.g. orders.order.confirmed.
func (p *RabbitPublisher) RoutingKey(event domain.OrderEvent) string {
	return "orders." + event.Type
}

func (p *RabbitPublisher) PublishOrder(ctx context.Context, event domain.OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		Body:          body,
		MessageId:     strconv.FormatInt(event.OrderID, 10),
		CorrelationId: strconv.FormatInt(event.OrderID, 10),
		Timestamp:     time.Now().UTC(),
		Headers: amqp.Table{
			"x-source": "storefront-svc",
		},
	}
	if err := p.Channel.PublishWithContext(ctx, p.Exchange, p.RoutingKey(event), false, false, msg); err != nil {
		return fmt.Errorf("failed to publish order: %w", err)
	}
	return nil
}
