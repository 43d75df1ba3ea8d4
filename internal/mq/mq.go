package mq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	StationsExchange = "tavola.stations"
	KitchenQueue     = "kitchen.q"
	BarQueue         = "bar.q"
	DeadLetterQueue  = "dlq"
)

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// DeclareTopology declares the station topology: a topic exchange with one
// durable queue per station, dead-lettering into dlq.
func (c *Client) DeclareTopology() error {
	if c == nil || c.ch == nil {
		return fmt.Errorf("nil channel")
	}
	if err := c.ch.ExchangeDeclare(StationsExchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.ExchangeDeclare("dlx", "direct", true, false, false, false, nil); err != nil {
		return err
	}
	dlArgs := amqp.Table{
		"x-dead-letter-exchange":    "dlx",
		"x-dead-letter-routing-key": "dlq",
	}
	if _, err := c.ch.QueueDeclare(KitchenQueue, true, false, false, false, dlArgs); err != nil {
		return err
	}
	if _, err := c.ch.QueueDeclare(BarQueue, true, false, false, false, dlArgs); err != nil {
		return err
	}
	if _, err := c.ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.QueueBind(KitchenQueue, "kitchen.*", StationsExchange, false, nil); err != nil {
		return err
	}
	if err := c.ch.QueueBind(BarQueue, "bar.*", StationsExchange, false, nil); err != nil {
		return err
	}
	if err := c.ch.QueueBind(DeadLetterQueue, "dlq", "dlx", false, nil); err != nil {
		return err
	}
	return nil
}

func (c *Client) PublishPersistent(ctx context.Context, key, correlationID string, body []byte) error {
	return c.ch.PublishWithContext(ctx, StationsExchange, key, false, false, amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		Timestamp:     time.Now().UTC(),
		CorrelationId: correlationID,
		Body:          body,
	})
}

func (c *Client) Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return c.ch.Consume(queue, consumer, false, false, false, false, nil)
}
