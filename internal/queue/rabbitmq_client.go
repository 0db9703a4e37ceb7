package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueueName is the durable queue completion events are routed to.
const DefaultQueueName = EventResumeGenerated

// RabbitMQClient publishes persistent JSON messages to a durable queue via
// the default exchange. The connection is opened lazily and redialed after
// the broker closes it.
type RabbitMQClient struct {
	url   string
	queue string
	dial  func(url string) (*amqp.Connection, error)

	mu   sync.Mutex
	conn *amqp.Connection
}

// NewRabbitMQClient constructs a publisher. No connection is made until the
// first Send.
func NewRabbitMQClient(url, queueName string) (*RabbitMQClient, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("RABBITMQ_URL is required")
	}
	if strings.TrimSpace(queueName) == "" {
		queueName = DefaultQueueName
	}
	return &RabbitMQClient{url: url, queue: queueName, dial: amqp.Dial}, nil
}

// Queue returns the destination queue name.
func (c *RabbitMQClient) Queue() string { return c.queue }

// Send declares the queue (idempotent) and publishes msg as a persistent
// message routed by queue name.
func (c *RabbitMQClient) Send(ctx context.Context, msg Message) error {
	body, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode rabbitmq message: %w", err)
	}

	conn, err := c.connection()
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		c.reset(conn)
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         msg.Event,
		MessageId:    msg.ResumeID,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", c.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *RabbitMQClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *RabbitMQClient) connection() (*amqp.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn, nil
	}
	conn, err := c.dial(c.url)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return conn, nil
}

func (c *RabbitMQClient) reset(conn *amqp.Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		_ = conn.Close()
		c.conn = nil
	}
}
