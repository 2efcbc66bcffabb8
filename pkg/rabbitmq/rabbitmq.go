package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"sweetshop/internal/models"

	amqp "github.com/streadway/amqp"
)

// Topology used for stock events.
const (
	StockExchange = "sweetshop.stock"
	StockQueue    = "stock_events"
	StockBinding  = "sweet.#"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ and declares the stock exchange, queue and
// binding.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Printf("RabbitMQ client connected, %s bound to %s", StockQueue, StockExchange)

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareTopology(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		StockExchange, // name
		"topic",       // kind
		true,          // durable
		false,         // auto-deleted
		false,         // internal
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", StockExchange, err)
	}

	_, err = ch.QueueDeclare(
		StockQueue, // name
		true,       // durable
		false,      // delete when unused
		false,      // exclusive
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", StockQueue, err)
	}

	if err := ch.QueueBind(StockQueue, StockBinding, StockExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind %s: %w", StockQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish marshals payload to JSON and publishes it persistently to the stock
// exchange under routingKey.
func (c *Client) Publish(routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", routingKey, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	err = c.channel.Publish(
		StockExchange, // exchange
		routingKey,    // routing key
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         routingKey,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", routingKey, err)
	}
	return nil
}

// ConsumeStockEvents delivers every message on the stock queue to handler in
// a background goroutine. Messages are acked when handler returns nil and
// dead-lettered (nacked without requeue) when it fails to decode them.
func (c *Client) ConsumeStockEvents(handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		StockQueue, // queue
		"",         // consumer tag
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf("Waiting for stock events on %s", StockQueue)

	go func() {
		for msg := range msgs {
			if err := handler(msg); err != nil {
				log.Printf("Error processing message %d: %v", msg.DeliveryTag, err)
				// Requeueing an undecodable event would loop forever.
				if nackErr := msg.Nack(false, false); nackErr != nil {
					log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
			}
		}
	}()

	return nil
}

// DecodeStockEvent parses a message body published by Publish.
func DecodeStockEvent(body []byte) (models.StockEvent, error) {
	var event models.StockEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return models.StockEvent{}, fmt.Errorf("failed to decode stock event: %w", err)
	}
	if event.Type == "" || event.SweetID == "" {
		return models.StockEvent{}, fmt.Errorf("stock event is missing type or sweet id")
	}
	return event, nil
}

// LogStockEvent is the default consumer: it records every stock movement and
// flags low stock.
func LogStockEvent(msg amqp.Delivery) error {
	event, err := DecodeStockEvent(msg.Body)
	if err != nil {
		return err
	}
	if event.Type == models.EventSweetLowStock {
		log.Printf("LOW STOCK: %s (%s) has %d left", event.Name, event.SweetID, event.Quantity)
		return nil
	}
	log.Printf("Stock event %s: %s (%s) delta %+d, now %d", event.Type, event.Name, event.SweetID, event.Delta, event.Quantity)
	return nil
}
