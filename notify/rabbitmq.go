package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/greenround/visit-engine/lawncare"
)

// RabbitMQ publishes change events to a durable topic exchange with routing
// key "subscription.overrides.<reason>".
type RabbitMQ struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	mu       sync.Mutex
}

// ChangeMessage is the JSON body published for each event.
type ChangeMessage struct {
	EventID    string                    `json:"event_id"`
	CustomerID string                    `json:"customer_id"`
	Reason     string                    `json:"reason"`
	Revision   int64                     `json:"revision"`
	Plan       string                    `json:"plan"`
	Status     string                    `json:"status"`
	Overrides  []lawncare.OverrideRecord `json:"overrides"`
	OccurredAt time.Time                 `json:"occurred_at"`
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	if !strings.HasSuffix(clean, "/") {
		clean += "/"
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewRabbitMQ dials amqpURL and declares the exchange.
func NewRabbitMQ(amqpURL, exchange string) (*RabbitMQ, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.Dial(cleanURL)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &RabbitMQ{conn: conn, channel: channel, exchange: exchange}, nil
}

// RoutingKey is the topic an event is published under.
func RoutingKey(reason lawncare.ChangeReason) string {
	return "subscription.overrides." + string(reason)
}

// NewChangeMessage builds the published body for an event.
func NewChangeMessage(event lawncare.ChangeEvent) ChangeMessage {
	records := make([]lawncare.OverrideRecord, lawncare.QueueSize)
	for i, o := range event.Subscription.Overrides {
		records[i] = o.Record()
	}
	return ChangeMessage{
		EventID:    event.ID,
		CustomerID: event.CustomerID,
		Reason:     string(event.Reason),
		Revision:   event.Revision,
		Plan:       event.Subscription.Plan.String(),
		Status:     string(event.Subscription.Status),
		Overrides:  records,
		OccurredAt: event.OccurredAt,
	}
}

// Notify publishes the event.
func (p *RabbitMQ) Notify(ctx context.Context, event lawncare.ChangeEvent) error {
	body, err := json.Marshal(NewChangeMessage(event))
	if err != nil {
		return err
	}

	// amqp091 channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channel.PublishWithContext(ctx,
		p.exchange,               // exchange
		RoutingKey(event.Reason), // routing key
		false,                    // mandatory
		false,                    // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.OccurredAt,
			Body:         body,
		})
}

// Close gracefully closes the channel and connection.
func (p *RabbitMQ) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

var _ lawncare.Notifier = (*RabbitMQ)(nil)
