// Package queue_publisher publishes domain events to RabbitMQ.
// Publishing is strictly best-effort: errors are logged and returned so
// callers can ignore them without interrupting the request that
// triggered the event.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/arminrs/consent-agreements/internal/queue"
)

// Publisher satisfies the handler.EventPublisher interface by pushing
// events onto the agreement.responded queue.
type Publisher struct{}

func New() *Publisher { return &Publisher{} }

// AgreementResponded publishes an AgreementRespondedEvent. Messages
// are marked persistent so they survive broker restarts. A fresh
// connection per publish keeps the implementation free of shared
// state; respond is a rare, human-paced operation.
func (p *Publisher) AgreementResponded(ctx context.Context, event q.AgreementRespondedEvent) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		"agreement.responded", // name
		true,                  // durable
		false,                 // autoDelete
		false,                 // exclusive
		false,                 // noWait
		nil,                   // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                    // default exchange
		"agreement.responded", // routing key = queue name
		false,                 // mandatory
		false,                 // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
