package queue

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// LedgerPublisher pushes ledger entries to RabbitMQ. It dials per publish:
// the queue is only used when a direct write failed, so connections are rare
// and a broker outage never holds a socket open.
type LedgerPublisher struct {
	url string
	log *zap.Logger
}

func NewLedgerPublisher(url string, log *zap.Logger) *LedgerPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &LedgerPublisher{url: url, log: log}
}

// PublishLedgerEntry publishes ev as a persistent JSON message. Errors are
// logged and returned so the caller decides whether the entry is lost.
func (p *LedgerPublisher) PublishLedgerEntry(ctx context.Context, ev LedgerEntryEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch); err != nil {
		p.log.Warn("rabbitmq queue declare failed", zap.Error(err))
		return err
	}
	if err := publish(ctx, ch, LedgerQueueName, ev, 0); err != nil {
		p.log.Warn("rabbitmq publish failed", zap.Error(err))
		return err
	}
	return nil
}

// message encodes ev as a persistent JSON message. A positive delay becomes
// the per-message TTL read by the retry queue.
func message(ev LedgerEntryEvent, delay time.Duration) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if delay > 0 {
		msg.Expiration = strconv.FormatInt(delay.Milliseconds(), 10)
	}
	return msg, nil
}

func publish(ctx context.Context, ch *amqp.Channel, queue string, ev LedgerEntryEvent, delay time.Duration) error {
	msg, err := message(ev, delay)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", queue, false, false, msg)
}
