package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-management/internal/apperr"
)

// MaxLedgerAttempts bounds how often one entry is tried before it is
// dead-lettered.
const MaxLedgerAttempts = 5

// LedgerHandler writes one entry; a nil error acknowledges it.
type LedgerHandler func(ctx context.Context, ev LedgerEntryEvent) error

// Outcome of handling one delivery.
type outcome int

const (
	ack        outcome = iota // written
	retry                     // park in the retry queue with Attempt+1
	deadLetter                // poison or exhausted
)

// decide maps the handler result to what happens to the message. Domain
// errors can never succeed on replay, so they are dead-lettered at once.
func decide(ev LedgerEntryEvent, err error) outcome {
	switch {
	case err == nil:
		return ack
	case errors.Is(err, apperr.ErrInvalidAmount), errors.Is(err, apperr.ErrValidation):
		return deadLetter
	case ev.Attempt+1 >= MaxLedgerAttempts:
		return deadLetter
	default:
		return retry
	}
}

// StartLedgerConsumer consumes LedgerQueueName until ctx is cancelled,
// reconnecting with exponential backoff when the broker goes away.
func StartLedgerConsumer(ctx context.Context, url string, handle LedgerHandler, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("queue", LedgerQueueName))

	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("ledger consumer dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, handle, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		log.Warn("ledger consumer loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, handle LedgerHandler, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("ledger consumer set QoS failed", zap.Error(err))
	}
	if err := declare(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(LedgerQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	log.Info("ledger consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			handleDelivery(ctx, ch, d, handle, log)
		}
	}
}

func handleDelivery(ctx context.Context, ch *amqp.Channel, d amqp.Delivery, handle LedgerHandler, log *zap.Logger) {
	var ev LedgerEntryEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		log.Error("ledger message unreadable, dead-lettered", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	log = log.With(zap.Uint64("hotel_id", ev.HotelID), zap.String("number", ev.Number), zap.Int("attempt", ev.Attempt))

	err := handle(ctx, ev)
	switch decide(ev, err) {
	case ack:
		log.Info("ledger entry replayed")
		_ = d.Ack(false)
	case retry:
		ev.Attempt++
		delay := retryDelay(ev.Attempt)
		if perr := publish(ctx, ch, LedgerRetryQueueName, ev, delay); perr != nil {
			// leave it on the queue; the broker redelivers after reconnect
			log.Warn("ledger entry requeue failed", zap.Error(perr))
			_ = d.Nack(false, true)
			return
		}
		log.Warn("ledger entry replay failed, retrying", zap.Error(err), zap.Duration("retry_in", delay))
		_ = d.Ack(false)
	case deadLetter:
		// the queue's dead-letter arguments route it to LedgerDeadQueueName
		log.Error("ledger entry dead-lettered", zap.Error(err))
		_ = d.Nack(false, false)
	}
}
