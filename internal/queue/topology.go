package queue

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue names of the ledger outbox. Every queue hangs off the default
// exchange, so routing keys are queue names.
const (
	// LedgerQueueName is consumed by the replay worker.
	LedgerQueueName = "ledger.entries"
	// LedgerRetryQueueName parks failed entries until their per-message TTL
	// expires, then dead-letters them back to LedgerQueueName.
	LedgerRetryQueueName = "ledger.entries.retry"
	// LedgerDeadQueueName keeps entries that exhausted their attempts or can
	// never be written, for manual inspection.
	LedgerDeadQueueName = "ledger.entries.dlq"
)

const (
	retryBaseDelay = 5 * time.Second
	retryMaxDelay  = 5 * time.Minute
)

type queueSpec struct {
	name string
	args amqp.Table
}

// ledgerTopology lists the queues in declaration order: dead-letter targets
// first.
func ledgerTopology() []queueSpec {
	return []queueSpec{
		{name: LedgerDeadQueueName},
		{name: LedgerRetryQueueName, args: amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": LedgerQueueName,
		}},
		{name: LedgerQueueName, args: amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": LedgerDeadQueueName,
		}},
	}
}

func declare(ch *amqp.Channel) error {
	for _, q := range ledgerTopology() {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, q.args); err != nil {
			return fmt.Errorf("declare %s: %w", q.name, err)
		}
	}
	return nil
}

// retryDelay is how long attempt n (1-based) waits in the retry queue. It
// doubles per attempt up to retryMaxDelay.
func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := retryBaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= retryMaxDelay {
			return retryMaxDelay
		}
	}
	return d
}
