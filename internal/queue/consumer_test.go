package queue

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/hotel-management/internal/apperr"
)

func TestDecide(t *testing.T) {
	transient := errors.New("deadlock")
	cases := []struct {
		name    string
		attempt int
		err     error
		want    outcome
	}{
		{"written", 0, nil, ack},
		{"transient first try", 0, transient, retry},
		{"transient last try", MaxLedgerAttempts - 1, transient, deadLetter},
		{"bad amount", 0, apperr.New(apperr.ErrInvalidAmount, "bad"), deadLetter},
		{"bad source", 1, apperr.Invalid("source", "unknown"), deadLetter},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := decide(LedgerEntryEvent{Attempt: c.attempt}, c.err); got != c.want {
				t.Fatalf("decide = %v, want %v", got, c.want)
			}
		})
	}
}

func TestLedgerEventWireFormat(t *testing.T) {
	ev := LedgerEntryEvent{
		HotelID:    3,
		Source:     SourceOrder,
		OrderID:    11,
		Number:     "CMD-1",
		Amount:     "12.50",
		OccurredAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatal(err)
	}
	if m["amount"] != "12.50" || m["source"] != "order" {
		t.Fatalf("unexpected body %s", body)
	}
	if _, ok := m["reservation_id"]; ok {
		t.Fatalf("empty reservation_id must be omitted: %s", body)
	}
}

func TestLedgerTopologyRouting(t *testing.T) {
	deadLetterTo := map[string]string{}
	for _, q := range ledgerTopology() {
		if q.args == nil {
			continue
		}
		if ex := q.args["x-dead-letter-exchange"]; ex != "" {
			t.Errorf("%s: dead-letter exchange = %v, want default", q.name, ex)
		}
		key, _ := q.args["x-dead-letter-routing-key"].(string)
		deadLetterTo[q.name] = key
	}
	cases := []struct {
		queue string
		want  string
	}{
		{LedgerQueueName, LedgerDeadQueueName},
		{LedgerRetryQueueName, LedgerQueueName},
		{LedgerDeadQueueName, ""},
	}
	for _, c := range cases {
		if got := deadLetterTo[c.queue]; got != c.want {
			t.Errorf("%s dead-letters to %q, want %q", c.queue, got, c.want)
		}
	}
}

func TestRetryDelay(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 5 * time.Second},
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{4, 40 * time.Second},
		{7, 5 * time.Minute},
		{30, 5 * time.Minute},
	}
	for _, c := range cases {
		if got := retryDelay(c.attempt); got != c.want {
			t.Errorf("retryDelay(%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestRetryMessageCarriesTTL(t *testing.T) {
	ev := LedgerEntryEvent{HotelID: 1, Source: SourceOrder, Amount: "5.00", Attempt: 2}
	cases := []struct {
		name  string
		delay time.Duration
		want  string
	}{
		{"first publish", 0, ""},
		{"retry", retryDelay(2), "10000"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			msg, err := message(ev, c.delay)
			if err != nil {
				t.Fatal(err)
			}
			if msg.Expiration != c.want {
				t.Fatalf("expiration = %q, want %q", msg.Expiration, c.want)
			}
			var back LedgerEntryEvent
			if err := json.Unmarshal(msg.Body, &back); err != nil {
				t.Fatal(err)
			}
			if back.Attempt != 2 {
				t.Fatalf("attempt = %d, want 2", back.Attempt)
			}
		})
	}
}
