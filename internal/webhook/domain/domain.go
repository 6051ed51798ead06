package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/smallbiznis/vindisync/internal/order/domain"
	"github.com/smallbiznis/vindisync/internal/vindi"
)

const (
	EventBillCreated = "bill_created"
	EventTest        = "test"
)

var (
	ErrMalformedEvent = errors.New("malformed_event")
	ErrUnauthorized   = errors.New("webhook_unauthorized")
	ErrEventIgnored   = errors.New("event_ignored")
)

type Outcome string

const (
	OutcomeAttached     Outcome = "attached"
	OutcomeQueued       Outcome = "queued"
	OutcomeDeferred     Outcome = "deferred"
	OutcomeSingleSale   Outcome = "single_sale"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeIgnored      Outcome = "ignored"
	OutcomeAcknowledged Outcome = "acknowledged"
)

// Result describes what an event changed. OrderID is set for attached and
// duplicate outcomes, QueueEntryID for queued ones.
type Result struct {
	Outcome        Outcome       `json:"status"`
	EventType      string        `json:"event_type,omitempty"`
	SubscriptionID string        `json:"vindi_subscription_id,omitempty"`
	BillID         string        `json:"vindi_bill_id,omitempty"`
	OrderID        *snowflake.ID `json:"order_id,omitempty"`
	QueueEntryID   *snowflake.ID `json:"queue_entry_id,omitempty"`
}

// Envelope is the body Vindi posts to the webhook endpoint.
type Envelope struct {
	Event struct {
		Type      string          `json:"type"`
		CreatedAt *time.Time      `json:"created_at"`
		Data      json.RawMessage `json:"data"`
	} `json:"event"`
}

type SubscriptionRef struct {
	ID vindi.ID `json:"id"`
}

type Bill struct {
	ID           vindi.ID         `json:"id"`
	Subscription *SubscriptionRef `json:"subscription"`
}

// BillCreatedData is the data object of a bill_created event.
type BillCreatedData struct {
	Bill *Bill `json:"bill"`
}

// Handler processes the data object of one event type.
type Handler interface {
	Handle(ctx context.Context, data json.RawMessage) (Result, error)
}

type Service interface {
	Ingest(ctx context.Context, key string, payload []byte) (Result, error)
}

// Notifier is told about orders that just received their bill.
type Notifier interface {
	PaymentInstructionsAvailable(ctx context.Context, order *orderdomain.Order) error
}
