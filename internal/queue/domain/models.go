package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

var (
	ErrInvalidPayload = errors.New("queue_invalid_payload")
	ErrDuplicateEntry = errors.New("queue_duplicate_entry")
)

// Entry is a bill waiting for the order-creation worker. BillData holds the
// webhook event data exactly as received.
type Entry struct {
	ID             snowflake.ID   `gorm:"primaryKey" json:"id"`
	BillData       datatypes.JSON `gorm:"column:bill_data;not null" json:"bill_data"`
	Status         Status         `gorm:"column:status;not null;default:'pending';index:ix_vindi_order_creation_queue_status" json:"status"`
	SubscriptionID string         `gorm:"column:vindi_subscription_id;not null" json:"vindi_subscription_id"`
	BillID         string         `gorm:"column:vindi_bill_id;not null;uniqueIndex:ux_vindi_order_creation_queue_bill" json:"vindi_bill_id"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Entry) TableName() string { return "vindi_order_creation_queue" }

type EnqueueRequest struct {
	SubscriptionID string
	BillID         string
	Payload        json.RawMessage
}

// Repository is append-only: status transitions belong to the worker.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
}

type Service interface {
	Enqueue(ctx context.Context, req EnqueueRequest) (*Entry, error)
}
