package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("order_not_found")
	ErrAlreadyAttached = errors.New("order_bill_already_attached")
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	// ListAttachable returns orders of the subscription still flagged to
	// receive a bill, newest first.
	ListAttachable(ctx context.Context, db *gorm.DB, subscriptionID string) ([]*Order, error)
	ListBySubscription(ctx context.Context, db *gorm.DB, subscriptionID string) ([]*Order, error)
	// AttachBill clears the flag and stores the bill id in one conditional
	// update. ErrAlreadyAttached means the flag was already cleared.
	AttachBill(ctx context.Context, db *gorm.DB, id snowflake.ID, billID string, at time.Time) error
}
