package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository lookups return (nil, nil) when the row does not exist.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	InsertAddress(ctx context.Context, db *gorm.DB, addr *CustomerAddress) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Customer, error)
	FindAddress(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CustomerAddress, error)
	UpdateTaxvat(ctx context.Context, db *gorm.DB, id snowflake.ID, taxvat string, at time.Time) error

	FindProfile(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (*PaymentProfile, error)
	// UpsertProfile keeps one mapping per customer.
	UpsertProfile(ctx context.Context, db *gorm.DB, profile *PaymentProfile) error
}
