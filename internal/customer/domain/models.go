package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/vindisync/pkg/address"
)

// Customer is a registered storefront account.
type Customer struct {
	ID               snowflake.ID  `gorm:"primaryKey" json:"id"`
	Email            string        `gorm:"not null;uniqueIndex:ux_customers_email" json:"email"`
	Firstname        string        `gorm:"not null;default:''" json:"firstname"`
	Lastname         string        `gorm:"not null;default:''" json:"lastname"`
	Taxvat           string        `gorm:"not null;default:''" json:"taxvat,omitempty"`
	DefaultBillingID *snowflake.ID `gorm:"column:default_billing_id" json:"default_billing_id,omitempty"`
	CreatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

func (c Customer) FullName() string {
	return address.Address{Firstname: c.Firstname, Lastname: c.Lastname}.FullName()
}

type CustomerAddress struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID `gorm:"not null;index:ix_customer_addresses_customer" json:"customer_id"`

	address.Address `gorm:"embedded"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (CustomerAddress) TableName() string { return "customer_addresses" }

// PaymentProfile maps a local customer to its Vindi customer. At most one
// per customer.
type PaymentProfile struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID      snowflake.ID `gorm:"not null;uniqueIndex:ux_vindi_payment_profiles_customer" json:"customer_id"`
	VindiCustomerID string       `gorm:"column:vindi_customer_id;not null" json:"vindi_customer_id"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PaymentProfile) TableName() string { return "vindi_payment_profiles" }
