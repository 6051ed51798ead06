package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/vindisync/pkg/address"
)

const PaymentMethodPix = "vindi_pix"

// Order is the storefront order as seen by the reconciler. Only the Vindi
// columns are written here; everything else belongs to checkout.
type Order struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	IncrementID     string        `gorm:"column:increment_id;not null;uniqueIndex:ux_orders_increment_id" json:"increment_id"`
	CustomerID      *snowflake.ID `gorm:"column:customer_id" json:"customer_id,omitempty"`
	CustomerIsGuest bool          `gorm:"column:customer_is_guest;not null;default:false" json:"customer_is_guest"`
	CustomerEmail   string        `gorm:"column:customer_email;not null;default:''" json:"customer_email"`
	CustomerTaxvat  string        `gorm:"column:customer_taxvat;not null;default:''" json:"customer_taxvat,omitempty"`
	PaymentMethod   string        `gorm:"column:payment_method;not null;default:''" json:"payment_method"`
	// PaymentDocument is the tax document typed at checkout for this payment.
	PaymentDocument string `gorm:"column:payment_document;not null;default:''" json:"payment_document,omitempty"`

	VindiSubscriptionID *string    `gorm:"column:vindi_subscription_id;index:ix_orders_vindi_subscription" json:"vindi_subscription_id,omitempty"`
	CanCreateNewOrder   bool       `gorm:"column:vindi_subscription_can_create_new_order;not null;default:false" json:"vindi_subscription_can_create_new_order"`
	VindiBillID         *string    `gorm:"column:vindi_bill_id" json:"vindi_bill_id,omitempty"`
	BillAttachedAt      *time.Time `gorm:"column:vindi_bill_attached_at" json:"vindi_bill_attached_at,omitempty"`

	BillingAddress address.Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// AwaitingBill reports whether the order can still absorb a bill.
func (o Order) AwaitingBill() bool {
	return o.CanCreateNewOrder
}

// Document returns the document captured with the payment, falling back to
// the taxvat stored on the order.
func (o Order) Document() string {
	if o.PaymentDocument != "" {
		return o.PaymentDocument
	}
	return o.CustomerTaxvat
}
