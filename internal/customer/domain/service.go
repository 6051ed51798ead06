package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/smallbiznis/vindisync/internal/order/domain"
	"github.com/smallbiznis/vindisync/internal/vindi"
)

var (
	ErrRemoteRegistrationFailed = errors.New("remote_registration_failed")
	ErrMissingBillingAddress    = errors.New("missing_billing_address")
	ErrBillingAddressNotFound   = errors.New("billing_address_not_found")
	ErrMissingRegistryCode      = errors.New("missing_registry_code")
	ErrNotFound                 = errors.New("customer_not_found")
	ErrOrderNotFound            = errors.New("order_not_found")
)

// Resolver maps local identities to Vindi customers, creating the remote
// record only when neither the local mapping nor a remote lookup finds one.
type Resolver interface {
	FindOrCreate(ctx context.Context, order *orderdomain.Order) (string, error)
	FindOrCreateFromAccount(ctx context.Context, customer *Customer) (string, error)
	ResolveOrder(ctx context.Context, orderID snowflake.ID) (string, error)
	ResolveAccount(ctx context.Context, customerID snowflake.ID) (string, error)
}

// RemoteCustomers is the slice of the Vindi API the resolver needs.
type RemoteCustomers interface {
	CreateCustomer(ctx context.Context, in vindi.CustomerInput) (string, error)
	UpdateCustomer(ctx context.Context, id string, in vindi.CustomerInput) (string, error)
	GetCustomer(ctx context.Context, id string) (*vindi.Customer, error)
	FindCustomersByCode(ctx context.Context, code string) ([]vindi.Customer, error)
	FindCustomersByEmail(ctx context.Context, email string) ([]vindi.Customer, error)
}
