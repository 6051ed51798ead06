package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/vindisync/internal/clock"
	"github.com/smallbiznis/vindisync/internal/config"
	"github.com/smallbiznis/vindisync/internal/customer/domain"
	obsmetrics "github.com/smallbiznis/vindisync/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/vindisync/internal/order/domain"
	"github.com/smallbiznis/vindisync/internal/vindi"
	"github.com/smallbiznis/vindisync/pkg/log/ctxlogger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sourceOrder   = "order"
	sourceAccount = "account"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Config    config.Config
	Repo      domain.Repository
	OrderRepo orderdomain.Repository
	Remote    domain.RemoteCustomers
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	storeBaseURL string
	repo         domain.Repository
	orderRepo    orderdomain.Repository
	remote       domain.RemoteCustomers
	metrics      *obsmetrics.Metrics
}

func New(p Params) domain.Resolver {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("customer.resolver"),
		genID:        p.GenID,
		clock:        p.Clock,
		storeBaseURL: p.Config.Vindi.StoreBaseURL,
		repo:         p.Repo,
		orderRepo:    p.OrderRepo,
		remote:       p.Remote,
		metrics:      p.Metrics,
	}
}

func (s *Service) ResolveOrder(ctx context.Context, orderID snowflake.ID) (string, error) {
	order, err := s.orderRepo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return "", err
	}
	if order == nil {
		return "", domain.ErrOrderNotFound
	}
	return s.FindOrCreate(ctx, order)
}

func (s *Service) ResolveAccount(ctx context.Context, customerID snowflake.ID) (string, error) {
	customer, err := s.repo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return "", err
	}
	if customer == nil {
		return "", domain.ErrNotFound
	}
	return s.FindOrCreateFromAccount(ctx, customer)
}

// FindOrCreate resolves the Vindi customer paying for order. Registered
// customers go through their mapping and a code lookup first; every order
// falls back to an email lookup before a new remote customer is created.
func (s *Service) FindOrCreate(ctx context.Context, order *orderdomain.Order) (string, error) {
	log := ctxlogger.WithContext(ctx, s.log).With(zap.String("increment_id", order.IncrementID))
	billing := order.BillingAddress
	email := billing.Email
	if email == "" {
		email = order.CustomerEmail
	}

	var customer *domain.Customer
	if !order.CustomerIsGuest {
		found, err := s.orderCustomer(ctx, order, email)
		if err != nil {
			return "", err
		}
		customer = found
	}

	vindiID := ""
	if customer != nil {
		id, err := s.lookupMapped(ctx, customer.ID, customer.ID.String())
		if err != nil {
			return "", err
		}
		vindiID = id
	}
	if vindiID == "" {
		id, err := s.lookupByEmail(ctx, email)
		if err != nil {
			return "", err
		}
		vindiID = id
	}

	if vindiID != "" {
		if customer != nil {
			if err := s.remember(ctx, customer.ID, vindiID); err != nil {
				return "", err
			}
			if order.PaymentMethod == orderdomain.PaymentMethodPix {
				s.repairRegistryCode(ctx, customer, vindiID, order.PaymentDocument)
			}
		}
		return vindiID, nil
	}

	code := ""
	if customer != nil {
		code = customer.ID.String()
	}
	input := vindi.CustomerInput{
		Name:         billing.FullName(),
		Email:        email,
		RegistryCode: order.Document(),
		Code:         code,
		Phones:       phonesPayload(billing.Telephone),
		Address:      addressPtr(BuildAddress(billing)),
	}
	vindiID, err := s.create(ctx, input, sourceOrder)
	if err != nil {
		log.Error("failed while registering user", zap.Error(err))
		return "", err
	}
	if customer != nil {
		if err := s.remember(ctx, customer.ID, vindiID); err != nil {
			return "", err
		}
	}
	return vindiID, nil
}

// FindOrCreateFromAccount resolves the Vindi customer for a storefront
// account. Creation needs a default billing address and a tax document.
func (s *Service) FindOrCreateFromAccount(ctx context.Context, customer *domain.Customer) (string, error) {
	log := ctxlogger.WithContext(ctx, s.log).With(zap.String("customer_id", customer.ID.String()))
	code := s.accountCode(customer.ID)

	vindiID, err := s.lookupMapped(ctx, customer.ID, code)
	if err != nil {
		return "", err
	}
	if vindiID == "" {
		if vindiID, err = s.lookupByEmail(ctx, customer.Email); err != nil {
			return "", err
		}
	}
	if vindiID != "" {
		if err := s.remember(ctx, customer.ID, vindiID); err != nil {
			return "", err
		}
		return vindiID, nil
	}

	if customer.DefaultBillingID == nil {
		return "", domain.ErrMissingBillingAddress
	}
	billing, err := s.repo.FindAddress(ctx, s.db, *customer.DefaultBillingID)
	if err != nil {
		return "", err
	}
	if billing == nil || billing.CustomerID != customer.ID {
		return "", domain.ErrBillingAddressNotFound
	}
	if strings.TrimSpace(customer.Taxvat) == "" {
		return "", domain.ErrMissingRegistryCode
	}

	input := vindi.CustomerInput{
		Name:         customer.FullName(),
		Email:        customer.Email,
		RegistryCode: customer.Taxvat,
		Code:         code,
		Phones:       phonesPayload(billing.Telephone),
		Address:      addressPtr(BuildAddress(billing.Address)),
	}
	vindiID, err = s.create(ctx, input, sourceAccount)
	if err != nil {
		log.Error("failed while registering user", zap.Error(err))
		return "", err
	}
	if err := s.remember(ctx, customer.ID, vindiID); err != nil {
		return "", err
	}
	return vindiID, nil
}

func (s *Service) orderCustomer(ctx context.Context, order *orderdomain.Order, email string) (*domain.Customer, error) {
	var (
		customer *domain.Customer
		err      error
	)
	if order.CustomerID != nil {
		customer, err = s.repo.FindByID(ctx, s.db, *order.CustomerID)
	} else {
		customer, err = s.repo.FindByEmail(ctx, s.db, email)
	}
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	return customer, nil
}

// lookupMapped checks the local payment profile, then the remote customer
// registered under code.
func (s *Service) lookupMapped(ctx context.Context, customerID snowflake.ID, code string) (string, error) {
	profile, err := s.repo.FindProfile(ctx, s.db, customerID)
	if err != nil {
		return "", err
	}
	if profile != nil && profile.VindiCustomerID != "" {
		return profile.VindiCustomerID, nil
	}

	matches, err := s.remote.FindCustomersByCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("find vindi customer by code: %w", err)
	}
	return singleMatch(matches), nil
}

func (s *Service) lookupByEmail(ctx context.Context, email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", nil
	}
	matches, err := s.remote.FindCustomersByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("find vindi customer by email: %w", err)
	}
	return singleMatch(matches), nil
}

// singleMatch adopts a lookup result only when it is unambiguous.
func singleMatch(matches []vindi.Customer) string {
	if len(matches) != 1 {
		return ""
	}
	return string(matches[0].ID)
}

func (s *Service) create(ctx context.Context, input vindi.CustomerInput, source string) (string, error) {
	id, err := s.remote.CreateCustomer(ctx, input)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRemoteRegistrationFailed, err)
	}
	s.metrics.RecordRemoteCustomer(ctx, source)
	ctxlogger.WithContext(ctx, s.log).Info("vindi customer created",
		zap.String("vindi_customer_id", id),
		zap.String("source", source),
	)
	return id, nil
}

func (s *Service) remember(ctx context.Context, customerID snowflake.ID, vindiID string) error {
	now := s.clock.Now()
	return s.repo.UpsertProfile(ctx, s.db, &domain.PaymentProfile{
		ID:              s.genID.Generate(),
		CustomerID:      customerID,
		VindiCustomerID: vindiID,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

var documentPunctuation = strings.NewReplacer(" ", "", "-", "", ".", "")

// repairRegistryCode pushes the document typed for an instant payment to
// Vindi when it differs from the one on file, then mirrors it locally. It
// never blocks the payment: failures are logged and the lookup result stands.
func (s *Service) repairRegistryCode(ctx context.Context, customer *domain.Customer, vindiID, document string) {
	normalized := documentPunctuation.Replace(document)
	if normalized == "" {
		return
	}
	log := ctxlogger.WithContext(ctx, s.log).With(zap.String("vindi_customer_id", vindiID))

	remote, err := s.remote.GetCustomer(ctx, vindiID)
	if err != nil {
		log.Warn("registry code check skipped", zap.Error(err))
		return
	}
	if remote.RegistryCode == normalized {
		return
	}

	if _, err := s.remote.UpdateCustomer(ctx, vindiID, vindi.CustomerInput{RegistryCode: normalized}); err != nil {
		log.Warn("registry code update failed", zap.Error(err))
		return
	}
	if err := s.repo.UpdateTaxvat(ctx, s.db, customer.ID, document, s.clock.Now()); err != nil {
		log.Warn("local taxvat update failed", zap.Error(err))
		return
	}
	customer.Taxvat = document
	log.Info("registry code synchronized")
}

var (
	schemePrefix = regexp.MustCompile(`^https?://`)
	nonAlnum     = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// accountCode is the Vindi customer code for an account:
// "<store host and path with non-alphanumerics as _>_<customer id>".
func (s *Service) accountCode(customerID snowflake.ID) string {
	base := strings.TrimRight(strings.TrimSpace(s.storeBaseURL), "/")
	base = schemePrefix.ReplaceAllString(base, "")
	base = nonAlnum.ReplaceAllString(base, "_")
	if base == "" {
		return customerID.String()
	}
	return base + "_" + customerID.String()
}

func addressPtr(a vindi.Address) *vindi.Address {
	return &a
}
