package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/vindisync/internal/clock"
	"github.com/smallbiznis/vindisync/internal/config"
	"github.com/smallbiznis/vindisync/internal/customer/domain"
	"github.com/smallbiznis/vindisync/internal/customer/repository"
	orderdomain "github.com/smallbiznis/vindisync/internal/order/domain"
	orderrepository "github.com/smallbiznis/vindisync/internal/order/repository"
	"github.com/smallbiznis/vindisync/internal/vindi"
	"github.com/smallbiznis/vindisync/pkg/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type remoteMock struct {
	mock.Mock
}

func (m *remoteMock) CreateCustomer(ctx context.Context, in vindi.CustomerInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *remoteMock) UpdateCustomer(ctx context.Context, id string, in vindi.CustomerInput) (string, error) {
	args := m.Called(ctx, id, in)
	return args.String(0), args.Error(1)
}

func (m *remoteMock) GetCustomer(ctx context.Context, id string) (*vindi.Customer, error) {
	args := m.Called(ctx, id)
	customer, _ := args.Get(0).(*vindi.Customer)
	return customer, args.Error(1)
}

func (m *remoteMock) FindCustomersByCode(ctx context.Context, code string) ([]vindi.Customer, error) {
	args := m.Called(ctx, code)
	customers, _ := args.Get(0).([]vindi.Customer)
	return customers, args.Error(1)
}

func (m *remoteMock) FindCustomersByEmail(ctx context.Context, email string) ([]vindi.Customer, error) {
	args := m.Called(ctx, email)
	customers, _ := args.Get(0).([]vindi.Customer)
	return customers, args.Error(1)
}

type fixture struct {
	db     *gorm.DB
	remote *remoteMock
	svc    domain.Resolver
	repo   domain.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Customer{}, &domain.CustomerAddress{}, &domain.PaymentProfile{}, &orderdomain.Order{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	remote := &remoteMock{}
	repo := repository.Provide()
	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clock.NewFakeClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)),
		Config:    config.Config{Vindi: config.VindiConfig{StoreBaseURL: "https://loja.example.com.br/"}},
		Repo:      repo,
		OrderRepo: orderrepository.Provide(),
		Remote:    remote,
	})
	return &fixture{db: db, remote: remote, svc: svc, repo: repo}
}

func (f *fixture) seedCustomer(t *testing.T, id int64, taxvat string) *domain.Customer {
	t.Helper()
	customer := &domain.Customer{
		ID:        snowflake.ID(id),
		Email:     "ana@example.com",
		Firstname: "Ana",
		Lastname:  "Souza",
		Taxvat:    taxvat,
	}
	require.NoError(t, f.repo.Insert(context.Background(), f.db, customer))
	return customer
}

func billing() address.Address {
	return address.Address{
		Firstname:  "Ana",
		Lastname:   "Souza",
		Email:      "ana@example.com",
		Street:     "Rua das Flores\n123\nApto 4\nCentro",
		Postcode:   "01001-000",
		City:       "São Paulo",
		RegionCode: "SP",
		CountryID:  "BR",
		Telephone:  "(11) 98765-4321",
	}
}

func registeredOrder(customerID int64) *orderdomain.Order {
	id := snowflake.ID(customerID)
	return &orderdomain.Order{
		ID:             100,
		IncrementID:    "000000100",
		CustomerID:     &id,
		CustomerEmail:  "ana@example.com",
		CustomerTaxvat: "123.456.789-09",
		PaymentMethod:  "vindi_creditcard",
		BillingAddress: billing(),
	}
}

func TestFindOrCreateCreatesOnceThenUsesMapping(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, 7, "")
	ctx := context.Background()

	f.remote.On("FindCustomersByCode", mock.Anything, "7").Return([]vindi.Customer{}, nil).Once()
	f.remote.On("FindCustomersByEmail", mock.Anything, "ana@example.com").Return([]vindi.Customer{}, nil).Once()
	f.remote.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(in vindi.CustomerInput) bool {
		return in.Name == "Ana Souza" &&
			in.Code == "7" &&
			in.RegistryCode == "123.456.789-09" &&
			len(in.Phones) == 1 && in.Phones[0].PhoneType == "mobile" && in.Phones[0].Number == "5511987654321" &&
			in.Address != nil && in.Address.Street == "Rua das Flores" && in.Address.Neighborhood == "Centro" && in.Address.State == "SP"
	})).Return("555", nil).Once()

	first, err := f.svc.FindOrCreate(ctx, registeredOrder(7))
	require.NoError(t, err)
	second, err := f.svc.FindOrCreate(ctx, registeredOrder(7))
	require.NoError(t, err)

	assert.Equal(t, "555", first)
	assert.Equal(t, first, second)
	f.remote.AssertNumberOfCalls(t, "CreateCustomer", 1)
	f.remote.AssertExpectations(t)

	profile, err := f.repo.FindProfile(ctx, f.db, 7)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "555", profile.VindiCustomerID)
}

func TestFindOrCreateAdoptsSingleEmailMatch(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, 7, "")

	f.remote.On("FindCustomersByCode", mock.Anything, "7").Return([]vindi.Customer{}, nil)
	f.remote.On("FindCustomersByEmail", mock.Anything, "ana@example.com").
		Return([]vindi.Customer{{ID: "321"}}, nil)

	id, err := f.svc.FindOrCreate(context.Background(), registeredOrder(7))
	require.NoError(t, err)
	assert.Equal(t, "321", id)
	f.remote.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
}

func TestFindOrCreateIgnoresAmbiguousEmailMatch(t *testing.T) {
	f := newFixture(t)
	order := registeredOrder(0)
	order.CustomerID = nil
	order.CustomerIsGuest = true

	f.remote.On("FindCustomersByEmail", mock.Anything, "ana@example.com").
		Return([]vindi.Customer{{ID: "1"}, {ID: "2"}}, nil)
	f.remote.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(in vindi.CustomerInput) bool {
		return in.Code == ""
	})).Return("900", nil)

	id, err := f.svc.FindOrCreate(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, "900", id)
	f.remote.AssertNotCalled(t, "FindCustomersByCode", mock.Anything, mock.Anything)
}

func TestFindOrCreateGuestCreatesOnceThenFindsByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := registeredOrder(0)
	order.CustomerID = nil
	order.CustomerIsGuest = true

	f.remote.On("FindCustomersByEmail", mock.Anything, "ana@example.com").Return([]vindi.Customer{}, nil).Once()
	f.remote.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(in vindi.CustomerInput) bool {
		return in.Code == "" && in.Email == "ana@example.com" && in.RegistryCode == "123.456.789-09"
	})).Return("900", nil).Once()
	f.remote.On("FindCustomersByEmail", mock.Anything, "ana@example.com").Return([]vindi.Customer{{ID: "900"}}, nil).Once()

	first, err := f.svc.FindOrCreate(ctx, order)
	require.NoError(t, err)
	second, err := f.svc.FindOrCreate(ctx, order)
	require.NoError(t, err)

	assert.Equal(t, "900", first)
	assert.Equal(t, first, second)
	f.remote.AssertNumberOfCalls(t, "CreateCustomer", 1)
	f.remote.AssertNumberOfCalls(t, "FindCustomersByEmail", 2)
	f.remote.AssertNotCalled(t, "FindCustomersByCode", mock.Anything, mock.Anything)
	f.remote.AssertExpectations(t)

	var profiles int64
	require.NoError(t, f.db.Model(&domain.PaymentProfile{}).Count(&profiles).Error)
	assert.Zero(t, profiles)
}

func TestFindOrCreateSurfacesRegistrationFailure(t *testing.T) {
	f := newFixture(t)
	order := registeredOrder(0)
	order.CustomerID = nil
	order.CustomerIsGuest = true

	apiErr := &vindi.APIError{StatusCode: 422}
	f.remote.On("FindCustomersByEmail", mock.Anything, mock.Anything).Return([]vindi.Customer{}, nil)
	f.remote.On("CreateCustomer", mock.Anything, mock.Anything).Return("", apiErr)

	_, err := f.svc.FindOrCreate(context.Background(), order)
	assert.ErrorIs(t, err, domain.ErrRemoteRegistrationFailed)
	var got *vindi.APIError
	assert.True(t, errors.As(err, &got))
}

func TestFindOrCreatePixRepairsRegistryCode(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, 7, "111.111.111-11")
	ctx := context.Background()
	require.NoError(t, f.repo.UpsertProfile(ctx, f.db, &domain.PaymentProfile{ID: 1, CustomerID: 7, VindiCustomerID: "555"}))

	order := registeredOrder(7)
	order.PaymentMethod = orderdomain.PaymentMethodPix
	order.PaymentDocument = "987.654.321-00"

	f.remote.On("GetCustomer", mock.Anything, "555").Return(&vindi.Customer{ID: "555", RegistryCode: "11111111111"}, nil)
	f.remote.On("UpdateCustomer", mock.Anything, "555", vindi.CustomerInput{RegistryCode: "98765432100"}).Return("555", nil).Once()

	id, err := f.svc.FindOrCreate(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, "555", id)
	f.remote.AssertExpectations(t)
	f.remote.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)

	customer, err := f.repo.FindByID(ctx, f.db, 7)
	require.NoError(t, err)
	assert.Equal(t, "987.654.321-00", customer.Taxvat)
}

func TestFindOrCreatePixSkipsMatchingRegistryCode(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, 7, "")
	ctx := context.Background()
	require.NoError(t, f.repo.UpsertProfile(ctx, f.db, &domain.PaymentProfile{ID: 1, CustomerID: 7, VindiCustomerID: "555"}))

	order := registeredOrder(7)
	order.PaymentMethod = orderdomain.PaymentMethodPix
	order.PaymentDocument = "987 654 321-00"

	f.remote.On("GetCustomer", mock.Anything, "555").Return(&vindi.Customer{ID: "555", RegistryCode: "98765432100"}, nil)

	_, err := f.svc.FindOrCreate(ctx, order)
	require.NoError(t, err)
	f.remote.AssertNotCalled(t, "UpdateCustomer", mock.Anything, mock.Anything, mock.Anything)
}

func TestFindOrCreateFromAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.seedCustomer(t, 7, "12345678909")
	addr := &domain.CustomerAddress{ID: 70, CustomerID: 7, Address: address.Address{
		Line1: "Av. Paulista", Line2: "1000", Line4: "Bela Vista",
		Postcode: "01310-100", City: "São Paulo", Region: "São Paulo", CountryID: "BR",
		Telephone: "11 3333-4444",
	}}
	require.NoError(t, f.repo.InsertAddress(ctx, f.db, addr))
	billingID := addr.ID
	customer.DefaultBillingID = &billingID

	code := "loja_example_com_br_7"
	f.remote.On("FindCustomersByCode", mock.Anything, code).Return([]vindi.Customer{}, nil)
	f.remote.On("FindCustomersByEmail", mock.Anything, "ana@example.com").Return([]vindi.Customer{}, nil)
	f.remote.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(in vindi.CustomerInput) bool {
		return in.Code == code &&
			in.RegistryCode == "12345678909" &&
			in.Address.Street == "Av. Paulista" && in.Address.Number == "1000" &&
			in.Address.State == "São Paulo" &&
			len(in.Phones) == 1 && in.Phones[0].PhoneType == "landline"
	})).Return("777", nil).Once()

	id, err := f.svc.FindOrCreateFromAccount(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, "777", id)
	f.remote.AssertExpectations(t)
}

func TestFindOrCreateFromAccountRequiresData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.On("FindCustomersByCode", mock.Anything, mock.Anything).Return([]vindi.Customer{}, nil)
	f.remote.On("FindCustomersByEmail", mock.Anything, mock.Anything).Return([]vindi.Customer{}, nil)

	customer := f.seedCustomer(t, 7, "")
	_, err := f.svc.FindOrCreateFromAccount(ctx, customer)
	assert.ErrorIs(t, err, domain.ErrMissingBillingAddress)

	missing := snowflake.ID(404)
	customer.DefaultBillingID = &missing
	_, err = f.svc.FindOrCreateFromAccount(ctx, customer)
	assert.ErrorIs(t, err, domain.ErrBillingAddressNotFound)

	addr := &domain.CustomerAddress{ID: 71, CustomerID: 7, Address: address.Address{Street: "Rua A"}}
	require.NoError(t, f.repo.InsertAddress(ctx, f.db, addr))
	customer.DefaultBillingID = &addr.ID
	_, err = f.svc.FindOrCreateFromAccount(ctx, customer)
	assert.ErrorIs(t, err, domain.ErrMissingRegistryCode)

	f.remote.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
}

func TestResolveOrderNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ResolveOrder(context.Background(), 12345)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = f.svc.ResolveAccount(context.Background(), 12345)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountCodeWithoutStoreURL(t *testing.T) {
	s := &Service{}
	assert.Equal(t, "7", s.accountCode(7))

	s.storeBaseURL = "http://magento2.local/br/"
	assert.Equal(t, "magento2_local_br_7", s.accountCode(7))
}
