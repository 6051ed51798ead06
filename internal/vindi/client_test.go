package vindi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smallbiznis/vindisync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Params{
		Config: config.Config{Vindi: config.VindiConfig{
			APIKey:  "secret-key",
			BaseURL: srv.URL + "/api/v1",
			Timeout: 5 * time.Second,
		}},
		Log: zap.NewNop(),
	})
}

func TestCreateCustomerSendsBasicAuthAndJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "secret-key", user)
		assert.Equal(t, "", pass)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/customers", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ana Souza", body["name"])
		assert.Equal(t, "12345678909", body["registry_code"])
		assert.NotContains(t, body, "phones")

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"customer":{"id":555,"name":"Ana Souza"}}`)
	})

	id, err := client.CreateCustomer(context.Background(), CustomerInput{
		Name:         "Ana Souza",
		Email:        "ana@example.com",
		RegistryCode: "12345678909",
		Code:         "7",
		Address:      &Address{Street: "Rua A", Number: "10"},
	})
	require.NoError(t, err)
	assert.Equal(t, "555", id)
}

func TestRequestReturnsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"errors":[{"id":"invalid_parameter","parameter":"registry_code","message":"não é válido"}]}`)
	})

	_, err := client.CreateCustomer(context.Background(), CustomerInput{Name: "x"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	require.Len(t, apiErr.Errors, 1)
	assert.Equal(t, "registry_code", apiErr.Errors[0].Parameter)
	assert.Contains(t, apiErr.Error(), "registry_code")
}

func TestRequestTransportFailure(t *testing.T) {
	client := NewClient(Params{
		Config: config.Config{Vindi: config.VindiConfig{
			APIKey:  "k",
			BaseURL: "http://127.0.0.1:1/api/v1/",
			Timeout: time.Second,
		}},
		Log: zap.NewNop(),
	})

	_, err := client.Request(context.Background(), http.MethodGet, "customers", nil)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestRequestWithoutAPIKey(t *testing.T) {
	client := NewClient(Params{
		Config: config.Config{Vindi: config.VindiConfig{BaseURL: "https://app.vindi.com.br/api/v1/"}},
		Log:    zap.NewNop(),
	})
	_, err := client.Request(context.Background(), http.MethodGet, "customers", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFindCustomersByEmailBuildsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/customers", r.URL.Path)
		assert.Equal(t, "email=ana+vip@example.com", r.URL.Query().Get("query"))
		_, _ = io.WriteString(w, `{"customers":[{"id":"12","email":"ana+vip@example.com","registry_code":"111"}]}`)
	})

	customers, err := client.FindCustomersByEmail(context.Background(), "ana+vip@example.com")
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, ID("12"), customers[0].ID)
	assert.Equal(t, "111", customers[0].RegistryCode)
}

func TestUpdateAndGetCustomer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/customers/12", r.URL.Path)
		switch r.Method {
		case http.MethodPut:
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]any{"registry_code": "98765432100"}, body)
			_, _ = io.WriteString(w, `{"customer":{"id":12,"registry_code":"98765432100"}}`)
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"customer":{"id":12,"registry_code":"111"}}`)
		}
	})

	id, err := client.UpdateCustomer(context.Background(), "12", CustomerInput{RegistryCode: "98765432100"})
	require.NoError(t, err)
	assert.Equal(t, "12", id)

	customer, err := client.GetCustomer(context.Background(), "12")
	require.NoError(t, err)
	assert.Equal(t, "111", customer.RegistryCode)
}
