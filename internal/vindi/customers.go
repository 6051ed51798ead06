package vindi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var ErrCustomerIDMissing = errors.New("vindi_customer_id_missing")

const (
	PhoneLandline = "landline"
	PhoneMobile   = "mobile"
)

type Phone struct {
	PhoneType string `json:"phone_type"`
	Number    string `json:"number"`
}

type Address struct {
	Street            string `json:"street"`
	Number            string `json:"number"`
	AdditionalDetails string `json:"additional_details"`
	Neighborhood      string `json:"neighborhood"`
	Zipcode           string `json:"zipcode"`
	City              string `json:"city"`
	State             string `json:"state"`
	Country           string `json:"country"`
}

// CustomerInput is the create/update body. Update sends only the non-empty
// fields.
type CustomerInput struct {
	Name         string   `json:"name,omitempty"`
	Email        string   `json:"email,omitempty"`
	RegistryCode string   `json:"registry_code,omitempty"`
	Code         string   `json:"code,omitempty"`
	Phones       []Phone  `json:"phones,omitempty"`
	Address      *Address `json:"address,omitempty"`
}

// ID is the provider's numeric identifier. It is kept as a string locally
// and accepts either JSON numbers or strings.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*id = ""
	case string:
		*id = ID(strings.TrimSpace(t))
	case json.Number:
		*id = ID(t.String())
	default:
		return fmt.Errorf("vindi: id must be a number or string, got %s", string(b))
	}
	return nil
}

type Customer struct {
	ID           ID       `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	RegistryCode string   `json:"registry_code"`
	Code         string   `json:"code"`
	Status       string   `json:"status"`
	Phones       []Phone  `json:"phones"`
	Address      *Address `json:"address"`
}

type customerEnvelope struct {
	Customer Customer `json:"customer"`
}

type customerListEnvelope struct {
	Customers []Customer `json:"customers"`
}

// CreateCustomer registers a customer and returns the id the provider assigned.
func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (string, error) {
	var out customerEnvelope
	if err := c.do(ctx, http.MethodPost, "customers", in, &out); err != nil {
		return "", err
	}
	if out.Customer.ID == "" {
		return "", ErrCustomerIDMissing
	}
	return string(out.Customer.ID), nil
}

func (c *Client) UpdateCustomer(ctx context.Context, id string, in CustomerInput) (string, error) {
	var out customerEnvelope
	if err := c.do(ctx, http.MethodPut, "customers/"+url.PathEscape(id), in, &out); err != nil {
		return "", err
	}
	if out.Customer.ID == "" {
		return "", ErrCustomerIDMissing
	}
	return string(out.Customer.ID), nil
}

func (c *Client) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	var out customerEnvelope
	if err := c.do(ctx, http.MethodGet, "customers/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	if out.Customer.ID == "" {
		return nil, ErrCustomerIDMissing
	}
	return &out.Customer, nil
}

func (c *Client) FindCustomersByCode(ctx context.Context, code string) ([]Customer, error) {
	return c.findCustomers(ctx, "code", code)
}

func (c *Client) FindCustomersByEmail(ctx context.Context, email string) ([]Customer, error) {
	return c.findCustomers(ctx, "email", email)
}

func (c *Client) findCustomers(ctx context.Context, field, value string) ([]Customer, error) {
	query := url.Values{}
	query.Set("query", field+"="+value)
	var out customerListEnvelope
	if err := c.do(ctx, http.MethodGet, "customers?"+query.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Customers, nil
}
