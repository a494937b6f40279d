// Package identity encodes the customer identity carried inside a QR code.
//
// The plain form is the JSON object
//
//	{"userId":1,"phone":"...","name":"...","businessId":2,"businessSlug":"...","type":"customer"}
//
// and a sealed form adds "iat" (unix seconds) and "sig", an HMAC-SHA256 over
// the JSON of every other field.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
)

const TypeCustomer = "customer"

var ErrMalformed = errors.New("malformed identity payload")

type Payload struct {
	UserID       uint   `json:"userId"`
	Phone        string `json:"phone"`
	Name         string `json:"name"`
	BusinessID   uint   `json:"businessId,omitempty"`
	BusinessSlug string `json:"businessSlug,omitempty"`
	Type         string `json:"type"`
	IssuedAt     int64  `json:"iat,omitempty"`
	Signature    string `json:"sig,omitempty"`
}

// New builds the payload for customer, scoped to business when it is non-nil.
func New(customer *models.Customer, business *models.Business) Payload {
	p := Payload{
		UserID: customer.ID,
		Phone:  customer.Phone,
		Name:   customer.Name,
		Type:   TypeCustomer,
	}
	if business != nil {
		p.BusinessID = business.ID
		p.BusinessSlug = business.Slug
	}
	return p
}

// Encode returns the unsigned JSON form of the customer's identity.
func Encode(customer *models.Customer, business *models.Business) (string, error) {
	if customer == nil {
		return "", errors.New("customer is required")
	}
	b, err := json.Marshal(New(customer, business))
	if err != nil {
		return "", fmt.Errorf("failed to encode identity payload: %w", err)
	}
	return string(b), nil
}

func Decode(raw string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p, nil
}

// Signed reports whether the payload carries a signature.
func (p Payload) Signed() bool {
	return p.Signature != ""
}
