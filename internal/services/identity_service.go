package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/identity"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/scanner"
	"gorm.io/gorm"
)

var (
	ErrMalformedPayload = errors.New("qr code is not a valid identity payload")
	ErrTypeMismatch     = errors.New("qr code is not a customer code")
	ErrScopeMismatch    = errors.New("qr code belongs to another business")
	ErrUnsignedPayload  = errors.New("qr code is not signed")
	ErrInvalidSignature = errors.New("qr code signature is invalid")
	ErrPayloadExpired   = errors.New("qr code has expired")
	ErrCustomerNotFound = errors.New("customer not found")
)

// IdentityService issues sealed identity payloads and resolves scanned ones
// back to customers.
type IdentityService struct {
	db               *gorm.DB
	signer           *identity.Signer
	requireSignature bool
}

func NewIdentityService(db *gorm.DB, signer *identity.Signer, requireSignature bool) *IdentityService {
	return &IdentityService{db: db, signer: signer, requireSignature: requireSignature}
}

// Issue returns the sealed payload a customer shows to business.
func (s *IdentityService) Issue(ctx context.Context, customerID uint, business *models.Business) (string, *models.Customer, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrCustomerNotFound
		}
		return "", nil, fmt.Errorf("failed to load customer: %w", err)
	}

	raw, err := s.signer.Seal(identity.New(&customer, business))
	if err != nil {
		return "", nil, err
	}
	return raw, &customer, nil
}

// Resolve validates a scanned payload for the scanning business and returns
// the stored customer it names. Checks run in order: decode, type, scope,
// signature, lookup.
func (s *IdentityService) Resolve(ctx context.Context, raw string, scanning *models.Business) (*models.Customer, *identity.Payload, error) {
	p, err := identity.Decode(raw)
	if err != nil {
		return nil, nil, ErrMalformedPayload
	}
	if err := s.check(p, scanning); err != nil {
		return nil, nil, err
	}

	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, p.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCustomerNotFound
		}
		return nil, nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer.Phone != p.Phone {
		return nil, nil, ErrCustomerNotFound
	}
	return &customer, &p, nil
}

func (s *IdentityService) check(p identity.Payload, scanning *models.Business) error {
	if p.Type != identity.TypeCustomer {
		return ErrTypeMismatch
	}

	if p.BusinessSlug != "" {
		if p.BusinessSlug != scanning.Slug {
			return ErrScopeMismatch
		}
	} else if p.BusinessID != 0 && p.BusinessID != scanning.ID {
		return ErrScopeMismatch
	}

	if !p.Signed() && !s.requireSignature {
		return nil
	}
	switch err := s.signer.Verify(p); {
	case err == nil:
		return nil
	case errors.Is(err, identity.ErrUnsigned):
		return ErrUnsignedPayload
	case errors.Is(err, identity.ErrExpired):
		return ErrPayloadExpired
	default:
		return ErrInvalidSignature
	}
}

// Matcher adapts Resolve for a camera scan session of business.
func (s *IdentityService) Matcher(business *models.Business) scanner.MatchFunc {
	return func(ctx context.Context, raw string, _ identity.Payload) error {
		_, _, err := s.Resolve(ctx, raw, business)
		return err
	}
}

// RejectionReason returns the machine-readable reason for a resolver error,
// or "" when err is not a rejection.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrMalformedPayload):
		return "malformed"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, ErrScopeMismatch):
		return "scope_mismatch"
	case errors.Is(err, ErrUnsignedPayload):
		return "unsigned"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrPayloadExpired):
		return "expired"
	case errors.Is(err, ErrCustomerNotFound):
		return "not_found"
	}
	return ""
}
