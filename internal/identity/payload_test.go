package identity

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
)

func testCustomer() *models.Customer {
	return &models.Customer{ID: 7, Phone: "09124580298", Name: "کاربر آزمایشی", Points: 1500}
}

func testBusiness() *models.Business {
	return &models.Business{ID: 3, Slug: "demo-cafe", Name: "Demo Cafe"}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	raw, err := Encode(testCustomer(), testBusiness())
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	p, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	want := Payload{UserID: 7, Phone: "09124580298", Name: "کاربر آزمایشی", BusinessID: 3, BusinessSlug: "demo-cafe", Type: TypeCustomer}
	if p != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", p, want)
	}
}

func TestEncodeWithoutBusinessOmitsScope(t *testing.T) {
	raw, err := Encode(testCustomer(), nil)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if strings.Contains(raw, "businessSlug") || strings.Contains(raw, "businessId") {
		t.Fatalf("expected no business fields, got %s", raw)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if fields["type"] != "customer" {
		t.Fatalf("expected type=customer, got %v", fields["type"])
	}

	p, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if p.UserID != 7 || p.Phone != "09124580298" || p.BusinessSlug != "" {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, raw := range []string{"", "not json", "{\"userId\":"} {
		if _, err := Decode(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed for %q, got %v", raw, err)
		}
	}
}

func TestSealOpen(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	signer, err := NewSigner("secret", 10*time.Minute)
	if err != nil {
		t.Fatalf("NewSigner returned error: %v", err)
	}
	signer = signer.WithClock(func() time.Time { return now })

	sealed, err := signer.Seal(New(testCustomer(), testBusiness()))
	if err != nil {
		t.Fatalf("Seal returned error: %v", err)
	}

	p, err := signer.Open(sealed)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if p.UserID != 7 || p.BusinessSlug != "demo-cafe" || p.IssuedAt != now.Unix() {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	signer, _ := NewSigner("secret", 10*time.Minute)
	sealed, err := signer.Seal(New(testCustomer(), testBusiness()))
	if err != nil {
		t.Fatalf("Seal returned error: %v", err)
	}

	tampered := strings.Replace(sealed, `"userId":7`, `"userId":8`, 1)
	if _, err := signer.Open(tampered); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}

	other, _ := NewSigner("other-secret", 10*time.Minute)
	if _, err := other.Open(sealed); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for foreign key, got %v", err)
	}
}

func TestOpenRejectsExpiredAndUnsigned(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	signer, _ := NewSigner("secret", time.Minute)

	sealed, err := signer.WithClock(func() time.Time { return issued }).Seal(New(testCustomer(), nil))
	if err != nil {
		t.Fatalf("Seal returned error: %v", err)
	}

	late := signer.WithClock(func() time.Time { return issued.Add(2 * time.Minute) })
	if _, err := late.Open(sealed); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	early := signer.WithClock(func() time.Time { return issued.Add(-5 * time.Minute) })
	if _, err := early.Open(sealed); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired for future issue time, got %v", err)
	}

	plain, _ := Encode(testCustomer(), nil)
	if _, err := signer.Open(plain); !errors.Is(err, ErrUnsigned) {
		t.Fatalf("expected ErrUnsigned, got %v", err)
	}
}
