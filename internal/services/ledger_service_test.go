package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/shopspring/decimal"
)

func TestLedgerApplyAddsPoints(t *testing.T) {
	db, seed := seeded(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	m := Mutation{CustomerID: seed.Customer.ID, BusinessID: seed.Business.ID, Delta: 500, Amount: decimal.NewFromFloat(12.5)}
	txn, balance, err := ledger.Apply(ctx, m)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if balance != 2000 {
		t.Fatalf("expected balance 2000, got %d", balance)
	}
	if txn.PointsEarned != 500 || !txn.Amount.Equal(decimal.NewFromFloat(12.5)) {
		t.Fatalf("unexpected transaction %+v", txn)
	}

	// no idempotency key: the same mutation applies again
	if _, balance, err = ledger.Apply(ctx, m); err != nil {
		t.Fatalf("second Apply returned error: %v", err)
	}
	if balance != 2500 {
		t.Fatalf("expected balance 2500, got %d", balance)
	}

	var count int64
	db.Model(&models.Transaction{}).Where("user_id = ?", seed.Customer.ID).Count(&count)
	if count != 2 {
		t.Fatalf("expected 2 transactions, got %d", count)
	}
}

func TestLedgerRejectsOverdraw(t *testing.T) {
	db, seed := seeded(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	_, _, err := ledger.Apply(ctx, Mutation{CustomerID: seed.Customer.ID, BusinessID: seed.Business.ID, Delta: -1501})
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}

	balance, err := ledger.Balance(ctx, seed.Customer.ID)
	if err != nil {
		t.Fatalf("Balance returned error: %v", err)
	}
	if balance != 1500 {
		t.Fatalf("balance changed after rejected mutation: %d", balance)
	}

	var count int64
	db.Model(&models.Transaction{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no transaction rows, got %d", count)
	}

	if _, balance, err = ledger.Apply(ctx, Mutation{CustomerID: seed.Customer.ID, BusinessID: seed.Business.ID, Delta: -1500}); err != nil {
		t.Fatalf("spending the exact balance failed: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected balance 0, got %d", balance)
	}
}

func TestLedgerUnknownCustomerAndZeroDelta(t *testing.T) {
	db, seed := seeded(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	if _, _, err := ledger.Apply(ctx, Mutation{CustomerID: 9999, BusinessID: seed.Business.ID, Delta: 10}); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
	if _, _, err := ledger.Apply(ctx, Mutation{CustomerID: seed.Customer.ID, BusinessID: seed.Business.ID}); !errors.Is(err, ErrZeroDelta) {
		t.Fatalf("expected ErrZeroDelta, got %v", err)
	}
	if _, err := ledger.Balance(ctx, 9999); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound from Balance, got %v", err)
	}
}

func TestLedgerHistory(t *testing.T) {
	db, seed := seeded(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	for _, delta := range []int{100, -50, 25} {
		if _, _, err := ledger.Apply(ctx, Mutation{CustomerID: seed.Customer.ID, BusinessID: seed.Business.ID, Delta: delta, Description: "visit"}); err != nil {
			t.Fatalf("Apply(%d) returned error: %v", delta, err)
		}
	}

	rows, err := ledger.History(ctx, seed.Customer.ID, 2, 0)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].PointsEarned != 25 {
		t.Fatalf("expected newest first, got %+v", rows[0])
	}
	if rows[0].BusinessName != SeedBusinessName {
		t.Fatalf("expected business name %q, got %q", SeedBusinessName, rows[0].BusinessName)
	}
}

func TestSearchCustomers(t *testing.T) {
	db, _ := seeded(t)
	ledger := NewLedgerService(db)

	found, err := ledger.SearchCustomers(context.Background(), "4580", 10)
	if err != nil {
		t.Fatalf("SearchCustomers returned error: %v", err)
	}
	if len(found) != 1 || found[0].Phone != SeedCustomerPhone {
		t.Fatalf("unexpected search result %+v", found)
	}

	none, err := ledger.SearchCustomers(context.Background(), "%", 10)
	if err != nil {
		t.Fatalf("SearchCustomers returned error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected wildcard-only search to match nothing, got %d rows", len(none))
	}
}
