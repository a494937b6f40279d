package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrZeroDelta          = errors.New("points change must not be zero")
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Mutation is one signed change to a customer's balance.
type Mutation struct {
	CustomerID  uint
	BusinessID  uint
	Delta       int
	Amount      decimal.Decimal
	Description string
}

// LedgerService owns customer point balances. Every change is a single
// conditional UPDATE plus a transactions row in one database transaction.
// Mutations are not idempotent: applying one twice changes the balance twice.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// Apply changes the balance by m.Delta and returns the recorded transaction
// and the new balance. A change that would take the balance below zero fails
// with ErrInsufficientPoints and leaves it untouched.
func (s *LedgerService) Apply(ctx context.Context, m Mutation) (*models.Transaction, int, error) {
	var (
		txn     *models.Transaction
		balance int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		txn, balance, err = applyMutation(tx, m)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return txn, balance, nil
}

func applyMutation(tx *gorm.DB, m Mutation) (*models.Transaction, int, error) {
	if m.Delta == 0 {
		return nil, 0, ErrZeroDelta
	}

	res := tx.Model(&models.Customer{}).
		Where("id = ? AND points + ? >= 0", m.CustomerID, m.Delta).
		UpdateColumns(map[string]interface{}{
			"points":     gorm.Expr("points + ?", m.Delta),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, 0, fmt.Errorf("failed to update points: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.Customer{}).Where("id = ?", m.CustomerID).Count(&count).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to check customer: %w", err)
		}
		if count == 0 {
			return nil, 0, ErrCustomerNotFound
		}
		return nil, 0, ErrInsufficientPoints
	}

	txn := models.Transaction{
		UserID:       m.CustomerID,
		BusinessID:   m.BusinessID,
		Amount:       m.Amount,
		PointsEarned: m.Delta,
		Description:  m.Description,
	}
	if err := tx.Create(&txn).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to record transaction: %w", err)
	}

	var customer models.Customer
	if err := tx.Select("points").First(&customer, m.CustomerID).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return &txn, customer.Points, nil
}

func (s *LedgerService) Balance(ctx context.Context, customerID uint) (int, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).Select("points").First(&customer, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCustomerNotFound
		}
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return customer.Points, nil
}

// History lists a customer's transactions, newest first, with the business name.
func (s *LedgerService) History(ctx context.Context, customerID uint, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	var rows []models.Transaction
	err := s.db.WithContext(ctx).
		Table("transactions").
		Select("transactions.*, businesses.name AS business_name").
		Joins("LEFT JOIN businesses ON businesses.id = transactions.business_id").
		Where("transactions.user_id = ?", customerID).
		Order("transactions.transaction_date DESC, transactions.id DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return rows, nil
}

func (s *LedgerService) Customer(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	return &customer, nil
}

// SearchCustomers finds customers whose phone contains phone.
func (s *LedgerService) SearchCustomers(ctx context.Context, phone string, limit int) ([]models.Customer, error) {
	phone = stripLikeWildcards(strings.TrimSpace(phone))
	if phone == "" {
		return []models.Customer{}, nil
	}
	if limit <= 0 || limit > maxHistoryLimit {
		limit = 20
	}

	var rows []models.Customer
	err := s.db.WithContext(ctx).
		Where("phone LIKE ?", "%"+phone+"%").
		Order("id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	return rows, nil
}

func stripLikeWildcards(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}
