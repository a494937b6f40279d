package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Demo data created by Seed.
const (
	SeedCustomerPhone    = "09124580298"
	SeedCustomerPassword = "0298"
	SeedCustomerName     = "کاربر آزمایشی"
	SeedCustomerEmail    = "test@example.com"
	SeedCustomerPoints   = 1500

	SeedBusinessSlug  = "demo-cafe"
	SeedBusinessName  = "Demo Cafe"
	SeedBusinessPhone = "02100000000"

	SeedOwnerUsername      = "owner"
	SeedOwnerPassword      = "owner123"
	SeedResellerUsername   = "reseller"
	SeedResellerPassword   = "reseller123"
	SeedSuperAdminUsername = "admin"
	SeedSuperAdminPassword = "admin123"
)

// SeedResult reports what Seed created. Existing rows are left untouched.
type SeedResult struct {
	Customer   *models.Customer
	Business   *models.Business
	Created    []string
	AlreadySet []string
}

type SeedService struct {
	db       *gorm.DB
	registry *tenant.Registry
	settings *SettingsService
}

func NewSeedService(db *gorm.DB, registry *tenant.Registry, settings *SettingsService) *SeedService {
	return &SeedService{
		db:       db,
		registry: registry,
		settings: settings,
	}
}

// Seed inserts the demo accounts. Running it again is a no-op.
func (s *SeedService) Seed(ctx context.Context) (*SeedResult, error) {
	db := s.db.WithContext(ctx)
	result := &SeedResult{}

	customer := models.Customer{Phone: SeedCustomerPhone}
	email := SeedCustomerEmail
	created, err := s.ensure(db, &customer, "phone = ?", SeedCustomerPhone, func() error {
		hash, err := s.hash(SeedCustomerPassword)
		customer.PasswordHash = hash
		customer.Name = SeedCustomerName
		customer.Email = &email
		customer.Points = SeedCustomerPoints
		return err
	})
	if err != nil {
		return nil, err
	}
	result.note("customer", created)
	result.Customer = &customer

	business := models.Business{Slug: SeedBusinessSlug}
	created, err = s.ensure(db, &business, "slug = ?", SeedBusinessSlug, func() error {
		business.Name = SeedBusinessName
		business.Phone = SeedBusinessPhone
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.note("business", created)
	result.Business = &business
	s.registry.Register(&business)

	owner := models.BusinessUser{Username: SeedOwnerUsername}
	created, err = s.ensure(db, &owner, "username = ?", SeedOwnerUsername, func() error {
		hash, err := s.hash(SeedOwnerPassword)
		owner.PasswordHash = hash
		owner.BusinessID = business.ID
		owner.Name = "Demo Owner"
		owner.Role = models.RoleOwner
		return err
	})
	if err != nil {
		return nil, err
	}
	result.note("business_user", created)

	reseller := models.Reseller{Username: SeedResellerUsername}
	created, err = s.ensure(db, &reseller, "username = ?", SeedResellerUsername, func() error {
		hash, err := s.hash(SeedResellerPassword)
		reseller.PasswordHash = hash
		reseller.Name = "Demo Reseller"
		reseller.CommissionRate = decimal.NewFromInt(10)
		reseller.Active = true
		return err
	})
	if err != nil {
		return nil, err
	}
	result.note("reseller", created)

	admin := models.SuperAdmin{Username: SeedSuperAdminUsername}
	created, err = s.ensure(db, &admin, "username = ?", SeedSuperAdminUsername, func() error {
		hash, err := s.hash(SeedSuperAdminPassword)
		admin.PasswordHash = hash
		admin.Name = "Super Admin"
		return err
	})
	if err != nil {
		return nil, err
	}
	result.note("superadmin", created)

	if err := s.settings.SeedDefaults(ctx, business.ID); err != nil {
		return nil, err
	}

	slog.Info("seed completed", "created", result.Created, "existing", result.AlreadySet)
	return result, nil
}

// ensure loads the row matching where into dst, or fills it with fill and
// inserts it. It reports whether a row was created.
func (s *SeedService) ensure(db *gorm.DB, dst interface{}, where string, arg interface{}, fill func() error) (bool, error) {
	err := db.Where(where, arg).First(dst).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to check seed row: %w", err)
	}
	if err := fill(); err != nil {
		return false, err
	}
	if err := db.Create(dst).Error; err != nil {
		return false, fmt.Errorf("failed to insert seed row: %w", err)
	}
	return true, nil
}

func (s *SeedService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (r *SeedResult) note(name string, created bool) {
	if created {
		r.Created = append(r.Created, name)
	} else {
		r.AlreadySet = append(r.AlreadySet, name)
	}
}
