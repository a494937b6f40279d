package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/dto"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidBusiness = errors.New("name, slug, phone, owner_username and owner_password are required")
	ErrInvalidSlug     = errors.New("slug may only contain lowercase letters, digits and dashes")
	ErrBusinessExists  = errors.New("business slug or phone already registered")
	ErrUsernameTaken   = errors.New("username already taken")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// BusinessService manages tenants and keeps the registry cache in step.
type BusinessService struct {
	db       *gorm.DB
	registry *tenant.Registry
	settings *SettingsService
}

func NewBusinessService(db *gorm.DB, registry *tenant.Registry, settings *SettingsService) *BusinessService {
	return &BusinessService{
		db:       db,
		registry: registry,
		settings: settings,
	}
}

func (s *BusinessService) Get(ctx context.Context, slug string) (*models.Business, error) {
	return s.registry.Lookup(s.db.WithContext(ctx), slug)
}

func (s *BusinessService) List(ctx context.Context) ([]models.Business, error) {
	var rows []models.Business
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	return rows, nil
}

// Create registers a business together with its owner account and default
// settings.
func (s *BusinessService) Create(ctx context.Context, req *dto.CreateBusinessRequest) (*models.Business, *models.BusinessUser, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if strings.TrimSpace(req.Name) == "" || slug == "" || strings.TrimSpace(req.Phone) == "" ||
		strings.TrimSpace(req.OwnerUsername) == "" || req.OwnerPassword == "" {
		return nil, nil, ErrInvalidBusiness
	}
	if !slugPattern.MatchString(slug) {
		return nil, nil, ErrInvalidSlug
	}
	if len(req.OwnerPassword) < minPasswordLength {
		return nil, nil, ErrWeakPassword
	}
	if s.registry.Exists(slug) {
		return nil, nil, ErrBusinessExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.OwnerPassword), PasswordCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	business := models.Business{
		Name:    strings.TrimSpace(req.Name),
		Slug:    slug,
		Phone:   strings.TrimSpace(req.Phone),
		Email:   req.Email,
		Address: req.Address,
	}
	ownerName := strings.TrimSpace(req.OwnerName)
	if ownerName == "" {
		ownerName = business.Name
	}
	owner := models.BusinessUser{
		Username:     strings.TrimSpace(req.OwnerUsername),
		PasswordHash: string(hash),
		Name:         ownerName,
		Role:         models.RoleOwner,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Business{}).
			Where("slug = ? OR phone = ?", business.Slug, business.Phone).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check business: %w", err)
		}
		if count > 0 {
			return ErrBusinessExists
		}
		if err := tx.Model(&models.BusinessUser{}).Where("username = ?", owner.Username).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if count > 0 {
			return ErrUsernameTaken
		}

		if err := tx.Create(&business).Error; err != nil {
			return fmt.Errorf("failed to create business: %w", err)
		}
		owner.BusinessID = business.ID
		if err := tx.Create(&owner).Error; err != nil {
			return fmt.Errorf("failed to create owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.registry.Register(&business)
	if err := s.settings.SeedDefaults(ctx, business.ID); err != nil {
		return nil, nil, err
	}
	return &business, &owner, nil
}
