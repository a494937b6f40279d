package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/config"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/dto"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrMissingCredentials = errors.New("identifier and password are required")
	ErrUnknownKind        = errors.New("unknown account kind")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrWeakPassword       = errors.New("password must be at least 4 characters")
	ErrPhoneTaken         = errors.New("phone already registered")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
)

const minPasswordLength = 4

// PasswordCost is the bcrypt cost for newly hashed passwords.
var PasswordCost = bcrypt.DefaultCost

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

// Login authenticates any actor kind. Inactive accounts are refused before
// the password is compared.
func (s *AuthService) Login(ctx context.Context, kind string, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	identifier := strings.TrimSpace(req.Identifier(kind))
	if identifier == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}

	account, err := s.findByIdentifier(ctx, kind, identifier)
	if err != nil {
		return nil, err
	}

	if !account.IsActive() {
		return nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.HashedPassword()), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(ctx, account)
}

// Register signs up a customer.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterCustomerRequest) (*dto.AuthResponse, error) {
	mobile := strings.TrimSpace(req.Mobile)
	if mobile == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Customer{}).Where("phone = ?", mobile).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check phone: %w", err)
	}
	if count > 0 {
		return nil, ErrPhoneTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = mobile
	}
	customer := models.Customer{
		Phone:        mobile,
		PasswordHash: string(hash),
		Name:         name,
		Email:        req.Email,
	}
	if err := db.Create(&customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	return s.generateTokenPair(ctx, &customer)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	if req.RefreshToken == "" {
		return nil, ErrInvalidToken
	}
	db := s.db.WithContext(ctx)
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := db.Where("token_hash = ? AND revoked = ?", tokenHash, false).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	// only one concurrent refresh of a token may win
	res := db.Model(&models.RefreshToken{}).
		Where("id = ? AND revoked = ?", stored.ID, false).
		Update("revoked", true)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", res.Error)
	}
	if res.RowsAffected == 0 || time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	account, err := s.findByID(ctx, stored.ActorKind, stored.ActorID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !account.IsActive() {
		return nil, ErrAccountInactive
	}

	return s.generateTokenPair(ctx, account)
}

// Logout revokes a refresh token owned by the given actor.
func (s *AuthService) Logout(ctx context.Context, kind string, actorID uint, req *dto.LogoutRequest) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND actor_kind = ? AND actor_id = ?", hashToken(req.RefreshToken), kind, actorID).
		Update("revoked", true).Error
}

// Me re-reads the authenticated actor.
func (s *AuthService) Me(ctx context.Context, kind string, id uint) (models.Account, error) {
	return s.findByID(ctx, kind, id)
}

func (s *AuthService) findByIdentifier(ctx context.Context, kind, identifier string) (models.Account, error) {
	db := s.db.WithContext(ctx)

	var (
		account models.Account
		err     error
	)
	switch kind {
	case models.KindCustomer:
		var c models.Customer
		err = db.Where("phone = ?", identifier).First(&c).Error
		account = &c
	case models.KindBusiness:
		var u models.BusinessUser
		err = db.Preload("Business").Where("username = ?", identifier).First(&u).Error
		account = &u
	case models.KindReseller:
		var r models.Reseller
		err = db.Where("username = ?", identifier).First(&r).Error
		account = &r
	case models.KindSuperAdmin:
		var a models.SuperAdmin
		err = db.Where("username = ?", identifier).First(&a).Error
		account = &a
	default:
		return nil, ErrUnknownKind
	}
	if err := accountErr(kind, err); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *AuthService) findByID(ctx context.Context, kind string, id uint) (models.Account, error) {
	db := s.db.WithContext(ctx)

	var (
		account models.Account
		err     error
	)
	switch kind {
	case models.KindCustomer:
		var c models.Customer
		err = db.First(&c, id).Error
		account = &c
	case models.KindBusiness:
		var u models.BusinessUser
		err = db.Preload("Business").First(&u, id).Error
		account = &u
	case models.KindReseller:
		var r models.Reseller
		err = db.First(&r, id).Error
		account = &r
	case models.KindSuperAdmin:
		var a models.SuperAdmin
		err = db.First(&a, id).Error
		account = &a
	default:
		return nil, ErrUnknownKind
	}
	if err := accountErr(kind, err); err != nil {
		return nil, err
	}
	return account, nil
}

func accountErr(kind string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAccountNotFound
	}
	return fmt.Errorf("failed to load %s account: %w", kind, err)
}

func (s *AuthService) generateTokenPair(ctx context.Context, account models.Account) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(account)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, account)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Success:      true,
		Kind:         account.AccountKind(),
		User:         account,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.JWTAccessExpiry.Seconds()),
	}, nil
}

func (s *AuthService) generateAccessToken(account models.Account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(account.AccountID()), 10),
		"kind": account.AccountKind(),
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.JWTAccessExpiry).Unix(),
	}
	if u, ok := account.(*models.BusinessUser); ok {
		claims["business_id"] = u.BusinessID
		claims["role"] = u.Role
		if u.Business != nil {
			claims["business_slug"] = u.Business.Slug
		}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, account models.Account) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.RefreshToken{
		ID:        uuid.New(),
		ActorKind: account.AccountKind(),
		ActorID:   account.AccountID(),
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
