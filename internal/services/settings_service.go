package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/qr"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrSettingNotFound = errors.New("setting not found")
	ErrInvalidSetting  = errors.New("invalid setting")
)

const (
	SettingQRForeground  = "qr_foreground"
	SettingQRBackground  = "qr_background"
	SettingQRSize        = "qr_size"
	SettingQRMargin      = "qr_margin"
	SettingPointsPerScan = "points_per_scan"

	defaultPointsPerScan = 10
	maxPointsPerScan     = 100000
)

type settingDefault struct {
	Value string
	Type  string
}

var settingDefaults = map[string]settingDefault{
	SettingQRForeground:  {"#1e40af", "string"},
	SettingQRBackground:  {"#ffffff", "string"},
	SettingQRSize:        {"280", "int"},
	SettingQRMargin:      {"2", "int"},
	SettingPointsPerScan: {strconv.Itoa(defaultPointsPerScan), "int"},
}

// SettingsService stores typed key/value settings per business. Values are
// kept as text and converted on read according to their type.
type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// Get returns every setting of the business, defaults included.
func (s *SettingsService) Get(ctx context.Context, businessID uint) (map[string]interface{}, error) {
	var rows []models.BusinessSetting
	if err := s.db.WithContext(ctx).Scopes(tenant.ForBusiness(businessID)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}

	result := make(map[string]interface{}, len(rows)+len(settingDefaults))
	for key, d := range settingDefaults {
		result[key] = typedValue(d.Type, d.Value)
	}
	for _, row := range rows {
		result[row.Key] = typedValue(row.Type, row.Value)
	}
	return result, nil
}

// Set creates or updates one setting after checking value parses as typ.
func (s *SettingsService) Set(ctx context.Context, businessID uint, key, value, typ string) (*models.BusinessSetting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: key is required", ErrInvalidSetting)
	}
	if typ == "" {
		typ = "string"
		if d, ok := settingDefaults[key]; ok {
			typ = d.Type
		}
	}
	if err := validateSetting(key, value, typ); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var setting models.BusinessSetting
	err := db.Scopes(tenant.ForBusiness(businessID)).Where("setting_key = ?", key).First(&setting).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		setting = models.BusinessSetting{
			ID:         uuid.New(),
			BusinessID: businessID,
			Key:        key,
			Value:      value,
			Type:       typ,
		}
		if err := db.Create(&setting).Error; err != nil {
			return nil, fmt.Errorf("failed to create setting: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to query setting: %w", err)
	default:
		setting.Value = value
		setting.Type = typ
		if err := db.Save(&setting).Error; err != nil {
			return nil, fmt.Errorf("failed to update setting: %w", err)
		}
	}
	return &setting, nil
}

func (s *SettingsService) Delete(ctx context.Context, businessID uint, key string) error {
	res := s.db.WithContext(ctx).
		Scopes(tenant.ForBusiness(businessID)).
		Where("setting_key = ?", key).
		Delete(&models.BusinessSetting{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete setting: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSettingNotFound
	}
	return nil
}

// SeedDefaults stores the default settings a business does not have yet.
func (s *SettingsService) SeedDefaults(ctx context.Context, businessID uint) error {
	db := s.db.WithContext(ctx)
	for key, d := range settingDefaults {
		var count int64
		if err := db.Model(&models.BusinessSetting{}).
			Scopes(tenant.ForBusiness(businessID)).
			Where("setting_key = ?", key).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check setting %s: %w", key, err)
		}
		if count > 0 {
			continue
		}
		row := models.BusinessSetting{
			ID:         uuid.New(),
			BusinessID: businessID,
			Key:        key,
			Value:      d.Value,
			Type:       d.Type,
		}
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}
	return nil
}

// QROptions builds the renderer options for the business, falling back to
// the defaults for missing or unusable values.
func (s *SettingsService) QROptions(ctx context.Context, businessID uint) (qr.Options, error) {
	opts := qr.DefaultOptions()
	values, err := s.Get(ctx, businessID)
	if err != nil {
		return opts, err
	}

	if v, ok := values[SettingQRForeground].(string); ok {
		if c, err := qr.ParseHexColor(v); err == nil {
			opts.Foreground = c
		}
	}
	if v, ok := values[SettingQRBackground].(string); ok {
		if c, err := qr.ParseHexColor(v); err == nil {
			opts.Background = c
		}
	}
	if v, ok := values[SettingQRSize].(int); ok && v >= qr.MinSize && v <= qr.MaxSize {
		opts.Size = v
	}
	if v, ok := values[SettingQRMargin].(int); ok && v >= 0 && v <= qr.MaxMargin {
		opts.Margin = v
	}
	return opts, nil
}

// PointsPerScan is the credit for a visit. Stored values that are not a
// positive int fall back to the default.
func (s *SettingsService) PointsPerScan(ctx context.Context, businessID uint) (int, error) {
	values, err := s.Get(ctx, businessID)
	if err != nil {
		return 0, err
	}
	if v, ok := values[SettingPointsPerScan].(int); ok && v > 0 {
		return v, nil
	}
	return defaultPointsPerScan, nil
}

func typedValue(typ, raw string) interface{} {
	switch typ {
	case "bool":
		v, _ := strconv.ParseBool(raw)
		return v
	case "int":
		v, _ := strconv.Atoi(raw)
		return v
	case "json":
		var v interface{}
		_ = json.Unmarshal([]byte(raw), &v)
		return v
	default:
		return raw
	}
}

func validateSetting(key, value, typ string) error {
	switch typ {
	case "string":
	case "bool":
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: %s is not a bool", ErrInvalidSetting, key)
		}
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("%w: %s is not an int", ErrInvalidSetting, key)
		}
	case "json":
		if !json.Valid([]byte(value)) {
			return fmt.Errorf("%w: %s is not valid json", ErrInvalidSetting, key)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidSetting, typ)
	}

	if d, ok := settingDefaults[key]; ok && d.Type != typ {
		return fmt.Errorf("%w: %s must be of type %s", ErrInvalidSetting, key, d.Type)
	}

	switch key {
	case SettingQRForeground, SettingQRBackground:
		if _, err := qr.ParseHexColor(value); err != nil {
			return fmt.Errorf("%w: %s must be a hex colour", ErrInvalidSetting, key)
		}
	case SettingQRSize:
		return intInRange(key, value, qr.MinSize, qr.MaxSize)
	case SettingQRMargin:
		return intInRange(key, value, 0, qr.MaxMargin)
	case SettingPointsPerScan:
		return intInRange(key, value, 1, maxPointsPerScan)
	}
	return nil
}

func intInRange(key, value string, lo, hi int) error {
	v, _ := strconv.Atoi(value)
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s must be between %d and %d", ErrInvalidSetting, key, lo, hi)
	}
	return nil
}
