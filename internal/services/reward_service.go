package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/dto"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrRewardNotFound = errors.New("reward not found")
	ErrRewardInactive = errors.New("reward is not active")
	ErrInvalidReward  = errors.New("title and a positive points_required are required")
)

type RewardService struct {
	db *gorm.DB
}

func NewRewardService(db *gorm.DB) *RewardService {
	return &RewardService{db: db}
}

// List returns the business's rewards, cheapest first.
func (s *RewardService) List(ctx context.Context, businessID uint, activeOnly bool) ([]models.Reward, error) {
	q := s.db.WithContext(ctx).Scopes(tenant.ForBusiness(businessID))
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var rewards []models.Reward
	if err := q.Order("points_required, id").Find(&rewards).Error; err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	return rewards, nil
}

func (s *RewardService) Create(ctx context.Context, businessID uint, req *dto.CreateRewardRequest) (*models.Reward, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || req.PointsRequired <= 0 {
		return nil, ErrInvalidReward
	}

	reward := models.Reward{
		BusinessID:     businessID,
		Title:          title,
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		ImageURL:       req.ImageURL,
		Active:         true,
	}
	if err := s.db.WithContext(ctx).Create(&reward).Error; err != nil {
		return nil, fmt.Errorf("failed to create reward: %w", err)
	}
	return &reward, nil
}

// Redeem spends the reward's points from the customer's balance and records a
// completed redemption. Both happen in one transaction.
func (s *RewardService) Redeem(ctx context.Context, businessID, rewardID, customerID uint) (*models.Redemption, int, error) {
	var (
		redemption models.Redemption
		balance    int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reward models.Reward
		if err := tx.Scopes(tenant.ForBusiness(businessID)).First(&reward, rewardID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRewardNotFound
			}
			return fmt.Errorf("failed to load reward: %w", err)
		}
		if !reward.Active {
			return ErrRewardInactive
		}

		_, newBalance, err := applyMutation(tx, Mutation{
			CustomerID:  customerID,
			BusinessID:  businessID,
			Delta:       -reward.PointsRequired,
			Amount:      decimal.Zero,
			Description: "Reward: " + reward.Title,
		})
		if err != nil {
			return err
		}
		balance = newBalance

		redemption = models.Redemption{
			UserID:      customerID,
			RewardID:    reward.ID,
			PointsSpent: reward.PointsRequired,
			Status:      models.RedemptionCompleted,
		}
		if err := tx.Create(&redemption).Error; err != nil {
			return fmt.Errorf("failed to record redemption: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &redemption, balance, nil
}
