package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/perpussekolah/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RewardRepository interface {
	// InTx runs fn against a repository bound to one database transaction.
	InTx(ctx context.Context, fn func(RewardRepository) error) error
	// FindActiveCycle returns (nil, nil) when no cycle is active.
	FindActiveCycle(ctx context.Context) (*model.RewardCycle, error)
	FindAllCycles(ctx context.Context) ([]model.RewardCycle, error)
	DeactivateCycle(ctx context.Context, id uuid.UUID, endDate time.Time) error
	CreateCycle(ctx context.Context, cycle *model.RewardCycle) error
	// SeedZeroPoints inserts a zero-point row into the cycle for every
	// active user of the role that does not have one yet, and reports how
	// many rows were created.
	SeedZeroPoints(ctx context.Context, cycleID uuid.UUID, role string) (int64, error)
	SumPoints(ctx context.Context, cycleID uuid.UUID) (int64, error)
	CountParticipants(ctx context.Context, cycleID uuid.UUID) (int64, error)
	// TopByRole lists the cycle's reward rows for active users of the role,
	// highest points first, with user and profile data preloaded.
	TopByRole(ctx context.Context, cycleID uuid.UUID, role string) ([]model.RewardPoint, error)
	PointsByUser(ctx context.Context, userID uuid.UUID) ([]model.RewardPoint, error)
}

type rewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) InTx(ctx context.Context, fn func(RewardRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&rewardRepository{db: tx})
	})
}

func (r *rewardRepository) FindActiveCycle(ctx context.Context) (*model.RewardCycle, error) {
	var cycle model.RewardCycle
	err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&cycle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cycle, nil
}

func (r *rewardRepository) FindAllCycles(ctx context.Context) ([]model.RewardCycle, error) {
	var cycles []model.RewardCycle
	err := r.db.WithContext(ctx).Order("start_date DESC").Find(&cycles).Error
	return cycles, err
}

func (r *rewardRepository) DeactivateCycle(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.RewardCycle{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active": false,
			"end_date":  endDate,
		}).Error
}

func (r *rewardRepository) CreateCycle(ctx context.Context, cycle *model.RewardCycle) error {
	return r.db.WithContext(ctx).Create(cycle).Error
}

func (r *rewardRepository) SeedZeroPoints(ctx context.Context, cycleID uuid.UUID, role string) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		INSERT INTO reward_points (id, user_id, reward_cycle_id, points, created_at, updated_at)
		SELECT gen_random_uuid(), u.id, ?, 0, NOW(), NOW()
		FROM users u
		LEFT JOIN reward_points rp
			ON rp.user_id = u.id AND rp.reward_cycle_id = ?
		WHERE u.is_active = true AND u.role = ? AND rp.id IS NULL`,
		cycleID, cycleID, role)
	return res.RowsAffected, res.Error
}

func (r *rewardRepository) SumPoints(ctx context.Context, cycleID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.RewardPoint{}).
		Select("COALESCE(SUM(points), 0)").
		Where("reward_cycle_id = ?", cycleID).
		Scan(&total).Error
	return total, err
}

func (r *rewardRepository) CountParticipants(ctx context.Context, cycleID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.RewardPoint{}).
		Where("reward_cycle_id = ?", cycleID).
		Count(&count).Error
	return count, err
}

func (r *rewardRepository) TopByRole(ctx context.Context, cycleID uuid.UUID, role string) ([]model.RewardPoint, error) {
	var points []model.RewardPoint
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = reward_points.user_id").
		Where("reward_points.reward_cycle_id = ? AND users.role = ? AND users.is_active = ?", cycleID, role, true).
		Preload("User.StudentProfile.GradeLevel").
		Preload("User.TeacherProfile").
		Order("reward_points.points DESC").
		Find(&points).Error
	return points, err
}

func (r *rewardRepository) PointsByUser(ctx context.Context, userID uuid.UUID) ([]model.RewardPoint, error) {
	var points []model.RewardPoint
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&points).Error
	return points, err
}
