package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/perpussekolah/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VisitRepository interface {
	// InTx runs fn against a repository bound to one database transaction.
	InTx(ctx context.Context, fn func(VisitRepository) error) error
	HasVisitOn(ctx context.Context, userID uuid.UUID, day time.Time) (bool, error)
	CreateVisit(ctx context.Context, visit *model.Visit) error
	// FindActiveCycle returns (nil, nil) when no cycle is active.
	FindActiveCycle(ctx context.Context) (*model.RewardCycle, error)
	// AddPoints upserts the (user, cycle) reward row: insert with the given
	// points, or increment an existing row. The unique index on
	// (user_id, reward_cycle_id) makes the increment atomic.
	AddPoints(ctx context.Context, userID, cycleID uuid.UUID, points int) error
	FindRecent(ctx context.Context, limit int) ([]model.Visit, error)
	FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Visit, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type visitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) InTx(ctx context.Context, fn func(VisitRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&visitRepository{db: tx})
	})
}

func (r *visitRepository) HasVisitOn(ctx context.Context, userID uuid.UUID, day time.Time) (bool, error) {
	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Visit{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, startOfDay, endOfDay).
		Count(&count).Error
	return count > 0, err
}

func (r *visitRepository) CreateVisit(ctx context.Context, visit *model.Visit) error {
	return r.db.WithContext(ctx).Create(visit).Error
}

func (r *visitRepository) FindActiveCycle(ctx context.Context) (*model.RewardCycle, error) {
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

func (r *visitRepository) AddPoints(ctx context.Context, userID, cycleID uuid.UUID, points int) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "reward_cycle_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"points":     gorm.Expr("reward_points.points + ?", points),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&model.RewardPoint{
		UserID:        userID,
		RewardCycleID: cycleID,
		Points:        points,
	}).Error
}

func (r *visitRepository) FindRecent(ctx context.Context, limit int) ([]model.Visit, error) {
	var visits []model.Visit
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&visits).Error
	return visits, err
}

func (r *visitRepository) FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Visit, error) {
	var visits []model.Visit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&visits).Error
	return visits, err
}

func (r *visitRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Visit{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

