package repository

import (
	"context"
	"errors"

	"anoa.com/perpussekolah/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentRepository interface {
	// InTx runs fn against a repository bound to one database transaction.
	InTx(ctx context.Context, fn func(StudentRepository) error) error
	// FindAllProfiles loads every student profile with its grade level and
	// owning user.
	FindAllProfiles(ctx context.Context) ([]model.StudentProfile, error)
	FindProfileByUserID(ctx context.Context, userID uuid.UUID) (*model.StudentProfile, error)
	// FindGradeByOrder returns (nil, nil) when no level has the order.
	FindGradeByOrder(ctx context.Context, order int) (*model.GradeLevel, error)
	FindAllGrades(ctx context.Context) ([]model.GradeLevel, error)
	UpdateProfileGrade(ctx context.Context, profileID, gradeLevelID uuid.UUID) error
	UpdateProfile(ctx context.Context, profile *model.StudentProfile) error
	UpdateUserName(ctx context.Context, userID uuid.UUID, name string) error
	DeactivateUser(ctx context.Context, userID uuid.UUID) error
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) InTx(ctx context.Context, fn func(StudentRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&studentRepository{db: tx})
	})
}

func (r *studentRepository) FindAllProfiles(ctx context.Context) ([]model.StudentProfile, error) {
	var profiles []model.StudentProfile
	err := r.db.WithContext(ctx).
		Preload("GradeLevel").
		Preload("User").
		Find(&profiles).Error
	return profiles, err
}

func (r *studentRepository) FindProfileByUserID(ctx context.Context, userID uuid.UUID) (*model.StudentProfile, error) {
	var profile model.StudentProfile
	err := r.db.WithContext(ctx).
		Preload("GradeLevel").
		Preload("User").
		First(&profile, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *studentRepository) FindGradeByOrder(ctx context.Context, order int) (*model.GradeLevel, error) {
	var grade model.GradeLevel
	err := r.db.WithContext(ctx).Where("level_order = ?", order).First(&grade).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &grade, nil
}

func (r *studentRepository) FindAllGrades(ctx context.Context) ([]model.GradeLevel, error) {
	var grades []model.GradeLevel
	err := r.db.WithContext(ctx).Order("level_order ASC").Find(&grades).Error
	return grades, err
}

func (r *studentRepository) UpdateProfileGrade(ctx context.Context, profileID, gradeLevelID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.StudentProfile{}).
		Where("id = ?", profileID).
		Update("grade_level_id", gradeLevelID).Error
}

func (r *studentRepository) UpdateProfile(ctx context.Context, profile *model.StudentProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *studentRepository) UpdateUserName(ctx context.Context, userID uuid.UUID, name string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("name", name).Error
}

func (r *studentRepository) DeactivateUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("is_active", false).Error
}
