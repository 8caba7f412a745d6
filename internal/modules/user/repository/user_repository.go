package repository

import (
	"context"

	"anoa.com/perpussekolah/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByLogin matches a user by name, student NIS or teacher NIP.
	FindByLogin(ctx context.Context, login string) (*model.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	StudentNISExists(ctx context.Context, nis string) (bool, error)
	TeacherNIPExists(ctx context.Context, nip string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("StudentProfile.GradeLevel").
		Preload("TeacherProfile").
		Preload("VisitorProfile").
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("StudentProfile.GradeLevel").
		Preload("TeacherProfile").
		Preload("VisitorProfile").
		Where("users.name = ?", login).
		Or("users.id IN (?)", r.db.Model(&model.StudentProfile{}).Select("user_id").Where("nis = ?", login)).
		Or("users.id IN (?)", r.db.Model(&model.TeacherProfile{}).Select("user_id").Where("nip = ?", login)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) StudentNISExists(ctx context.Context, nis string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.StudentProfile{}).
		Where("nis = ?", nis).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) TeacherNIPExists(ctx context.Context, nip string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TeacherProfile{}).
		Where("nip = ?", nip).
		Count(&count).Error
	return count > 0, err
}
