package user

import (
	"context"
	"errors"
	"time"

	"anoa.com/perpussekolah/internal/model"
	"anoa.com/perpussekolah/internal/modules/user/dto"
	"anoa.com/perpussekolah/internal/modules/user/repository"
	"anoa.com/perpussekolah/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenLifetime = 30 * 24 * time.Hour

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	RegisterVisitor(ctx context.Context, req dto.RegisterVisitorRequest) (*dto.UserSummary, error)
	UpdatePassword(ctx context.Context, req dto.UpdatePasswordRequest) error
}

type authService struct {
	userRepo repository.UserRepository
	secret   string
}

func NewAuthService(userRepo repository.UserRepository, secret string) AuthService {
	return &authService{
		userRepo: userRepo,
		secret:   secret,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user tidak ditemukan")
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, apperror.New(401, "akun sudah tidak aktif", apperror.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.New(401, "password salah", apperror.ErrUnauthorized)
	}

	token, err := s.signToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User: dto.UserSummary{
			ID:       user.ID,
			Name:     user.Name,
			Role:     user.Role,
			IsActive: user.IsActive,
		},
	}, nil
}

func (s *authService) RegisterVisitor(ctx context.Context, req dto.RegisterVisitorRequest) (*dto.UserSummary, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         req.Name,
		Role:         model.RoleVisitor,
		PasswordHash: string(hashed),
		IsActive:     true,
		VisitorProfile: &model.VisitorProfile{
			Institution: req.Institution,
		},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return &dto.UserSummary{
		ID:       user.ID,
		Name:     user.Name,
		Role:     user.Role,
		IsActive: user.IsActive,
	}, nil
}

func (s *authService) UpdatePassword(ctx context.Context, req dto.UpdatePasswordRequest) error {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return apperror.BadRequest("user_id tidak valid")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("user tidak ditemukan")
		}
		return err
	}
	return nil
}

func (s *authService) signToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}
