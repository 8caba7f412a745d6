package visit

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"anoa.com/perpussekolah/internal/model"
	"anoa.com/perpussekolah/internal/modules/visit/dto"
	"anoa.com/perpussekolah/internal/modules/visit/repository"
	userRepo "anoa.com/perpussekolah/internal/modules/user/repository"
	"anoa.com/perpussekolah/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	// Fixed bonus for the first recorded visit of a calendar day.
	VisitBonusPoints = 10

	// Redis channel the admin dashboard subscribes to.
	VisitFeedChannel = "visit_feed"

	rateLimitAction = "record_visit"
)

type VisitService interface {
	RecordVisit(ctx context.Context, req dto.RecordVisitRequest) (*dto.RecordVisitResponse, error)
	RecentVisits(ctx context.Context, limit int) ([]dto.RecentVisitEntry, error)
}

type visitService struct {
	repo        repository.VisitRepository
	userRepo    userRepo.UserRepository
	redisClient *redis.Client
	rateLimit   time.Duration

	checkLimit func(ctx context.Context, userID uuid.UUID) (bool, error)
	clearLimit func(ctx context.Context, userID uuid.UUID) error
}

func NewVisitService(repo repository.VisitRepository, userRepo userRepo.UserRepository, redisClient *redis.Client, rateLimit time.Duration) VisitService {
	s := &visitService{
		repo:        repo,
		userRepo:    userRepo,
		redisClient: redisClient,
		rateLimit:   rateLimit,
	}
	s.checkLimit = func(ctx context.Context, userID uuid.UUID) (bool, error) {
		return CheckAndSetRateLimit(ctx, s.redisClient, userID, rateLimitAction, s.rateLimit)
	}
	s.clearLimit = func(ctx context.Context, userID uuid.UUID) error {
		return ClearRateLimit(ctx, s.redisClient, userID, rateLimitAction)
	}
	return s
}

// RecordVisit appends a visit for the user and grants the daily bonus at
// most once per calendar day against the active reward cycle. The day
// check, the visit insert and the point upsert run in one transaction so a
// crash cannot leave a granted bonus without its visit. Visits always
// succeed even when no cycle is active.
func (s *visitService) RecordVisit(ctx context.Context, req dto.RecordVisitRequest) (*dto.RecordVisitResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, apperror.BadRequest("userId tidak valid")
	}

	user, err := s.userRepo.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user tidak ditemukan")
		}
		return nil, err
	}

	now := time.Now()

	// Same-day repeats answer the no-op before the limiter fires.
	visited, err := s.repo.HasVisitOn(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if visited {
		return &dto.RecordVisitResponse{
			Success:        true,
			AlreadyVisited: true,
			Message:        "kunjungan hari ini sudah tercatat",
		}, nil
	}

	allowed, err := s.checkLimit(ctx, userID)
	if err != nil {
		// Redis being down must not block visit recording.
		log.Printf("visit rate limit check failed for user %s: %v", userID, err)
	} else if !allowed {
		return nil, apperror.ErrRateLimitExceeded
	}

	res := &dto.RecordVisitResponse{Success: true}

	err = s.repo.InTx(ctx, func(tx repository.VisitRepository) error {
		visited, err := tx.HasVisitOn(ctx, userID, now)
		if err != nil {
			return err
		}
		if visited {
			res.AlreadyVisited = true
			res.Message = "kunjungan hari ini sudah tercatat"
			return nil
		}

		visit := &model.Visit{UserID: userID}
		if err := tx.CreateVisit(ctx, visit); err != nil {
			return err
		}
		res.VisitID = visit.ID.String()
		res.VisitedAt = visit.CreatedAt
		res.Message = "kunjungan berhasil dicatat"

		cycle, err := tx.FindActiveCycle(ctx)
		if err != nil {
			return err
		}
		if cycle == nil {
			log.Printf("no active reward cycle, visit %s recorded without points", visit.ID)
			return nil
		}

		if err := tx.AddPoints(ctx, userID, cycle.ID, VisitBonusPoints); err != nil {
			return err
		}
		res.PointsGranted = VisitBonusPoints
		res.CycleTitle = cycle.Title
		return nil
	})
	if err != nil {
		// Release the limiter slot so the user can retry an honest failure.
		if clearErr := s.clearLimit(ctx, userID); clearErr != nil {
			log.Printf("failed to clear visit rate limit for user %s: %v", userID, clearErr)
		}
		return nil, err
	}

	if !res.AlreadyVisited {
		s.publishVisit(ctx, user, res)
	}

	return res, nil
}

func (s *visitService) RecentVisits(ctx context.Context, limit int) ([]dto.RecentVisitEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	visits, err := s.repo.FindRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.RecentVisitEntry, 0, len(visits))
	for _, v := range visits {
		entries = append(entries, dto.RecentVisitEntry{
			UserID:    v.UserID.String(),
			Name:      v.User.Name,
			Role:      v.User.Role,
			VisitedAt: v.CreatedAt,
		})
	}
	return entries, nil
}

func (s *visitService) publishVisit(ctx context.Context, user *model.User, res *dto.RecordVisitResponse) {
	if s.redisClient == nil {
		return
	}

	event := dto.VisitEvent{
		UserID:        user.ID.String(),
		Name:          user.Name,
		Role:          user.Role,
		PointsGranted: res.PointsGranted,
		VisitedAt:     res.VisitedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal visit event: %v", err)
		return
	}

	if err := s.redisClient.Publish(ctx, VisitFeedChannel, payload).Err(); err != nil {
		log.Printf("failed to publish visit event: %v", err)
	}
}
