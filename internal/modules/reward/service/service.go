package reward

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"anoa.com/perpussekolah/internal/model"
	"anoa.com/perpussekolah/internal/modules/reward/dto"
	"anoa.com/perpussekolah/internal/modules/reward/repository"
	"anoa.com/perpussekolah/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

const (
	awardCacheKey = "award:leaderboard"
	awardCacheTTL = 60 * time.Second
)

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

type RewardService interface {
	RestartReward(ctx context.Context) (*dto.RestartRewardResponse, error)
	ActiveReward(ctx context.Context) (*dto.ActiveRewardResponse, error)
	Award(ctx context.Context) (*dto.AwardResponse, error)
}

type rewardService struct {
	repo        repository.RewardRepository
	redisClient *redis.Client
}

func NewRewardService(repo repository.RewardRepository, redisClient *redis.Client) RewardService {
	return &rewardService{
		repo:        repo,
		redisClient: redisClient,
	}
}

// RestartReward closes the active cycle and opens a fresh one named after
// the current month, seeding zero-point rows for every active student and
// teacher. Everything runs in one transaction; the partial unique index on
// reward_cycles keeps a concurrent restart from producing two active cycles.
func (s *rewardService) RestartReward(ctx context.Context) (*dto.RestartRewardResponse, error) {
	now := time.Now()
	title := fmt.Sprintf("Periode %s %d", indonesianMonths[now.Month()-1], now.Year())

	res := &dto.RestartRewardResponse{Success: true}

	err := s.repo.InTx(ctx, func(tx repository.RewardRepository) error {
		active, err := tx.FindActiveCycle(ctx)
		if err != nil {
			return err
		}
		if active != nil {
			if err := tx.DeactivateCycle(ctx, active.ID, now); err != nil {
				return err
			}
		}

		cycle := &model.RewardCycle{
			Title:     title,
			StartDate: now,
			IsActive:  true,
		}
		if err := tx.CreateCycle(ctx, cycle); err != nil {
			return err
		}

		students, err := tx.SeedZeroPoints(ctx, cycle.ID, model.RoleStudent)
		if err != nil {
			return err
		}
		teachers, err := tx.SeedZeroPoints(ctx, cycle.ID, model.RoleTeacher)
		if err != nil {
			return err
		}

		res.NewCycle = dto.CycleResponse{
			ID:        cycle.ID,
			Title:     cycle.Title,
			StartDate: cycle.StartDate,
			IsActive:  cycle.IsActive,
		}
		res.Statistics.Students = students
		res.Statistics.Teachers = teachers
		res.Statistics.Total = students + teachers
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Message = fmt.Sprintf("Periode baru berhasil dibuat (%s). %d siswa dan %d guru direset.",
		title, res.Statistics.Students, res.Statistics.Teachers)

	s.invalidateAwardCache(ctx)

	return res, nil
}

func (s *rewardService) ActiveReward(ctx context.Context) (*dto.ActiveRewardResponse, error) {
	cycle, err := s.repo.FindActiveCycle(ctx)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, apperror.NotFound("Tidak ada periode aktif")
	}

	total, err := s.repo.SumPoints(ctx, cycle.ID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountParticipants(ctx, cycle.ID)
	if err != nil {
		return nil, err
	}

	return &dto.ActiveRewardResponse{
		ActivePeriod: dto.CycleResponse{
			ID:        cycle.ID,
			Title:     cycle.Title,
			StartDate: cycle.StartDate,
			EndDate:   cycle.EndDate,
			IsActive:  cycle.IsActive,
		},
		TotalPoints: total,
		UserCount:   count,
	}, nil
}

// Award builds the student and teacher leaderboards for the active cycle.
// Responses are cached briefly in Redis since the landing page polls this.
func (s *rewardService) Award(ctx context.Context) (*dto.AwardResponse, error) {
	if cached := s.cachedAward(ctx); cached != nil {
		return cached, nil
	}

	cycle, err := s.repo.FindActiveCycle(ctx)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return &dto.AwardResponse{
			Students: []dto.StudentAwardEntry{},
			Teachers: []dto.TeacherAwardEntry{},
		}, nil
	}

	studentRows, err := s.repo.TopByRole(ctx, cycle.ID, model.RoleStudent)
	if err != nil {
		return nil, err
	}
	teacherRows, err := s.repo.TopByRole(ctx, cycle.ID, model.RoleTeacher)
	if err != nil {
		return nil, err
	}

	res := &dto.AwardResponse{
		CycleID:        &cycle.ID,
		CycleTitle:     &cycle.Title,
		CycleStartDate: &cycle.StartDate,
		Students:       make([]dto.StudentAwardEntry, 0, len(studentRows)),
		Teachers:       make([]dto.TeacherAwardEntry, 0, len(teacherRows)),
	}

	for _, row := range studentRows {
		entry := dto.StudentAwardEntry{
			UserID: row.UserID,
			Points: row.Points,
			Name:   row.User.Name,
		}
		if sp := row.User.StudentProfile; sp != nil {
			entry.StudentProfile = &dto.StudentProfileSubset{
				ID:    sp.ID,
				NIS:   sp.NIS,
				Major: sp.Major,
			}
			name := sp.GradeLevel.Name
			order := sp.GradeLevel.Order
			entry.GradeLevel = &name
			entry.GradeOrder = &order
		}
		res.Students = append(res.Students, entry)
	}

	for _, row := range teacherRows {
		entry := dto.TeacherAwardEntry{
			UserID: row.UserID,
			Points: row.Points,
			Name:   row.User.Name,
		}
		if tp := row.User.TeacherProfile; tp != nil {
			subject := tp.Subject
			entry.Subject = &subject
			entry.TeacherProfile = &dto.TeacherProfileSubset{
				ID:       tp.ID,
				NIP:      tp.NIP,
				Position: tp.Position,
			}
		}
		res.Teachers = append(res.Teachers, entry)
	}

	s.cacheAward(ctx, res)

	return res, nil
}

func (s *rewardService) cachedAward(ctx context.Context) *dto.AwardResponse {
	if s.redisClient == nil {
		return nil
	}

	payload, err := s.redisClient.Get(ctx, awardCacheKey).Bytes()
	if err != nil {
		return nil
	}

	var res dto.AwardResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil
	}
	return &res
}

func (s *rewardService) cacheAward(ctx context.Context, res *dto.AwardResponse) {
	if s.redisClient == nil {
		return
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, awardCacheKey, payload, awardCacheTTL).Err(); err != nil {
		log.Printf("failed to cache award leaderboard: %v", err)
	}
}

func (s *rewardService) invalidateAwardCache(ctx context.Context) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, awardCacheKey).Err(); err != nil {
		log.Printf("failed to invalidate award cache: %v", err)
	}
}
