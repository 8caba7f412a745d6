package profile

import (
	"context"
	"errors"

	borrowing "anoa.com/perpussekolah/internal/modules/borrowing/service"
	"anoa.com/perpussekolah/internal/modules/profile/dto"
	rewardRepo "anoa.com/perpussekolah/internal/modules/reward/repository"
	userRepo "anoa.com/perpussekolah/internal/modules/user/repository"
	visitRepo "anoa.com/perpussekolah/internal/modules/visit/repository"
	"anoa.com/perpussekolah/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// recentVisitLimit caps the visit list in the profile payload. The full
// count still comes back in total_visits.
const recentVisitLimit = 30

type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*dto.ProfileResponse, error)
}

type profileService struct {
	users      userRepo.UserRepository
	visits     visitRepo.VisitRepository
	rewards    rewardRepo.RewardRepository
	borrowings borrowing.BorrowingService
}

func NewProfileService(users userRepo.UserRepository, visits visitRepo.VisitRepository, rewards rewardRepo.RewardRepository, borrowings borrowing.BorrowingService) ProfileService {
	return &profileService{
		users:      users,
		visits:     visits,
		rewards:    rewards,
		borrowings: borrowings,
	}
}

// GetProfile assembles the account page: identity, role profile, visit and
// borrowing history, and points across every reward cycle. Cycles where the
// user never earned anything still appear with zero points.
func (s *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*dto.ProfileResponse, error) {
	user, err := s.users.FindByID(ctx, userID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user tidak ditemukan")
		}
		return nil, err
	}

	res := &dto.ProfileResponse{
		ID:        user.ID,
		Name:      user.Name,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}

	if user.StudentProfile != nil {
		res.StudentProfile = &dto.StudentProfileInfo{
			NIS:        user.StudentProfile.NIS,
			Major:      user.StudentProfile.Major,
			GradeLevel: user.StudentProfile.GradeLevel.Name,
			GradeOrder: user.StudentProfile.GradeLevel.Order,
		}
	}
	if user.TeacherProfile != nil {
		res.TeacherProfile = &dto.TeacherProfileInfo{
			NIP:      user.TeacherProfile.NIP,
			Subject:  user.TeacherProfile.Subject,
			Position: user.TeacherProfile.Position,
		}
	}
	if user.VisitorProfile != nil {
		res.VisitorProfile = &dto.VisitorProfileInfo{
			Institution: user.VisitorProfile.Institution,
		}
	}

	visits, err := s.visits.FindByUser(ctx, userID, recentVisitLimit)
	if err != nil {
		return nil, err
	}
	res.Visits = make([]dto.VisitInfo, 0, len(visits))
	for _, v := range visits {
		res.Visits = append(res.Visits, dto.VisitInfo{ID: v.ID, VisitedAt: v.CreatedAt})
	}

	res.TotalVisits, err = s.visits.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	res.Borrowings, err = s.borrowings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	cycles, err := s.rewards.FindAllCycles(ctx)
	if err != nil {
		return nil, err
	}
	points, err := s.rewards.PointsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	pointsByCycle := make(map[uuid.UUID]int, len(points))
	for _, p := range points {
		pointsByCycle[p.RewardCycleID] = p.Points
	}

	res.RewardHistory = make([]dto.RewardHistoryEntry, 0, len(cycles))
	for _, cycle := range cycles {
		earned := pointsByCycle[cycle.ID]
		res.RewardHistory = append(res.RewardHistory, dto.RewardHistoryEntry{
			CycleID:    cycle.ID,
			CycleTitle: cycle.Title,
			StartDate:  cycle.StartDate,
			EndDate:    cycle.EndDate,
			IsActive:   cycle.IsActive,
			Points:     earned,
		})
		res.TotalPoints += earned
		if cycle.IsActive {
			res.ActivePoints = earned
		}
	}

	return res, nil
}
