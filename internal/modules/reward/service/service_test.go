package reward

import (
	"context"
	"testing"
	"time"

	"anoa.com/perpussekolah/internal/model"
	"anoa.com/perpussekolah/internal/modules/reward/repository"
	"anoa.com/perpussekolah/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRewardRepo struct {
	cycles       []model.RewardCycle
	points       []model.RewardPoint
	activeByRole map[string]int64
}

func newFakeRewardRepo() *fakeRewardRepo {
	return &fakeRewardRepo{activeByRole: map[string]int64{}}
}

func (f *fakeRewardRepo) InTx(ctx context.Context, fn func(repository.RewardRepository) error) error {
	return fn(f)
}

func (f *fakeRewardRepo) FindActiveCycle(ctx context.Context) (*model.RewardCycle, error) {
	for i := range f.cycles {
		if f.cycles[i].IsActive {
			return &f.cycles[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRewardRepo) FindAllCycles(ctx context.Context) ([]model.RewardCycle, error) {
	return f.cycles, nil
}

func (f *fakeRewardRepo) DeactivateCycle(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	for i := range f.cycles {
		if f.cycles[i].ID == id {
			f.cycles[i].IsActive = false
			f.cycles[i].EndDate = &endDate
		}
	}
	return nil
}

func (f *fakeRewardRepo) CreateCycle(ctx context.Context, cycle *model.RewardCycle) error {
	cycle.ID = uuid.New()
	f.cycles = append(f.cycles, *cycle)
	return nil
}

func (f *fakeRewardRepo) SeedZeroPoints(ctx context.Context, cycleID uuid.UUID, role string) (int64, error) {
	seeded := f.activeByRole[role]
	for i := int64(0); i < seeded; i++ {
		f.points = append(f.points, model.RewardPoint{
			ID:            uuid.New(),
			UserID:        uuid.New(),
			RewardCycleID: cycleID,
			User:          model.User{Role: role},
		})
	}
	return seeded, nil
}

func (f *fakeRewardRepo) SumPoints(ctx context.Context, cycleID uuid.UUID) (int64, error) {
	var sum int64
	for _, p := range f.points {
		if p.RewardCycleID == cycleID {
			sum += int64(p.Points)
		}
	}
	return sum, nil
}

func (f *fakeRewardRepo) CountParticipants(ctx context.Context, cycleID uuid.UUID) (int64, error) {
	var count int64
	for _, p := range f.points {
		if p.RewardCycleID == cycleID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRewardRepo) TopByRole(ctx context.Context, cycleID uuid.UUID, role string) ([]model.RewardPoint, error) {
	var out []model.RewardPoint
	for _, p := range f.points {
		if p.RewardCycleID == cycleID && p.User.Role == role {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRewardRepo) PointsByUser(ctx context.Context, userID uuid.UUID) ([]model.RewardPoint, error) {
	var out []model.RewardPoint
	for _, p := range f.points {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestRestartReward_CreatesFirstCycle(t *testing.T) {
	repo := newFakeRewardRepo()
	repo.activeByRole[model.RoleStudent] = 3
	repo.activeByRole[model.RoleTeacher] = 2

	svc := NewRewardService(repo, nil)

	res, err := svc.RestartReward(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Contains(t, res.NewCycle.Title, "Periode ")
	assert.Equal(t, int64(3), res.Statistics.Students)
	assert.Equal(t, int64(2), res.Statistics.Teachers)
	assert.Equal(t, int64(5), res.Statistics.Total)

	active, err := repo.FindActiveCycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, res.NewCycle.ID, active.ID)
}

func TestRestartReward_DeactivatesPreviousCycle(t *testing.T) {
	repo := newFakeRewardRepo()
	old := model.RewardCycle{ID: uuid.New(), Title: "Periode Juli 2026", IsActive: true, StartDate: time.Now().AddDate(0, -1, 0)}
	repo.cycles = append(repo.cycles, old)

	svc := NewRewardService(repo, nil)

	res, err := svc.RestartReward(context.Background())
	require.NoError(t, err)

	var activeCount int
	for _, c := range repo.cycles {
		if c.IsActive {
			activeCount++
			assert.Equal(t, res.NewCycle.ID, c.ID)
		}
		if c.ID == old.ID {
			assert.False(t, c.IsActive)
			assert.NotNil(t, c.EndDate, "closed cycle gets an end date")
		}
	}
	assert.Equal(t, 1, activeCount, "exactly one active cycle after restart")
}

func TestActiveReward_NoActiveCycle(t *testing.T) {
	svc := NewRewardService(newFakeRewardRepo(), nil)

	_, err := svc.ActiveReward(context.Background())
	require.Error(t, err)
	assert.Equal(t, 404, apperror.MapErrorToStatus(err))
}

func TestActiveReward_SumsPointsAndParticipants(t *testing.T) {
	repo := newFakeRewardRepo()
	cycle := model.RewardCycle{ID: uuid.New(), Title: "Periode Agustus 2026", IsActive: true}
	repo.cycles = append(repo.cycles, cycle)
	repo.points = append(repo.points,
		model.RewardPoint{UserID: uuid.New(), RewardCycleID: cycle.ID, Points: 30, User: model.User{Role: model.RoleStudent}},
		model.RewardPoint{UserID: uuid.New(), RewardCycleID: cycle.ID, Points: 10, User: model.User{Role: model.RoleTeacher}},
	)

	svc := NewRewardService(repo, nil)

	res, err := svc.ActiveReward(context.Background())
	require.NoError(t, err)

	assert.Equal(t, cycle.ID, res.ActivePeriod.ID)
	assert.Equal(t, int64(40), res.TotalPoints)
	assert.Equal(t, int64(2), res.UserCount)
}

func TestAward_NoActiveCycleReturnsEmptyBoards(t *testing.T) {
	svc := NewRewardService(newFakeRewardRepo(), nil)

	res, err := svc.Award(context.Background())
	require.NoError(t, err)

	assert.Nil(t, res.CycleID)
	assert.Empty(t, res.Students)
	assert.Empty(t, res.Teachers)
}

func TestAward_SplitsBoardsByRole(t *testing.T) {
	repo := newFakeRewardRepo()
	cycle := model.RewardCycle{ID: uuid.New(), Title: "Periode Agustus 2026", IsActive: true}
	repo.cycles = append(repo.cycles, cycle)

	studentID := uuid.New()
	teacherID := uuid.New()
	repo.points = append(repo.points,
		model.RewardPoint{
			UserID:        studentID,
			RewardCycleID: cycle.ID,
			Points:        50,
			User: model.User{
				ID:   studentID,
				Name: "Siti",
				Role: model.RoleStudent,
				StudentProfile: &model.StudentProfile{
					ID:         uuid.New(),
					NIS:        "12345",
					GradeLevel: model.GradeLevel{Name: "Kelas 8", Order: 8},
				},
			},
		},
		model.RewardPoint{
			UserID:        teacherID,
			RewardCycleID: cycle.ID,
			Points:        20,
			User: model.User{
				ID:   teacherID,
				Name: "Pak Agus",
				Role: model.RoleTeacher,
				TeacherProfile: &model.TeacherProfile{
					ID:      uuid.New(),
					NIP:     "9988",
					Subject: "Matematika",
				},
			},
		},
	)

	svc := NewRewardService(repo, nil)

	res, err := svc.Award(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Students, 1)
	assert.Equal(t, "Siti", res.Students[0].Name)
	assert.Equal(t, 50, res.Students[0].Points)
	require.NotNil(t, res.Students[0].GradeLevel)
	assert.Equal(t, "Kelas 8", *res.Students[0].GradeLevel)

	require.Len(t, res.Teachers, 1)
	assert.Equal(t, "Pak Agus", res.Teachers[0].Name)
	require.NotNil(t, res.Teachers[0].Subject)
	assert.Equal(t, "Matematika", *res.Teachers[0].Subject)
}
