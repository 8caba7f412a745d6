package student

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"anoa.com/perpussekolah/internal/model"
	"anoa.com/perpussekolah/internal/modules/student/dto"
	"anoa.com/perpussekolah/internal/modules/student/repository"
	"anoa.com/perpussekolah/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type fakeStudentRepo struct {
	profiles    []model.StudentProfile
	grades      []model.GradeLevel
	gradeMoves  map[uuid.UUID]uuid.UUID
	deactivated map[uuid.UUID]bool
}

func newFakeStudentRepo(grades ...model.GradeLevel) *fakeStudentRepo {
	return &fakeStudentRepo{
		grades:      grades,
		gradeMoves:  map[uuid.UUID]uuid.UUID{},
		deactivated: map[uuid.UUID]bool{},
	}
}

func (f *fakeStudentRepo) InTx(ctx context.Context, fn func(repository.StudentRepository) error) error {
	return fn(f)
}

func (f *fakeStudentRepo) FindAllProfiles(ctx context.Context) ([]model.StudentProfile, error) {
	return f.profiles, nil
}

func (f *fakeStudentRepo) FindProfileByUserID(ctx context.Context, userID uuid.UUID) (*model.StudentProfile, error) {
	for i := range f.profiles {
		if f.profiles[i].UserID == userID {
			return &f.profiles[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStudentRepo) FindGradeByOrder(ctx context.Context, order int) (*model.GradeLevel, error) {
	for i := range f.grades {
		if f.grades[i].Order == order {
			return &f.grades[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStudentRepo) FindAllGrades(ctx context.Context) ([]model.GradeLevel, error) {
	return f.grades, nil
}

func (f *fakeStudentRepo) UpdateProfileGrade(ctx context.Context, profileID, gradeLevelID uuid.UUID) error {
	f.gradeMoves[profileID] = gradeLevelID
	return nil
}

func (f *fakeStudentRepo) UpdateProfile(ctx context.Context, profile *model.StudentProfile) error {
	return nil
}

func (f *fakeStudentRepo) UpdateUserName(ctx context.Context, userID uuid.UUID, name string) error {
	return nil
}

func (f *fakeStudentRepo) DeactivateUser(ctx context.Context, userID uuid.UUID) error {
	f.deactivated[userID] = true
	return nil
}

type fakeUserRepo struct {
	created     []*model.User
	existingNIS map[string]bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{existingNIS: map[string]bool{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	if user.StudentProfile != nil {
		f.existingNIS[user.StudentProfile.NIS] = true
	}
	f.created = append(f.created, user)
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return nil
}

func (f *fakeUserRepo) StudentNISExists(ctx context.Context, nis string) (bool, error) {
	return f.existingNIS[nis], nil
}

func (f *fakeUserRepo) TeacherNIPExists(ctx context.Context, nip string) (bool, error) {
	return false, nil
}

func gradeLevels() (model.GradeLevel, model.GradeLevel, model.GradeLevel) {
	g7 := model.GradeLevel{ID: uuid.New(), Name: "Kelas 7", Order: 7}
	g8 := model.GradeLevel{ID: uuid.New(), Name: "Kelas 8", Order: 8}
	g9 := model.GradeLevel{ID: uuid.New(), Name: "Kelas 9", Order: 9, IsFinal: true}
	return g7, g8, g9
}

func activeStudent(grade model.GradeLevel, nis string) model.StudentProfile {
	userID := uuid.New()
	return model.StudentProfile{
		ID:           uuid.New(),
		UserID:       userID,
		User:         &model.User{ID: userID, IsActive: true},
		NIS:          nis,
		GradeLevelID: grade.ID,
		GradeLevel:   grade,
	}
}

func TestPromote_AdvancesAndGraduates(t *testing.T) {
	g7, g8, g9 := gradeLevels()
	repo := newFakeStudentRepo(g7, g8, g9)

	seventh := activeStudent(g7, "1001")
	ninth := activeStudent(g9, "1003")
	repo.profiles = []model.StudentProfile{seventh, ninth}

	svc := NewStudentService(repo, newFakeUserRepo())

	res, err := svc.Promote(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalStudents)
	assert.Equal(t, 1, res.Promoted)
	assert.Equal(t, 1, res.Graduated)
	assert.Empty(t, res.Skipped)

	assert.Equal(t, g8.ID, repo.gradeMoves[seventh.ID], "grade 7 moves to grade 8")
	assert.True(t, repo.deactivated[ninth.UserID], "final grade deactivates the user")
	assert.False(t, repo.deactivated[seventh.UserID])
}

func TestPromote_SkipsInactiveStudents(t *testing.T) {
	g7, g8, g9 := gradeLevels()
	repo := newFakeStudentRepo(g7, g8, g9)

	inactive := activeStudent(g7, "1001")
	inactive.User.IsActive = false
	repo.profiles = []model.StudentProfile{inactive}

	svc := NewStudentService(repo, newFakeUserRepo())

	res, err := svc.Promote(context.Background())
	require.NoError(t, err)

	assert.Zero(t, res.Promoted)
	assert.Zero(t, res.Graduated)
	assert.Empty(t, repo.gradeMoves)
}

func TestPromote_MissingNextLevelIsReported(t *testing.T) {
	g7 := model.GradeLevel{ID: uuid.New(), Name: "Kelas 7", Order: 7}
	g8 := model.GradeLevel{ID: uuid.New(), Name: "Kelas 8", Order: 8}
	// No grade 9 configured and grade 8 is not final.
	repo := newFakeStudentRepo(g7, g8)

	stuck := activeStudent(g8, "1002")
	repo.profiles = []model.StudentProfile{stuck}

	svc := NewStudentService(repo, newFakeUserRepo())

	res, err := svc.Promote(context.Background())
	require.NoError(t, err)

	assert.Zero(t, res.Promoted)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, stuck.UserID, res.Skipped[0].UserID)
	assert.Equal(t, "1002", res.Skipped[0].NIS)
	assert.Empty(t, repo.gradeMoves, "skipped students keep their grade")
}

func TestUpdateStudent_PartialUpdateKeepsName(t *testing.T) {
	g7, g8, g9 := gradeLevels()
	repo := newFakeStudentRepo(g7, g8, g9)

	student := activeStudent(g7, "1001")
	student.User.Name = "Budi"
	repo.profiles = []model.StudentProfile{student}

	svc := NewStudentService(repo, newFakeUserRepo())

	major := "IPA"
	res, err := svc.UpdateStudent(context.Background(), student.UserID.String(), dto.UpdateStudentRequest{Major: &major})
	require.NoError(t, err)

	assert.Equal(t, "Budi", res.Name, "a request without name keeps the stored one")
	require.NotNil(t, res.Major)
	assert.Equal(t, "IPA", *res.Major)
}

func TestUpdateStudent_RenamesUser(t *testing.T) {
	g7, g8, g9 := gradeLevels()
	repo := newFakeStudentRepo(g7, g8, g9)

	student := activeStudent(g7, "1001")
	student.User.Name = "Budi"
	repo.profiles = []model.StudentProfile{student}

	svc := NewStudentService(repo, newFakeUserRepo())

	newName := "Budiman"
	res, err := svc.UpdateStudent(context.Background(), student.UserID.String(), dto.UpdateStudentRequest{Name: &newName})
	require.NoError(t, err)

	assert.Equal(t, "Budiman", res.Name)
}

func TestCreateStudents_DuplicateNIS(t *testing.T) {
	g7, g8, g9 := gradeLevels()
	repo := newFakeStudentRepo(g7, g8, g9)
	users := newFakeUserRepo()
	users.existingNIS["1001"] = true

	svc := NewStudentService(repo, users)

	_, err := svc.CreateStudents(context.Background(), []dto.CreateStudentItem{
		{Name: "Budi", NIS: "1001", GradeLevelOrder: 7},
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.MapErrorToStatus(err))
	assert.Empty(t, users.created)
}

func TestCreateStudents_UnknownGradeOrder(t *testing.T) {
	g7, _, _ := gradeLevels()
	svc := NewStudentService(newFakeStudentRepo(g7), newFakeUserRepo())

	_, err := svc.CreateStudents(context.Background(), []dto.CreateStudentItem{
		{Name: "Budi", NIS: "1001", GradeLevelOrder: 12},
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.MapErrorToStatus(err))
}

func buildRosterXLSX(t *testing.T, rows [][]interface{}) io.Reader {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, val))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestImportStudents_MixedRows(t *testing.T) {
	g7, g8, g9 := gradeLevels()
	repo := newFakeStudentRepo(g7, g8, g9)
	users := newFakeUserRepo()
	users.existingNIS["2002"] = true

	file := buildRosterXLSX(t, [][]interface{}{
		{"name", "nis", "gradeLevelOrder"},
		{"Budi", "2001", 7},
		{"Siti", "2002", 7},  // duplicate NIS
		{"Andi", "2003", 12}, // unknown grade
		{"", "2004", 7},      // missing name
		{"Rina", "2005", 8},
	})

	svc := NewStudentService(repo, users)

	summary, err := svc.ImportStudents(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 2, summary.Success)
	assert.Equal(t, 3, summary.Failed)
	assert.Len(t, summary.Errors, 3)
	assert.Len(t, users.created, 2)

	for _, u := range users.created {
		assert.Equal(t, model.RoleStudent, u.Role)
		require.NotNil(t, u.StudentProfile)
		assert.NotEmpty(t, u.PasswordHash)
	}
}

func TestImportStudents_IndonesianHeaders(t *testing.T) {
	g7, g8, g9 := gradeLevels()
	repo := newFakeStudentRepo(g7, g8, g9)
	users := newFakeUserRepo()

	file := buildRosterXLSX(t, [][]interface{}{
		{"Nama", "NIS", "Kelas"},
		{"Budi", "3001", 9},
	})

	svc := NewStudentService(repo, users)

	summary, err := svc.ImportStudents(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Success)
	require.Len(t, users.created, 1)
	assert.Equal(t, g9.ID, users.created[0].StudentProfile.GradeLevelID)
}

func TestImportStudents_ErrorCap(t *testing.T) {
	g7, _, _ := gradeLevels()
	repo := newFakeStudentRepo(g7)
	users := newFakeUserRepo()

	rows := [][]interface{}{{"name", "nis", "gradeLevelOrder"}}
	for i := 0; i < 15; i++ {
		rows = append(rows, []interface{}{fmt.Sprintf("Siswa %d", i), fmt.Sprintf("40%02d", i), 99})
	}

	svc := NewStudentService(repo, users)

	summary, err := svc.ImportStudents(context.Background(), buildRosterXLSX(t, rows))
	require.NoError(t, err)

	assert.Equal(t, 15, summary.Failed)
	assert.Len(t, summary.Errors, maxImportErrors, "error list is capped")
}
