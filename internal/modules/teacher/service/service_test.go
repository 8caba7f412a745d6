package teacher

import (
	"bytes"
	"context"
	"io"
	"testing"

	"anoa.com/perpussekolah/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	created     []*model.User
	existingNIP map[string]bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{existingNIP: map[string]bool{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	if user.TeacherProfile != nil {
		f.existingNIP[user.TeacherProfile.NIP] = true
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
	return false, nil
}

func (f *fakeUserRepo) TeacherNIPExists(ctx context.Context, nip string) (bool, error) {
	return f.existingNIP[nip], nil
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

func TestImportTeachers_CreatesUsers(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewTeacherService(users)

	file := buildRosterXLSX(t, [][]interface{}{
		{"name", "nip", "subject", "position"},
		{"Pak Agus", "9901", "Matematika", "Wali Kelas"},
		{"Bu Rina", "9902", "Bahasa Indonesia", ""},
	})

	summary, err := svc.ImportTeachers(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Success)
	assert.Zero(t, summary.Failed)
	require.Len(t, users.created, 2)

	first := users.created[0]
	assert.Equal(t, model.RoleTeacher, first.Role)
	require.NotNil(t, first.TeacherProfile)
	assert.Equal(t, "9901", first.TeacherProfile.NIP)
	require.NotNil(t, first.TeacherProfile.Position)
	assert.Equal(t, "Wali Kelas", *first.TeacherProfile.Position)

	// Password defaults to the NIP.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(first.PasswordHash), []byte("9901")))

	second := users.created[1]
	assert.Nil(t, second.TeacherProfile.Position)
}

func TestImportTeachers_IndonesianHeaders(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewTeacherService(users)

	file := buildRosterXLSX(t, [][]interface{}{
		{"Nama", "NIP", "Mata Pelajaran", "Jabatan"},
		{"Bu Sari", "9910", "IPA", "Kepala Lab"},
	})

	summary, err := svc.ImportTeachers(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Success)
}

func TestImportTeachers_DuplicateNIPAndMissingFields(t *testing.T) {
	users := newFakeUserRepo()
	users.existingNIP["9901"] = true
	svc := NewTeacherService(users)

	file := buildRosterXLSX(t, [][]interface{}{
		{"name", "nip", "subject"},
		{"Pak Agus", "9901", "Matematika"}, // duplicate NIP
		{"Bu Rina", "", "IPA"},             // missing NIP
		{"Pak Dedi", "9903", ""},           // missing subject
		{"Bu Tini", "9904", "IPS"},
	})

	summary, err := svc.ImportTeachers(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 3, summary.Failed)
	assert.Len(t, summary.Errors, 3)
	require.Len(t, users.created, 1)
	assert.Equal(t, "9904", users.created[0].TeacherProfile.NIP)
}
