package teacher

import (
	"context"
	"fmt"
	"io"

	"anoa.com/perpussekolah/internal/model"
	userRepo "anoa.com/perpussekolah/internal/modules/user/repository"
	"anoa.com/perpussekolah/pkg/apperror"
	commonDto "anoa.com/perpussekolah/pkg/dto"
	"anoa.com/perpussekolah/pkg/spreadsheet"
	"golang.org/x/crypto/bcrypt"
)

const maxImportErrors = 5

type TeacherService interface {
	ImportTeachers(ctx context.Context, file io.Reader) (*commonDto.ImportSummary, error)
}

type teacherService struct {
	userRepo userRepo.UserRepository
}

func NewTeacherService(userRepo userRepo.UserRepository) TeacherService {
	return &teacherService{userRepo: userRepo}
}

// ImportTeachers reads an XLSX roster (name | nip | subject | position) and
// creates a teacher user per row. The NIP doubles as the initial password.
func (s *teacherService) ImportTeachers(ctx context.Context, file io.Reader) (*commonDto.ImportSummary, error) {
	rows, err := spreadsheet.ReadRows(file)
	if err != nil {
		return nil, apperror.BadRequest("file tidak dapat dibaca sebagai spreadsheet")
	}

	summary := &commonDto.ImportSummary{Total: len(rows)}
	for i, row := range rows {
		rowNumber := i + 2

		name := row.Get("name", "Nama")
		nip := row.Get("nip", "NIP")
		subject := row.Get("subject", "Mata Pelajaran", "mata_pelajaran")
		position := row.Get("position", "Jabatan", "jabatan")

		if name == "" || nip == "" || subject == "" {
			s.addRowError(summary, fmt.Sprintf("Baris %d: Nama, NIP, atau Mata Pelajaran kosong", rowNumber))
			continue
		}

		exists, err := s.userRepo.TeacherNIPExists(ctx, nip)
		if err != nil {
			return nil, err
		}
		if exists {
			s.addRowError(summary, fmt.Sprintf("Baris %d: NIP %s sudah terdaftar", rowNumber, nip))
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(nip), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}

		profile := &model.TeacherProfile{
			NIP:     nip,
			Subject: subject,
		}
		if position != "" {
			p := position
			profile.Position = &p
		}

		user := &model.User{
			Name:           name,
			Role:           model.RoleTeacher,
			PasswordHash:   string(hashed),
			IsActive:       true,
			TeacherProfile: profile,
		}

		if err := s.userRepo.Create(ctx, user); err != nil {
			s.addRowError(summary, fmt.Sprintf("Baris %d: gagal membuat data untuk %s", rowNumber, name))
			continue
		}
		summary.Success++
	}

	summary.Message = fmt.Sprintf("Import selesai, %d guru berhasil ditambahkan.", summary.Success)
	return summary, nil
}

func (s *teacherService) addRowError(summary *commonDto.ImportSummary, msg string) {
	summary.Failed++
	if len(summary.Errors) < maxImportErrors {
		summary.Errors = append(summary.Errors, msg)
	}
}
