package student

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"anoa.com/perpussekolah/internal/model"
	"anoa.com/perpussekolah/internal/modules/student/dto"
	"anoa.com/perpussekolah/internal/modules/student/repository"
	userRepo "anoa.com/perpussekolah/internal/modules/user/repository"
	"anoa.com/perpussekolah/pkg/apperror"
	commonDto "anoa.com/perpussekolah/pkg/dto"
	"anoa.com/perpussekolah/pkg/spreadsheet"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const maxImportErrors = 10

type StudentService interface {
	CreateStudents(ctx context.Context, items []dto.CreateStudentItem) ([]dto.StudentResponse, error)
	UpdateStudent(ctx context.Context, userID string, req dto.UpdateStudentRequest) (*dto.StudentResponse, error)
	ImportStudents(ctx context.Context, file io.Reader) (*commonDto.ImportSummary, error)
	Promote(ctx context.Context) (*dto.PromoteResponse, error)
	GradeLevels(ctx context.Context) ([]dto.GradeLevelResponse, error)
}

type studentService struct {
	repo     repository.StudentRepository
	userRepo userRepo.UserRepository
}

func NewStudentService(repo repository.StudentRepository, userRepo userRepo.UserRepository) StudentService {
	return &studentService{
		repo:     repo,
		userRepo: userRepo,
	}
}

func (s *studentService) CreateStudents(ctx context.Context, items []dto.CreateStudentItem) ([]dto.StudentResponse, error) {
	if len(items) == 0 {
		return nil, apperror.BadRequest("request body harus array of students")
	}

	responses := make([]dto.StudentResponse, 0, len(items))
	for _, item := range items {
		grade, err := s.repo.FindGradeByOrder(ctx, item.GradeLevelOrder)
		if err != nil {
			return nil, err
		}
		if grade == nil {
			return nil, apperror.BadRequest(fmt.Sprintf("grade level dengan order %d tidak ditemukan", item.GradeLevelOrder))
		}

		exists, err := s.userRepo.StudentNISExists(ctx, item.NIS)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperror.BadRequest(fmt.Sprintf("NIS %s sudah terdaftar", item.NIS))
		}

		user, err := s.createStudentUser(ctx, item.Name, item.NIS, item.Major, grade.ID)
		if err != nil {
			return nil, err
		}

		responses = append(responses, dto.StudentResponse{
			UserID:     user.ID,
			Name:       user.Name,
			NIS:        item.NIS,
			GradeLevel: grade.Name,
			GradeOrder: grade.Order,
			Major:      item.Major,
			IsActive:   true,
		})
	}
	return responses, nil
}

func (s *studentService) UpdateStudent(ctx context.Context, userID string, req dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.BadRequest("userId tidak valid")
	}

	profile, err := s.repo.FindProfileByUserID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("student tidak ditemukan")
		}
		return nil, err
	}

	if req.NIS != nil && *req.NIS != profile.NIS {
		exists, err := s.userRepo.StudentNISExists(ctx, *req.NIS)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperror.BadRequest(fmt.Sprintf("NIS %s sudah terdaftar", *req.NIS))
		}
		profile.NIS = *req.NIS
	}
	if req.Major != nil {
		profile.Major = req.Major
	}

	grade := profile.GradeLevel
	if req.GradeLevelOrder != nil {
		next, err := s.repo.FindGradeByOrder(ctx, *req.GradeLevelOrder)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, apperror.BadRequest(fmt.Sprintf("grade level dengan order %d tidak ditemukan", *req.GradeLevelOrder))
		}
		profile.GradeLevelID = next.ID
		grade = *next
	}

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	name := ""
	if profile.User != nil {
		name = profile.User.Name
	}
	if req.Name != nil {
		name = *req.Name
		if err := s.repo.UpdateUserName(ctx, uid, name); err != nil {
			return nil, err
		}
	}

	return &dto.StudentResponse{
		UserID:     uid,
		Name:       name,
		NIS:        profile.NIS,
		GradeLevel: grade.Name,
		GradeOrder: grade.Order,
		Major:      profile.Major,
		IsActive:   true,
	}, nil
}

// ImportStudents reads an XLSX roster (name | nis | gradeLevelOrder) and
// creates a student user per row. Bad rows are skipped and reported; the
// import never aborts early. The NIS doubles as the initial password.
func (s *studentService) ImportStudents(ctx context.Context, file io.Reader) (*commonDto.ImportSummary, error) {
	rows, err := spreadsheet.ReadRows(file)
	if err != nil {
		return nil, apperror.BadRequest("file tidak dapat dibaca sebagai spreadsheet")
	}

	summary := &commonDto.ImportSummary{Total: len(rows)}
	for i, row := range rows {
		rowNumber := i + 2 // header occupies row 1

		name := row.Get("name", "Nama")
		nis := row.Get("nis", "NIS")
		orderStr := row.Get("gradeLevelOrder", "grade_level_order", "Kelas", "kelas")

		if name == "" || nis == "" || orderStr == "" {
			s.addRowError(summary, fmt.Sprintf("Baris %d: nama, NIS, atau kelas kosong", rowNumber))
			continue
		}

		order, err := strconv.Atoi(orderStr)
		if err != nil {
			s.addRowError(summary, fmt.Sprintf("Baris %d: kelas harus angka, ditemukan: %s", rowNumber, orderStr))
			continue
		}

		grade, err := s.repo.FindGradeByOrder(ctx, order)
		if err != nil {
			return nil, err
		}
		if grade == nil {
			s.addRowError(summary, fmt.Sprintf("Baris %d: grade level dengan order %d tidak ditemukan", rowNumber, order))
			continue
		}

		exists, err := s.userRepo.StudentNISExists(ctx, nis)
		if err != nil {
			return nil, err
		}
		if exists {
			s.addRowError(summary, fmt.Sprintf("Baris %d: NIS %s sudah terdaftar", rowNumber, nis))
			continue
		}

		if _, err := s.createStudentUser(ctx, name, nis, nil, grade.ID); err != nil {
			s.addRowError(summary, fmt.Sprintf("Baris %d: gagal membuat data untuk %s", rowNumber, name))
			continue
		}
		summary.Success++
	}

	summary.Message = fmt.Sprintf("Import selesai, %d siswa berhasil ditambahkan, %d error.", summary.Success, summary.Failed)
	return summary, nil
}

// Promote advances every active student one grade level, graduating those
// at the final level. The whole batch runs in a single transaction so a
// partial failure cannot leave half a school year promoted. Students with
// no next level configured are left unchanged and reported.
func (s *studentService) Promote(ctx context.Context) (*dto.PromoteResponse, error) {
	res := &dto.PromoteResponse{}

	err := s.repo.InTx(ctx, func(tx repository.StudentRepository) error {
		profiles, err := tx.FindAllProfiles(ctx)
		if err != nil {
			return err
		}
		res.TotalStudents = len(profiles)

		for _, profile := range profiles {
			if profile.User == nil || !profile.User.IsActive {
				continue
			}

			if profile.GradeLevel.IsFinal {
				if err := tx.DeactivateUser(ctx, profile.UserID); err != nil {
					return err
				}
				res.Graduated++
				continue
			}

			next, err := tx.FindGradeByOrder(ctx, profile.GradeLevel.Order+1)
			if err != nil {
				return err
			}
			if next == nil {
				res.Skipped = append(res.Skipped, dto.PromoteSkipped{
					UserID: profile.UserID,
					NIS:    profile.NIS,
					Reason: fmt.Sprintf("grade level dengan order %d tidak ditemukan", profile.GradeLevel.Order+1),
				})
				continue
			}

			if err := tx.UpdateProfileGrade(ctx, profile.ID, next.ID); err != nil {
				return err
			}
			res.Promoted++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Message = fmt.Sprintf("Promosi kelas berhasil dijalankan: %d naik kelas, %d lulus.", res.Promoted, res.Graduated)
	return res, nil
}

func (s *studentService) GradeLevels(ctx context.Context) ([]dto.GradeLevelResponse, error) {
	grades, err := s.repo.FindAllGrades(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.GradeLevelResponse, 0, len(grades))
	for _, g := range grades {
		responses = append(responses, dto.GradeLevelResponse{
			ID:      g.ID,
			Name:    g.Name,
			Order:   g.Order,
			IsFinal: g.IsFinal,
		})
	}
	return responses, nil
}

func (s *studentService) createStudentUser(ctx context.Context, name, nis string, major *string, gradeLevelID uuid.UUID) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(nis), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Role:         model.RoleStudent,
		PasswordHash: string(hashed),
		IsActive:     true,
		StudentProfile: &model.StudentProfile{
			NIS:          nis,
			Major:        major,
			GradeLevelID: gradeLevelID,
		},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *studentService) addRowError(summary *commonDto.ImportSummary, msg string) {
	summary.Failed++
	if len(summary.Errors) < maxImportErrors {
		summary.Errors = append(summary.Errors, msg)
	}
}
