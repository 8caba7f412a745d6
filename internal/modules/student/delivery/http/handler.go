package handler

import (
	"net/http"

	"anoa.com/perpussekolah/internal/modules/student/dto"
	student "anoa.com/perpussekolah/internal/modules/student/service"
	"anoa.com/perpussekolah/pkg/response"
	"anoa.com/perpussekolah/pkg/validator"
	"github.com/gin-gonic/gin"
)

type StudentHandler struct {
	service student.StudentService
}

func NewStudentHandler(service student.StudentService) *StudentHandler {
	return &StudentHandler{service: service}
}

func (h *StudentHandler) CreateStudents(c *gin.Context) {
	var items []dto.CreateStudentItem
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	users, err := h.service.CreateStudents(c.Request.Context(), items)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "message": "OK"})
}

func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId wajib dikirim"})
		return
	}

	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.UpdateStudent(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": res, "message": "OK"})
}

func (h *StudentHandler) ImportStudents(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer file.Close()

	summary, err := h.service.ImportStudents(c.Request.Context(), file)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *StudentHandler) Promote(c *gin.Context) {
	res, err := h.service.Promote(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *StudentHandler) GradeLevels(c *gin.Context) {
	grades, err := h.service.GradeLevels(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": grades})
}
