package handler

import (
	"net/http"

	teacher "anoa.com/perpussekolah/internal/modules/teacher/service"
	"anoa.com/perpussekolah/pkg/response"
	"github.com/gin-gonic/gin"
)

type TeacherHandler struct {
	service teacher.TeacherService
}

func NewTeacherHandler(service teacher.TeacherService) *TeacherHandler {
	return &TeacherHandler{service: service}
}

func (h *TeacherHandler) ImportTeachers(c *gin.Context) {
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

	summary, err := h.service.ImportTeachers(c.Request.Context(), file)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
