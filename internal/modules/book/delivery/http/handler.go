package handler

import (
	"net/http"

	"anoa.com/perpussekolah/internal/modules/book/dto"
	book "anoa.com/perpussekolah/internal/modules/book/service"
	commonDto "anoa.com/perpussekolah/pkg/dto"
	"anoa.com/perpussekolah/pkg/response"
	"anoa.com/perpussekolah/pkg/validator"
	"github.com/gin-gonic/gin"
)

type BookHandler struct {
	service book.BookService
}

func NewBookHandler(service book.BookService) *BookHandler {
	return &BookHandler{service: service}
}

func (h *BookHandler) ListBooks(c *gin.Context) {
	var query dto.ListBooksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parameter query tidak valid"})
		return
	}

	res, err := h.service.ListBooks(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookHandler) GetBook(c *gin.Context) {
	var uri commonDto.IDUri
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id buku tidak valid"})
		return
	}

	res, err := h.service.GetBook(c.Request.Context(), uri.ID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookHandler) CreateBook(c *gin.Context) {
	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.CreateBook(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *BookHandler) UpdateBook(c *gin.Context) {
	var uri commonDto.IDUri
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id buku tidak valid"})
		return
	}

	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.UpdateBook(c.Request.Context(), uri.ID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookHandler) DeleteBook(c *gin.Context) {
	var uri commonDto.IDUri
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id buku tidak valid"})
		return
	}

	if err := h.service.DeleteBook(c.Request.Context(), uri.ID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, commonDto.MessageResponse{Message: "Buku berhasil dihapus"})
}

func (h *BookHandler) ImportBooks(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file tidak ditemukan pada request"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file tidak dapat dibuka"})
		return
	}
	defer file.Close()

	summary, err := h.service.ImportBooks(c.Request.Context(), file)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *BookHandler) UploadCover(c *gin.Context) {
	var uri commonDto.IDUri
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id buku tidak valid"})
		return
	}

	fileHeader, err := c.FormFile("cover")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file cover tidak ditemukan pada request"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file tidak dapat dibuka"})
		return
	}
	defer file.Close()

	res, err := h.service.UploadCover(c.Request.Context(), uri.ID, file, fileHeader.Filename)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookHandler) PublicSearch(c *gin.Context) {
	var query dto.PublicSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parameter query tidak valid"})
		return
	}

	res, err := h.service.PublicSearch(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
