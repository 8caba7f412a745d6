package handler

import (
	"net/http"

	"anoa.com/perpussekolah/internal/modules/borrowing/dto"
	borrowing "anoa.com/perpussekolah/internal/modules/borrowing/service"
	commonDto "anoa.com/perpussekolah/pkg/dto"
	"anoa.com/perpussekolah/pkg/response"
	"anoa.com/perpussekolah/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BorrowingHandler struct {
	service borrowing.BorrowingService
}

func NewBorrowingHandler(service borrowing.BorrowingService) *BorrowingHandler {
	return &BorrowingHandler{service: service}
}

func (h *BorrowingHandler) Borrow(c *gin.Context) {
	var req dto.CreateBorrowingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.Borrow(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *BorrowingHandler) Return(c *gin.Context) {
	var uri commonDto.IDUri
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id peminjaman tidak valid"})
		return
	}

	res, err := h.service.Return(c.Request.Context(), uri.ID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListByUser returns a user's loans. Without an explicit userId query the
// authenticated user's own loans come back.
func (h *BorrowingHandler) ListByUser(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if queried := c.Query("userId"); queried != "" {
		parsed, err := uuid.Parse(queried)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId tidak valid"})
			return
		}
		userID = parsed
	}

	res, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"borrowings": res})
}

func (h *BorrowingHandler) ListAll(c *gin.Context) {
	var query dto.ListBorrowingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parameter query tidak valid"})
		return
	}

	res, err := h.service.ListAll(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
