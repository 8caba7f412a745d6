package handler

import (
	"net/http"

	reward "anoa.com/perpussekolah/internal/modules/reward/service"
	"anoa.com/perpussekolah/pkg/response"
	"github.com/gin-gonic/gin"
)

type RewardHandler struct {
	service reward.RewardService
}

func NewRewardHandler(service reward.RewardService) *RewardHandler {
	return &RewardHandler{service: service}
}

func (h *RewardHandler) RestartReward(c *gin.Context) {
	res, err := h.service.RestartReward(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *RewardHandler) ActiveReward(c *gin.Context) {
	res, err := h.service.ActiveReward(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *RewardHandler) Award(c *gin.Context) {
	res, err := h.service.Award(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
