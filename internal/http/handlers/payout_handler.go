package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hogarya/hogarya-backend/internal/dto"
	"github.com/hogarya/hogarya-backend/internal/http/handlers/common"
	"github.com/hogarya/hogarya-backend/internal/service"
)

// PayoutHandler — админская поверхность выплат.
type PayoutHandler struct {
	payouts *service.PayoutService
}

func NewPayoutHandler(payouts *service.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

// ListPayablePros GET /payouts/payable-pros
func (h *PayoutHandler) ListPayablePros(c *gin.Context) {
	pros, err := h.payouts.ListPayablePros(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pros": pros})
}

// Create POST /payouts
func (h *PayoutHandler) Create(c *gin.Context) {
	var req dto.CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	proID, err := uuid.Parse(req.ProProfileID)
	if err != nil {
		common.RespondBadRequest(c, "неверный pro_profile_id")
		return
	}

	payout, err := h.payouts.CreateForPro(c.Request.Context(), proID, req.Provider)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payout)
}

// List GET /payouts
func (h *PayoutHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	payouts, err := h.payouts.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse{Items: payouts, Limit: limit, Offset: offset})
}

// Get GET /payouts/:id
func (h *PayoutHandler) Get(c *gin.Context) {
	payoutID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	payout, err := h.payouts.GetByID(c.Request.Context(), payoutID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, payout)
}

// Send POST /payouts/:id/send
func (h *PayoutHandler) Send(c *gin.Context) {
	payoutID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	payout, err := h.payouts.Send(c.Request.Context(), payoutID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, payout)
}

// Settle POST /payouts/:id/settle
func (h *PayoutHandler) Settle(c *gin.Context) {
	payoutID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	payout, err := h.payouts.Settle(c.Request.Context(), payoutID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, payout)
}
