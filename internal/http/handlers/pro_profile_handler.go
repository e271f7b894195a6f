package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hogarya/hogarya-backend/internal/dto"
	"github.com/hogarya/hogarya-backend/internal/http/handlers/common"
	"github.com/hogarya/hogarya-backend/internal/service"
)

// ProProfileHandler — платёжный профиль исполнителя и его начисления.
type ProProfileHandler struct {
	profiles *service.ProProfileService
	earnings *service.EarningService
}

func NewProProfileHandler(profiles *service.ProProfileService, earnings *service.EarningService) *ProProfileHandler {
	return &ProProfileHandler{profiles: profiles, earnings: earnings}
}

// Create POST /pros
func (h *ProProfileHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateProProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.profiles.Create(c.Request.Context(), userID, req.DisplayName)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// Me GET /pros/me
func (h *ProProfileHandler) Me(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	profile, err := h.profiles.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// SetDestination PUT /pros/me/payout-destination
func (h *ProProfileHandler) SetDestination(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.SetPayoutDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.profiles.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	updated, err := h.profiles.SetDestination(c.Request.Context(), profile.ID, req.Destination)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Verify POST /pros/:id/verify-destination — только админ.
func (h *ProProfileHandler) Verify(c *gin.Context) {
	profileID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.profiles.VerifyDestination(c.Request.Context(), profileID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Earnings GET /pros/me/earnings
func (h *ProProfileHandler) Earnings(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	if actor.ProProfileID == nil {
		common.RespondError(c, http.StatusForbidden, "доступно только исполнителям")
		return
	}
	limit, offset := common.GetPagination(c)

	earnings, err := h.earnings.ListByPro(c.Request.Context(), *actor.ProProfileID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse{Items: earnings, Limit: limit, Offset: offset})
}
