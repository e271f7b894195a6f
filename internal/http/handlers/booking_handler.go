package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hogarya/hogarya-backend/internal/dto"
	"github.com/hogarya/hogarya-backend/internal/http/handlers/common"
	"github.com/hogarya/hogarya-backend/internal/service"
)

type BookingHandler struct {
	bookings *service.BookingService
}

func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Create POST /bookings
func (h *BookingHandler) Create(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	proID, err := uuid.Parse(req.ProProfileID)
	if err != nil {
		common.RespondBadRequest(c, "неверный pro_profile_id")
		return
	}

	booking, handle, err := h.bookings.Create(c.Request.Context(), service.CreateBookingInput{
		ClientID:        actor.UserID,
		ProProfileID:    proID,
		EstimatedAmount: req.EstimatedAmount,
		ScheduledAt:     req.ScheduledAt,
	}, req.Provider)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking":      booking,
		"checkout_url": handle.CheckoutURL,
		"reference":    handle.Reference,
	})
}

// Get GET /bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	bookingID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	booking, err := h.bookings.GetByID(c.Request.Context(), bookingID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// List GET /bookings
func (h *BookingHandler) List(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	limit, offset := common.GetPagination(c)

	var bookings interface{}
	if actor.ProProfileID != nil {
		bookings, err = h.bookings.ListByPro(c.Request.Context(), *actor.ProProfileID, limit, offset)
	} else {
		bookings, err = h.bookings.ListByClient(c.Request.Context(), actor.UserID, limit, offset)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse{Items: bookings, Limit: limit, Offset: offset})
}

func (h *BookingHandler) transition(c *gin.Context, do func(*gin.Context, uuid.UUID, service.Actor) (interface{}, error)) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	bookingID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	booking, err := do(c, bookingID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// Accept POST /bookings/:id/accept
func (h *BookingHandler) Accept(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.bookings.Accept(c.Request.Context(), id, actor)
	})
}

// OnMyWay POST /bookings/:id/on-my-way
func (h *BookingHandler) OnMyWay(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.bookings.OnMyWay(c.Request.Context(), id, actor)
	})
}

// Arrived POST /bookings/:id/arrived
func (h *BookingHandler) Arrived(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.bookings.Arrived(c.Request.Context(), id, actor)
	})
}

// Complete POST /bookings/:id/complete
func (h *BookingHandler) Complete(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.bookings.Complete(c.Request.Context(), id, actor)
	})
}

// Reject POST /bookings/:id/reject
func (h *BookingHandler) Reject(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.bookings.Reject(c.Request.Context(), id, actor)
	})
}

// Cancel POST /bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.bookings.Cancel(c.Request.Context(), id, actor)
	})
}
