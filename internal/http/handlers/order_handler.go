package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hogarya/hogarya-backend/internal/dto"
	"github.com/hogarya/hogarya-backend/internal/http/handlers/common"
	"github.com/hogarya/hogarya-backend/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		common.RespondBadRequest(c, "неверный category_id")
		return
	}

	in := service.CreateOrderInput{
		ClientID:             actor.UserID,
		CategoryID:           categoryID,
		PricingMode:          req.PricingMode,
		HourlyRateSnapshot:   req.HourlyRateSnapshot,
		EstimatedHours:       req.EstimatedHours,
		QuotedAmount:         req.QuotedAmount,
		ScheduledWindowStart: req.ScheduledWindowStart,
	}
	if req.ProProfileID != "" {
		proID, err := uuid.Parse(req.ProProfileID)
		if err != nil {
			common.RespondBadRequest(c, "неверный pro_profile_id")
			return
		}
		in.ProProfileID = &proID
	}

	order, err := h.orders.CreateDraft(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// Get GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.GetByID(c.Request.Context(), orderID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// History GET /orders/:id/history
func (h *OrderHandler) History(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	history, err := h.orders.History(c.Request.Context(), orderID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// List GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	limit, offset := common.GetPagination(c)

	var orders interface{}
	if actor.ProProfileID != nil {
		orders, err = h.orders.ListByPro(c.Request.Context(), *actor.ProProfileID, limit, offset)
	} else {
		orders, err = h.orders.ListByClient(c.Request.Context(), actor.UserID, limit, offset)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse{Items: orders, Limit: limit, Offset: offset})
}

// transition — общий обработчик для всех переходов по одному шаблону.
func (h *OrderHandler) transition(c *gin.Context, do func(*gin.Context, uuid.UUID, service.Actor) (interface{}, error)) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := do(c, orderID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Submit POST /orders/:id/submit
func (h *OrderHandler) Submit(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.orders.Submit(c.Request.Context(), id, actor)
	})
}

// Accept POST /orders/:id/accept
func (h *OrderHandler) Accept(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.orders.Accept(c.Request.Context(), id, actor)
	})
}

// Reject POST /orders/:id/reject
func (h *OrderHandler) Reject(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.orders.Reject(c.Request.Context(), id, actor)
	})
}

// Confirm POST /orders/:id/confirm
func (h *OrderHandler) Confirm(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.orders.Confirm(c.Request.Context(), id, actor)
	})
}

// Start POST /orders/:id/start
func (h *OrderHandler) Start(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.orders.Start(c.Request.Context(), id, actor)
	})
}

// Complete POST /orders/:id/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.orders.Complete(c.Request.Context(), id, actor)
	})
}

// Approve POST /orders/:id/approve
func (h *OrderHandler) Approve(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.orders.Approve(c.Request.Context(), id, actor)
	})
}

// Dispute POST /orders/:id/dispute
func (h *OrderHandler) Dispute(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.orders.Dispute(c.Request.Context(), id, actor)
	})
}

// ResolveDispute POST /orders/:id/resolve-dispute
func (h *OrderHandler) ResolveDispute(c *gin.Context) {
	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.orders.ResolveDispute(c.Request.Context(), id, req.InProsFavor, actor)
	})
}

// Cancel POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.orders.Cancel(c.Request.Context(), id, actor)
	})
}

// MarkPaid POST /orders/:id/mark-paid
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor service.Actor) (interface{}, error) {
		return h.orders.MarkPaid(c.Request.Context(), id, actor)
	})
}

// Checkout POST /orders/:id/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	payment, handle, err := h.orders.Checkout(c.Request.Context(), orderID, req.Provider, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CheckoutResponse{
		PaymentID:   payment.ID.String(),
		Reference:   handle.Reference,
		CheckoutURL: handle.CheckoutURL,
		Amount:      payment.AmountEstimated,
		Currency:    payment.Currency,
	})
}
