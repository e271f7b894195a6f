package router

import (
	"github.com/gin-gonic/gin"

	"github.com/hogarya/hogarya-backend/internal/config"
	"github.com/hogarya/hogarya-backend/internal/domain/statemachine"
	"github.com/hogarya/hogarya-backend/internal/http/handlers"
	"github.com/hogarya/hogarya-backend/internal/http/middleware"
	"github.com/hogarya/hogarya-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	webhookHandler *handlers.WebhookHandler,
	orderHandler *handlers.OrderHandler,
	bookingHandler *handlers.BookingHandler,
	payoutHandler *handlers.PayoutHandler,
	proProfileHandler *handlers.ProProfileHandler,
	tokenManager *service.TokenManager,
	profiles middleware.ProProfileResolver,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	// Webhook вне auth-поверхности: провайдер аутентифицируется подписью.
	webhookRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	r.POST("/webhooks/:provider", webhookRateLimit, webhookHandler.Receive)

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(tokenManager, profiles))

	adminOnly := middleware.RequireRole(statemachine.RoleAdmin)

	orders := api.Group("/orders")
	{
		orders.POST("", orderHandler.Create)
		orders.GET("", orderHandler.List)
		orders.GET("/:id", orderHandler.Get)
		orders.GET("/:id/history", orderHandler.History)
		orders.POST("/:id/submit", orderHandler.Submit)
		orders.POST("/:id/accept", orderHandler.Accept)
		orders.POST("/:id/reject", orderHandler.Reject)
		orders.POST("/:id/confirm", orderHandler.Confirm)
		orders.POST("/:id/start", orderHandler.Start)
		orders.POST("/:id/complete", orderHandler.Complete)
		orders.POST("/:id/approve", orderHandler.Approve)
		orders.POST("/:id/dispute", orderHandler.Dispute)
		orders.POST("/:id/cancel", orderHandler.Cancel)
		orders.POST("/:id/checkout", orderHandler.Checkout)
		orders.POST("/:id/resolve-dispute", adminOnly, orderHandler.ResolveDispute)
		orders.POST("/:id/mark-paid", adminOnly, orderHandler.MarkPaid)
	}

	bookings := api.Group("/bookings")
	{
		bookings.POST("", bookingHandler.Create)
		bookings.GET("", bookingHandler.List)
		bookings.GET("/:id", bookingHandler.Get)
		bookings.POST("/:id/accept", bookingHandler.Accept)
		bookings.POST("/:id/on-my-way", bookingHandler.OnMyWay)
		bookings.POST("/:id/arrived", bookingHandler.Arrived)
		bookings.POST("/:id/complete", bookingHandler.Complete)
		bookings.POST("/:id/reject", bookingHandler.Reject)
		bookings.POST("/:id/cancel", bookingHandler.Cancel)
	}

	pros := api.Group("/pros")
	{
		pros.POST("", proProfileHandler.Create)
		pros.GET("/me", proProfileHandler.Me)
		pros.PUT("/me/payout-destination", proProfileHandler.SetDestination)
		pros.GET("/me/earnings", proProfileHandler.Earnings)
		pros.POST("/:id/verify-destination", adminOnly, proProfileHandler.Verify)
	}

	payouts := api.Group("/payouts")
	payouts.Use(adminOnly)
	{
		payouts.GET("/payable-pros", payoutHandler.ListPayablePros)
		payouts.POST("", payoutHandler.Create)
		payouts.GET("", payoutHandler.List)
		payouts.GET("/:id", payoutHandler.Get)
		payouts.POST("/:id/send", payoutHandler.Send)
		payouts.POST("/:id/settle", payoutHandler.Settle)
	}

	return r
}
