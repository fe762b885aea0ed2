// internal/handler/handler.go
package handler

import (
	"context"
	"net/http"
	"time"

	"tesoreria/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc            *service.Service
	maxUploadBytes int64
}

func New(svc *service.Service, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// Routes mounts the JSON API under /api. requireAuth guards every
// treasurer scoped route.
func (h *Handler) Routes(r gin.IRouter, requireAuth gin.HandlerFunc) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	api := r.Group("/api")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	public := api.Group("/public")
	{
		public.GET("/student/:cedula", h.PublicStudent)
		public.GET("/paralelo/:tesorero_id/summary", h.PublicClassSummary)
	}

	authed := api.Group("")
	authed.Use(requireAuth)
	{
		authed.GET("/auth/me", h.Me)

		authed.GET("/students", h.ListStudents)
		authed.POST("/students", h.CreateStudent)
		authed.DELETE("/students/:id", h.DeleteStudent)

		authed.GET("/payment-settings", h.GetSettings)
		authed.POST("/payment-settings", h.SaveSettings)

		authed.GET("/payments", h.ListPayments)
		authed.POST("/payments", h.CreatePayment)
		authed.DELETE("/payments/:id", h.DeletePayment)

		authed.GET("/expenses", h.ListExpenses)
		authed.POST("/expenses", h.CreateExpense)
		authed.DELETE("/expenses/:id", h.DeleteExpense)

		authed.GET("/dashboard/summary", h.DashboardSummary)
		authed.POST("/upload-image", h.UploadImage)
	}
}

// Health godoc
// @Summary Liveness probe
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary Readiness probe, pings the database
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ready [get]
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.svc.Ping(ctx); err != nil {
		c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
