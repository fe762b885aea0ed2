package handler

import (
	"net/http"

	"tesoreria/internal/middleware"
	"tesoreria/internal/service"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Username     string `json:"username" validate:"required,notblank,max=64"`
	Password     string `json:"password" validate:"required,min=6"`
	ParaleloName string `json:"paralelo_name" validate:"required,notblank,max=120"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register godoc
// @Summary Create a treasurer account
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Account"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Username:     req.Username,
		Password:     req.Password,
		ParaleloName: req.ParaleloName,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": t})
}

// Login godoc
// @Summary Exchange credentials for a bearer token
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Router /api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	token, t, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": t})
}

// Me godoc
// @Summary Current treasurer
// @Success 200 {object} domain.Treasurer
// @Failure 401 {object} map[string]string
// @Router /api/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	t, err := h.svc.Me(c.Request.Context(), middleware.TreasurerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
