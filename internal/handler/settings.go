package handler

import (
	"net/http"

	"tesoreria/internal/domain"
	"tesoreria/internal/middleware"
	"tesoreria/internal/service"

	"github.com/gin-gonic/gin"
)

type SaveSettingsRequest struct {
	MonthlyAmount  domain.Money `json:"monthly_amount" validate:"positive"`
	AcademicYear   string       `json:"academic_year" validate:"required,year"`
	SelectedMonths []string     `json:"selected_months" validate:"required,min=1,dive,month"`
}

// GetSettings godoc
// @Summary Current payment settings, null when never configured
// @Success 200 {object} domain.PaymentSettings
// @Router /api/payment-settings [get]
func (h *Handler) GetSettings(c *gin.Context) {
	ps, err := h.svc.GetSettings(c.Request.Context(), middleware.TreasurerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if ps == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, ps)
}

// SaveSettings godoc
// @Summary Replace the payment settings
// @Accept json
// @Param request body SaveSettingsRequest true "Settings"
// @Success 200 {object} domain.PaymentSettings
// @Failure 400 {object} map[string]string
// @Router /api/payment-settings [post]
func (h *Handler) SaveSettings(c *gin.Context) {
	var req SaveSettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	ps, err := h.svc.SaveSettings(c.Request.Context(), middleware.TreasurerID(c), service.SettingsInput{
		MonthlyAmount:  req.MonthlyAmount,
		AcademicYear:   req.AcademicYear,
		SelectedMonths: req.SelectedMonths,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ps)
}
