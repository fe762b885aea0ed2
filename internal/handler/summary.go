package handler

import (
	"io"
	"net/http"

	"tesoreria/internal/aggregate"
	"tesoreria/internal/domain"
	"tesoreria/internal/middleware"

	"github.com/gin-gonic/gin"
)

// DashboardSummary godoc
// @Summary Totals, balance and pending dues of the current treasurer
// @Success 200 {object} domain.DashboardSummary
// @Router /api/dashboard/summary [get]
func (h *Handler) DashboardSummary(c *gin.Context) {
	summary, err := h.svc.DashboardSummary(c.Request.Context(), middleware.TreasurerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// PublicStudent godoc
// @Summary Payment statement of a student by cedula, newest payment first
// @Param cedula path string true "Cedula"
// @Success 200 {object} domain.StudentStatement
// @Failure 404 {object} map[string]string
// @Router /api/public/student/{cedula} [get]
func (h *Handler) PublicStudent(c *gin.Context) {
	st, err := h.svc.StudentStatement(c.Request.Context(), c.Param("cedula"))
	if err != nil {
		respondError(c, err)
		return
	}
	st.Payments = aggregate.NewestFirst(st.Payments)
	c.JSON(http.StatusOK, st)
}

// PublicClassSummary godoc
// @Summary Public balance of a class
// @Param tesorero_id path string true "Treasurer ID"
// @Success 200 {object} domain.ClassSummary
// @Failure 404 {object} map[string]string
// @Router /api/public/paralelo/{tesorero_id}/summary [get]
func (h *Handler) PublicClassSummary(c *gin.Context) {
	summary, err := h.svc.ClassSummary(c.Request.Context(), c.Param("tesorero_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// UploadImage godoc
// @Summary Store a receipt or activity image
// @Accept multipart/form-data
// @Param file formData file true "jpeg, png or gif"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/upload-image [post]
func (h *Handler) UploadImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, &domain.ValidationError{Field: "file", Message: "file is required"})
		return
	}
	if fh.Size > h.maxUploadBytes {
		respondError(c, &domain.ValidationError{Field: "file", Message: "file is too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		respondError(c, err)
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		respondError(c, &domain.ValidationError{Field: "file", Message: "file is too large"})
		return
	}

	ref, err := h.svc.UploadImage(c.Request.Context(), middleware.TreasurerID(c), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_url": ref})
}
