package handler

import (
	"net/http"

	"tesoreria/internal/middleware"

	"github.com/gin-gonic/gin"
)

type CreateStudentRequest struct {
	Name   string `json:"name" validate:"required,notblank"`
	Cedula string `json:"cedula" validate:"required,notblank"`
}

// ListStudents godoc
// @Summary Students of the current treasurer, in creation order
// @Success 200 {array} domain.Student
// @Router /api/students [get]
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.svc.ListStudents(c.Request.Context(), middleware.TreasurerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

// CreateStudent godoc
// @Summary Enroll a student
// @Accept json
// @Param request body CreateStudentRequest true "Student"
// @Success 200 {object} domain.Student
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/students [post]
func (h *Handler) CreateStudent(c *gin.Context) {
	var req CreateStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	st, err := h.svc.AddStudent(c.Request.Context(), middleware.TreasurerID(c), req.Name, req.Cedula)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// DeleteStudent godoc
// @Summary Delete a student and its payments
// @Param id path string true "Student ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/students/{id} [delete]
func (h *Handler) DeleteStudent(c *gin.Context) {
	if err := h.svc.DeleteStudent(c.Request.Context(), middleware.TreasurerID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student deleted successfully"})
}
