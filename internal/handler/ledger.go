package handler

import (
	"net/http"

	"tesoreria/internal/domain"
	"tesoreria/internal/middleware"
	"tesoreria/internal/service"

	"github.com/gin-gonic/gin"
)

type CreatePaymentRequest struct {
	StudentID    string       `json:"student_id" validate:"required,notblank"`
	Month        string       `json:"month" validate:"required,month"`
	Year         string       `json:"year" validate:"required,year"`
	Amount       domain.Money `json:"amount" validate:"positive"`
	ReceiptImage *string      `json:"receipt_image"`
}

type CreateExpenseRequest struct {
	ResponsibleStudentID string       `json:"responsible_student_id" validate:"required,notblank"`
	Description          string       `json:"description" validate:"required,notblank,max=200"`
	Amount               domain.Money `json:"amount" validate:"positive"`
	ActivityImage        *string      `json:"activity_image"`
}

// ListPayments godoc
// @Summary Payments in creation order
// @Param student_id query string false "Only this student"
// @Success 200 {array} domain.Payment
// @Router /api/payments [get]
func (h *Handler) ListPayments(c *gin.Context) {
	payments, err := h.svc.ListPayments(c.Request.Context(), middleware.TreasurerID(c), domain.PaymentFilter{
		StudentID: c.Query("student_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// CreatePayment godoc
// @Summary Record a monthly due
// @Accept json
// @Param request body CreatePaymentRequest true "Payment"
// @Success 200 {object} domain.Payment
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/payments [post]
func (h *Handler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.RecordPayment(c.Request.Context(), middleware.TreasurerID(c), service.PaymentInput{
		StudentID:    req.StudentID,
		Month:        req.Month,
		Year:         req.Year,
		Amount:       req.Amount,
		ReceiptImage: req.ReceiptImage,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeletePayment godoc
// @Param id path string true "Payment ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/payments/{id} [delete]
func (h *Handler) DeletePayment(c *gin.Context) {
	if err := h.svc.DeletePayment(c.Request.Context(), middleware.TreasurerID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted successfully"})
}

// ListExpenses godoc
// @Summary Expenses in creation order
// @Param responsible_student_id query string false "Only this responsible student"
// @Success 200 {array} domain.Expense
// @Router /api/expenses [get]
func (h *Handler) ListExpenses(c *gin.Context) {
	expenses, err := h.svc.ListExpenses(c.Request.Context(), middleware.TreasurerID(c), domain.ExpenseFilter{
		ResponsibleStudentID: c.Query("responsible_student_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expenses)
}

// CreateExpense godoc
// @Summary Record a class expense
// @Accept json
// @Param request body CreateExpenseRequest true "Expense"
// @Success 200 {object} domain.Expense
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/expenses [post]
func (h *Handler) CreateExpense(c *gin.Context) {
	var req CreateExpenseRequest
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.svc.RecordExpense(c.Request.Context(), middleware.TreasurerID(c), service.ExpenseInput{
		ResponsibleStudentID: req.ResponsibleStudentID,
		Description:          req.Description,
		Amount:               req.Amount,
		ActivityImage:        req.ActivityImage,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// DeleteExpense godoc
// @Param id path string true "Expense ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/expenses/{id} [delete]
func (h *Handler) DeleteExpense(c *gin.Context) {
	if err := h.svc.DeleteExpense(c.Request.Context(), middleware.TreasurerID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}
