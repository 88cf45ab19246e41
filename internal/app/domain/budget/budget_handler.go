package budget

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/app/models"
)

type BudgetHandlers struct {
	service Service
	logger  *zap.Logger
}

func NewBudgetHandlers(service Service, logger *zap.Logger) *BudgetHandlers {
	return &BudgetHandlers{
		service: service,
		logger:  logger,
	}
}

type addItemRequest struct {
	Category string  `json:"category" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Planned  float64 `json:"planned"`
}

type addExpenseRequest struct {
	BudgetItemID *uuid.UUID `json:"budget_item_id"`
	Amount       float64    `json:"amount" binding:"required"`
	Note         string     `json:"note"`
	SpentAt      *time.Time `json:"spent_at"`
}

// HandleGetSummary returns the trip's aggregated budget.
func (h *BudgetHandlers) HandleGetSummary(c *gin.Context) {
	userID, tripID, ok := h.ids(c)
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(c.Request.Context(), userID, tripID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// HandleAddItem creates a budget line.
func (h *BudgetHandlers) HandleAddItem(c *gin.Context) {
	userID, tripID, ok := h.ids(c)
	if !ok {
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category and name are required"})
		return
	}

	item, err := h.service.AddBudgetItem(c.Request.Context(), userID, tripID, req.Category, req.Name, req.Planned)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// HandleRemoveItem deletes a budget line; linked expenses keep their amount
// but lose the link.
func (h *BudgetHandlers) HandleRemoveItem(c *gin.Context) {
	userID, tripID, ok := h.ids(c)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid budget item id"})
		return
	}

	if err := h.service.RemoveBudgetItem(c.Request.Context(), userID, tripID, itemID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleListExpenses returns the trip's expenses, most recent first.
func (h *BudgetHandlers) HandleListExpenses(c *gin.Context) {
	userID, tripID, ok := h.ids(c)
	if !ok {
		return
	}

	expenses, err := h.service.ListExpenses(c.Request.Context(), userID, tripID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// HandleAddExpense records a spend.
func (h *BudgetHandlers) HandleAddExpense(c *gin.Context) {
	userID, tripID, ok := h.ids(c)
	if !ok {
		return
	}

	var req addExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}

	expense, err := h.service.AddExpense(c.Request.Context(), userID, tripID, req.BudgetItemID, req.Amount, req.Note, req.SpentAt)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

// HandleRemoveExpense deletes a recorded spend.
func (h *BudgetHandlers) HandleRemoveExpense(c *gin.Context) {
	userID, tripID, ok := h.ids(c)
	if !ok {
		return
	}
	expenseID, err := uuid.Parse(c.Param("expenseId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
		return
	}

	if err := h.service.RemoveExpense(c.Request.Context(), userID, tripID, expenseID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BudgetHandlers) ids(c *gin.Context) (userID, tripID uuid.UUID, ok bool) {
	userID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return uuid.Nil, uuid.Nil, false
	}
	tripID, err = uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return uuid.Nil, uuid.Nil, false
	}
	return userID, tripID, true
}

func (h *BudgetHandlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Budget operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
