package dto

import (
	"time"

	"expense-ingest/internal/models"
)

type ExpenseResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	CategoryID  string `json:"categoryId"`
	Category    string `json:"category"`
}

type UploadResponse struct {
	Expenses []ExpenseResponse `json:"expenses"`
	Count    int               `json:"count"`
	Partial  bool              `json:"partial"`
	Error    string            `json:"error,omitempty"`
}

type FeedbackRequest struct {
	CategoryID string `json:"categoryId" validate:"required,uuid"`
}

func NewExpenseResponse(e *models.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID.String(),
		Description: e.Description,
		Amount:      e.Amount.StringFixed(2),
		Date:        e.Date.Format(time.DateOnly),
		CategoryID:  e.CategoryID.String(),
		Category:    e.CategoryName,
	}
}

func NewExpenseResponses(expenses []*models.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, NewExpenseResponse(e))
	}
	return out
}
