package dto

import (
	"time"

	"expense-ingest/internal/models"
)

type StatementResponse struct {
	ID           string `json:"id"`
	FileName     string `json:"file_name"`
	Format       string `json:"format"`
	FileSize     int64  `json:"file_size"`
	Status       string `json:"status"`
	ExpenseCount int    `json:"expense_count"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type StatementListResponse struct {
	Statements []StatementResponse `json:"statements"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
}

func NewStatementResponse(s *models.Statement) StatementResponse {
	return StatementResponse{
		ID:           s.ID.String(),
		FileName:     s.FileName,
		Format:       s.Format,
		FileSize:     s.FileSize,
		Status:       string(s.Status),
		ExpenseCount: s.ExpenseCount,
		Error:        s.Error,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.Format(time.RFC3339),
	}
}
