package models

import (
	"time"

	"github.com/google/uuid"
)

type StatementStatus string

const (
	StatementStatusProcessing StatementStatus = "processing"
	StatementStatusCompleted  StatementStatus = "completed"
	StatementStatusPartial    StatementStatus = "partial"
	StatementStatusFailed     StatementStatus = "failed"
)

// Statement records one ingestion attempt of an uploaded file.
type Statement struct {
	ID           uuid.UUID       `db:"id"`
	OwnerID      int64           `db:"owner_id"`
	FileName     string          `db:"file_name"`
	Format       string          `db:"format"`
	FileSize     int64           `db:"file_size"`
	Status       StatementStatus `db:"status"`
	ExpenseCount int             `db:"expense_count"`
	Error        string          `db:"error"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}
