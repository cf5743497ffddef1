package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Expense struct {
	ID             uuid.UUID       `db:"id"`
	OwnerID        int64           `db:"owner_id"`
	CategoryID     uuid.UUID       `db:"category_id"`
	CategoryName   string          `db:"category_name"`
	StatementID    *uuid.UUID      `db:"statement_id"`
	Description    string          `db:"description"`
	DescriptionKey string          `db:"description_key"`
	Amount         decimal.Decimal `db:"amount"`
	Date           time.Time       `db:"date"`
	IsRecurring    bool            `db:"is_recurring"`
	IsDeductible   bool            `db:"is_deductible"`
	CreatedAt      time.Time       `db:"created_at"`
}
