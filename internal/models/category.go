package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCategory is assigned when no classification tier produces a name.
const DefaultCategory = "Outros"

type Category struct {
	ID        uuid.UUID           `db:"id"`
	OwnerID   int64               `db:"owner_id"`
	Name      string              `db:"name"`
	Icon      *string             `db:"icon"`
	Color     *string             `db:"color"`
	Limit     decimal.NullDecimal `db:"spending_limit"`
	CreatedAt time.Time           `db:"created_at"`
}
