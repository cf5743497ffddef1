package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawTransaction is one entry exactly as it appeared in the source document.
type RawTransaction struct {
	Description string
	Amount      string
	Date        string
}

// NormalizedTransaction carries a non-negative amount and a concrete date.
type NormalizedTransaction struct {
	Description string
	Amount      decimal.Decimal
	Date        time.Time
}
