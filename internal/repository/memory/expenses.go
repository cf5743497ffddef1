package memory

import (
	"context"

	"expense-ingest/internal/models"

	"github.com/google/uuid"
)

type Expenses struct {
	s *Store
}

func (e *Expenses) Create(_ context.Context, exp *models.Expense) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	stored := *exp
	if cat, ok := e.s.categories[stored.CategoryID]; ok {
		stored.CategoryName = cat.Name
	}
	e.s.expenses = append(e.s.expenses, &stored)
	return nil
}

// FindMostRecentByDescription picks the latest date; on equal dates the most
// recently inserted expense wins.
func (e *Expenses) FindMostRecentByDescription(_ context.Context, ownerID int64, descriptionKey string) (*models.Expense, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	var best *models.Expense
	for _, exp := range e.s.expenses {
		if exp.OwnerID != ownerID || exp.DescriptionKey != descriptionKey {
			continue
		}
		if best == nil || !exp.Date.Before(best.Date) {
			best = exp
		}
	}
	if best == nil {
		return nil, nil
	}
	out := *best
	return &out, nil
}

func (e *Expenses) GetByID(_ context.Context, ownerID int64, id uuid.UUID) (*models.Expense, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	for _, exp := range e.s.expenses {
		if exp.ID == id && exp.OwnerID == ownerID {
			out := *exp
			return &out, nil
		}
	}
	return nil, nil
}

// List returns the owner's expenses in insertion order.
func (e *Expenses) List(ownerID int64) []*models.Expense {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	var out []*models.Expense
	for _, exp := range e.s.expenses {
		if exp.OwnerID == ownerID {
			cp := *exp
			out = append(out, &cp)
		}
	}
	return out
}
