package memory

import (
	"context"
	"sort"
	"time"

	"expense-ingest/internal/models"

	"github.com/google/uuid"
)

type Statements struct {
	s *Store
}

func (st *Statements) Create(_ context.Context, stmt *models.Statement) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	stored := *stmt
	st.s.statements = append(st.s.statements, &stored)
	return nil
}

func (st *Statements) Finish(_ context.Context, id uuid.UUID, status models.StatementStatus, expenseCount int, errMsg string) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	for _, stmt := range st.s.statements {
		if stmt.ID == id {
			stmt.Status = status
			stmt.ExpenseCount = expenseCount
			stmt.Error = errMsg
			stmt.UpdatedAt = time.Now()
			return nil
		}
	}
	return nil
}

func (st *Statements) ListByOwner(_ context.Context, ownerID int64, limit, offset int) ([]*models.Statement, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	var owned []*models.Statement
	for _, stmt := range st.s.statements {
		if stmt.OwnerID == ownerID {
			cp := *stmt
			owned = append(owned, &cp)
		}
	}
	sort.SliceStable(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })

	if offset >= len(owned) {
		return nil, nil
	}
	owned = owned[offset:]
	if limit > 0 && limit < len(owned) {
		owned = owned[:limit]
	}
	return owned, nil
}
