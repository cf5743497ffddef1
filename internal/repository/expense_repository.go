package repository

import (
	"context"
	"errors"

	"expense-ingest/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var expenseSelectColumns = []string{
	"e.id", "e.owner_id", "e.category_id", "c.name", "e.statement_id", "e.description", "e.description_key",
	"e.amount", "e.date", "e.is_recurring", "e.is_deductible", "e.created_at",
}

type ExpenseRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewExpenseRepository(db *pgxpool.Pool, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ExpenseRepository) Create(ctx context.Context, e *models.Expense) error {
	query := squirrel.Insert("expenses").
		Columns("id", "owner_id", "category_id", "statement_id", "description", "description_key",
			"amount", "date", "is_recurring", "is_deductible", "created_at").
		Values(e.ID, e.OwnerID, e.CategoryID, e.StatementID, e.Description, e.DescriptionKey,
			e.Amount, e.Date, e.IsRecurring, e.IsDeductible, e.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// FindMostRecentByDescription returns the owner's latest expense (by date)
// with the given description key, or nil.
func (r *ExpenseRepository) FindMostRecentByDescription(ctx context.Context, ownerID int64, descriptionKey string) (*models.Expense, error) {
	query := squirrel.Select(expenseSelectColumns...).
		From("expenses e").
		Join("categories c ON c.id = e.category_id").
		Where(squirrel.Eq{"e.owner_id": ownerID, "e.description_key": descriptionKey}).
		OrderBy("e.date DESC", "e.created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	return r.getOne(ctx, query)
}

// GetByID returns nil when the expense does not exist or belongs to another owner.
func (r *ExpenseRepository) GetByID(ctx context.Context, ownerID int64, id uuid.UUID) (*models.Expense, error) {
	query := squirrel.Select(expenseSelectColumns...).
		From("expenses e").
		Join("categories c ON c.id = e.category_id").
		Where(squirrel.Eq{"e.id": id, "e.owner_id": ownerID}).
		PlaceholderFormat(squirrel.Dollar)

	return r.getOne(ctx, query)
}

func (r *ExpenseRepository) getOne(ctx context.Context, query squirrel.SelectBuilder) (*models.Expense, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var e models.Expense
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&e.ID, &e.OwnerID, &e.CategoryID, &e.CategoryName, &e.StatementID, &e.Description, &e.DescriptionKey,
		&e.Amount, &e.Date, &e.IsRecurring, &e.IsDeductible, &e.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &e, nil
}
