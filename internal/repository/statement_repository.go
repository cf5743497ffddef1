package repository

import (
	"context"
	"time"

	"expense-ingest/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var statementColumns = []string{"id", "owner_id", "file_name", "format", "file_size", "status", "expense_count", "error", "created_at", "updated_at"}

type StatementRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewStatementRepository(db *pgxpool.Pool, logger *zap.Logger) *StatementRepository {
	return &StatementRepository{
		db:     db,
		logger: logger,
	}
}

func (r *StatementRepository) Create(ctx context.Context, st *models.Statement) error {
	query := squirrel.Insert("statements").
		Columns(statementColumns...).
		Values(st.ID, st.OwnerID, st.FileName, st.Format, st.FileSize, st.Status, st.ExpenseCount, st.Error, st.CreatedAt, st.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *StatementRepository) Finish(ctx context.Context, id uuid.UUID, status models.StatementStatus, expenseCount int, errMsg string) error {
	query := squirrel.Update("statements").
		Set("status", status).
		Set("expense_count", expenseCount).
		Set("error", errMsg).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *StatementRepository) ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]*models.Statement, error) {
	query := squirrel.Select(statementColumns...).
		From("statements").
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statements []*models.Statement
	for rows.Next() {
		var st models.Statement
		if err := rows.Scan(
			&st.ID, &st.OwnerID, &st.FileName, &st.Format, &st.FileSize, &st.Status, &st.ExpenseCount, &st.Error, &st.CreatedAt, &st.UpdatedAt,
		); err != nil {
			return nil, err
		}
		statements = append(statements, &st)
	}

	return statements, rows.Err()
}
