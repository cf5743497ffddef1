package repository

import (
	"context"
	"errors"
	"time"

	"expense-ingest/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var categoryColumns = []string{"id", "owner_id", "name", "icon", "color", "spending_limit", "created_at"}

type CategoryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCategoryRepository(db *pgxpool.Pool, logger *zap.Logger) *CategoryRepository {
	return &CategoryRepository{
		db:     db,
		logger: logger,
	}
}

func (r *CategoryRepository) Create(ctx context.Context, cat *models.Category) error {
	query := squirrel.Insert("categories").
		Columns(categoryColumns...).
		Values(cat.ID, cat.OwnerID, cat.Name, cat.Icon, cat.Color, cat.Limit, cat.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// FindByNameAndOwner returns nil when the owner has no category with that name.
func (r *CategoryRepository) FindByNameAndOwner(ctx context.Context, ownerID int64, name string) (*models.Category, error) {
	query := squirrel.Select(categoryColumns...).
		From("categories").
		Where(squirrel.Eq{"owner_id": ownerID, "name": name}).
		PlaceholderFormat(squirrel.Dollar)

	return r.getOne(ctx, query)
}

// GetByID returns nil when the category does not exist or belongs to another owner.
func (r *CategoryRepository) GetByID(ctx context.Context, ownerID int64, id uuid.UUID) (*models.Category, error) {
	query := squirrel.Select(categoryColumns...).
		From("categories").
		Where(squirrel.Eq{"id": id, "owner_id": ownerID}).
		PlaceholderFormat(squirrel.Dollar)

	return r.getOne(ctx, query)
}

// FindOrCreate relies on the unique (owner_id, name) index: the no-op update
// makes RETURNING yield the existing row, so concurrent callers converge on
// one category.
func (r *CategoryRepository) FindOrCreate(ctx context.Context, ownerID int64, name string) (*models.Category, error) {
	query := squirrel.Insert("categories").
		Columns("id", "owner_id", "name", "created_at").
		Values(uuid.New(), ownerID, name, time.Now()).
		Suffix("ON CONFLICT (owner_id, name) DO UPDATE SET name = EXCLUDED.name RETURNING id, owner_id, name, icon, color, spending_limit, created_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var cat models.Category
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&cat.ID, &cat.OwnerID, &cat.Name, &cat.Icon, &cat.Color, &cat.Limit, &cat.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &cat, nil
}

func (r *CategoryRepository) getOne(ctx context.Context, query squirrel.SelectBuilder) (*models.Category, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var cat models.Category
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&cat.ID, &cat.OwnerID, &cat.Name, &cat.Icon, &cat.Color, &cat.Limit, &cat.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &cat, nil
}
