package service

import (
	"context"

	"expense-ingest/internal/classifier"
	"expense-ingest/internal/models"

	"github.com/google/uuid"
)

// StatementExtractor turns an uploaded file into raw transactions.
type StatementExtractor interface {
	Extract(ctx context.Context, fileName string, data []byte) ([]models.RawTransaction, error)
}

// TransactionClassifier always yields a category name.
type TransactionClassifier interface {
	Classify(ctx context.Context, ownerID int64, description string) classifier.Result
}

type CategoryStore interface {
	FindOrCreate(ctx context.Context, ownerID int64, name string) (*models.Category, error)
	GetByID(ctx context.Context, ownerID int64, id uuid.UUID) (*models.Category, error)
}

type ExpenseStore interface {
	Create(ctx context.Context, e *models.Expense) error
	GetByID(ctx context.Context, ownerID int64, id uuid.UUID) (*models.Expense, error)
}

// StatementLog records ingestion attempts. It is optional.
type StatementLog interface {
	Create(ctx context.Context, st *models.Statement) error
	Finish(ctx context.Context, id uuid.UUID, status models.StatementStatus, expenseCount int, errMsg string) error
	ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]*models.Statement, error)
}

// FeedbackSender delivers labelled examples to the model for online learning.
type FeedbackSender interface {
	SendFeedback(ctx context.Context, text, label string) error
	Retrain(ctx context.Context) error
}
