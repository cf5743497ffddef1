package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expense-ingest/internal/models"
	"expense-ingest/internal/statement"
	"expense-ingest/pkg/textnorm"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type IngestionService struct {
	extractor  StatementExtractor
	classifier TransactionClassifier
	categories CategoryStore
	expenses   ExpenseStore
	statements StatementLog
	now        func() time.Time
	logger     *zap.Logger
}

// NewIngestionService wires the pipeline. statements may be nil.
func NewIngestionService(
	extractor StatementExtractor,
	classifier TransactionClassifier,
	categories CategoryStore,
	expenses ExpenseStore,
	statements StatementLog,
	logger *zap.Logger,
) *IngestionService {
	return &IngestionService{
		extractor:  extractor,
		classifier: classifier,
		categories: categories,
		expenses:   expenses,
		statements: statements,
		now:        time.Now,
		logger:     logger,
	}
}

// Ingest extracts, classifies and stores every debit of a statement file, in
// file order. When processing stops early the expenses created so far are
// returned together with the error.
func (s *IngestionService) Ingest(ctx context.Context, ownerID int64, fileName string, data []byte) ([]*models.Expense, error) {
	stmt := s.openStatement(ctx, ownerID, fileName, len(data))

	created, err := s.ingest(ctx, ownerID, fileName, data, stmt)
	s.finishStatement(ctx, stmt, created, err)

	if err != nil {
		s.logger.Warn("Statement ingestion stopped",
			zap.String("file", fileName),
			zap.Int64("owner_id", ownerID),
			zap.Int("created", len(created)),
			zap.Error(err),
		)
		return created, err
	}

	s.logger.Info("Statement ingested",
		zap.String("file", fileName),
		zap.Int64("owner_id", ownerID),
		zap.Int("expenses", len(created)),
	)
	return created, nil
}

func (s *IngestionService) ingest(ctx context.Context, ownerID int64, fileName string, data []byte, stmt *models.Statement) ([]*models.Expense, error) {
	// 1. Extract raw rows
	raw, err := s.extractor.Extract(ctx, fileName, data)
	if err != nil {
		return nil, err
	}

	var statementID *uuid.UUID
	if stmt != nil {
		statementID = &stmt.ID
	}

	created := make([]*models.Expense, 0, len(raw))
	for i, rt := range raw {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		// 2. Normalize
		tx := s.normalize(rt)
		if tx.Description == "" {
			s.logger.Debug("Transaction without description", zap.Int("index", i))
		}

		// 3. Classify; never fails
		result := s.classifier.Classify(ctx, ownerID, tx.Description)

		if err := ctx.Err(); err != nil {
			return created, err
		}

		// 4. Resolve category
		cat, err := s.categories.FindOrCreate(ctx, ownerID, result.CategoryName)
		if err != nil {
			return created, fmt.Errorf("%w: failed to resolve category %q: %w", ErrPersistence, result.CategoryName, err)
		}

		// 5. Persist
		exp := &models.Expense{
			ID:             uuid.New(),
			OwnerID:        ownerID,
			CategoryID:     cat.ID,
			CategoryName:   cat.Name,
			StatementID:    statementID,
			Description:    tx.Description,
			DescriptionKey: textnorm.Fold(tx.Description),
			Amount:         tx.Amount,
			Date:           tx.Date,
			CreatedAt:      s.now(),
		}
		if err := s.expenses.Create(ctx, exp); err != nil {
			return created, fmt.Errorf("%w: failed to create expense: %w", ErrPersistence, err)
		}

		s.logger.Debug("Expense created",
			zap.String("id", exp.ID.String()),
			zap.String("category", cat.Name),
			zap.Stringer("tier", result.Tier),
		)
		created = append(created, exp)
	}

	return created, nil
}

func (s *IngestionService) normalize(rt models.RawTransaction) models.NormalizedTransaction {
	return models.NormalizedTransaction{
		Description: strings.TrimSpace(sanitizeUTF8(rt.Description)),
		Amount:      statement.NormalizeAmount(rt.Amount),
		Date:        statement.NormalizeDate(rt.Date, s.now()),
	}
}

func (s *IngestionService) openStatement(ctx context.Context, ownerID int64, fileName string, size int) *models.Statement {
	if s.statements == nil {
		return nil
	}

	now := s.now()
	stmt := &models.Statement{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		FileName:  fileName,
		Format:    statement.FormatOf(fileName),
		FileSize:  int64(size),
		Status:    models.StatementStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.statements.Create(ctx, stmt); err != nil {
		s.logger.Warn("Failed to record statement", zap.String("file", fileName), zap.Error(err))
		return nil
	}
	return stmt
}

func (s *IngestionService) finishStatement(ctx context.Context, stmt *models.Statement, created []*models.Expense, ingestErr error) {
	if stmt == nil {
		return
	}

	status := models.StatementStatusCompleted
	var errMsg string
	if ingestErr != nil {
		errMsg = ingestErr.Error()
		status = models.StatementStatusFailed
		if len(created) > 0 {
			status = models.StatementStatusPartial
		}
	}

	// the upload may already be cancelled; the outcome is still recorded
	ctx = context.WithoutCancel(ctx)
	if err := s.statements.Finish(ctx, stmt.ID, status, len(created), errMsg); err != nil {
		s.logger.Warn("Failed to finish statement",
			zap.String("statement_id", stmt.ID.String()),
			zap.Error(err),
		)
	}
}

// ListStatements returns the owner's ingestion log, newest first.
func (s *IngestionService) ListStatements(ctx context.Context, ownerID int64, limit, offset int) ([]*models.Statement, error) {
	if s.statements == nil {
		return []*models.Statement{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.statements.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	return list, nil
}

// IsPartial reports whether err left a usable prefix behind.
func IsPartial(err error) bool {
	return errors.Is(err, ErrPersistence) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
