package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errNoFeedbackTarget = errors.New("no feedback target configured")

type FeedbackService struct {
	expenses   ExpenseStore
	categories CategoryStore
	sender     FeedbackSender
	logger     *zap.Logger
}

// NewFeedbackService builds the recorder. sender may be nil when no model
// accepts feedback; every call then fails with ErrFeedbackDelivery.
func NewFeedbackService(expenses ExpenseStore, categories CategoryStore, sender FeedbackSender, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{
		expenses:   expenses,
		categories: categories,
		sender:     sender,
		logger:     logger,
	}
}

// RecordFeedback teaches the model that the expense belongs to the category.
// Both must belong to ownerID.
func (s *FeedbackService) RecordFeedback(ctx context.Context, ownerID int64, expenseID, categoryID uuid.UUID) error {
	exp, err := s.expenses.GetByID(ctx, ownerID, expenseID)
	if err != nil {
		return fmt.Errorf("%w: failed to get expense: %w", ErrPersistence, err)
	}
	if exp == nil {
		return fmt.Errorf("%w: expense %s", ErrNotFound, expenseID)
	}

	cat, err := s.categories.GetByID(ctx, ownerID, categoryID)
	if err != nil {
		return fmt.Errorf("%w: failed to get category: %w", ErrPersistence, err)
	}
	if cat == nil {
		return fmt.Errorf("%w: category %s", ErrNotFound, categoryID)
	}

	if s.sender == nil {
		return fmt.Errorf("%w: %w", ErrFeedbackDelivery, errNoFeedbackTarget)
	}
	if err := s.sender.SendFeedback(ctx, exp.Description, cat.Name); err != nil {
		return fmt.Errorf("%w: %w", ErrFeedbackDelivery, err)
	}

	s.logger.Info("Feedback recorded",
		zap.Int64("owner_id", ownerID),
		zap.String("expense_id", expenseID.String()),
		zap.String("category", cat.Name),
	)
	return nil
}

func (s *FeedbackService) RequestRetrain(ctx context.Context) error {
	if s.sender == nil {
		return fmt.Errorf("%w: %w", ErrFeedbackDelivery, errNoFeedbackTarget)
	}
	if err := s.sender.Retrain(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrFeedbackDelivery, err)
	}
	return nil
}
