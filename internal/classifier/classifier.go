// Package classifier assigns a category name to a transaction description by
// trying, in order, the owner's history, a keyword table, an external model
// and finally the default category.
package classifier

import (
	"context"
	"strings"

	"expense-ingest/internal/models"
	"expense-ingest/pkg/textnorm"

	"go.uber.org/zap"
)

type Tier int

const (
	TierHistory Tier = iota + 1
	TierKeyword
	TierExternalModel
	TierDefault
)

func (t Tier) String() string {
	switch t {
	case TierHistory:
		return "history"
	case TierKeyword:
		return "keyword"
	case TierExternalModel:
		return "external_model"
	case TierDefault:
		return "default"
	}
	return "unknown"
}

// Result always carries a category name.
type Result struct {
	CategoryName string
	Tier         Tier
}

// HistoryLookup returns the owner's most recent expense whose description
// key matches, or nil.
type HistoryLookup interface {
	FindMostRecentByDescription(ctx context.Context, ownerID int64, descriptionKey string) (*models.Expense, error)
}

// ModelClassifier predicts a category label for a normalized description.
type ModelClassifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

type Classifier struct {
	history  HistoryLookup
	keywords KeywordTable
	model    ModelClassifier
	logger   *zap.Logger
}

// New builds a Classifier. model may be nil, in which case the external tier
// is skipped.
func New(history HistoryLookup, keywords KeywordTable, model ModelClassifier, logger *zap.Logger) *Classifier {
	return &Classifier{
		history:  history,
		keywords: keywords,
		model:    model,
		logger:   logger,
	}
}

type tier struct {
	kind    Tier
	resolve func(ctx context.Context, ownerID int64, key string) (string, bool)
}

// Classify never fails; a tier that errors is logged and skipped.
func (c *Classifier) Classify(ctx context.Context, ownerID int64, description string) Result {
	key := textnorm.Fold(description)
	if key == "" {
		return Result{CategoryName: models.DefaultCategory, Tier: TierDefault}
	}

	tiers := []tier{
		{TierHistory, c.fromHistory},
		{TierKeyword, c.fromKeywords},
		{TierExternalModel, c.fromModel},
	}
	for _, t := range tiers {
		if name, found := t.resolve(ctx, ownerID, key); found {
			c.logger.Debug("Transaction classified",
				zap.String("description", key),
				zap.String("category", name),
				zap.Stringer("tier", t.kind),
			)
			return Result{CategoryName: name, Tier: t.kind}
		}
	}

	return Result{CategoryName: models.DefaultCategory, Tier: TierDefault}
}

func (c *Classifier) fromHistory(ctx context.Context, ownerID int64, key string) (string, bool) {
	if c.history == nil {
		return "", false
	}

	prev, err := c.history.FindMostRecentByDescription(ctx, ownerID, key)
	if err != nil {
		c.logger.Warn("History lookup failed", zap.Int64("owner_id", ownerID), zap.Error(err))
		return "", false
	}
	if prev == nil || strings.TrimSpace(prev.CategoryName) == "" {
		return "", false
	}
	return prev.CategoryName, true
}

func (c *Classifier) fromKeywords(_ context.Context, _ int64, key string) (string, bool) {
	return c.keywords.Match(key)
}

func (c *Classifier) fromModel(ctx context.Context, _ int64, key string) (string, bool) {
	if c.model == nil {
		return "", false
	}

	label, err := c.model.Classify(ctx, key)
	if err != nil {
		c.logger.Warn("External classifier unavailable", zap.Error(err))
		return "", false
	}
	if strings.TrimSpace(label) == "" {
		return "", false
	}
	return CanonicalLabel(label), true
}
