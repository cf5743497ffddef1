package service

import (
	"context"
	"fmt"
	"io"

	"expense-ingest/internal/classifier"
	"expense-ingest/internal/models"
	"expense-ingest/internal/statement"
	"expense-ingest/pkg/config"

	"go.uber.org/zap"
)

// ModelProvider bundles the external classification tier with the feedback
// target it learns from. Either may be nil.
type ModelProvider struct {
	Classifier classifier.ModelClassifier
	Feedback   FeedbackSender
	closer     io.Closer
}

func (p *ModelProvider) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// NewModelProvider selects the external model from cfg.ML.Provider.
func NewModelProvider(ctx context.Context, cfg *config.Config, keywords classifier.KeywordTable, logger *zap.Logger) (*ModelProvider, error) {
	switch cfg.ML.Provider {
	case "http":
		ml := NewMLClient(&cfg.ML, logger.Named("ml"))
		return &ModelProvider{Classifier: ml, Feedback: ml}, nil
	case "gigachat":
		categories := append(keywords.Categories(), models.DefaultCategory)
		giga, err := NewGigaChatClassifier(ctx, &cfg.GigaChat, &cfg.ML, categories, logger.Named("gigachat"))
		if err != nil {
			return nil, err
		}
		p := &ModelProvider{Classifier: giga, closer: giga}
		if cfg.ML.URL != "" {
			p.Feedback = NewMLClient(&cfg.ML, logger.Named("ml"))
		}
		return p, nil
	case "none":
		logger.Info("External classifier disabled")
		return &ModelProvider{}, nil
	}
	return nil, fmt.Errorf("unknown ML provider %q", cfg.ML.Provider)
}

// NewTextRecognizer selects the OCR fallback from cfg.OCR.Provider. It
// returns nil when OCR is disabled.
func NewTextRecognizer(cfg *config.OCRConfig, logger *zap.Logger) statement.TextRecognizer {
	switch cfg.Provider {
	case "http":
		return NewOCRClient(cfg, logger.Named("ocr"))
	case "tesseract":
		return NewTesseractOCR(cfg, logger.Named("ocr"))
	}
	logger.Info("OCR fallback disabled")
	return nil
}

// NewStatementDispatcher registers the CSV and PDF extractors.
func NewStatementDispatcher(cfg *config.Config, logger *zap.Logger) *statement.Dispatcher {
	registry := statement.NewRegistry()
	registry.Register(statement.NewCSVExtractor(logger.Named("csv")))
	registry.Register(statement.NewPDFExtractor(
		statement.NewPDFTextReader(cfg.PDF.Engine, logger.Named("pdf")),
		NewTextRecognizer(&cfg.OCR, logger),
		logger.Named("pdf"),
	))
	return statement.NewDispatcher(registry, logger.Named("dispatcher"))
}

// LoadKeywords returns the table from cfg.Classifier.KeywordsFile, or the
// built-in one when no file is configured.
func LoadKeywords(cfg *config.ClassifierConfig, logger *zap.Logger) (classifier.KeywordTable, error) {
	if cfg.KeywordsFile == "" {
		return classifier.DefaultKeywordTable(), nil
	}
	table, err := classifier.LoadKeywordTable(cfg.KeywordsFile)
	if err != nil {
		return classifier.KeywordTable{}, err
	}
	logger.Info("Keyword table loaded",
		zap.String("file", cfg.KeywordsFile),
		zap.Int("rules", table.Len()),
	)
	return table, nil
}
